// Package viz draws cluster maps in the terminal.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: metric buttons, time slider and side panel around the map
//   - [TerminalMap]: a render.Map rasterized onto a Braille [Canvas]
//   - [Viewport]: Web Mercator projection from lat/lon to canvas dots
//
// # Key Bindings
//
//	e/r, 1-9 - Select metric
//	Tab      - Next metric
//	h/l      - Move the time slider
//	g/G      - First/last time slice
//	+/-      - Zoom, f to fit all clusters
//	H/J/K/L  - Pan
//	n        - Open the popup of the next cluster
//	t        - Cycle color themes
//	?        - Show help
package viz
