package viz

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

// markerScale converts circle marker pixels to dots.
const markerScale = 1 / pixelsPerDot

// TerminalMap is a render.Map drawn on a Braille canvas.
type TerminalMap struct {
	render.LayerSet
	view Viewport
	cols int
	rows int
}

// NewTerminalMap creates a map of cols x rows terminal cells.
func NewTerminalMap(cols, rows int) *TerminalMap {
	t := &TerminalMap{cols: cols, rows: rows}
	t.view = NewViewport(geo.LatLon{}, 0, cols*2, rows*4)
	return t
}

func (t *TerminalMap) SetView(center geo.LatLon, zoom int) {
	t.LayerSet.SetView(center, zoom)
	t.view = NewViewport(center, zoom, t.cols*2, t.rows*4)
}

func (t *TerminalMap) Fit(b orb.Bound) {
	t.view.Fit(b)
}

func (t *TerminalMap) Resize(cols, rows int) {
	if cols < 1 || rows < 1 {
		return
	}
	t.cols, t.rows = cols, rows
	t.view.Width, t.view.Height = cols*2, rows*4
}

func (t *TerminalMap) ZoomBy(delta float64) { t.view.ZoomBy(delta) }

func (t *TerminalMap) Pan(fx, fy float64) { t.view.Pan(fx, fy) }

func (t *TerminalMap) Viewport() Viewport { return t.view }

// Canvas rasterizes every layer in drawing order. focus, when not negative,
// doubles the ring of that cluster's marker.
func (t *TerminalMap) Canvas(focus int) *Canvas {
	c := NewCanvas(t.cols, t.rows)
	t.Each(func(l render.Layer) {
		switch v := l.(type) {
		case *render.Polygon:
			t.drawRing(c, v.Ring, v.Style.Color)
		case *render.CircleMarker:
			x, y := t.view.Project(v.Center)
			r := int(math.Round(v.Radius * markerScale))
			c.DrawCircle(x, y, r, v.Style.Color)
			if v.Cluster == focus {
				c.DrawCircle(x, y, r+2, v.Style.Color)
			}
		}
	})
	return c
}

func (t *TerminalMap) drawRing(c *Canvas, ring []geo.LatLon, color string) {
	if len(ring) == 0 {
		return
	}
	px, py := t.view.Project(ring[len(ring)-1])
	for _, p := range ring {
		x, y := t.view.Project(p)
		c.DrawLine(px, py, x, y, color)
		px, py = x, y
	}
}
