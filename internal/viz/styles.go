package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title    lipgloss.Style
	subtle   lipgloss.Style
	button   lipgloss.Style
	selected lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	panel    lipgloss.Style
	popup    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(t.Secondary),
		subtle: lipgloss.NewStyle().Foreground(t.Muted),
		button: lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1),
		selected: lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(t.Primary).
			Background(t.Selected),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(11),
		value: lipgloss.NewStyle().Foreground(t.Text),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2),
		popup: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Accent).
			Foreground(t.Text).
			Padding(0, 1),
	}
}

// SliderBar renders value within [min, max] as a track with a knob.
func SliderBar(value, min, max, width int) string {
	if width < 3 {
		width = 3
	}
	inner := width - 2
	pos := 0
	if max > min {
		pos = (value - min) * (inner - 1) / (max - min)
	}
	if pos < 0 {
		pos = 0
	}
	if pos > inner-1 {
		pos = inner - 1
	}
	return "├" + strings.Repeat("─", pos) + "●" + strings.Repeat("─", inner-1-pos) + "┤"
}

func Separator(width int, st lipgloss.Style) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return st.Render(left + " ◆ " + right)
}

// visible nudges a palette color away from the background so dark palette
// entries stay readable on dark terminals and light ones on light themes.
func visible(color, bg string) string {
	if bg == "" {
		return color
	}
	r, g, b := parseHex(color)
	br, bgG, bb := parseHex(bg)
	if absInt(luma(r, g, b)-luma(br, bgG, bb)) >= 64 {
		return color
	}
	target := 255
	if luma(br, bgG, bb) > 127 {
		target = 0
	}
	mix := func(v int) int { return v + (target-v)/2 }
	return hexColor(mix(r), mix(g), mix(b))
}

func luma(r, g, b int) int {
	return (299*r + 587*g + 114*b) / 1000
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	r = parseHexByte(hex[1:3])
	g = parseHexByte(hex[3:5])
	b = parseHexByte(hex[5:7])
	return
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		if c >= '0' && c <= '9' {
			val += int(c - '0')
		} else if c >= 'a' && c <= 'f' {
			val += int(c - 'a' + 10)
		} else if c >= 'A' && c <= 'F' {
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
