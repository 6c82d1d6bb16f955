package render

import "math"

// Palette maps cluster ids to colors. The color of id k is always
// p[k mod len(p)], whatever the metric or time slice.
type Palette []string

const fallbackColor = "#3388ff"

var DefaultPalette = Palette{
	"#ff0000", "#906090", "#239837", "#000030", "#d2691e",
	"#ff69b4", "#20b2aa", "#1e90ff", "#006400", "#a0522d",
	"#1387a9", "#003000", "#808080", "#923999", "#48989e",
	"#b22222", "#20958a", "#800000", "#6b8e23", "#ba7478",
	"#008b8b", "#483d8b", "#8a2be2", "#ff00ff", "#7b68ee",
	"#654321", "#2e8b57", "#983490", "#a52a2a", "#ff8c00",
	"#4682b4", "#8748a8", "#b8860b", "#a9a9a9", "#808000",
	"#be8378", "#bf8949", "#cd5c5c", "#8b0000", "#123456",
	"#ff6347", "#228b22", "#389218", "#ba55d3", "#00008b",
	"#ff7f50", "#708090", "#ba7ea7", "#405719", "#da70d6",
	"#556b2f", "#9400d3", "#ab477e", "#2f4f4f", "#fa8072",
	"#9a9a32", "#5f9ea0", "#101101", "#00a000", "#f08080",
	"#000080", "#ee82ee", "#9932cc", "#b72004", "#191970",
	"#4169e1", "#0987b3", "#696969", "#2e7a57", "#bd8747",
	"#ff1493", "#008080", "#498ba9", "#e9967a", "#8b4513",
	"#6a5acd", "#daa520", "#0000ff", "#394991", "#8b008b",
	"#000000", "#cd853f", "#778899", "#300000", "#800080",
	"#db7093", "#8387ba", "#ff4500", "#008000", "#0000a0",
	"#8c8f8f", "#d38887", "#a00000", "#bf883a", "#0000cd",
	"#89390a", "#73287a", "#ba8910", "#9370db", "#c71585",
	"#bc8f8f", "#4b0082", "#dc143c", "#6495ed", "#800850",
}

func (p Palette) Color(id int) string {
	if len(p) == 0 {
		return fallbackColor
	}
	k := id % len(p)
	if k < 0 {
		k += len(p)
	}
	return p[k]
}

// Radius is the circle marker radius in pixels for a population.
func Radius(pop float64) float64 {
	return 3 + math.Cbrt(pop)*2
}
