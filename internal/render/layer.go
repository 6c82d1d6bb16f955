package render

import "github.com/san-kum/clustermap/internal/geo"

// Layer is anything that can be added to or removed from a Map.
type Layer interface {
	LayerID() string
}

type Style struct {
	Color       string  `json:"color"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
	Weight      float64 `json:"weight,omitempty"`
}

var (
	HullStyle   = Style{Opacity: 0.6, FillOpacity: 0.2, Weight: 2}
	MarkerStyle = Style{Opacity: 0.9, FillOpacity: 0.5}
)

func (s Style) WithColor(c string) Style {
	s.Color = c
	return s
}

// Polygon is a filled cluster boundary.
type Polygon struct {
	ID         string       `json:"id"`
	Cluster    int          `json:"cluster"`
	Population float64      `json:"population"`
	Ring       []geo.LatLon `json:"ring"`
	Style      Style        `json:"style"`
	Popup      string       `json:"popup"`
}

func (p *Polygon) LayerID() string { return p.ID }

// CircleMarker is a cluster centroid; Radius is in screen pixels.
type CircleMarker struct {
	ID         string     `json:"id"`
	Cluster    int        `json:"cluster"`
	Population float64    `json:"population"`
	Center     geo.LatLon `json:"center"`
	Radius     float64    `json:"radius"`
	Style      Style      `json:"style"`
	Popup      string     `json:"popup"`
}

func (c *CircleMarker) LayerID() string { return c.ID }

// Group adds and removes a set of layers together.
type Group struct {
	ID     string
	Layers []Layer
}

func (g *Group) LayerID() string { return g.ID }

func (g *Group) AddLayer(l Layer) {
	g.Layers = append(g.Layers, l)
}

// Each visits every leaf layer, descending into nested groups.
func (g *Group) Each(fn func(Layer)) {
	for _, l := range g.Layers {
		if sub, ok := l.(*Group); ok {
			sub.Each(fn)
			continue
		}
		fn(l)
	}
}

func (g *Group) Len() int {
	n := 0
	g.Each(func(Layer) { n++ })
	return n
}
