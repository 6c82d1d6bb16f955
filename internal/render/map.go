package render

import "github.com/san-kum/clustermap/internal/geo"

// Map is the boundary to a map widget: the terminal canvas, a browser
// session or an in-memory recorder.
type Map interface {
	AddLayer(Layer)
	RemoveLayer(Layer)
	HasLayer(Layer) bool
	SetView(center geo.LatLon, zoom int)
}

// LayerSet is an in-memory Map. It keeps layers in insertion order and is
// embedded by the concrete widgets.
type LayerSet struct {
	layers []Layer
	Center geo.LatLon
	Zoom   int
}

func (s *LayerSet) AddLayer(l Layer) {
	if s.HasLayer(l) {
		return
	}
	s.layers = append(s.layers, l)
}

func (s *LayerSet) RemoveLayer(l Layer) {
	for i, cur := range s.layers {
		if cur.LayerID() == l.LayerID() {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return
		}
	}
}

func (s *LayerSet) HasLayer(l Layer) bool {
	if l == nil {
		return false
	}
	for _, cur := range s.layers {
		if cur.LayerID() == l.LayerID() {
			return true
		}
	}
	return false
}

func (s *LayerSet) SetView(center geo.LatLon, zoom int) {
	s.Center, s.Zoom = center, zoom
}

func (s *LayerSet) Layers() []Layer {
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// Each visits every leaf layer in drawing order.
func (s *LayerSet) Each(fn func(Layer)) {
	for _, l := range s.layers {
		if g, ok := l.(*Group); ok {
			g.Each(fn)
			continue
		}
		fn(l)
	}
}
