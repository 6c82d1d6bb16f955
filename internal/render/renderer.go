package render

import (
	"fmt"
	"strconv"

	"github.com/san-kum/clustermap/internal/geo"
)

// Renderer draws a selection onto a Map, replacing whatever it drew before.
type Renderer struct {
	Palette Palette

	drawn *Group
	seq   int
}

func NewRenderer(p Palette) *Renderer {
	if len(p) == 0 {
		p = DefaultPalette
	}
	return &Renderer{Palette: p}
}

// Draw removes the previously drawn group from m and adds the frame for sel.
func (r *Renderer) Draw(m Map, sel geo.Selection) *Group {
	if r.drawn != nil && m.HasLayer(r.drawn) {
		m.RemoveLayer(r.drawn)
	}
	g := Frame(sel, r.Palette)
	r.seq++
	g.ID = fmt.Sprintf("%s#%d", g.ID, r.seq)
	m.AddLayer(g)
	r.drawn = g
	return g
}

// Drawn returns the group currently on the map, if any.
func (r *Renderer) Drawn() *Group { return r.drawn }

// Frame builds the layers for one selection. Clusters with a population of
// zero or less are skipped; a hull polygon is emitted only when the cluster
// has a hull.
func Frame(sel geo.Selection, p Palette) *Group {
	g := &Group{}
	slice := sel.Slice()
	if slice == nil {
		g.ID = "empty"
		return g
	}
	g.ID = fmt.Sprintf("%s/%d", sel.Metric.Name, slice.Time)

	for _, k := range slice.Populated() {
		c := slice.Clusters[k]
		color := p.Color(k)
		prefix := fmt.Sprintf("%s/%d", g.ID, k)

		if c.HasHull() {
			ring := make([]geo.LatLon, len(c.Hull))
			copy(ring, c.Hull)
			g.AddLayer(&Polygon{
				ID:         prefix + "/hull",
				Cluster:    k,
				Population: c.Population,
				Ring:       ring,
				Style:      HullStyle.WithColor(color),
				Popup:      HullPopup(k, c),
			})
		}

		g.AddLayer(&CircleMarker{
			ID:         prefix + "/marker",
			Cluster:    k,
			Population: c.Population,
			Center:     c.Center(),
			Radius:     Radius(c.Population),
			Style:      MarkerStyle.WithColor(color),
			Popup:      MarkerPopup(k, c),
		})
	}
	return g
}

func HullPopup(k int, c *geo.Cluster) string {
	return "Population of cluster #" + strconv.Itoa(k) + ": " + num(c.Population)
}

func MarkerPopup(k int, c *geo.Cluster) string {
	return "<b>Cluster #" + strconv.Itoa(k) + "</b> at " + num(c.Lat) + ", " + num(c.Lon) +
		"<br />Has " + num(c.Population) + " points"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
