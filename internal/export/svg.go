package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/orb/simplify"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

type SVGOptions struct {
	Width      int
	Height     int
	Background string
	// Simplify is the Douglas-Peucker tolerance in degrees; 0 keeps hulls as is.
	Simplify float64
}

func (o SVGOptions) withDefaults() SVGOptions {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Background == "" {
		o.Background = "#0a0a0a"
	}
	return o
}

// projector maps lat/lon to SVG pixels through Web Mercator with one scale
// for both axes and 10% padding.
type projector struct {
	min    orb.Point
	scale  float64
	offX   float64
	offY   float64
	height float64
}

func newProjector(b orb.Bound, w, h int) projector {
	lo := project.WGS84.ToMercator(b.Min)
	hi := project.WGS84.ToMercator(b.Max)
	rangeX := hi[0] - lo[0]
	rangeY := hi[1] - lo[1]
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	scale := math.Min(float64(w)/(rangeX*1.2), float64(h)/(rangeY*1.2))
	return projector{
		min:    lo,
		scale:  scale,
		offX:   (float64(w) - rangeX*scale) / 2,
		offY:   (float64(h) - rangeY*scale) / 2,
		height: float64(h),
	}
}

func (p projector) xy(ll geo.LatLon) (float64, float64) {
	m := project.WGS84.ToMercator(ll.Point())
	x := p.offX + (m[0]-p.min[0])*p.scale
	y := p.height - p.offY - (m[1]-p.min[1])*p.scale
	return x, y
}

// FrameBound returns the bound of every ring point and marker center.
func FrameBound(frame *render.Group) (orb.Bound, bool) {
	var b orb.Bound
	found := false
	extend := func(ll geo.LatLon) {
		if !found {
			b = ll.Point().Bound()
			found = true
			return
		}
		b = b.Extend(ll.Point())
	}
	if frame == nil {
		return b, false
	}
	frame.Each(func(l render.Layer) {
		switch v := l.(type) {
		case *render.Polygon:
			for _, p := range v.Ring {
				extend(p)
			}
		case *render.CircleMarker:
			extend(v.Center)
		}
	})
	return b, found
}

// SimplifyRing runs Douglas-Peucker over a hull ring. Rings that would drop
// below three points are returned unchanged.
func SimplifyRing(ring []geo.LatLon, tolerance float64) []geo.LatLon {
	if tolerance <= 0 || len(ring) <= 3 {
		return ring
	}
	ls := make(orb.LineString, len(ring))
	for i, p := range ring {
		ls[i] = p.Point()
	}
	s, ok := simplify.DouglasPeucker(tolerance).Simplify(ls.Clone()).(orb.LineString)
	if !ok || len(s) < 3 {
		return ring
	}
	out := make([]geo.LatLon, len(s))
	for i, p := range s {
		out[i] = geo.FromPoint(p)
	}
	return out
}

// SVG renders a frame as a standalone SVG document. Popups become <title>
// elements so viewers show them on hover.
func SVG(frame *render.Group, opts SVGOptions) string {
	opts = opts.withDefaults()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background))

	b, ok := FrameBound(frame)
	if !ok {
		sb.WriteString("</svg>")
		return sb.String()
	}
	proj := newProjector(b, opts.Width, opts.Height)

	frame.Each(func(l render.Layer) {
		switch v := l.(type) {
		case *render.Polygon:
			ring := SimplifyRing(v.Ring, opts.Simplify)
			pts := make([]string, len(ring))
			for i, p := range ring {
				x, y := proj.xy(p)
				pts[i] = fmt.Sprintf("%.1f,%.1f", x, y)
			}
			sb.WriteString(fmt.Sprintf(`<polygon id="%s" points="%s" stroke="%s" stroke-width="%g" stroke-opacity="%g" fill="%s" fill-opacity="%g"><title>%s</title></polygon>
`, html.EscapeString(v.ID), strings.Join(pts, " "), v.Style.Color, strokeWidth(v.Style), v.Style.Opacity,
				v.Style.Color, v.Style.FillOpacity, title(v.Popup)))
		case *render.CircleMarker:
			x, y := proj.xy(v.Center)
			sb.WriteString(fmt.Sprintf(`<circle id="%s" cx="%.1f" cy="%.1f" r="%.1f" stroke="%s" stroke-width="%g" stroke-opacity="%g" fill="%s" fill-opacity="%g"><title>%s</title></circle>
`, html.EscapeString(v.ID), x, y, v.Radius, v.Style.Color, strokeWidth(v.Style), v.Style.Opacity,
				v.Style.Color, v.Style.FillOpacity, title(v.Popup)))
		}
	})

	sb.WriteString("</svg>")
	return sb.String()
}

func title(popup string) string {
	return html.EscapeString(strings.ReplaceAll(render.PlainPopup(popup), "\n", " - "))
}

// defaultWeight is the stroke width the browser map uses for styles without one.
const defaultWeight = 3

func strokeWidth(st render.Style) float64 {
	if st.Weight > 0 {
		return st.Weight
	}
	return defaultWeight
}
