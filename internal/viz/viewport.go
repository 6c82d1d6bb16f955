package viz

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/san-kum/clustermap/internal/geo"
)

const (
	// metersPerPixelZ0 is the Web Mercator resolution of a 256px tile at zoom 0.
	metersPerPixelZ0 = 156543.03392804097
	// pixelsPerDot approximates one Braille dot in screen pixels.
	pixelsPerDot = 4.0
	minZoom      = 0
	maxZoom      = 20
)

// Viewport maps lat/lon to canvas dots through Web Mercator.
type Viewport struct {
	Center orb.Point // mercator meters
	Zoom   float64
	Width  int // dots
	Height int // dots
}

func NewViewport(center geo.LatLon, zoom int, w, h int) Viewport {
	return Viewport{
		Center: project.WGS84.ToMercator(center.Point()),
		Zoom:   float64(zoom),
		Width:  w,
		Height: h,
	}
}

func (v Viewport) metersPerDot() float64 {
	return metersPerPixelZ0 / math.Pow(2, v.Zoom) * pixelsPerDot
}

// Project returns the dot position of p.
func (v Viewport) Project(p geo.LatLon) (int, int) {
	m := project.WGS84.ToMercator(p.Point())
	res := v.metersPerDot()
	x := float64(v.Width)/2 + (m[0]-v.Center[0])/res
	y := float64(v.Height)/2 - (m[1]-v.Center[1])/res
	return int(math.Round(x)), int(math.Round(y))
}

// CenterLatLon returns the view center in geographic coordinates.
func (v Viewport) CenterLatLon() geo.LatLon {
	return geo.FromPoint(project.Mercator.ToWGS84(v.Center))
}

// Fit centers the bound and picks the largest zoom that shows all of it.
func (v *Viewport) Fit(b orb.Bound) {
	lo := project.WGS84.ToMercator(b.Min)
	hi := project.WGS84.ToMercator(b.Max)
	v.Center = orb.Point{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2}

	spanX, spanY := hi[0]-lo[0], hi[1]-lo[1]
	if spanX <= 0 && spanY <= 0 {
		return
	}
	// 10% margin on each side
	needX := spanX * 1.2 / float64(v.Width)
	needY := spanY * 1.2 / float64(v.Height)
	need := math.Max(needX, needY)
	zoom := math.Log2(metersPerPixelZ0 * pixelsPerDot / need)
	v.Zoom = math.Max(minZoom, math.Min(maxZoom, zoom))
}

func (v *Viewport) ZoomBy(delta float64) {
	v.Zoom = math.Max(minZoom, math.Min(maxZoom, v.Zoom+delta))
}

// Pan moves the center by a fraction of the view size.
func (v *Viewport) Pan(fx, fy float64) {
	res := v.metersPerDot()
	v.Center[0] += fx * float64(v.Width) * res
	v.Center[1] += fy * float64(v.Height) * res
}
