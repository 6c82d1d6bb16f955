package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

const (
	KindHull   = "hull"
	KindMarker = "marker"
)

// GeoJSON converts a frame to a FeatureCollection. Hulls become closed
// counter-clockwise polygons, markers become points; coordinates are lon/lat.
// Hulls of fewer than three points are kept as line strings.
func GeoJSON(frame *render.Group) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if frame == nil {
		return fc
	}
	frame.Each(func(l render.Layer) {
		switch v := l.(type) {
		case *render.Polygon:
			if len(v.Ring) == 0 {
				return
			}
			f := geojson.NewFeature(hullGeometry(v.Ring))
			f.ID = v.ID
			f.Properties["kind"] = KindHull
			f.Properties["cluster"] = v.Cluster
			f.Properties["population"] = v.Population
			f.Properties["popup"] = v.Popup
			setStyle(f.Properties, v.Style)
			fc.Append(f)
		case *render.CircleMarker:
			f := geojson.NewFeature(v.Center.Point())
			f.ID = v.ID
			f.Properties["kind"] = KindMarker
			f.Properties["cluster"] = v.Cluster
			f.Properties["population"] = v.Population
			f.Properties["radius"] = v.Radius
			f.Properties["popup"] = v.Popup
			setStyle(f.Properties, v.Style)
			fc.Append(f)
		}
	})
	return fc
}

func setStyle(p geojson.Properties, st render.Style) {
	p["color"] = st.Color
	p["opacity"] = st.Opacity
	p["fillOpacity"] = st.FillOpacity
	if st.Weight > 0 {
		p["weight"] = st.Weight
	}
}

func hullGeometry(pts []geo.LatLon) orb.Geometry {
	if len(pts) >= 3 {
		return orb.Polygon{closedRing(pts)}
	}
	ls := make(orb.LineString, 0, 2)
	for _, p := range pts {
		ls = append(ls, p.Point())
	}
	if len(ls) == 1 {
		ls = append(ls, ls[0])
	}
	return ls
}

func closedRing(pts []geo.LatLon) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, p.Point())
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	if ring.Orientation() != orb.CCW {
		ring.Reverse()
	}
	return ring
}
