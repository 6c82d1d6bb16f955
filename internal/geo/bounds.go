package geo

import "github.com/paulmach/orb"

// Point converts to orb's [lon, lat] order.
func (p LatLon) Point() orb.Point { return orb.Point{p[1], p[0]} }

func FromPoint(p orb.Point) LatLon { return LatLon{p[1], p[0]} }

// Bounds returns the lon/lat bounding box of every cluster centroid and hull
// point of the given metrics. ok is false when there is nothing to bound.
func Bounds(metrics ...*Metric) (b orb.Bound, ok bool) {
	extend := func(p orb.Point) {
		if !ok {
			b, ok = orb.Bound{Min: p, Max: p}, true
			return
		}
		b = b.Extend(p)
	}
	for _, m := range metrics {
		if m == nil {
			continue
		}
		for _, s := range m.Times {
			for _, c := range s.Clusters {
				if c == nil {
					continue
				}
				extend(c.Center().Point())
				for _, h := range c.Hull {
					extend(h.Point())
				}
			}
		}
	}
	return b, ok
}
