package geo

import (
	"errors"
	"fmt"
	"math"
)

// MaxClusterID bounds the id column; slices are indexed by id.
const MaxClusterID = 1 << 16

var (
	ErrUnknownCluster = errors.New("hull references unknown cluster")
	ErrShortTuple     = errors.New("tuple too short")
	ErrBadClusterID   = errors.New("cluster id not an integer in range")
)

// clusterID converts the id column. Negative ids are kept and append.
func clusterID(v float64) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v > MaxClusterID {
		return 0, ErrBadClusterID
	}
	if v < 0 {
		return -1, nil
	}
	return int(v), nil
}

// BuildMetric builds a metric from per-time cluster tuples and the matching
// per-time hull lists. A hull is attached to the cluster named by the id in
// its first point. Hull lists may be shorter than the cluster list.
func BuildMetric(name string, clusters [][]ClusterTuple, hulls [][]Hull) (*Metric, error) {
	m := NewMetric(name)
	for t, tuples := range clusters {
		slice := NewTimeSlice(t)
		for j, tup := range tuples {
			if len(tup) < 4 {
				return nil, fmt.Errorf("%s: time %d cluster %d: %w", name, t, j, ErrShortTuple)
			}
			id, err := clusterID(tup[2])
			if err != nil {
				return nil, fmt.Errorf("%s: time %d cluster %d id %v: %w", name, t, j, tup[2], err)
			}
			slice.AddCluster(NewCluster(tup[0], tup[1], tup[3]), id)
		}

		if t < len(hulls) {
			for j, h := range hulls[t] {
				if len(h) == 0 {
					continue
				}
				if len(h[0]) < 3 {
					return nil, fmt.Errorf("%s: time %d hull %d: %w", name, t, j, ErrShortTuple)
				}
				id, err := clusterID(h[0][2])
				if err != nil {
					return nil, fmt.Errorf("%s: time %d hull %d id %v: %w", name, t, j, h[0][2], err)
				}
				c, ok := slice.Cluster(id)
				if !ok {
					return nil, fmt.Errorf("%s: time %d hull %d owner %d: %w", name, t, j, id, ErrUnknownCluster)
				}
				c.AttachHull(h)
			}
		}

		m.AddTime(slice)
	}
	return m, nil
}
