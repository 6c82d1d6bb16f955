package geo

import (
	"slices"
	"sort"
	"strings"
)

// LatLon is a [lat, lon] pair, the order the map widgets expect.
type LatLon [2]float64

func (p LatLon) Lat() float64 { return p[0] }
func (p LatLon) Lon() float64 { return p[1] }

// ClusterTuple is the positional input record (lat, lon, id, population).
type ClusterTuple []float64

// HullPoint is the positional hull record (lat, lon, cluster id). Only the
// first point of a hull is required to carry the id.
type HullPoint []float64

type Hull []HullPoint

type Cluster struct {
	Lat        float64
	Lon        float64
	Population float64
	Hull       []LatLon
}

func NewCluster(lat, lon, pop float64) *Cluster {
	return &Cluster{Lat: lat, Lon: lon, Population: pop}
}

// AttachHull stores the boundary of the cluster, dropping the id column.
func (c *Cluster) AttachHull(h Hull) {
	ring := make([]LatLon, 0, len(h))
	for _, p := range h {
		if len(p) < 2 {
			continue
		}
		ring = append(ring, LatLon{p[0], p[1]})
	}
	c.Hull = ring
}

func (c *Cluster) HasHull() bool { return len(c.Hull) > 0 }

func (c *Cluster) Center() LatLon { return LatLon{c.Lat, c.Lon} }

// TimeSlice holds the clusters valid at one time index. Clusters is indexed
// by cluster id; ids never supplied are nil.
type TimeSlice struct {
	Time     int
	Clusters []*Cluster
}

func NewTimeSlice(t int) *TimeSlice {
	return &TimeSlice{Time: t}
}

// AddCluster places c at position id, growing the slice as needed.
func (s *TimeSlice) AddCluster(c *Cluster, id int) {
	if id < 0 {
		s.Clusters = append(s.Clusters, c)
		return
	}
	if id >= len(s.Clusters) {
		s.Clusters = slices.Grow(s.Clusters, id+1-len(s.Clusters))
		s.Clusters = s.Clusters[:id+1]
	}
	s.Clusters[id] = c
}

func (s *TimeSlice) Len() int { return len(s.Clusters) }

func (s *TimeSlice) Cluster(id int) (*Cluster, bool) {
	if id < 0 || id >= len(s.Clusters) || s.Clusters[id] == nil {
		return nil, false
	}
	return s.Clusters[id], true
}

// Populated returns the ids of clusters with a positive population.
func (s *TimeSlice) Populated() []int {
	ids := make([]int, 0, len(s.Clusters))
	for id, c := range s.Clusters {
		if c != nil && c.Population > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *TimeSlice) TotalPopulation() float64 {
	total := 0.0
	for _, c := range s.Clusters {
		if c != nil && c.Population > 0 {
			total += c.Population
		}
	}
	return total
}

// Largest returns up to n populated cluster ids, most populated first.
func (s *TimeSlice) Largest(n int) []int {
	ids := s.Populated()
	sort.SliceStable(ids, func(i, j int) bool {
		return s.Clusters[ids[i]].Population > s.Clusters[ids[j]].Population
	})
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// Metric is one clustering result across all time slices.
type Metric struct {
	Name  string
	Times []*TimeSlice
}

func NewMetric(name string) *Metric {
	return &Metric{Name: name}
}

func (m *Metric) AddTime(s *TimeSlice) {
	m.Times = append(m.Times, s)
}

func (m *Metric) Len() int { return len(m.Times) }

// Slice returns the time slice at t, or nil when t is out of range.
func (m *Metric) Slice(t int) *TimeSlice {
	if t < 0 || t >= len(m.Times) {
		return nil
	}
	return m.Times[t]
}

// Key is the short selector of the metric: its first three letters.
func (m *Metric) Key() string {
	return ShortKey(m.Name)
}

func (m *Metric) PopulationSeries() []float64 {
	series := make([]float64, len(m.Times))
	for i, s := range m.Times {
		series[i] = s.TotalPopulation()
	}
	return series
}

// ShortKey returns the first three characters of the lowercased name.
func ShortKey(name string) string {
	r := []rune(strings.ToLower(name))
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// Selection is the explicit "current metric / current time" state shared by
// the selection controller and the renderer.
type Selection struct {
	Metric *Metric
	Time   int
}

func (s Selection) Slice() *TimeSlice {
	if s.Metric == nil {
		return nil
	}
	return s.Metric.Slice(s.Time)
}
