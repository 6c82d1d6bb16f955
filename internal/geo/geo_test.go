package geo

import (
	"errors"
	"math"
	"testing"
)

func sampleInput() ([][]ClusterTuple, [][]Hull) {
	clusters := [][]ClusterTuple{
		{
			{48.70, 44.50, 0, 12},
			{48.80, 44.80, 2, 0},
			{48.75, 44.60, 1, 5},
		},
		{
			{48.71, 44.51, 0, 10},
			{48.76, 44.61, 1, 7},
		},
	}
	hulls := [][]Hull{
		{
			{{48.69, 44.49, 0}, {48.71, 44.49, 0}, {48.70, 44.52, 0}},
			{{48.74, 44.59, 1}, {48.76, 44.59}, {48.75, 44.62}},
		},
	}
	return clusters, hulls
}

func TestBuildMetric(t *testing.T) {
	clusters, hulls := sampleInput()
	m, err := BuildMetric("euclid", clusters, hulls)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if m.Len() != 2 {
		t.Fatalf("expected 2 slices, got %d", m.Len())
	}
	if m.Key() != "euc" {
		t.Errorf("expected key euc, got %s", m.Key())
	}

	s0 := m.Slice(0)
	if s0.Len() != 3 {
		t.Errorf("expected 3 cluster slots, got %d", s0.Len())
	}
	c1, ok := s0.Cluster(1)
	if !ok {
		t.Fatal("cluster 1 missing")
	}
	if c1.Population != 5 || c1.Lat != 48.75 {
		t.Errorf("cluster 1 = %+v", c1)
	}
	if len(c1.Hull) != 3 {
		t.Errorf("expected hull of 3 points, got %d", len(c1.Hull))
	}
	if c1.Hull[1] != (LatLon{48.76, 44.59}) {
		t.Errorf("hull point = %v", c1.Hull[1])
	}

	c2, _ := s0.Cluster(2)
	if c2.HasHull() {
		t.Error("cluster 2 should have no hull")
	}

	s1 := m.Slice(1)
	if c, _ := s1.Cluster(0); c.HasHull() {
		t.Error("second slice has no hull input")
	}
	if m.Slice(2) != nil || m.Slice(-1) != nil {
		t.Error("out of range slice should be nil")
	}
}

func TestBuildMetric_UnknownHullOwner(t *testing.T) {
	clusters := [][]ClusterTuple{{{1, 1, 0, 3}}}
	hulls := [][]Hull{{{{1, 1, 4}, {2, 2}}}}

	_, err := BuildMetric("route", clusters, hulls)
	if !errors.Is(err, ErrUnknownCluster) {
		t.Errorf("expected ErrUnknownCluster, got %v", err)
	}
}

func TestBuildMetric_ShortTuple(t *testing.T) {
	_, err := BuildMetric("route", [][]ClusterTuple{{{1, 1, 0}}}, nil)
	if !errors.Is(err, ErrShortTuple) {
		t.Errorf("expected ErrShortTuple, got %v", err)
	}
}

func TestBuildMetric_BadClusterID(t *testing.T) {
	ids := []float64{5e7, MaxClusterID + 1, math.NaN(), math.Inf(1), 1.5}
	for _, id := range ids {
		_, err := BuildMetric("route", [][]ClusterTuple{{{1, 1, id, 3}}}, nil)
		if !errors.Is(err, ErrBadClusterID) {
			t.Errorf("id %v: expected ErrBadClusterID, got %v", id, err)
		}
	}

	hulls := [][]Hull{{{{1, 1, math.NaN()}, {2, 2}, {3, 1}}}}
	if _, err := BuildMetric("route", [][]ClusterTuple{{{1, 1, 0, 3}}}, hulls); !errors.Is(err, ErrBadClusterID) {
		t.Errorf("hull owner NaN: expected ErrBadClusterID, got %v", err)
	}
}

func TestBuildMetric_SparseIDs(t *testing.T) {
	m, err := BuildMetric("route", [][]ClusterTuple{{{1, 1, 40, 3}, {2, 2, MaxClusterID, 1}}}, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	s := m.Slice(0)
	if s.Len() != MaxClusterID+1 {
		t.Errorf("expected %d slots, got %d", MaxClusterID+1, s.Len())
	}
	if _, ok := s.Cluster(39); ok {
		t.Error("slot 39 should be empty")
	}
	if c, ok := s.Cluster(40); !ok || c.Population != 3 {
		t.Errorf("cluster 40 = %+v, %v", c, ok)
	}
}

func TestShortKey(t *testing.T) {
	cases := map[string]string{
		"euclid":  "euc",
		"Route":   "rou",
		"km":      "km",
		"евклид":  "евк",
		"Маршрут": "мар",
	}
	for name, want := range cases {
		if got := ShortKey(name); got != want {
			t.Errorf("ShortKey(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestTimeSlice_Populated(t *testing.T) {
	s := NewTimeSlice(0)
	s.AddCluster(NewCluster(0, 0, 4), 3)
	s.AddCluster(NewCluster(0, 0, 0), 0)
	s.AddCluster(NewCluster(0, 0, 9), 1)
	s.AddCluster(NewCluster(0, 0, -1), 5)

	ids := s.Populated()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Errorf("Populated() = %v, want [1 3]", ids)
	}
	if got := s.TotalPopulation(); got != 13 {
		t.Errorf("TotalPopulation() = %v, want 13", got)
	}
	if _, ok := s.Cluster(2); ok {
		t.Error("hole at id 2 should not resolve")
	}
	if largest := s.Largest(1); len(largest) != 1 || largest[0] != 1 {
		t.Errorf("Largest(1) = %v, want [1]", largest)
	}
}

func TestMetric_PopulationSeries(t *testing.T) {
	clusters, hulls := sampleInput()
	m, _ := BuildMetric("euclid", clusters, hulls)

	series := m.PopulationSeries()
	if len(series) != 2 || series[0] != 17 || series[1] != 17 {
		t.Errorf("PopulationSeries() = %v", series)
	}
}

func TestBounds(t *testing.T) {
	clusters, hulls := sampleInput()
	m, _ := BuildMetric("euclid", clusters, hulls)

	b, ok := Bounds(m, nil)
	if !ok {
		t.Fatal("expected bounds")
	}
	if b.Min[1] != 48.69 || b.Max[1] != 48.80 {
		t.Errorf("lat range = %v..%v", b.Min[1], b.Max[1])
	}
	if b.Min[0] != 44.49 || b.Max[0] != 44.80 {
		t.Errorf("lon range = %v..%v", b.Min[0], b.Max[0])
	}

	if _, ok := Bounds(NewMetric("empty")); ok {
		t.Error("empty metric should not produce bounds")
	}
}

func TestSelection_Slice(t *testing.T) {
	if (Selection{}).Slice() != nil {
		t.Error("zero selection should have no slice")
	}
	clusters, hulls := sampleInput()
	m, _ := BuildMetric("euclid", clusters, hulls)
	if s := (Selection{Metric: m, Time: 1}).Slice(); s == nil || s.Time != 1 {
		t.Errorf("unexpected slice %v", s)
	}
}
