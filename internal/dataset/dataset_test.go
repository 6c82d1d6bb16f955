package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/clustermap/internal/config"
	"github.com/san-kum/clustermap/internal/geo"
)

func TestLoadClusters(t *testing.T) {
	clusters, err := LoadClusters("testdata/kec.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(clusters) != 3 {
		t.Fatalf("expected 3 slices, got %d", len(clusters))
	}
	if got := clusters[0][2]; got[2] != 2 || got[3] != 35 {
		t.Errorf("unexpected tuple %v", got)
	}
}

func TestLoadClusters_JSDump(t *testing.T) {
	clusters, err := LoadClusters("testdata/krc.js")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(clusters) != 2 || len(clusters[1]) != 2 {
		t.Errorf("unexpected shape %v", clusters)
	}
}

func TestLoadHulls(t *testing.T) {
	hulls, err := LoadHulls("testdata/kep.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(hulls) != 2 || len(hulls[1]) != 3 {
		t.Fatalf("unexpected shape")
	}
	if owner := hulls[1][1][0][2]; owner != 1 {
		t.Errorf("expected owner 1, got %v", owner)
	}
}

func TestLoad_NoArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.js")
	if err := os.WriteFile(path, []byte("var x = 1;"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadClusters(path); !errors.Is(err, ErrNoArray) {
		t.Errorf("expected ErrNoArray, got %v", err)
	}
}

func TestLoadCentersDir(t *testing.T) {
	clusters, err := LoadCentersDir("testdata/km_eu", "e")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(clusters) != 3 {
		t.Fatalf("expected 3 iterations, got %d", len(clusters))
	}
	// numeric order: 1, 2, 10
	if clusters[2][0][0] != 48.72 {
		t.Errorf("iterations out of order: %v", clusters[2][0])
	}

	none, err := LoadCentersDir("testdata/km_eu", "r")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("prefix filter ignored: %d", len(none))
	}
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load("testdata/clustermap.yaml")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	ds, err := Load(cfg, nil)
	if err != nil {
		t.Fatalf("dataset failed: %v", err)
	}

	if names := ds.Names(); len(names) != 2 || names[0] != "euclid" || names[1] != "route" {
		t.Errorf("Names() = %v", names)
	}

	euc, err := ds.Lookup("euc")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if euc.Len() != 3 {
		t.Errorf("expected 3 slices, got %d", euc.Len())
	}
	c, _ := euc.Slice(1).Cluster(1)
	if !c.HasHull() {
		t.Error("hull not attached to cluster 1 of slice 1")
	}

	route, _ := ds.Lookup("Route")
	if c, _ := route.Slice(0).Cluster(1); len(c.Hull) != 3 {
		t.Errorf("route hull not attached: %+v", c)
	}

	if _, err := ds.Lookup("surface"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestLoad_CentersDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BaseDir = "testdata"
	cfg.Metrics = []config.MetricConfig{{Name: "euclid", CentersDir: "km_eu", Prefix: "e"}}

	ds, err := Load(cfg, nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	m := ds.Metrics[0]
	if m.Len() != 3 {
		t.Errorf("expected 3 slices, got %d", m.Len())
	}
	if c, _ := m.Slice(0).Cluster(0); c.HasHull() {
		t.Error("centers dumps carry no hulls")
	}
}

func TestLoad_Errors(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Metrics = nil
	if _, err := Load(cfg, nil); !errors.Is(err, ErrNoMetrics) {
		t.Errorf("expected ErrNoMetrics, got %v", err)
	}

	dir := t.TempDir()
	writeJSON := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	writeJSON("c.json", `[[[1, 1, 0, 3]]]`)
	writeJSON("h.json", `[[[[1, 1, 5], [2, 2]]]]`)

	cfg.BaseDir = dir
	cfg.Metrics = []config.MetricConfig{{Name: "broken", Clusters: "c.json", Hulls: "h.json"}}
	if _, err := Load(cfg, nil); !errors.Is(err, geo.ErrUnknownCluster) {
		t.Errorf("expected ErrUnknownCluster, got %v", err)
	}

	cfg.Metrics = []config.MetricConfig{{Name: "empty"}}
	if _, err := Load(cfg, nil); err == nil {
		t.Error("expected error for metric without source")
	}
}
