package dataset

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/san-kum/clustermap/internal/config"
	"github.com/san-kum/clustermap/internal/geo"
)

// Dataset is every metric of one visualization, in configuration order.
type Dataset struct {
	Metrics []*geo.Metric
}

// Lookup finds a metric by short key or full name.
func (d *Dataset) Lookup(key string) (*geo.Metric, error) {
	key = strings.ToLower(key)
	for _, m := range d.Metrics {
		if m.Key() == key || strings.ToLower(m.Name) == key {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", key, ErrUnknownMetric)
}

func (d *Dataset) Names() []string {
	names := make([]string, len(d.Metrics))
	for i, m := range d.Metrics {
		names[i] = m.Name
	}
	return names
}

// Load builds every metric named by cfg, one goroutine per metric. The
// result keeps configuration order; the first failing metric in that order
// decides the error.
func Load(cfg *config.Config, log *slog.Logger) (*Dataset, error) {
	if log == nil {
		log = slog.Default()
	}
	if len(cfg.Metrics) == 0 {
		return nil, ErrNoMetrics
	}

	metrics := make([]*geo.Metric, len(cfg.Metrics))
	errs := make([]error, len(cfg.Metrics))

	var wg sync.WaitGroup
	for i, mc := range cfg.Metrics {
		wg.Add(1)
		go func(idx int, mc config.MetricConfig) {
			defer wg.Done()
			metrics[idx], errs[idx] = LoadMetric(cfg, mc)
		}(i, mc)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", cfg.Metrics[i].Name, err)
		}
	}
	for _, m := range metrics {
		log.Info("metric loaded", "metric", m.Name, "key", m.Key(), "slices", m.Len())
	}
	return &Dataset{Metrics: metrics}, nil
}

func LoadMetric(cfg *config.Config, mc config.MetricConfig) (*geo.Metric, error) {
	var (
		clusters [][]geo.ClusterTuple
		hulls    [][]geo.Hull
		err      error
	)
	switch {
	case mc.CentersDir != "":
		clusters, err = LoadCentersDir(cfg.Resolve(mc.CentersDir), mc.Prefix)
	case mc.Clusters != "":
		clusters, err = LoadClusters(cfg.Resolve(mc.Clusters))
	default:
		return nil, fmt.Errorf("no clusters source")
	}
	if err != nil {
		return nil, err
	}

	if mc.Hulls != "" {
		if hulls, err = LoadHulls(cfg.Resolve(mc.Hulls)); err != nil {
			return nil, err
		}
	}
	return geo.BuildMetric(mc.Name, clusters, hulls)
}
