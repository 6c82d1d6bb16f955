package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/san-kum/clustermap/internal/export"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

const (
	metadataFile = "metadata.json"
	clustersFile = "clusters.csv"
)

var ErrNotFound = errors.New("snapshot not found")

// Store keeps snapshot bundles of rendered metrics, one directory each.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type SliceSummary struct {
	Time       int     `json:"time"`
	Clusters   int     `json:"clusters"`
	Population float64 `json:"population"`
}

type SnapshotMetadata struct {
	ID        string         `json:"id"`
	Metric    string         `json:"metric"`
	Key       string         `json:"key"`
	Timestamp time.Time      `json:"timestamp"`
	Slices    int            `json:"slices"`
	Totals    []SliceSummary `json:"totals"`
}

// ClusterRow is one line of clusters.csv.
type ClusterRow struct {
	Time       int
	ID         int
	Lat        float64
	Lon        float64
	Population float64
	HullPoints int
}

func sliceFile(t int) string {
	return fmt.Sprintf("slice_%d.geojson", t)
}

// Save writes metadata.json, clusters.csv and one GeoJSON frame per slice
// for m. Frames use palette p and skip empty clusters like the map does.
func (s *Store) Save(m *geo.Metric, p render.Palette) (string, error) {
	id, dir, err := s.newRunDir(m.Name)
	if err != nil {
		return "", err
	}

	meta := SnapshotMetadata{
		ID:        id,
		Metric:    m.Name,
		Key:       m.Key(),
		Timestamp: s.now(),
		Slices:    m.Len(),
		Totals:    make([]SliceSummary, 0, m.Len()),
	}
	for _, ts := range m.Times {
		meta.Totals = append(meta.Totals, SliceSummary{
			Time:       ts.Time,
			Clusters:   len(ts.Populated()),
			Population: ts.TotalPopulation(),
		})
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeClusters(filepath.Join(dir, clustersFile), m); err != nil {
		return "", err
	}
	for t := range m.Times {
		fc := export.GeoJSON(render.Frame(geo.Selection{Metric: m, Time: t}, p))
		if err := writeJSON(filepath.Join(dir, sliceFile(t)), fc); err != nil {
			return "", err
		}
	}
	return id, nil
}

func (s *Store) newRunDir(metric string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", metric, s.now().Unix())
	id := base
	for n := 2; ; n++ {
		dir := filepath.Join(s.baseDir, id)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", "", err
			}
			return id, dir, nil
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeClusters(path string, m *geo.Metric) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "id", "lat", "lon", "population", "hull_points"}); err != nil {
		return err
	}
	for _, ts := range m.Times {
		for id, c := range ts.Clusters {
			if c == nil {
				continue
			}
			row := []string{
				strconv.Itoa(ts.Time),
				strconv.Itoa(id),
				strconv.FormatFloat(c.Lat, 'f', -1, 64),
				strconv.FormatFloat(c.Lon, 'f', -1, 64),
				strconv.FormatFloat(c.Population, 'f', -1, 64),
				strconv.Itoa(len(c.Hull)),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable snapshot, newest first.
func (s *Store) List() ([]SnapshotMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SnapshotMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]SnapshotMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID > runs[j].ID
		}
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(id string) (*SnapshotMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}

	var meta SnapshotMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &meta, nil
}

// LoadClusters parses clusters.csv of a snapshot. Malformed rows are skipped.
func (s *Store) LoadClusters(id string) ([]ClusterRow, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, clustersFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []ClusterRow{}, nil
	}

	rows := make([]ClusterRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 6 {
			continue
		}
		row, err := parseRow(rec)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(rec []string) (ClusterRow, error) {
	var row ClusterRow
	var err error
	if row.Time, err = strconv.Atoi(rec[0]); err != nil {
		return row, err
	}
	if row.ID, err = strconv.Atoi(rec[1]); err != nil {
		return row, err
	}
	if row.Lat, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return row, err
	}
	if row.Lon, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return row, err
	}
	if row.Population, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return row, err
	}
	row.HullPoints, err = strconv.Atoi(rec[5])
	return row, err
}

// LoadSlice reads the GeoJSON frame stored for time t.
func (s *Store) LoadSlice(id string, t int) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, sliceFile(t)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s slice %d: %w", id, t, ErrNotFound)
		}
		return nil, err
	}
	return geojson.UnmarshalFeatureCollection(data)
}

// Restore rebuilds the metric of a snapshot from clusters.csv and the hull
// features of each slice. Hulls of empty clusters were never exported, so
// those clusters come back without one.
func (s *Store) Restore(id string) (*geo.Metric, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	rows, err := s.LoadClusters(id)
	if err != nil {
		return nil, err
	}

	clusters := make([][]geo.ClusterTuple, meta.Slices)
	for _, r := range rows {
		if r.Time < 0 || r.Time >= meta.Slices {
			continue
		}
		clusters[r.Time] = append(clusters[r.Time], geo.ClusterTuple{r.Lat, r.Lon, float64(r.ID), r.Population})
	}

	hulls := make([][]geo.Hull, meta.Slices)
	for t := range hulls {
		fc, err := s.LoadSlice(id, t)
		if err != nil {
			return nil, err
		}
		hulls[t] = sliceHulls(fc)
	}
	return geo.BuildMetric(meta.Metric, clusters, hulls)
}

func sliceHulls(fc *geojson.FeatureCollection) []geo.Hull {
	var out []geo.Hull
	for _, f := range fc.Features {
		if f.Properties["kind"] != export.KindHull {
			continue
		}
		var ring []orb.Point
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) == 0 {
				continue
			}
			ring = g[0]
			if g[0].Closed() {
				ring = ring[:len(ring)-1]
			}
		case orb.LineString:
			ring = g
			if len(ring) == 2 && ring[0] == ring[1] {
				ring = ring[:1]
			}
		default:
			continue
		}
		if len(ring) == 0 {
			continue
		}
		owner := f.Properties.MustFloat64("cluster", -1)
		h := make(geo.Hull, len(ring))
		for i, p := range ring {
			h[i] = geo.HullPoint{p.Lat(), p.Lon(), owner}
		}
		out = append(out, h)
	}
	return out
}
