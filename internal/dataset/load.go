package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/san-kum/clustermap/internal/geo"
)

var (
	ErrNoMetrics     = errors.New("no metrics configured")
	ErrUnknownMetric = errors.New("unknown metric")
	ErrNoArray       = errors.New("no array found")
)

// readArray returns the outermost JSON array of a .json file or of a .js
// dump such as `var kec = [...];`.
func readArray(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	start := bytes.IndexByte(data, '[')
	end := bytes.LastIndexByte(data, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%s: %w", path, ErrNoArray)
	}
	return data[start : end+1], nil
}

// LoadClusters reads per-time cluster tuples: [[[lat, lon, id, pop], ...], ...].
func LoadClusters(path string) ([][]geo.ClusterTuple, error) {
	raw, err := readArray(path)
	if err != nil {
		return nil, err
	}
	var out [][]geo.ClusterTuple
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode clusters %s: %w", path, err)
	}
	return out, nil
}

// LoadHulls reads per-time hull lists: [[[[lat, lon, id], ...], ...], ...].
func LoadHulls(path string) ([][]geo.Hull, error) {
	raw, err := readArray(path)
	if err != nil {
		return nil, err
	}
	var out [][]geo.Hull
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode hulls %s: %w", path, err)
	}
	return out, nil
}

var centersFile = regexp.MustCompile(`^(.+)_centers_(\d+)\.js(on)?$`)

// LoadCentersDir reads the per-iteration dumps <prefix>_centers_<n>.js of a
// directory, one time slice per file, ordered by n. An empty prefix accepts
// every prefix.
func LoadCentersDir(dir, prefix string) ([][]geo.ClusterTuple, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type iteration struct {
		n    int
		path string
	}
	var files []iteration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := centersFile.FindStringSubmatch(e.Name())
		if m == nil || (prefix != "" && m[1] != prefix) {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		files = append(files, iteration{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	out := make([][]geo.ClusterTuple, 0, len(files))
	for _, f := range files {
		raw, err := readArray(f.path)
		if err != nil {
			return nil, err
		}
		var slice []geo.ClusterTuple
		if err := json.Unmarshal(raw, &slice); err != nil {
			return nil, fmt.Errorf("decode centers %s: %w", f.path, err)
		}
		out = append(out, slice)
	}
	return out, nil
}
