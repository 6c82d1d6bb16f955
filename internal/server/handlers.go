package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/san-kum/clustermap/internal/dataset"
	"github.com/san-kum/clustermap/internal/export"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

type MetricInfo struct {
	Name       string    `json:"name"`
	Key        string    `json:"key"`
	Slices     int       `json:"slices"`
	Population []float64 `json:"population"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	out := make([]MetricInfo, 0, len(s.ds.Metrics))
	for _, m := range s.ds.Metrics {
		out = append(out, MetricInfo{
			Name:       m.Name,
			Key:        m.Key(),
			Slices:     m.Len(),
			Population: m.PopulationSeries(),
		})
	}
	Respond(w, http.StatusOK, out)
}

// handleFrame answers the GeoJSON of one metric at one time index.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	m, err := s.ds.Lookup(r.PathValue("key"))
	if err != nil {
		if errors.Is(err, dataset.ErrUnknownMetric) {
			Respond(w, http.StatusNotFound, errResp("unknown metric"))
			return
		}
		Respond(w, http.StatusInternalServerError, errResp(err.Error()))
		return
	}

	t, err := strconv.Atoi(r.PathValue("t"))
	if err != nil || m.Slice(t) == nil {
		Respond(w, http.StatusNotFound, errResp("no such time slice"))
		return
	}

	frame := render.Frame(geo.Selection{Metric: m, Time: t}, s.palette)
	Respond(w, http.StatusOK, export.GeoJSON(frame))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	Respond(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"metrics":  len(s.ds.Metrics),
		"sessions": s.sessionCount(),
	})
}

func (s *Server) sessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
