package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clustermap_http_requests_total",
		Help: "Total HTTP requests by route and status class",
	}, []string{"route", "code"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clustermap_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "clustermap_sessions_active",
		Help: "Open websocket map sessions",
	})
	SelectsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clustermap_selects_total",
		Help: "Metric switches by metric name",
	}, []string{"metric"})
	DrawsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "clustermap_draws_total",
		Help: "Frames drawn by metric name",
	}, []string{"metric"})
	DrawLayers = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "clustermap_draw_layers",
		Help:    "Layers per drawn frame",
		Buckets: []float64{0, 2, 10, 50, 100, 200, 500},
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(SelectsTotal)
	prometheus.MustRegister(DrawsTotal)
	prometheus.MustRegister(DrawLayers)
}

// ObserveDraw records one drawn frame.
func ObserveDraw(metric string, layers int) {
	if metric == "" {
		metric = "none"
	}
	DrawsTotal.WithLabelValues(metric).Inc()
	DrawLayers.Observe(float64(layers))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
