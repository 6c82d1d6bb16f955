// Package server serves the cluster map to browsers: a Leaflet page, a JSON
// API of rendered frames and one websocket session per open page.
package server

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/clustermap/internal/config"
	"github.com/san-kum/clustermap/internal/dataset"
	"github.com/san-kum/clustermap/internal/metrics"
	"github.com/san-kum/clustermap/internal/render"
)

const maxSessions = 100

type Server struct {
	cfg     *config.Config
	ds      *dataset.Dataset
	palette render.Palette
	log     *slog.Logger
	page    *template.Template

	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

func New(cfg *config.Config, ds *dataset.Dataset, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	palette := render.Palette(cfg.Palette)
	if len(palette) == 0 {
		palette = render.DefaultPalette
	}
	return &Server{
		cfg:     cfg,
		ds:      ds,
		palette: palette,
		log:     log,
		page:    page,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		sessions: make(map[string]*session),
	}, nil
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/metrics/{key}/times/{t}", s.handleFrame)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return WrapMiddleware(mux,
		WithRequestID,
		WithLogger(s.log),
		Recover(s.log),
		AccessLog(s.log),
		Instrument,
	)
}

// Run serves until ctx is cancelled, then closes open sessions and shuts the
// HTTP server down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = config.DefaultAddr
	}
	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	serverErrs := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(serverErrs)

		s.log.Info("starting http server", "addr", addr, "metrics", s.ds.Names())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrs:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
		s.closeSessions()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	wg.Wait()
	return nil
}

func (s *Server) addSession(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) >= maxSessions {
		return false
	}
	s.sessions[sess.id] = sess
	metrics.SessionsActive.Inc()
	return true
}

func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.id]; ok {
		delete(s.sessions, sess.id)
		metrics.SessionsActive.Dec()
	}
}

func (s *Server) closeSessions() {
	s.mu.Lock()
	open := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		sess.close()
	}
}
