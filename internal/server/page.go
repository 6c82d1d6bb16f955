package server

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed page.html
var pageFS embed.FS

type pageButton struct {
	Key   string
	Label string
}

type pageData struct {
	Lat         float64
	Lon         float64
	Zoom        int
	TileURL     string
	Attribution string
	Buttons     []pageButton
	MaxTime     int
}

func parsePage() (*template.Template, error) {
	return template.ParseFS(pageFS, "page.html")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Lat:         s.cfg.View.Lat,
		Lon:         s.cfg.View.Lon,
		Zoom:        s.cfg.View.Zoom,
		TileURL:     s.cfg.Tiles.URL,
		Attribution: s.cfg.Tiles.Attribution,
	}
	for _, m := range s.ds.Metrics {
		data.Buttons = append(data.Buttons, pageButton{Key: m.Key(), Label: m.Name})
	}
	if len(s.ds.Metrics) > 0 {
		data.MaxTime = s.ds.Metrics[0].Len() - 1
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		LoggerFromContext(r.Context(), s.log).Error("render page", "error", err)
	}
}
