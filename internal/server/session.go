package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"
	"github.com/san-kum/clustermap/internal/export"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/metrics"
	"github.com/san-kum/clustermap/internal/render"
	"github.com/san-kum/clustermap/internal/selection"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

const (
	OpSelect = "select"
	OpSeek   = "seek"
	OpAdd    = "add"
	OpRemove = "remove"
	OpView   = "view"
	OpState  = "state"
	OpError  = "error"
)

// ClientMessage is sent by the page: a metric button click or a slider move.
type ClientMessage struct {
	Op   string `json:"op"`
	Key  string `json:"key,omitempty"`
	Time int    `json:"time,omitempty"`
}

type ServerMessage struct {
	Op    string                     `json:"op"`
	ID    string                     `json:"id,omitempty"`
	Layer *geojson.FeatureCollection `json:"layer,omitempty"`
	View  *ViewMessage               `json:"view,omitempty"`
	State *StateMessage              `json:"state,omitempty"`
	Error string                     `json:"error,omitempty"`
}

type ViewMessage struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Zoom int     `json:"zoom"`
}

type ButtonState struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

type StateMessage struct {
	Metric  string        `json:"metric"`
	Min     int           `json:"min"`
	Max     int           `json:"max"`
	Value   int           `json:"value"`
	Buttons []ButtonState `json:"buttons"`
}

// session is one browser page. Its controller is only touched by the
// goroutine running readLoop; writes are serialized by mu.
type session struct {
	id   string
	conn *websocket.Conn
	log  *slog.Logger
	ctrl *selection.Controller

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// sessionMap is the render.Map of a browser page. Adding a group ships it as
// GeoJSON; removing one sends its id.
type sessionMap struct {
	render.LayerSet
	sess *session
}

func (m *sessionMap) AddLayer(l render.Layer) {
	if m.HasLayer(l) {
		return
	}
	m.LayerSet.AddLayer(l)
	g, ok := l.(*render.Group)
	if !ok {
		g = &render.Group{ID: l.LayerID(), Layers: []render.Layer{l}}
	}
	metrics.ObserveDraw(metricOf(m.sess.ctrl), g.Len())
	m.sess.send(ServerMessage{Op: OpAdd, ID: g.ID, Layer: export.GeoJSON(g)})
}

func (m *sessionMap) RemoveLayer(l render.Layer) {
	if !m.HasLayer(l) {
		return
	}
	m.LayerSet.RemoveLayer(l)
	m.sess.send(ServerMessage{Op: OpRemove, ID: l.LayerID()})
}

func (m *sessionMap) SetView(center geo.LatLon, zoom int) {
	m.LayerSet.SetView(center, zoom)
	m.sess.send(ServerMessage{Op: OpView, View: &ViewMessage{Lat: center.Lat(), Lon: center.Lon(), Zoom: zoom}})
}

func metricOf(c *selection.Controller) string {
	if c == nil || c.State().Metric == nil {
		return ""
	}
	return c.State().Metric.Name
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.sessionCount() >= maxSessions {
		Respond(w, http.StatusServiceUnavailable, errResp("maximum sessions reached"))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		LoggerFromContext(r.Context(), s.log).Warn("websocket upgrade failed", "error", err)
		return
	}

	sess := &session{
		id:   uuid.NewString(),
		conn: conn,
		done: make(chan struct{}),
	}
	sess.log = LoggerFromContext(r.Context(), s.log).With("session", sess.id)
	if !s.addSession(sess) {
		sess.close()
		return
	}
	defer s.removeSession(sess)
	defer sess.close()

	target := &sessionMap{sess: sess}
	sess.ctrl = selection.New(s.ds.Metrics, render.NewRenderer(s.palette), target, sess.log)
	sess.log.Info("session opened")

	target.SetView(geo.LatLon{s.cfg.View.Lat, s.cfg.View.Lon}, s.cfg.View.Zoom)
	if len(s.ds.Metrics) > 0 {
		sess.ctrl.Select(s.ds.Metrics[0].Key())
		metrics.SelectsTotal.WithLabelValues(s.ds.Metrics[0].Name).Inc()
	}
	sess.sendState()

	go sess.pingLoop()
	sess.readLoop()
	sess.log.Info("session closed")
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(4096)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", "error", err)
			}
			return
		}
		s.handle(data)
	}
}

// handle applies one client message to the controller and answers with the
// new state.
func (s *session) handle(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.send(ServerMessage{Op: OpError, Error: "invalid message"})
		return
	}

	switch msg.Op {
	case OpSelect:
		if s.ctrl.Select(msg.Key) {
			metrics.SelectsTotal.WithLabelValues(metricOf(s.ctrl)).Inc()
		}
	case OpSeek:
		s.ctrl.Seek(msg.Time)
	default:
		s.send(ServerMessage{Op: OpError, Error: "unknown op " + msg.Op})
		return
	}
	s.log.Debug("selection changed", "metric", metricOf(s.ctrl), "time", s.ctrl.State().Time)
	s.sendState()
}

func (s *session) sendState() {
	slider := s.ctrl.Slider()
	st := &StateMessage{
		Metric: metricOf(s.ctrl),
		Min:    slider.Min,
		Max:    slider.Max,
		Value:  slider.Value,
	}
	for _, b := range s.ctrl.Buttons() {
		st.Buttons = append(st.Buttons, ButtonState{Key: b.Key, Label: b.Label, Selected: b.Selected})
	}
	s.send(ServerMessage{Op: OpState, State: st})
}

func (s *session) send(msg ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.Debug("websocket write failed", "op", msg.Op, "error", err)
	}
}

func (s *session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.mu.Unlock()
			if err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// close sends a normal close frame once and releases the connection, which
// also ends readLoop.
func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.conn.Close()
}
