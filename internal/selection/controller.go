package selection

import (
	"log/slog"
	"strings"

	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

// Slider mirrors the time slider of the UI.
type Slider struct {
	Min   int
	Max   int
	Value int
}

// SetMax updates the upper bound and pulls Value back inside it.
func (s *Slider) SetMax(max int) {
	if max < s.Min {
		max = s.Min
	}
	s.Max = max
	s.Value = s.clamp(s.Value)
}

func (s *Slider) Set(v int) int {
	s.Value = s.clamp(v)
	return s.Value
}

func (s *Slider) clamp(v int) int {
	if v > s.Max {
		v = s.Max
	}
	if v < s.Min {
		v = s.Min
	}
	return v
}

// Button is a metric selector; Selected is the highlight state.
type Button struct {
	Key      string
	Label    string
	Selected bool
}

// Controller owns the selection state of one UI (a terminal or a browser
// session). It is not safe for concurrent use.
type Controller struct {
	metrics  []*geo.Metric
	buttons  []Button
	state    geo.Selection
	slider   Slider
	renderer *render.Renderer
	target   render.Map
	log      *slog.Logger
}

func New(metrics []*geo.Metric, r *render.Renderer, target render.Map, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	buttons := make([]Button, len(metrics))
	for i, m := range metrics {
		buttons[i] = Button{Key: m.Key(), Label: m.Name}
	}
	return &Controller{
		metrics:  metrics,
		buttons:  buttons,
		renderer: r,
		target:   target,
		log:      log,
	}
}

// Resolve finds a metric by short key or full name. Unknown or empty keys
// resolve to the current metric.
func (c *Controller) Resolve(key string) *geo.Metric {
	key = strings.ToLower(strings.TrimSpace(key))
	if key != "" {
		for _, m := range c.metrics {
			if m.Key() == key || strings.ToLower(m.Name) == key {
				return m
			}
		}
	}
	return c.state.Metric
}

// Select switches to the metric named by key and redraws. It reports whether
// the current metric changed; selecting the current metric only redraws.
func (c *Controller) Select(key string) bool {
	next := c.Resolve(key)
	changed := false
	if next != nil && next != c.state.Metric {
		c.highlight(next)
		c.state.Metric = next
		c.slider.SetMax(next.Len() - 1)
		c.state.Time = c.slider.Value
		changed = true
		c.log.Debug("metric selected", "metric", next.Name, "slices", next.Len(), "time", c.state.Time)
	}
	c.Redraw()
	return changed
}

// Cycle selects the metric after the current one.
func (c *Controller) Cycle() bool {
	if len(c.metrics) == 0 {
		return false
	}
	next := 0
	for i, m := range c.metrics {
		if m == c.state.Metric {
			next = (i + 1) % len(c.metrics)
			break
		}
	}
	return c.Select(c.metrics[next].Name)
}

// Seek moves the slider to t and redraws.
func (c *Controller) Seek(t int) {
	c.state.Time = c.slider.Set(t)
	c.Redraw()
}

func (c *Controller) Step(delta int) {
	c.Seek(c.slider.Value + delta)
}

// Redraw renders the current selection onto the target map.
func (c *Controller) Redraw() *render.Group {
	if c.renderer == nil || c.target == nil {
		return nil
	}
	return c.renderer.Draw(c.target, c.state)
}

func (c *Controller) highlight(next *geo.Metric) {
	for i := range c.buttons {
		c.buttons[i].Selected = c.metrics[i] == next
	}
}

func (c *Controller) State() geo.Selection { return c.state }

func (c *Controller) Slider() Slider { return c.slider }

func (c *Controller) Buttons() []Button {
	out := make([]Button, len(c.buttons))
	copy(out, c.buttons)
	return out
}

func (c *Controller) Metrics() []*geo.Metric { return c.metrics }
