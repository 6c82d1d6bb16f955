package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
)

func TestCanvas_SetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	if w != 8 || h != 8 {
		t.Fatalf("expected 8x8 dots, got %dx%d", w, h)
	}

	c.Set(3, 5, "#ff0000")
	if !c.IsSet(3, 5) {
		t.Error("dot not set")
	}
	if c.Colors[1][1] != "#ff0000" {
		t.Errorf("color not stored: %q", c.Colors[1][1])
	}

	c.Set(-1, 0, "#000000")
	c.Set(100, 100, "#000000")

	c.Clear()
	if c.IsSet(3, 5) || c.Colors[1][1] != "" {
		t.Error("clear left state behind")
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(10, 3)
	c.DrawLine(0, 0, 9, 0, "#00ff00")
	for x := 0; x <= 9; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("dot %d not set", x)
		}
	}
}

func TestCanvas_DrawCircle(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawCircle(10, 10, 4, "#0000ff")

	for _, p := range [][2]int{{14, 10}, {6, 10}, {10, 14}, {10, 6}, {10, 10}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("expected dot at %v", p)
		}
	}
	if c.IsSet(12, 10) {
		t.Error("ring should be hollow")
	}

	small := NewCanvas(2, 1)
	small.DrawCircle(1, 1, 0, "#0000ff")
	if !small.IsSet(1, 1) {
		t.Error("zero radius should light the center")
	}
}

func TestCanvas_Render(t *testing.T) {
	c := NewCanvas(3, 2)
	c.Set(0, 0, "#ff0000")
	plain := c.String()
	if strings.Count(plain, "\n") != 2 {
		t.Errorf("expected 2 rows, got %q", plain)
	}
	if lines := strings.Split(c.Render("#000000"), "\n"); len(lines) != 2 {
		t.Errorf("expected 2 rendered rows, got %d", len(lines))
	}
}

func TestViewport_ProjectCenter(t *testing.T) {
	center := geo.LatLon{48.7941, 44.8009}
	v := NewViewport(center, 13, 100, 80)

	x, y := v.Project(center)
	if x != 50 || y != 40 {
		t.Errorf("center projected to %d,%d", x, y)
	}

	// north is up, east is right
	nx, ny := v.Project(geo.LatLon{48.80, 44.8009})
	if ny >= y || nx != x {
		t.Errorf("north point projected to %d,%d", nx, ny)
	}
	ex, _ := v.Project(geo.LatLon{48.7941, 44.81})
	if ex <= x {
		t.Errorf("east point projected to x=%d", ex)
	}

	back := v.CenterLatLon()
	if diff := back.Lat() - center.Lat(); diff > 1e-6 || diff < -1e-6 {
		t.Errorf("round trip lat = %v", back.Lat())
	}
}

func TestViewport_Fit(t *testing.T) {
	v := NewViewport(geo.LatLon{}, 0, 100, 80)
	b := orb.Bound{Min: orb.Point{44.5, 48.7}, Max: orb.Point{44.8, 48.8}}
	v.Fit(b)

	for _, p := range []geo.LatLon{{48.7, 44.5}, {48.8, 44.8}} {
		x, y := v.Project(p)
		if x < 0 || x > 100 || y < 0 || y > 80 {
			t.Errorf("%v projected outside the view: %d,%d", p, x, y)
		}
	}
	if v.Zoom <= 0 {
		t.Errorf("expected a positive zoom, got %v", v.Zoom)
	}

	v.ZoomBy(100)
	if v.Zoom != maxZoom {
		t.Errorf("zoom not clamped: %v", v.Zoom)
	}
}

func testMetrics(t *testing.T) []*geo.Metric {
	t.Helper()
	euclid, err := geo.BuildMetric("euclid", [][]geo.ClusterTuple{
		{{48.70, 44.50, 0, 64}, {48.80, 44.80, 1, 0}},
		{{48.71, 44.51, 0, 27}, {48.79, 44.79, 1, 8}},
		{{48.72, 44.52, 0, 8}, {48.78, 44.78, 1, 27}},
	}, [][]geo.Hull{
		{{{48.69, 44.49, 0}, {48.71, 44.49}, {48.70, 44.52}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	route, err := geo.BuildMetric("route", [][]geo.ClusterTuple{
		{{48.70, 44.50, 0, 1}},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return []*geo.Metric{euclid, route}
}

func TestTerminalMap_Canvas(t *testing.T) {
	metrics := testMetrics(t)
	tm := NewTerminalMap(40, 20)
	b, _ := geo.Bounds(metrics...)
	tm.Fit(b)

	r := render.NewRenderer(nil)
	r.Draw(tm, geo.Selection{Metric: metrics[0], Time: 0})

	c := tm.Canvas(-1)
	colored := 0
	for _, row := range c.Colors {
		for _, col := range row {
			if col == render.DefaultPalette[0] {
				colored++
			}
			if col == render.DefaultPalette[1] {
				t.Error("empty cluster drawn")
			}
		}
	}
	if colored == 0 {
		t.Error("cluster 0 not drawn")
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "end":
		return tea.KeyMsg{Type: tea.KeyEnd}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestApp_Keys(t *testing.T) {
	app := NewApp(testMetrics(t), Options{Center: geo.LatLon{48.7941, 44.8009}, Zoom: 12, Fit: true})
	ctrl := app.Controller()

	if ctrl.State().Metric.Name != "euclid" {
		t.Fatalf("expected euclid selected at start, got %v", ctrl.State().Metric)
	}

	app.Update(keyMsg("right"))
	app.Update(keyMsg("l"))
	if ctrl.State().Time != 2 {
		t.Errorf("expected time 2, got %d", ctrl.State().Time)
	}

	app.Update(keyMsg("r"))
	if ctrl.State().Metric.Name != "route" {
		t.Errorf("expected route, got %s", ctrl.State().Metric.Name)
	}
	if ctrl.Slider().Max != 0 || ctrl.State().Time != 0 {
		t.Errorf("slider not clamped: %+v", ctrl.Slider())
	}

	app.Update(keyMsg("1"))
	if ctrl.State().Metric.Name != "euclid" {
		t.Errorf("expected euclid, got %s", ctrl.State().Metric.Name)
	}
	app.Update(keyMsg("end"))
	if ctrl.State().Time != 2 {
		t.Errorf("expected last slice, got %d", ctrl.State().Time)
	}

	app.Update(keyMsg("tab"))
	if ctrl.State().Metric.Name != "route" {
		t.Errorf("tab should cycle to route, got %s", ctrl.State().Metric.Name)
	}

	_, cmd := app.Update(keyMsg("q"))
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestApp_View(t *testing.T) {
	app := NewApp(testMetrics(t), Options{Fit: true, Theme: "ocean"})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.Update(keyMsg("n"))

	view := app.View()
	if !strings.Contains(view, "CLUSTERMAP") {
		t.Error("panel title missing")
	}
	if !strings.Contains(view, "Cluster #0 at 48.7, 44.5") {
		t.Error("focused popup missing")
	}
	if !strings.Contains(view, "population") {
		t.Error("population chart missing")
	}
}

func TestSliderBar(t *testing.T) {
	bar := SliderBar(0, 0, 4, 7)
	if bar != "├●────┤" {
		t.Errorf("SliderBar(0) = %q", bar)
	}
	bar = SliderBar(4, 0, 4, 7)
	if bar != "├────●┤" {
		t.Errorf("SliderBar(4) = %q", bar)
	}
	if SliderBar(0, 0, 0, 5) != "├●──┤" {
		t.Errorf("single slice slider = %q", SliderBar(0, 0, 0, 5))
	}
}

func TestVisible(t *testing.T) {
	if got := visible("#000030", "#0a0a0a"); got == "#000030" {
		t.Error("dark color on dark background should be lightened")
	}
	if got := visible("#ff0000", "#0a0a0a"); got != "#ff0000" {
		t.Errorf("bright color changed: %s", got)
	}
	if got := visible("#ff0000", ""); got != "#ff0000" {
		t.Errorf("no background should keep color: %s", got)
	}
}

func TestApp_InitialSelection(t *testing.T) {
	app := NewApp(testMetrics(t), Options{Metric: "euclid", Time: 5})
	st := app.Controller().State()
	if st.Metric.Name != "euclid" || st.Time != 2 {
		t.Errorf("expected euclid at clamped time 2, got %s at %d", st.Metric.Name, st.Time)
	}

	app = NewApp(testMetrics(t), Options{Metric: "rou"})
	if app.Controller().State().Metric.Name != "route" {
		t.Errorf("expected route, got %s", app.Controller().State().Metric.Name)
	}
}
