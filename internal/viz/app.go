package viz

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/paulmach/orb"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/render"
	"github.com/san-kum/clustermap/internal/selection"
)

const (
	panelWidth  = 40
	defaultCols = 80
	defaultRows = 22
	topClusters = 5
)

type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Theme    key.Binding
	Cycle    key.Binding
	Prev     key.Binding
	Next     key.Binding
	First    key.Binding
	Last     key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	Fit      key.Binding
	Focus    key.Binding
	Unfocus  key.Binding
	PanUp    key.Binding
	PanDown  key.Binding
	PanLeft  key.Binding
	PanRight key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Theme:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Cycle:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next metric")),
	Prev:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h/←", "earlier")),
	Next:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l/→", "later")),
	First:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first slice")),
	Last:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last slice")),
	ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "zoom in")),
	ZoomOut:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "zoom out")),
	Fit:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fit")),
	Focus:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next cluster")),
	Unfocus:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close popup")),
	PanUp:    key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "pan up")),
	PanDown:  key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "pan down")),
	PanLeft:  key.NewBinding(key.WithKeys("H", "shift+left"), key.WithHelp("H", "pan left")),
	PanRight: key.NewBinding(key.WithKeys("L", "shift+right"), key.WithHelp("L", "pan right")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cycle, k.Prev, k.Next, k.Focus, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Cycle, k.Prev, k.Next, k.First, k.Last},
		{k.ZoomIn, k.ZoomOut, k.Fit, k.PanUp, k.PanDown, k.PanLeft, k.PanRight},
		{k.Focus, k.Unfocus, k.Theme, k.Help, k.Quit},
	}
}

type Options struct {
	Center  geo.LatLon
	Zoom    int
	Fit     bool
	Theme   string
	Palette render.Palette
	Log     *slog.Logger
	// Metric and Time pick the initial selection; an empty Metric selects
	// the first one.
	Metric string
	Time   int
}

// App is the Bubble Tea model of the terminal map: metric buttons, a time
// slider and the Braille map.
type App struct {
	ctrl    *selection.Controller
	tmap    *TerminalMap
	help    help.Model
	theme   int
	st      styles
	focus   int
	width   int
	height  int
	bound   orb.Bound
	bounds  bool
	palette render.Palette
	log     *slog.Logger
}

func NewApp(metrics []*geo.Metric, opts Options) *App {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if len(opts.Palette) == 0 {
		opts.Palette = render.DefaultPalette
	}
	tmap := NewTerminalMap(defaultCols-panelWidth, defaultRows)
	tmap.SetView(opts.Center, opts.Zoom)

	a := &App{
		tmap:    tmap,
		help:    help.New(),
		theme:   themeIndex(opts.Theme),
		focus:   -1,
		palette: opts.Palette,
		log:     opts.Log,
	}
	a.st = newStyles(Themes[a.theme])
	a.bound, a.bounds = geo.Bounds(metrics...)
	if opts.Fit && a.bounds {
		tmap.Fit(a.bound)
	}

	a.ctrl = selection.New(metrics, render.NewRenderer(opts.Palette), tmap, opts.Log)
	if len(metrics) > 0 {
		a.ctrl.Select(metrics[0].Key())
		if opts.Metric != "" {
			a.ctrl.Select(opts.Metric)
		}
		if opts.Time > 0 {
			a.ctrl.Seek(opts.Time)
		}
	}
	return a
}

func (a *App) Init() tea.Cmd { return nil }

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		a.tmap.Resize(a.mapSize())
	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}
	return a, nil
}

func (a *App) mapSize() (int, int) {
	cols := a.width - panelWidth - 3
	rows := a.height - 2
	if cols < 10 {
		cols = 10
	}
	if rows < 5 {
		rows = 5
	}
	return cols, rows
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(msg, keys.Theme):
		a.theme = (a.theme + 1) % len(Themes)
		a.st = newStyles(Themes[a.theme])
	case key.Matches(msg, keys.Cycle):
		a.ctrl.Cycle()
	case key.Matches(msg, keys.Prev):
		a.ctrl.Step(-1)
	case key.Matches(msg, keys.Next):
		a.ctrl.Step(1)
	case key.Matches(msg, keys.First):
		a.ctrl.Seek(0)
	case key.Matches(msg, keys.Last):
		a.ctrl.Seek(a.ctrl.Slider().Max)
	case key.Matches(msg, keys.ZoomIn):
		a.tmap.ZoomBy(1)
	case key.Matches(msg, keys.ZoomOut):
		a.tmap.ZoomBy(-1)
	case key.Matches(msg, keys.Fit):
		if a.bounds {
			a.tmap.Fit(a.bound)
		}
	case key.Matches(msg, keys.Focus):
		a.focus++
	case key.Matches(msg, keys.Unfocus):
		a.focus = -1
	case key.Matches(msg, keys.PanUp):
		a.tmap.Pan(0, 0.25)
	case key.Matches(msg, keys.PanDown):
		a.tmap.Pan(0, -0.25)
	case key.Matches(msg, keys.PanLeft):
		a.tmap.Pan(-0.25, 0)
	case key.Matches(msg, keys.PanRight):
		a.tmap.Pan(0.25, 0)
	default:
		a.selectByKey(msg.String())
	}
	return nil
}

// selectByKey maps 1-9 to the metric buttons in order and a single letter to
// the button whose key starts with it.
func (a *App) selectByKey(s string) {
	buttons := a.ctrl.Buttons()
	if len(s) != 1 {
		return
	}
	if s[0] >= '1' && s[0] <= '9' {
		if i := int(s[0] - '1'); i < len(buttons) {
			a.ctrl.Select(buttons[i].Key)
		}
		return
	}
	for _, b := range buttons {
		if strings.HasPrefix(b.Key, s) {
			if a.ctrl.Select(b.Key) {
				a.log.Debug("metric switched", "metric", b.Label)
			}
			return
		}
	}
}

// focused returns the cluster id whose popup is open, or -1.
func (a *App) focused() int {
	if a.focus < 0 {
		return -1
	}
	slice := a.ctrl.State().Slice()
	if slice == nil {
		return -1
	}
	ids := slice.Populated()
	if len(ids) == 0 {
		return -1
	}
	return ids[a.focus%len(ids)]
}

func (a *App) View() string {
	th := Themes[a.theme]
	focus := a.focused()
	canvas := a.tmap.Canvas(focus).Render(string(th.Background))
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, a.st.panel.Render(a.panel(focus)))
	return lipgloss.JoinVertical(lipgloss.Left, body, a.help.View(keys))
}

func (a *App) panel(focus int) string {
	var b strings.Builder
	state := a.ctrl.State()
	slider := a.ctrl.Slider()

	b.WriteString(a.st.title.Render("CLUSTERMAP") + "\n\n")

	buttons := make([]string, 0, len(a.ctrl.Buttons()))
	for _, btn := range a.ctrl.Buttons() {
		if btn.Selected {
			buttons = append(buttons, a.st.selected.Render(btn.Key))
		} else {
			buttons = append(buttons, a.st.button.Render(btn.Key))
		}
	}
	b.WriteString(strings.Join(buttons, " ") + "\n\n")

	b.WriteString(a.row("time", fmt.Sprintf("%d / %d", slider.Value, slider.Max)))
	b.WriteString(SliderBar(slider.Value, slider.Min, slider.Max, panelWidth-6) + "\n")

	center := a.tmap.Viewport().CenterLatLon()
	b.WriteString(a.row("center", fmt.Sprintf("%.4f, %.4f", center.Lat(), center.Lon())))
	b.WriteString(a.row("zoom", fmt.Sprintf("%.1f", a.tmap.Viewport().Zoom)))

	slice := state.Slice()
	if slice == nil {
		return b.String()
	}
	b.WriteString(a.row("clusters", fmt.Sprintf("%d", len(slice.Populated()))))
	b.WriteString(a.row("population", fmt.Sprintf("%.0f", slice.TotalPopulation())))
	b.WriteString(Separator(panelWidth-6, a.st.subtle) + "\n")

	for _, id := range slice.Largest(topClusters) {
		c := slice.Clusters[id]
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(visible(a.palette.Color(id), string(Themes[a.theme].Background)))).Render("●")
		b.WriteString(fmt.Sprintf("%s %s %s\n", dot, a.st.label.Render(fmt.Sprintf("#%d", id)), a.st.value.Render(fmt.Sprintf("%.0f", c.Population))))
	}

	if c, ok := slice.Cluster(focus); ok {
		popup := render.PlainPopup(render.MarkerPopup(focus, c))
		if c.HasHull() {
			popup += "\n" + render.PlainPopup(render.HullPopup(focus, c))
		}
		b.WriteString(a.st.popup.Render(popup) + "\n")
	}

	if series := state.Metric.PopulationSeries(); len(series) > 1 {
		b.WriteString(asciigraph.Plot(series,
			asciigraph.Height(5),
			asciigraph.Width(panelWidth-12),
			asciigraph.Caption("population"),
		) + "\n")
	}
	return b.String()
}

func (a *App) row(label, value string) string {
	return a.st.label.Render(label) + a.st.value.Render(value) + "\n"
}

// Controller exposes the selection controller, mainly for tests.
func (a *App) Controller() *selection.Controller { return a.ctrl }

// Run starts the terminal map in the alternate screen.
func Run(metrics []*geo.Metric, opts Options) error {
	_, err := tea.NewProgram(NewApp(metrics, opts), tea.WithAltScreen()).Run()
	return err
}
