package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/clustermap/internal/config"
	"github.com/san-kum/clustermap/internal/dataset"
	"github.com/san-kum/clustermap/internal/export"
	"github.com/san-kum/clustermap/internal/geo"
	"github.com/san-kum/clustermap/internal/logger"
	"github.com/san-kum/clustermap/internal/render"
	"github.com/san-kum/clustermap/internal/server"
	"github.com/san-kum/clustermap/internal/storage"
	"github.com/san-kum/clustermap/internal/viz"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "clustermap.yaml"

var (
	configFile string
	envFile    string
	dataDir    string
	logFile    string
	force      bool
	// view
	metricKey string
	timeIdx   int
	theme     string
	zoom      int
	fit       bool
	snapshots []string
	// serve
	addr  string
	tiles string
	// export
	outFile  string
	width    int
	height   int
	simplify float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clustermap",
		Short:        "time-sliced cluster map viewer",
		SilenceUsage: true,
		RunE:         runView,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default $CLUSTERMAP_CONFIG or ./clustermap.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with CLUSTERMAP_* overrides")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "snapshot directory (default from config)")
	addViewFlags(rootCmd)

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "browse the cluster map in the terminal",
		RunE:  runView,
	}
	addViewFlags(viewCmd)
	viewCmd.Flags().StringSliceVar(&snapshots, "snapshot", nil, "view stored snapshots instead of the configured metrics")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the cluster map to browsers",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "HTTP listen address")
	serveCmd.Flags().StringVar(&tiles, "tiles", config.DefaultTiles, fmt.Sprintf("tile preset %v", config.ListTilePresets()))

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "export one rendered time slice",
	}
	exportCmd.PersistentFlags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [metric] [time]",
		Short: "export a time slice as SVG",
		Args:  cobra.ExactArgs(2),
		RunE:  exportSVG,
	}
	svgCmd.Flags().IntVar(&width, "width", config.DefaultExportWidth, "image width")
	svgCmd.Flags().IntVar(&height, "height", config.DefaultExportHeight, "image height")
	svgCmd.Flags().Float64Var(&simplify, "simplify", 0, "hull simplification tolerance in degrees")

	geojsonCmd := &cobra.Command{
		Use:   "geojson [metric] [time]",
		Short: "export a time slice as GeoJSON",
		Args:  cobra.ExactArgs(2),
		RunE:  exportGeoJSON,
	}
	exportCmd.AddCommand(svgCmd, geojsonCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [metric...]",
		Short: "store every slice of the given metrics (default all)",
		RunE:  saveSnapshot,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list snapshots",
		RunE:  listSnapshots,
	}

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "show metrics and their population over time",
		RunE:  showInfo,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(viewCmd, serveCmd, exportCmd, snapshotCmd, listCmd, infoCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&metricKey, "metric", "", "initial metric (key or name)")
	cmd.Flags().IntVar(&timeIdx, "time", 0, "initial time slice")
	cmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, fmt.Sprintf("color theme %v", viz.ThemeNames()))
	cmd.Flags().IntVar(&zoom, "zoom", config.DefaultZoom, "initial zoom")
	cmd.Flags().BoolVar(&fit, "fit", true, "fit the view to all clusters")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the map is open")
}

// loadConfig resolves the configuration: defaults, then the config file,
// then CLUSTERMAP_* variables (after loading the dotenv file), then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	path := configFile
	if path == "" {
		path = os.Getenv("CLUSTERMAP_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	} else {
		cfg.BaseDir = "."
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if flags.Changed("tiles") {
		p := config.GetTilePreset(tiles)
		if p == nil {
			return nil, fmt.Errorf("unknown tile preset: %s (available: %v)", tiles, config.ListTilePresets())
		}
		cfg.Tiles = *p
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("zoom") {
		cfg.View.Zoom = zoom
	}
	if flags.Changed("width") {
		cfg.Export.Width = width
	}
	if flags.Changed("height") {
		cfg.Export.Height = height
	}
	if flags.Changed("simplify") {
		cfg.Export.Simplify = simplify
	}
	if dataDir != "" {
		cfg.Export.Dir = dataDir
	}
	return cfg, nil
}

func loadDataset(cmd *cobra.Command, log *slog.Logger) (*config.Config, *dataset.Dataset, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	ds, err := dataset.Load(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, ds, nil
}

func palette(cfg *config.Config) render.Palette {
	if len(cfg.Palette) == 0 {
		return render.DefaultPalette
	}
	return render.Palette(cfg.Palette)
}

// viewLogger keeps logs off the terminal while the map owns it.
func viewLogger() (*slog.Logger, func(), error) {
	if logFile == "" {
		return logger.Discard(), func() {}, nil
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return logger.SetupWriter(f), func() { f.Close() }, nil
}

func runView(cmd *cobra.Command, args []string) error {
	log, done, err := viewLogger()
	if err != nil {
		return err
	}
	defer done()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var metrics []*geo.Metric
	if len(snapshots) > 0 {
		st := storage.New(cfg.Export.Dir)
		for _, id := range snapshots {
			m, err := st.Restore(id)
			if err != nil {
				return fmt.Errorf("snapshot %s: %w", id, err)
			}
			metrics = append(metrics, m)
		}
	} else {
		ds, err := dataset.Load(cfg, log)
		if err != nil {
			return err
		}
		metrics = ds.Metrics
	}
	if err := initialMetric(metrics, metricKey); err != nil {
		return err
	}

	return viz.Run(metrics, viz.Options{
		Center:  geo.LatLon{cfg.View.Lat, cfg.View.Lon},
		Zoom:    cfg.View.Zoom,
		Fit:     fit,
		Theme:   cfg.Theme,
		Palette: palette(cfg),
		Log:     log,
		Metric:  metricKey,
		Time:    timeIdx,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.Setup()
	cfg, ds, err := loadDataset(cmd, log)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, ds, log)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return srv.Run(ctx)
}

// initialMetric rejects a --metric that names none of the metrics.
func initialMetric(metrics []*geo.Metric, key string) error {
	if key == "" {
		return nil
	}
	ds := &dataset.Dataset{Metrics: metrics}
	_, err := ds.Lookup(key)
	return err
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := defaultConfigFile
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// frameFor renders the selection named by the metric and time arguments.
func frameFor(cmd *cobra.Command, args []string) (*config.Config, *render.Group, error) {
	cfg, ds, err := loadDataset(cmd, logger.Setup())
	if err != nil {
		return nil, nil, err
	}
	m, err := ds.Lookup(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w (available: %v)", err, ds.Names())
	}
	t, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, nil, fmt.Errorf("invalid time %q: %w", args[1], err)
	}
	if m.Slice(t) == nil {
		return nil, nil, fmt.Errorf("time %d out of range [0, %d]", t, m.Len()-1)
	}
	return cfg, render.Frame(geo.Selection{Metric: m, Time: t}, palette(cfg)), nil
}

func output() (io.Writer, func() error, error) {
	if outFile == "" || outFile == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, frame, err := frameFor(cmd, args)
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}

	svg := export.SVG(frame, export.SVGOptions{
		Width:      cfg.Export.Width,
		Height:     cfg.Export.Height,
		Background: string(viz.GetTheme(cfg.Theme).Background),
		Simplify:   cfg.Export.Simplify,
	})
	if _, err := io.WriteString(w, svg+"\n"); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportGeoJSON(cmd *cobra.Command, args []string) error {
	_, frame, err := frameFor(cmd, args)
	if err != nil {
		return err
	}
	w, closeFn, err := output()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export.GeoJSON(frame)); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func saveSnapshot(cmd *cobra.Command, args []string) error {
	cfg, ds, err := loadDataset(cmd, logger.Setup())
	if err != nil {
		return err
	}

	selected := ds.Metrics
	if len(args) > 0 {
		selected = nil
		for _, key := range args {
			m, err := ds.Lookup(key)
			if err != nil {
				return fmt.Errorf("%w (available: %v)", err, ds.Names())
			}
			selected = append(selected, m)
		}
	}

	st := storage.New(cfg.Export.Dir)
	if err := st.Init(); err != nil {
		return err
	}
	for _, m := range selected {
		id, err := st.Save(m, palette(cfg))
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", m.Name, err)
		}
		fmt.Printf("saved: %s (%d slices)\n", id, m.Len())
	}
	return nil
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runs, err := storage.New(cfg.Export.Dir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMETRIC\tTIME\tSLICES\tPEAK")
	for _, run := range runs {
		peak := 0.0
		for _, s := range run.Totals {
			peak = max(peak, s.Population)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.0f\n",
			run.ID,
			run.Metric,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Slices,
			peak,
		)
	}
	return w.Flush()
}

func showInfo(cmd *cobra.Command, args []string) error {
	_, ds, err := loadDataset(cmd, logger.Setup())
	if err != nil {
		return err
	}

	if b, ok := geo.Bounds(ds.Metrics...); ok {
		fmt.Printf("bounds: %.4f,%.4f .. %.4f,%.4f\n\n", b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon())
	}

	for _, m := range ds.Metrics {
		fmt.Printf("metric: %s (%s)\n", m.Name, m.Key())
		fmt.Printf("slices: %d\n", m.Len())

		series := m.PopulationSeries()
		if len(series) == 0 {
			fmt.Println()
			continue
		}
		if last := m.Slice(m.Len() - 1); last != nil {
			fmt.Printf("clusters at last slice: %d\n", len(last.Populated()))
		}
		if len(series) > 1 {
			fmt.Println(asciigraph.Plot(series,
				asciigraph.Height(10),
				asciigraph.Width(60),
				asciigraph.Caption(m.Name+" population"),
			))
		}
		fmt.Println()
	}
	return nil
}
