package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLat             = 48.7941
	DefaultLon             = 44.8009
	DefaultZoom            = 13
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultExportWidth     = 1024
	DefaultExportHeight    = 768
	DefaultTheme           = "cyberpunk"
	DefaultTiles           = "osm"
)

type Config struct {
	View    ViewConfig     `yaml:"view"`
	Tiles   TileConfig     `yaml:"tiles"`
	Palette []string       `yaml:"palette,omitempty"`
	Theme   string         `yaml:"theme"`
	Metrics []MetricConfig `yaml:"metrics"`
	Server  ServerConfig   `yaml:"server"`
	Export  ExportConfig   `yaml:"export"`

	// BaseDir resolves relative data paths; it is the directory of the
	// loaded file.
	BaseDir string `yaml:"-"`
}

type ViewConfig struct {
	Lat  float64 `yaml:"lat"`
	Lon  float64 `yaml:"lon"`
	Zoom int     `yaml:"zoom"`
}

type TileConfig struct {
	Preset      string `yaml:"preset,omitempty"`
	URL         string `yaml:"url"`
	Attribution string `yaml:"attribution"`
}

// MetricConfig names the input arrays of one metric. Either Clusters (with
// optional Hulls) or CentersDir must be set.
type MetricConfig struct {
	Name       string `yaml:"name"`
	Clusters   string `yaml:"clusters,omitempty"`
	Hulls      string `yaml:"hulls,omitempty"`
	CentersDir string `yaml:"centers_dir,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ExportConfig struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	Simplify float64 `yaml:"simplify"`
	Dir      string  `yaml:"dir"`
}

func DefaultConfig() *Config {
	tiles := *TilePresets[DefaultTiles]
	return &Config{
		View:  ViewConfig{Lat: DefaultLat, Lon: DefaultLon, Zoom: DefaultZoom},
		Tiles: tiles,
		Theme: DefaultTheme,
		Metrics: []MetricConfig{
			{Name: "euclid", Clusters: "kec.json", Hulls: "kep.json"},
			{Name: "route", Clusters: "krc.json", Hulls: "krp.json"},
		},
		Server: ServerConfig{Addr: DefaultAddr, ShutdownTimeout: DefaultShutdownTimeout},
		Export: ExportConfig{Width: DefaultExportWidth, Height: DefaultExportHeight, Dir: ".clustermap"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Tiles.Preset != "" {
		if p := GetTilePreset(cfg.Tiles.Preset); p != nil && cfg.Tiles.URL == "" {
			cfg.Tiles.URL, cfg.Tiles.Attribution = p.URL, p.Attribution
		}
	}
	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve returns p relative to the config directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// ApplyEnv loads the given .env files (missing files are ignored) and applies
// CLUSTERMAP_* overrides.
func (c *Config) ApplyEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return err
		}
	}
	if v := os.Getenv("CLUSTERMAP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CLUSTERMAP_THEME"); v != "" {
		c.Theme = v
	}
	if v := os.Getenv("CLUSTERMAP_TILES"); v != "" {
		if p := GetTilePreset(v); p != nil {
			c.Tiles = *p
		}
	}
	if v := os.Getenv("CLUSTERMAP_ZOOM"); v != "" {
		if z, err := strconv.Atoi(v); err == nil {
			c.View.Zoom = z
		}
	}
	return nil
}
