package config

import "sort"

var TilePresets = map[string]*TileConfig{
	"osm": {
		Preset:      "osm",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors`,
	},
	"carto-light": {
		Preset:      "carto-light",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
	"carto-dark": {
		Preset:      "carto-dark",
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
}

func GetTilePreset(name string) *TileConfig {
	p, ok := TilePresets[name]
	if !ok {
		return nil
	}
	c := *p
	return &c
}

func ListTilePresets() []string {
	names := make([]string, 0, len(TilePresets))
	for name := range TilePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
