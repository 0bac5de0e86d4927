package config

import "sort"

var Presets = map[string]func() *Config{
	"review": DefaultConfig,
	"preview": func() *Config {
		cfg := DefaultConfig()
		cfg.FPS = 5
		cfg.Canvas = SizeConfig{Width: 640, Height: 360}
		cfg.Panels.Grid = SizeConfig{Width: 400, Height: 300}
		cfg.Panels.Bars = SizeConfig{Width: 400, Height: 300}
		cfg.Panels.Graph = GraphConfig{Width: 640, Height: 220, DPI: 72}
		return cfg
	},
	"hd": func() *Config {
		cfg := DefaultConfig()
		cfg.Canvas = SizeConfig{Width: 1280, Height: 720}
		return cfg
	},
	"gif": func() *Config {
		cfg := DefaultConfig()
		cfg.Canvas = SizeConfig{Width: 960, Height: 540}
		cfg.Export.Format = FormatGIF
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
