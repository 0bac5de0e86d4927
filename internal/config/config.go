package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS          = 10
	DefaultCanvasWidth  = 1920
	DefaultCanvasHeight = 1080
	DefaultBackground   = "#d2d2d2"
	DefaultTopFraction  = 0.65
	DefaultTeeth        = 16
	DefaultSensors      = 4
	DefaultDuration     = 10.0
	DefaultRate         = 10.0
	DefaultSeed         = 42
	DefaultGraphDPI     = 100
)

// Export formats understood by video.NewSink.
const (
	FormatFFMPEG = "ffmpeg"
	FormatGIF    = "gif"
	FormatPNG    = "png"
)

// Data sources.
const (
	SourceSimulate = "simulate"
	SourceCSV      = "csv"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	FPS         int          `yaml:"fps"`
	Canvas      SizeConfig   `yaml:"canvas"`
	Background  string       `yaml:"background"`
	MaxForce    float64      `yaml:"max_force"`
	TopFraction float64      `yaml:"top_fraction"`
	Panels      PanelsConfig `yaml:"panels"`
	Data        DataConfig   `yaml:"data"`
	Export      ExportConfig `yaml:"export"`
}

type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type PanelsConfig struct {
	Grid  SizeConfig  `yaml:"grid"`
	Bars  SizeConfig  `yaml:"bars"`
	Graph GraphConfig `yaml:"graph"`
}

type GraphConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	DPI    int `yaml:"dpi"`
}

type DataConfig struct {
	Source   string  `yaml:"source"`
	Path     string  `yaml:"path"`
	Teeth    int     `yaml:"teeth"`
	Sensors  int     `yaml:"sensors"`
	Duration float64 `yaml:"duration"`
	Rate     float64 `yaml:"rate"`
	Seed     int64   `yaml:"seed"`
}

type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	Path    string `yaml:"path"`
}

func DefaultConfig() *Config {
	return &Config{
		FPS:         DefaultFPS,
		Canvas:      SizeConfig{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight},
		Background:  DefaultBackground,
		TopFraction: DefaultTopFraction,
		Panels: PanelsConfig{
			Grid:  SizeConfig{Width: 800, Height: 600},
			Bars:  SizeConfig{Width: 800, Height: 600},
			Graph: GraphConfig{Width: 1200, Height: 400, DPI: DefaultGraphDPI},
		},
		Data: DataConfig{
			Source:   SourceSimulate,
			Teeth:    DefaultTeeth,
			Sensors:  DefaultSensors,
			Duration: DefaultDuration,
			Rate:     DefaultRate,
			Seed:     DefaultSeed,
		},
		Export: ExportConfig{
			Format: FormatFFMPEG,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first setting that cannot drive a session.
func (c *Config) Validate() error {
	switch {
	case c.FPS <= 0:
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalid, c.FPS)
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	case c.TopFraction <= 0 || c.TopFraction >= 1:
		return fmt.Errorf("%w: top_fraction must be in (0,1), got %g", ErrInvalid, c.TopFraction)
	case c.MaxForce < 0:
		return fmt.Errorf("%w: max_force must not be negative", ErrInvalid)
	}
	for name, s := range map[string]SizeConfig{
		"grid":  c.Panels.Grid,
		"bars":  c.Panels.Bars,
		"graph": {Width: c.Panels.Graph.Width, Height: c.Panels.Graph.Height},
	} {
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: %s panel size %dx%d", ErrInvalid, name, s.Width, s.Height)
		}
	}
	switch c.Export.Format {
	case FormatFFMPEG, FormatGIF, FormatPNG:
	default:
		return fmt.Errorf("%w: unknown export format %q", ErrInvalid, c.Export.Format)
	}
	switch c.Data.Source {
	case SourceSimulate:
		if c.Data.Teeth < 0 || c.Data.Sensors <= 0 || c.Data.Rate <= 0 || c.Data.Duration <= 0 {
			return fmt.Errorf("%w: simulated data needs sensors, rate and duration", ErrInvalid)
		}
	case SourceCSV:
		if c.Data.Path == "" {
			return fmt.Errorf("%w: csv source needs data.path", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown data source %q", ErrInvalid, c.Data.Source)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// BackgroundColor returns the parsed background, falling back to the default grey.
func (c *Config) BackgroundColor() color.RGBA {
	col, err := ParseColor(c.Background)
	if err != nil {
		col, _ = ParseColor(DefaultBackground)
	}
	return col
}

// ParseColor accepts "#rrggbb" or "r,g,b".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("bad color %q", s)
		}
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("bad color %q", s)
	}
	var rgb [3]uint8
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("bad color %q", s)
		}
		rgb[i] = uint8(v)
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 0xff}, nil
}
