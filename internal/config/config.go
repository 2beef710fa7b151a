package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	Term     = "term"
	Window   = "window"
	Headless = "headless"
)

type WindowCfg struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type PanelCfg struct {
	Enabled       bool    `yaml:"enabled"`
	SPIDev        string  `yaml:"spi_dev"` // spireg name, "" for the first port
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	XFlipEveryRow bool    `yaml:"x_flip_every_row"`
	MinIntervalMs int     `yaml:"min_interval_ms"`
	Brightness    float64 `yaml:"brightness"` // 0..1
}

type CueCfg struct {
	Enabled    bool `yaml:"enabled"`
	SampleRate int  `yaml:"sample_rate"`
}

type HeadlessCfg struct {
	Ticks  int    `yaml:"ticks"`  // 0 runs until the script ends
	Script string `yaml:"script"` // see fake.ParseScript
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type RenderCfg struct {
	DepthCue   float64 `yaml:"depth_cue"`
	ExposureEV float64 `yaml:"exposure_ev"`
	Gamma      float64 `yaml:"gamma"`
}

type Config struct {
	Backend     string `yaml:"backend"` // "term" | "window" | "headless"
	TPS         int    `yaml:"tps"`
	HoldMs      int    `yaml:"hold_ms"`
	FirstHoldMs int    `yaml:"first_hold_ms"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`

	Window   WindowCfg   `yaml:"window"`
	Render   RenderCfg   `yaml:"render"`
	Panel    PanelCfg    `yaml:"panel"`
	Cues     CueCfg      `yaml:"cues"`
	Headless HeadlessCfg `yaml:"headless"`
}

func Default() *Config {
	return &Config{
		Backend:     Term,
		TPS:         60,
		HoldMs:      450,
		FirstHoldMs: 750,
		LogLevel:    "info",
		LogFile:     "spincube.log",
		Window:      WindowCfg{Width: 640, Height: 480, Title: "spincube"},
		Render:      RenderCfg{DepthCue: 0.6, ExposureEV: 0, Gamma: 2.2},
		Panel:       PanelCfg{Width: 16, Height: 16, XFlipEveryRow: true, MinIntervalMs: 33, Brightness: 0.8},
		Cues:        CueCfg{SampleRate: 44100},
		Headless:    HeadlessCfg{Width: 80, Height: 40},
	}
}

// Hold is the terminal release timeout.
func (c *Config) Hold() time.Duration { return time.Duration(c.HoldMs) * time.Millisecond }

// FirstHold is the release timeout before a key's first auto-repeat.
func (c *Config) FirstHold() time.Duration {
	return time.Duration(c.FirstHoldMs) * time.Millisecond
}

var ErrBackend = errors.New("unknown backend")

func (c *Config) Validate() error {
	switch c.Backend {
	case Term, Window, Headless:
	default:
		return fmt.Errorf("%w %q", ErrBackend, c.Backend)
	}
	if c.TPS <= 0 {
		return fmt.Errorf("tps must be positive, got %d", c.TPS)
	}
	if c.HoldMs <= 0 {
		return fmt.Errorf("hold_ms must be positive, got %d", c.HoldMs)
	}
	if c.FirstHoldMs < c.HoldMs {
		return fmt.Errorf("first_hold_ms %d is shorter than hold_ms %d", c.FirstHoldMs, c.HoldMs)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window %dx%d: size must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Headless.Width <= 0 || c.Headless.Height <= 0 {
		return fmt.Errorf("headless %dx%d: size must be positive", c.Headless.Width, c.Headless.Height)
	}
	if c.Panel.Enabled && (c.Panel.Width <= 0 || c.Panel.Height <= 0) {
		return fmt.Errorf("panel %dx%d: size must be positive", c.Panel.Width, c.Panel.Height)
	}
	if c.Render.DepthCue < 0 || c.Render.DepthCue > 1 {
		return fmt.Errorf("render.depth_cue %.2f outside 0..1", c.Render.DepthCue)
	}
	return nil
}

// Load reads path over the defaults, so a partial file only overrides what it names.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
