// Package config loads the bridge's TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine/mods"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full bridge configuration.
type Config struct {
	Mesh    Mesh    `toml:"mesh"`
	Frame   Frame   `toml:"frame"`
	Mods    Mods    `toml:"mods"`
	Window  Window  `toml:"window"`
	Backend Backend `toml:"backend"`
	Logging Logging `toml:"logging"`
	Metrics Metrics `toml:"metrics"`
}

// Mesh tunes the two-tier mesh cache.
type Mesh struct {
	RequiredFrames        int `toml:"required_frames"`
	MaxPromotionsPerFrame int `toml:"max_promotions_per_frame"`
	DynamicLifetime       int `toml:"dynamic_lifetime"`
	StaticLifetime        int `toml:"static_lifetime"`
}

// Frame tunes simulation pacing and the render frame pipeline.
type Frame struct {
	TickRate             int `toml:"tick_rate"`
	RenderFrames         int `toml:"render_frames"`
	SleepMarginUs        int `toml:"sleep_margin_us"`
	MaxInstances         int `toml:"max_instances"`
	InterpolationWorkers int `toml:"interpolation_workers"`
}

// SleepMargin returns the pacer's busy-wait margin.
func (f Frame) SleepMargin() time.Duration {
	return time.Duration(f.SleepMarginUs) * time.Microsecond
}

// TickDuration returns the length of one simulation tick.
func (f Frame) TickDuration() time.Duration {
	return time.Second / time.Duration(f.TickRate)
}

// Mods locates the override files. Relative file names are resolved against Dir.
type Mods struct {
	Dir           string `toml:"dir"`
	LevelLights   string `toml:"level_lights"`
	GeoLayoutMods string `toml:"geo_layout_mods"`
	TextureMods   string `toml:"texture_mods"`
	Watch         bool   `toml:"watch"`
	DebounceMs    int    `toml:"debounce_ms"`
}

// Files returns the resolved override file paths.
func (m Mods) Files() mods.Files {
	resolve := func(name string) string {
		if name == "" || filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(m.Dir, name)
	}
	return mods.Files{
		LevelLights: resolve(m.LevelLights),
		GeoLayouts:  resolve(m.GeoLayoutMods),
		Textures:    resolve(m.TextureMods),
	}
}

// Debounce returns the hot reload debounce interval.
func (m Mods) Debounce() time.Duration {
	return time.Duration(m.DebounceMs) * time.Millisecond
}

type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Backend configures the wgpu device and surface.
type Backend struct {
	// PresentMode is "vsync" or "uncapped".
	PresentMode   string `toml:"present_mode"`
	MSAA          int    `toml:"msaa"`
	ForceSoftware bool   `toml:"force_software"`
}

type Logging struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"`
}

type Metrics struct {
	// Listen is the address of the prometheus endpoint. Empty disables it.
	Listen string `toml:"listen"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Mesh: Mesh{
			RequiredFrames:        3,
			MaxPromotionsPerFrame: 1,
			DynamicLifetime:       30,
			StaticLifetime:        900,
		},
		Frame: Frame{
			TickRate:             30,
			RenderFrames:         3,
			SleepMarginUs:        500,
			MaxInstances:         1024,
			InterpolationWorkers: 4,
		},
		Mods: Mods{
			Dir:           ".",
			LevelLights:   mods.LevelLightsFile,
			GeoLayoutMods: mods.GeoLayoutsFile,
			TextureMods:   mods.TexturesFile,
			Watch:         true,
			DebounceMs:    250,
		},
		Window: Window{
			Title:  "oxy-rt",
			Width:  1280,
			Height: 720,
		},
		Backend: Backend{
			PresentMode: "vsync",
			MSAA:        4,
		},
		Logging: Logging{
			Level:    "info",
			Encoding: "console",
		},
		Metrics: Metrics{
			Listen: ":9464",
		},
	}
}

// Load reads the TOML file at path over Default and validates the result. Keys the file does not set keep
// their defaults; unknown keys are rejected. A missing file returns the defaults together with an error
// wrapping os.ErrNotExist, which callers may ignore.
//
// Parameters:
//   - path: the TOML file to read
//
// Returns:
//   - Config: the loaded configuration
//   - error: if the file could not be read, parsed or validated
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks the ranges the caches and the pipeline rely on.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}
	check(c.Mesh.RequiredFrames >= 0, "mesh.required_frames %d < 0", c.Mesh.RequiredFrames)
	check(c.Mesh.MaxPromotionsPerFrame >= 0, "mesh.max_promotions_per_frame %d < 0", c.Mesh.MaxPromotionsPerFrame)
	check(c.Mesh.DynamicLifetime > 0, "mesh.dynamic_lifetime %d <= 0", c.Mesh.DynamicLifetime)
	check(c.Mesh.StaticLifetime > 0, "mesh.static_lifetime %d <= 0", c.Mesh.StaticLifetime)
	check(c.Frame.TickRate > 0, "frame.tick_rate %d <= 0", c.Frame.TickRate)
	check(c.Frame.RenderFrames >= 3, "frame.render_frames %d < 3", c.Frame.RenderFrames)
	check(c.Frame.SleepMarginUs >= 0, "frame.sleep_margin_us %d < 0", c.Frame.SleepMarginUs)
	check(c.Frame.MaxInstances > 0, "frame.max_instances %d <= 0", c.Frame.MaxInstances)
	check(c.Frame.InterpolationWorkers > 0, "frame.interpolation_workers %d <= 0", c.Frame.InterpolationWorkers)
	check(c.Mods.DebounceMs >= 0, "mods.debounce_ms %d < 0", c.Mods.DebounceMs)
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size %dx%d", c.Window.Width, c.Window.Height)
	check(c.Backend.PresentMode == "vsync" || c.Backend.PresentMode == "uncapped", "backend.present_mode %q", c.Backend.PresentMode)
	switch c.Backend.MSAA {
	case 0, 1, 4, 8:
	default:
		check(false, "backend.msaa %d", c.Backend.MSAA)
	}
	check(c.Logging.Encoding == "json" || c.Logging.Encoding == "console", "logging.encoding %q", c.Logging.Encoding)
	return errors.Join(errs...)
}

// Write encodes c as TOML to path.
func Write(path string, c Config) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
