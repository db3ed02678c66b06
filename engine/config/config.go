package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// EnvPath names the environment variable that overrides the configuration path.
const EnvPath = "GAME_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config.toml"

type Window struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type Renderer struct {
	// Backend is one of auto, d3d11, vulkan or null.
	Backend    string     `toml:"backend"`
	VSync      bool       `toml:"vsync"`
	DebugLayer bool       `toml:"debug_layer"`
	ClearColor [4]float32 `toml:"clear_color"`
}

type Timer struct {
	FixedTimestep        bool    `toml:"fixed_timestep"`
	TargetElapsedSeconds float64 `toml:"target_elapsed_seconds"`
}

type Assets struct {
	ResourceDir string  `toml:"resource_dir"`
	ShaderDir   string  `toml:"shader_dir"`
	DebugFont   string  `toml:"debug_font"`
	UIFont      string  `toml:"ui_font"`
	UIFontSize  float64 `toml:"ui_font_size"`
	HotReload   bool    `toml:"hot_reload"`
}

type Log struct {
	Level string `toml:"level"`
}

// Config is the complete application configuration.
type Config struct {
	DebugUIEnabled bool     `toml:"debug_ui_enabled"`
	Window         Window   `toml:"window"`
	Renderer       Renderer `toml:"renderer"`
	Timer          Timer    `toml:"timer"`
	Assets         Assets   `toml:"assets"`
	Log            Log      `toml:"log"`
}

var validBackends = []string{"auto", "d3d11", "vulkan", "null"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DebugUIEnabled: true,
		Window: Window{
			Title:  "3DProgramSample",
			Width:  1280,
			Height: 720,
		},
		Renderer: Renderer{
			Backend:    "auto",
			VSync:      true,
			DebugLayer: false,
			ClearColor: [4]float32{0.392157, 0.584314, 0.929412, 1.0},
		},
		Timer: Timer{
			FixedTimestep:        false,
			TargetElapsedSeconds: 1.0 / 60.0,
		},
		Assets: Assets{
			ResourceDir: ".",
			ShaderDir:   "Resources/Shaders",
			DebugFont:   "Resources/Font/SegoeUI_18.spritefont",
			UIFont:      "C:/Windows/Fonts/ARIAL.ttf",
			UIFontSize:  16,
			HotReload:   true,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Parse decodes TOML on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Path returns the configuration path from the environment or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Marshal encodes cfg as TOML.
func Marshal(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

func (c Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("config: window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	backend := strings.ToLower(c.Renderer.Backend)
	known := false
	for _, b := range validBackends {
		if b == backend {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("config: unknown renderer backend %q (want one of %s)", c.Renderer.Backend, strings.Join(validBackends, ", "))
	}
	if c.Assets.UIFontSize <= 0 {
		return fmt.Errorf("config: ui_font_size must be positive, got %v", c.Assets.UIFontSize)
	}
	if c.Timer.FixedTimestep && c.Timer.TargetElapsedSeconds <= 0 {
		return fmt.Errorf("config: target_elapsed_seconds must be positive with a fixed timestep")
	}
	return nil
}
