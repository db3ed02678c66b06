package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesTemplateConstants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, uint32(1280), cfg.Window.Width)
	assert.Equal(t, uint32(720), cfg.Window.Height)
	assert.True(t, cfg.DebugUIEnabled)
	assert.Equal(t, [4]float32{0.392157, 0.584314, 0.929412, 1.0}, cfg.Renderer.ClearColor)
	assert.Equal(t, "Resources/Font/SegoeUI_18.spritefont", cfg.Assets.DebugFont)
	require.NoError(t, cfg.Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
debug_ui_enabled = false

[window]
width = 800
height = 600

[renderer]
backend = "null"
`))
	require.NoError(t, err)
	assert.False(t, cfg.DebugUIEnabled)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, "null", cfg.Renderer.Backend)
	assert.Equal(t, "3DProgramSample", cfg.Window.Title)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[window]\nfullscreen = true\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fullscreen")
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte("[renderer]\nbackend = \"metal\"\n"))
	assert.ErrorContains(t, err, "unknown renderer backend")

	_, err = Parse([]byte("[window]\nwidth = 0\n"))
	assert.ErrorContains(t, err, "window size")
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestMarshalLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "debug"
	data, err := Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPathFromEnvironment(t *testing.T) {
	t.Setenv(EnvPath, "/tmp/custom.toml")
	assert.Equal(t, "/tmp/custom.toml", Path())
	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
