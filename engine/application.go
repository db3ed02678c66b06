package engine

import (
	"github.com/spaghettifunk/gametemplate/engine/assets"
	"github.com/spaghettifunk/gametemplate/engine/config"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int
	// Window starting position y axis, if applicable.
	StartPosY int
	// Window starting width, if applicable.
	StartWidth int
	// Window starting height, if applicable.
	StartHeight int
	// The application name used in windowing, if applicable.
	Name string
	// Backend names the renderer driver: auto, d3d11, vulkan or null.
	Backend string
	// ShaderDir is watched for changes when HotReload is set.
	ShaderDir string
	HotReload bool
}

// NewApplicationConfig derives the application settings from the configuration,
// falling back to the game's default size when the window size is unset.
func NewApplicationConfig(cfg *config.Config, defaultWidth, defaultHeight int) *ApplicationConfig {
	width, height := int(cfg.Window.Width), int(cfg.Window.Height)
	if width == 0 || height == 0 {
		width, height = defaultWidth, defaultHeight
	}
	return &ApplicationConfig{
		StartPosX:   100,
		StartPosY:   100,
		StartWidth:  width,
		StartHeight: height,
		Name:        cfg.Window.Title,
		Backend:     cfg.Renderer.Backend,
		ShaderDir:   cfg.Assets.ShaderDir,
		HotReload:   cfg.Assets.HotReload,
	}
}

// Application is the set of engine services handed to the GameFactory.
type Application struct {
	Config *ApplicationConfig
	Window renderer.Window
	Driver renderer.Driver
	Assets *assets.AssetManager
	Input  *core.InputState
	Events *core.EventBus
}
