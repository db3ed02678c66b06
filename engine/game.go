package engine

import "github.com/spaghettifunk/gametemplate/engine/renderer"

// Game is what the engine drives. Every method is called on the thread that runs
// Engine.Run.
type Game interface {
	Initialize(window renderer.Window, width, height int) error
	// Tick runs one iteration of the frame loop: update, then render and present.
	Tick() error
	Shutdown()

	OnActivated()
	OnDeactivated()
	OnSuspending()
	OnResuming()
	OnWindowMoved() error
	OnDisplayChange()
	OnWindowSizeChanged(width, height int) error
	OnAssetChanged(path string) error

	GetDefaultSize() (width, height int)
}

// GameFactory builds the game once the window and the renderer driver exist.
type GameFactory func(app *Application) (Game, error)
