package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/gametemplate/engine/assets"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// Platform owns the OS window and its message pump. Window callbacks are turned
// into events on the engine's event bus and input state.
type Platform interface {
	Startup(applicationName string, x, y, width, height int) error
	Window() renderer.Window
	// PumpMessages dispatches pending window messages and returns false once the
	// window was asked to close.
	PumpMessages() bool
	Shutdown() error
}

// DriverFactory selects the renderer driver for a backend name.
type DriverFactory func(backend string, window renderer.Window) (renderer.Driver, error)

type Services struct {
	Platform  Platform
	Events    *core.EventBus
	Input     *core.InputState
	Assets    *assets.AssetManager
	NewDriver DriverFactory
	NewGame   GameFactory
}

// SUSPENDED_SLEEP is how long the loop idles per iteration while minimized.
const SUSPENDED_SLEEP = 10 * time.Millisecond

type Engine struct {
	currentStage Stage
	appConfig    *ApplicationConfig
	services     Services
	game         Game
	isRunning    bool
	isSuspended  bool
	lastTime     time.Time
	// fatal is the first error raised while handling an event.
	fatal error
}

func New(appConfig *ApplicationConfig, services Services) (*Engine, error) {
	if services.Platform == nil || services.NewDriver == nil || services.NewGame == nil {
		return nil, fmt.Errorf("engine services incomplete: %w", core.ErrNotInitialized)
	}
	if services.Events == nil {
		services.Events = core.NewEventBus()
	}
	if services.Input == nil {
		services.Input = core.NewInputState(services.Events)
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		appConfig:    appConfig,
		services:     services,
	}, nil
}

func (e *Engine) Stage() Stage { return e.currentStage }

func (e *Engine) Game() Game { return e.game }

// Initialize opens the window, selects the driver, builds the game and starts the
// shader watcher.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageBooting
	events := e.services.Events

	events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	events.Register(core.EVENT_CODE_WINDOW_MOVED, e, e.onEvent)
	events.Register(core.EVENT_CODE_ACTIVATED, e, e.onEvent)
	events.Register(core.EVENT_CODE_DEACTIVATED, e, e.onEvent)
	events.Register(core.EVENT_CODE_SUSPENDING, e, e.onEvent)
	events.Register(core.EVENT_CODE_RESUMING, e, e.onEvent)
	events.Register(core.EVENT_CODE_DISPLAY_CHANGED, e, e.onEvent)

	if err := e.services.Platform.Startup(e.appConfig.Name,
		e.appConfig.StartPosX,
		e.appConfig.StartPosY,
		e.appConfig.StartWidth,
		e.appConfig.StartHeight); err != nil {
		return err
	}
	window := e.services.Platform.Window()

	driver, err := e.services.NewDriver(e.appConfig.Backend, window)
	if err != nil {
		return err
	}
	core.LogInfo("renderer backend: %s", driver.Type())
	e.currentStage = EngineStageBootComplete

	e.game, err = e.services.NewGame(&Application{
		Config: e.appConfig,
		Window: window,
		Driver: driver,
		Assets: e.services.Assets,
		Input:  e.services.Input,
		Events: events,
	})
	if err != nil {
		return err
	}

	e.currentStage = EngineStageInitializing
	width, height := window.FramebufferSize()
	if err := e.game.Initialize(window, width, height); err != nil {
		return err
	}

	if e.appConfig.HotReload && e.services.Assets != nil {
		if err := e.services.Assets.Watch(e.appConfig.ShaderDir); err != nil {
			core.LogWarn("shader hot reload disabled: %s", err)
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

// Run pumps window messages and ticks the game until the window closes, the game
// fails or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine run: %w", core.ErrNotInitialized)
	}
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.lastTime = time.Now()

	var changes <-chan string
	if e.services.Assets != nil {
		changes = e.services.Assets.Changes()
	}

	for e.isRunning {
		if ctx.Err() != nil {
			core.LogInfo("context cancelled, shutting down")
			break
		}
		if !e.services.Platform.PumpMessages() {
			e.isRunning = false
			break
		}
		if e.fatal != nil {
			return e.fatal
		}
		if !e.isRunning {
			break
		}

		e.drainAssetChanges(changes)
		if e.fatal != nil {
			return e.fatal
		}

		currentTime := time.Now()
		delta := currentTime.Sub(e.lastTime).Seconds()
		e.lastTime = currentTime

		if e.isSuspended {
			time.Sleep(SUSPENDED_SLEEP)
		} else if err := e.game.Tick(); err != nil {
			core.LogError("game tick failed, shutting down: %s", err)
			return err
		}

		// NOTE: Input update/state copying should always be handled
		// after any input should be recorded; I.E. before this line.
		// As a safety, input is the last thing to be updated before
		// this frame ends.
		e.services.Input.Update(delta)
	}
	return nil
}

func (e *Engine) drainAssetChanges(changes <-chan string) {
	for {
		select {
		case path := <-changes:
			if err := e.game.OnAssetChanged(path); err != nil {
				e.fail(fmt.Errorf("reloading %s: %w", path, err))
				return
			}
		default:
			return
		}
	}
}

// Shutdown releases the game, the asset watcher and the window.
func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false
	if e.game != nil {
		e.game.Shutdown()
	}
	e.services.Events.Shutdown()
	var errs []error
	if e.services.Assets != nil {
		errs = append(errs, e.services.Assets.Close())
	}
	errs = append(errs, e.services.Platform.Shutdown())
	return errors.Join(errs...)
}

func (e *Engine) fail(err error) {
	core.LogError("%s", err)
	if e.fatal == nil {
		e.fatal = err
	}
	e.isRunning = false
}

func (e *Engine) onEvent(context core.EventContext, sender, listener interface{}) bool {
	if e.game == nil {
		return false
	}
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	case core.EVENT_CODE_ACTIVATED:
		e.game.OnActivated()
	case core.EVENT_CODE_DEACTIVATED:
		e.game.OnDeactivated()
	case core.EVENT_CODE_SUSPENDING:
		if !e.isSuspended {
			e.isSuspended = true
			e.game.OnSuspending()
		}
	case core.EVENT_CODE_RESUMING:
		if e.isSuspended {
			e.isSuspended = false
			e.game.OnResuming()
		}
	case core.EVENT_CODE_WINDOW_MOVED:
		if err := e.game.OnWindowMoved(); err != nil {
			e.fail(fmt.Errorf("window moved: %w", err))
		}
	case core.EVENT_CODE_DISPLAY_CHANGED:
		e.game.OnDisplayChange()
	}
	return false
}

func (e *Engine) onKey(context core.EventContext, sender, listener interface{}) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.services.Events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT}, e)
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext, sender, listener interface{}) bool {
	we, ok := context.Data.(*core.WindowEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	// A minimized window reports a zero size; suspension is handled separately.
	if we.Width == 0 || we.Height == 0 || e.game == nil {
		return false
	}
	core.LogDebug("Window resize: %d, %d", we.Width, we.Height)
	if err := e.game.OnWindowSizeChanged(int(we.Width), int(we.Height)); err != nil {
		e.fail(fmt.Errorf("window resize: %w", err))
	}
	return false
}
