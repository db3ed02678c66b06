/*
The game template entry point: it loads the configuration, opens the window
and drives the template game until the window closes or the process is
interrupted.
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/gametemplate/engine"
	"github.com/spaghettifunk/gametemplate/engine/assets"
	"github.com/spaghettifunk/gametemplate/engine/config"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/platform"
	"github.com/spaghettifunk/gametemplate/engine/renderer/backends"
	"github.com/spaghettifunk/gametemplate/game"
)

func main() {
	if err := run(); err != nil {
		panic(err)
	}
}

func run() error {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	core.SetLogLevel(core.ParseLogLevel(cfg.Log.Level))

	events := core.NewEventBus()
	input := core.NewInputState(events)

	e, err := engine.New(
		engine.NewApplicationConfig(&cfg, game.DEFAULT_WIDTH, game.DEFAULT_HEIGHT),
		engine.Services{
			Platform:  platform.New(events, input),
			Events:    events,
			Input:     input,
			Assets:    assets.NewAssetManager(cfg.Assets.ResourceDir),
			NewDriver: backends.NewDriver,
			NewGame: func(app *engine.Application) (engine.Game, error) {
				return game.New(game.Options{
					Config: cfg,
					Driver: app.Driver,
					Assets: app.Assets,
					Input:  app.Input,
				}), nil
			},
		},
	)
	if err != nil {
		return err
	}

	// capture sigterm and other system calls here
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}
	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
