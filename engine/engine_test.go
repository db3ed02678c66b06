package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/assets"
	"github.com/spaghettifunk/gametemplate/engine/config"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/null"
)

type testWindow struct{ w, h int }

func (t testWindow) FramebufferSize() (int, int) { return t.w, t.h }

// scriptedPlatform runs one step per PumpMessages call and reports a close
// request once the script is exhausted.
type scriptedPlatform struct {
	window   testWindow
	steps    []func()
	started  bool
	shutdown bool
}

func (p *scriptedPlatform) Startup(name string, x, y, width, height int) error {
	p.started = true
	p.window = testWindow{width, height}
	return nil
}

func (p *scriptedPlatform) Window() renderer.Window { return p.window }

func (p *scriptedPlatform) PumpMessages() bool {
	if len(p.steps) == 0 {
		return false
	}
	step := p.steps[0]
	p.steps = p.steps[1:]
	step()
	return true
}

func (p *scriptedPlatform) Shutdown() error {
	p.shutdown = true
	return nil
}

type recordingGame struct {
	calls     []string
	tickErr   error
	resizeErr error
}

func (g *recordingGame) record(name string) { g.calls = append(g.calls, name) }

func (g *recordingGame) Initialize(window renderer.Window, width, height int) error {
	g.record("Initialize")
	return nil
}
func (g *recordingGame) Tick() error {
	g.record("Tick")
	return g.tickErr
}
func (g *recordingGame) Shutdown()        { g.record("Shutdown") }
func (g *recordingGame) OnActivated()     { g.record("OnActivated") }
func (g *recordingGame) OnDeactivated()   { g.record("OnDeactivated") }
func (g *recordingGame) OnSuspending()    { g.record("OnSuspending") }
func (g *recordingGame) OnResuming()      { g.record("OnResuming") }
func (g *recordingGame) OnDisplayChange() { g.record("OnDisplayChange") }
func (g *recordingGame) OnWindowMoved() error {
	g.record("OnWindowMoved")
	return nil
}
func (g *recordingGame) OnWindowSizeChanged(width, height int) error {
	g.record("OnWindowSizeChanged")
	return g.resizeErr
}
func (g *recordingGame) OnAssetChanged(path string) error {
	g.record("OnAssetChanged " + path)
	return nil
}
func (g *recordingGame) GetDefaultSize() (int, int) { return 1280, 720 }

func newTestEngine(t *testing.T, platform *scriptedPlatform, game *recordingGame) (*Engine, *core.EventBus) {
	t.Helper()
	cfg := config.Default()
	cfg.Assets.HotReload = false
	events := core.NewEventBus()
	e, err := New(NewApplicationConfig(&cfg, 1280, 720), Services{
		Platform: platform,
		Events:   events,
		Assets:   assets.NewAssetManagerFS(fstest.MapFS{}),
		NewDriver: func(backend string, window renderer.Window) (renderer.Driver, error) {
			return null.NewDriver(), nil
		},
		NewGame: func(app *Application) (Game, error) { return game, nil },
	})
	require.NoError(t, err)
	return e, events
}

func TestEngineLifecycle(t *testing.T) {
	platform := &scriptedPlatform{}
	game := &recordingGame{}
	e, _ := newTestEngine(t, platform, game)

	require.NoError(t, e.Initialize())
	assert.True(t, platform.started)
	assert.Equal(t, EngineStageInitialized, e.Stage())

	platform.steps = []func(){func() {}, func() {}}
	require.NoError(t, e.Run(context.Background()))
	require.NoError(t, e.Shutdown())

	assert.Equal(t, []string{"Initialize", "Tick", "Tick", "Shutdown"}, game.calls)
	assert.True(t, platform.shutdown)
	assert.Equal(t, EngineStageShuttingDown, e.Stage())
}

func TestEngineDispatchesWindowEvents(t *testing.T) {
	platform := &scriptedPlatform{}
	game := &recordingGame{}
	e, events := newTestEngine(t, platform, game)
	require.NoError(t, e.Initialize())

	fire := func(code core.SystemEventCode, data interface{}) func() {
		return func() { events.Fire(core.EventContext{Type: code, Data: data}, platform) }
	}
	platform.steps = []func(){
		fire(core.EVENT_CODE_RESIZED, &core.WindowEvent{Width: 800, Height: 600}),
		fire(core.EVENT_CODE_SUSPENDING, nil),
		fire(core.EVENT_CODE_RESIZED, &core.WindowEvent{Width: 0, Height: 0}),
		fire(core.EVENT_CODE_RESUMING, nil),
		fire(core.EVENT_CODE_WINDOW_MOVED, &core.WindowEvent{X: 10, Y: 10}),
		fire(core.EVENT_CODE_DISPLAY_CHANGED, nil),
		fire(core.EVENT_CODE_DEACTIVATED, nil),
		fire(core.EVENT_CODE_ACTIVATED, nil),
	}
	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []string{
		"Initialize",
		"OnWindowSizeChanged", "Tick",
		"OnSuspending",
		"OnResuming", "Tick",
		"OnWindowMoved", "Tick",
		"OnDisplayChange", "Tick",
		"OnDeactivated", "Tick",
		"OnActivated", "Tick",
	}, game.calls)
}

func TestEscapeQuits(t *testing.T) {
	platform := &scriptedPlatform{}
	game := &recordingGame{}
	e, events := newTestEngine(t, platform, game)
	require.NoError(t, e.Initialize())

	input := core.NewInputState(events)
	platform.steps = []func(){
		func() {},
		func() { input.ProcessKey(core.KEY_ESCAPE, true) },
		func() { t.Fatal("loop kept running after quit") },
	}
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, []string{"Initialize", "Tick"}, game.calls)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	platform := &scriptedPlatform{}
	game := &recordingGame{}
	e, _ := newTestEngine(t, platform, game)
	require.NoError(t, e.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	platform.steps = []func(){cancel, func() {}}
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, []string{"Initialize", "Tick"}, game.calls)
}

func TestTickErrorStopsRun(t *testing.T) {
	platform := &scriptedPlatform{steps: nil}
	boom := errors.New("boom")
	game := &recordingGame{tickErr: boom}
	e, _ := newTestEngine(t, platform, game)
	require.NoError(t, e.Initialize())

	platform.steps = []func(){func() {}, func() {}}
	assert.ErrorIs(t, e.Run(context.Background()), boom)
}

func TestEventErrorStopsRunAndLogsVerbatim(t *testing.T) {
	var out bytes.Buffer
	core.SetLogOutput(&out)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })

	platform := &scriptedPlatform{}
	resizeErr := errors.New("scale 100% rejected")
	game := &recordingGame{resizeErr: resizeErr}
	e, events := newTestEngine(t, platform, game)
	require.NoError(t, e.Initialize())

	platform.steps = []func(){
		func() {
			events.Fire(core.EventContext{Type: core.EVENT_CODE_RESIZED, Data: &core.WindowEvent{Width: 800, Height: 600}}, platform)
		},
		func() { t.Fatal("loop kept running after a failed event") },
	}
	assert.ErrorIs(t, e.Run(context.Background()), resizeErr)
	assert.Contains(t, out.String(), "scale 100% rejected")
	assert.NotContains(t, out.String(), "%!")
}

func TestRunRequiresInitialize(t *testing.T) {
	e, _ := newTestEngine(t, &scriptedPlatform{}, &recordingGame{})
	assert.ErrorIs(t, e.Run(context.Background()), core.ErrNotInitialized)
}

func TestNewApplicationConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Window.Width = 0
	app := NewApplicationConfig(&cfg, 1280, 720)
	assert.Equal(t, 1280, app.StartWidth)
	assert.Equal(t, 720, app.StartHeight)
	assert.Equal(t, "3DProgramSample", app.Name)
	assert.Equal(t, "auto", app.Backend)
}
