// Package game is the template game: it draws one triangle over a grid floor with
// a debug font overlay, a debug panel and an orbiting debug camera.
package game

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/assets"
	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
	"github.com/spaghettifunk/gametemplate/engine/config"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/components"
	"github.com/spaghettifunk/gametemplate/engine/renderer/debug"
)

const (
	DEFAULT_WIDTH  = 1280
	DEFAULT_HEIGHT = 720

	FIELD_OF_VIEW_DEGREES float32 = 45.0
	NEAR_PLANE            float32 = 0.1
	FAR_PLANE             float32 = 100.0

	DEBUG_PANEL_TITLE = "Light & Material"
)

// sceneShaders are all the shaders a device restore needs.
var sceneShaders = []string{
	VERTEX_SHADER, PIXEL_SHADER,
	debug.GRID_VS, debug.GRID_PS,
	debug.SPRITE_VS, debug.SPRITE_PS,
}

// State is the frame loop state.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRendering:
		return "rendering"
	}
	return "uninitialized"
}

// Input is what the game reads from the keyboard and the mouse.
type Input interface {
	components.Input
	debug.UIInput
}

type Options struct {
	Config config.Config
	Driver renderer.Driver
	Assets *assets.AssetManager
	Input  Input
	// Timer defaults to a variable-timestep timer on the monotonic clock.
	Timer *core.StepTimer
}

type Game struct {
	state           State
	config          config.Config
	deviceResources *renderer.DeviceResources
	timer           *core.StepTimer
	metrics         *core.Metrics
	input           Input
	assets          *assets.AssetManager
	shaders         *assets.ShaderLibrary

	camera     *components.DebugCamera
	view       math.Mat4
	projection math.Mat4

	pipeline  *PipelineBundle
	gridFloor *debug.GridFloor
	debugFont *debug.DebugFont
	debugUI   *debug.DebugUI

	debugFontData *loaders.FontData
	uiFontData    *loaders.FontData

	// projectionBuilds counts projection recomputations.
	projectionBuilds int
}

func New(opts Options) *Game {
	timer := opts.Timer
	if timer == nil {
		timer = core.NewStepTimer()
	}
	cfg := opts.Config
	if cfg.Timer.FixedTimestep {
		timer.SetFixedTimeStep(true)
		timer.SetTargetElapsedSeconds(cfg.Timer.TargetElapsedSeconds)
	}

	dropts := renderer.DefaultDeviceResourcesOptions()
	dropts.VSync = cfg.Renderer.VSync
	dropts.DebugLayer = cfg.Renderer.DebugLayer
	dr := renderer.NewDeviceResources(opts.Driver, dropts)

	g := &Game{
		config:          cfg,
		deviceResources: dr,
		timer:           timer,
		metrics:         core.NewMetrics(),
		input:           opts.Input,
		assets:          opts.Assets,
		shaders:         assets.NewShaderLibrary(opts.Assets, cfg.Assets.ShaderDir, dr.ShaderExtension()),
		view:            math.NewMat4Identity(),
		projection:      math.NewMat4Identity(),
	}
	dr.RegisterDeviceNotify(g)
	return g
}

// Initialize creates the device, every resource and the camera.
func (g *Game) Initialize(window renderer.Window, width, height int) error {
	g.deviceResources.SetWindow(window, width, height)

	if err := g.deviceResources.CreateDeviceResources(); err != nil {
		return err
	}
	g.loadFonts()
	if err := g.CreateDeviceDependentResources(); err != nil {
		return err
	}

	if err := g.deviceResources.CreateWindowSizeDependentResources(); err != nil {
		return err
	}
	g.CreateWindowSizeDependentResources()

	g.camera = components.NewDebugCamera()
	g.view = g.camera.GetView()
	g.state = StateReady
	return nil
}

// Tick advances the timer, updates the world and renders a frame.
func (g *Game) Tick() error {
	if g.state != StateReady {
		return fmt.Errorf("tick in state %s: %w", g.state, core.ErrNotInitialized)
	}
	g.timer.Tick(func() {
		g.Update(g.timer)
	})
	return g.Render()
}

// Update advances the world by the timer's elapsed time.
func (g *Game) Update(timer *core.StepTimer) {
	elapsed := timer.ElapsedSeconds()
	g.metrics.Update(elapsed)

	if g.config.DebugUIEnabled && g.debugUI != nil {
		g.debugUI.NewFrame(g.input)
		g.debugUI.Begin(DEBUG_PANEL_TITLE)
		g.debugUI.Text("Backend: %s", g.deviceResources.RendererType())
		g.debugUI.Text("Color space: %s", g.deviceResources.ColorSpace())
		eye := g.camera.Eye()
		g.debugUI.Text("Eye: %.2f, %.2f, %.2f", eye.X, eye.Y, eye.Z)
		if !g.debugUI.IsWindowFocused() {
			g.camera.Update(g.input, float32(elapsed))
		}
		g.debugUI.End()
	} else {
		g.camera.Update(g.input, float32(elapsed))
	}
	g.view = g.camera.GetView()
}

// Render draws the frame and presents it. Nothing is drawn before the first update.
func (g *Game) Render() error {
	if g.timer.FrameCount() == 0 {
		return nil
	}
	if g.pipeline == nil {
		return fmt.Errorf("rendering: %w", core.ErrNotInitialized)
	}
	g.state = StateRendering
	defer func() { g.state = StateReady }()

	g.Clear()

	ctx := g.deviceResources.Context()

	if err := g.gridFloor.Render(ctx, g.view, g.projection); err != nil {
		return err
	}

	cb := ConstantBuffer{WorldViewProjection: g.view.Mul(g.projection).Transposed()}
	mapped, err := ctx.Map(g.pipeline.ConstantBuffer, renderer.MAP_WRITE_DISCARD)
	if err != nil {
		return fmt.Errorf("mapping constant buffer: %w", err)
	}
	copy(mapped, renderer.ValueBytes(&cb))
	ctx.Unmap(g.pipeline.ConstantBuffer)

	g.pipeline.Bind(ctx)
	ctx.DrawIndexed(uint32(len(TriangleIndices)), 0, 0)

	viewport := g.deviceResources.ScreenViewport()
	eye := g.camera.Eye()
	line := g.debugFont.LineSpacing()
	g.debugFont.AddString(0, 0, debug.ColorYellow, g.config.Window.Title)
	g.debugFont.AddStringf(0, line, debug.ColorWhite, "FPS: %d  (%.2f ms)", g.timer.FramesPerSecond(), g.metrics.FrameTime())
	g.debugFont.AddStringf(0, 2*line, debug.ColorWhite, "Camera: %.2f, %.2f, %.2f", eye.X, eye.Y, eye.Z)
	if err := g.debugFont.Render(ctx, viewport); err != nil {
		return err
	}

	if g.config.DebugUIEnabled {
		if err := g.debugUI.Render(ctx, viewport); err != nil {
			return err
		}
	}

	return g.deviceResources.Present()
}

// Clear clears the back buffer and the depth buffer, binds them and sets the viewport.
func (g *Game) Clear() {
	ctx := g.deviceResources.Context()
	renderTarget := g.deviceResources.RenderTargetView()
	depthStencil := g.deviceResources.DepthStencilView()

	ctx.ClearRenderTargetView(renderTarget, g.config.Renderer.ClearColor)
	ctx.ClearDepthStencilView(depthStencil, renderer.CLEAR_DEPTH|renderer.CLEAR_STENCIL, 1.0, 0)
	ctx.OMSetRenderTargets([]renderer.RenderTargetView{renderTarget}, depthStencil)

	ctx.RSSetViewports([]renderer.Viewport{g.deviceResources.ScreenViewport()})
}

func (g *Game) OnActivated() {
	core.LogDebug("game activated")
}

func (g *Game) OnDeactivated() {
	core.LogDebug("game deactivated")
}

func (g *Game) OnSuspending() {
	core.LogDebug("game suspending")
}

func (g *Game) OnResuming() {
	g.timer.ResetElapsedTime()
}

// OnWindowMoved re-checks the output size; moving across monitors can change it.
func (g *Game) OnWindowMoved() error {
	width, height := g.deviceResources.OutputSize()
	_, err := g.deviceResources.WindowSizeChanged(int(width), int(height))
	return err
}

func (g *Game) OnDisplayChange() {
	g.deviceResources.UpdateColorSpace()
}

// OnWindowSizeChanged resizes the swap chain and the projection. Same-size
// notifications are ignored.
func (g *Game) OnWindowSizeChanged(width, height int) error {
	changed, err := g.deviceResources.WindowSizeChanged(width, height)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	g.CreateWindowSizeDependentResources()
	return nil
}

// OnAssetChanged recreates every device object when a compiled shader changes.
// While any shader fails to load, e.g. one still being written, the current
// device and pipeline stay in use.
func (g *Game) OnAssetChanged(path string) error {
	if !g.shaders.Owns(path) {
		return nil
	}
	for _, name := range sceneShaders {
		if _, err := g.shaders.Shader(name); err != nil {
			core.LogWarn("shader %s changed but %s does not load, keeping the current device: %s", path, name, err)
			return nil
		}
	}
	core.LogInfo("shader %s changed, reloading", path)
	return g.deviceResources.HandleDeviceLost()
}

// GetDefaultSize is the preferred client size of the window.
func (g *Game) GetDefaultSize() (width, height int) {
	return DEFAULT_WIDTH, DEFAULT_HEIGHT
}

// CreateDeviceDependentResources creates the pipeline bundle and the debug helpers.
func (g *Game) CreateDeviceDependentResources() error {
	device := g.deviceResources.Device()
	if device == nil {
		return fmt.Errorf("creating resources: %w", core.ErrNotInitialized)
	}

	pipeline, err := CreatePipelineBundle(device, g.shaders)
	if err != nil {
		return err
	}
	g.pipeline = pipeline

	if g.gridFloor, err = debug.NewGridFloor(device, g.shaders, debug.DEFAULT_GRID_SIZE, debug.DEFAULT_GRID_DIVISIONS, debug.DefaultGridColor); err != nil {
		return err
	}
	if g.debugFont, err = debug.NewDebugFont(device, g.shaders, g.debugFontData); err != nil {
		return err
	}
	if g.config.DebugUIEnabled {
		if g.debugUI, err = debug.NewDebugUI(device, g.shaders, g.uiFontData); err != nil {
			return err
		}
	}
	return nil
}

// CreateWindowSizeDependentResources rebuilds the projection for the output size.
func (g *Game) CreateWindowSizeDependentResources() {
	width, height := g.deviceResources.OutputSize()
	aspect := float32(width) / float32(height)
	g.projection = math.NewMat4Perspective(math.DegToRad(FIELD_OF_VIEW_DEGREES), aspect, NEAR_PLANE, FAR_PLANE)
	g.projectionBuilds++
}

// OnDeviceLost releases every object created by the lost device.
func (g *Game) OnDeviceLost() {
	if g.debugUI != nil {
		g.debugUI.Release()
		g.debugUI = nil
	}
	if g.debugFont != nil {
		g.debugFont.Release()
		g.debugFont = nil
	}
	if g.gridFloor != nil {
		g.gridFloor.Release()
		g.gridFloor = nil
	}
	if g.pipeline != nil {
		g.pipeline.Release()
		g.pipeline = nil
	}
}

// OnDeviceRestored recreates the device objects and the projection.
func (g *Game) OnDeviceRestored() error {
	if err := g.CreateDeviceDependentResources(); err != nil {
		return err
	}
	g.CreateWindowSizeDependentResources()
	return nil
}

// Shutdown releases the game's objects and the device.
func (g *Game) Shutdown() {
	g.OnDeviceLost()
	g.deviceResources.Release()
	g.state = StateUninitialized
}

func (g *Game) State() State                                { return g.state }
func (g *Game) DeviceResources() *renderer.DeviceResources { return g.deviceResources }
func (g *Game) Timer() *core.StepTimer                     { return g.timer }
func (g *Game) Camera() *components.DebugCamera            { return g.camera }
func (g *Game) Pipeline() *PipelineBundle                  { return g.pipeline }
func (g *Game) View() math.Mat4                            { return g.view }
func (g *Game) Projection() math.Mat4                      { return g.projection }

// loadFonts reads the debug font and the UI font. Missing fonts fall back to the
// built-in bitmap face.
func (g *Game) loadFonts() {
	g.debugFontData = g.loadFont(g.config.Assets.DebugFont, nil)
	if g.config.DebugUIEnabled {
		g.uiFontData = g.loadFont(g.config.Assets.UIFont, loaders.SystemFontParams{Size: g.config.Assets.UIFontSize})
	}
}

func (g *Game) loadFont(name string, params interface{}) *loaders.FontData {
	fontType := assets.DetermineAssetType(name)
	res, err := g.assets.LoadAsset(name, fontType, params)
	if err == nil {
		if data, ok := res.Data.(*loaders.FontData); ok {
			return data
		}
		err = fmt.Errorf("%s: %w", name, core.ErrInvalidFont)
	}
	core.LogWarn("font %s unavailable, using the built-in face: %s", name, err)
	return loaders.FallbackFont()
}
