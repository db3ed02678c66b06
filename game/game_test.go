package game

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/assets"
	"github.com/spaghettifunk/gametemplate/engine/config"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/null"
)

type testWindow struct{ w, h int }

func (t testWindow) FramebufferSize() (int, int) { return t.w, t.h }

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) source() core.TimeSource {
	return func() time.Duration { return c.now }
}

func shaderFS() fstest.MapFS {
	dxbc := append([]byte("DXBC"), make([]byte, 28)...)
	fsys := fstest.MapFS{}
	for _, name := range []string{"VertexShader", "PixelShader", "GridVS", "GridPS", "SpriteVS", "SpritePS"} {
		fsys["Resources/Shaders/"+name+".cso"] = &fstest.MapFile{Data: dxbc}
	}
	return fsys
}

type fixture struct {
	game   *Game
	driver *null.Driver
	clock  *fakeClock
	input  *core.InputState
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	f := &fixture{
		driver: null.NewDriver(),
		clock:  &fakeClock{},
		input:  core.NewInputState(core.NewEventBus()),
	}
	am := assets.NewAssetManagerFS(shaderFS())
	t.Cleanup(func() { am.Close() })

	f.game = New(Options{
		Config: cfg,
		Driver: f.driver,
		Assets: am,
		Input:  f.input,
		Timer:  core.NewStepTimerWithSource(f.clock.source()),
	})
	require.NoError(t, f.game.Initialize(testWindow{DEFAULT_WIDTH, DEFAULT_HEIGHT}, DEFAULT_WIDTH, DEFAULT_HEIGHT))
	t.Cleanup(f.game.Shutdown)
	return f
}

func (f *fixture) context() *null.Context {
	return f.driver.LastDevice().Context()
}

func (f *fixture) tick(t *testing.T) {
	t.Helper()
	f.clock.now += 16 * time.Millisecond
	require.NoError(t, f.game.Tick())
	f.input.Update(0.016)
}

func triangleDraws(ctx *null.Context) []null.DrawRecord {
	var draws []null.DrawRecord
	for _, d := range ctx.Draws {
		if d.Call.Name == "DrawIndexed" && d.Call.Count == 3 {
			draws = append(draws, d)
		}
	}
	return draws
}

func TestRenderBeforeFirstUpdateIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := f.context()
	ctx.Reset()

	require.NoError(t, f.game.Render())
	assert.Empty(t, ctx.Calls)
	assert.Equal(t, 0, f.driver.LastSwapChain().Presents)
}

func TestFixedTimestepSkipsRenderUntilFirstStep(t *testing.T) {
	f := newFixture(t, func(c *config.Config) {
		c.Timer.FixedTimestep = true
		c.Timer.TargetElapsedSeconds = 0.1
	})
	ctx := f.context()
	ctx.Reset()

	f.tick(t)
	assert.Equal(t, uint32(0), f.game.Timer().FrameCount())
	assert.Empty(t, ctx.Calls)
}

func TestEveryTickClearsDrawsAndPresentsOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := f.context()

	for i := 1; i <= 3; i++ {
		ctx.Reset()
		f.tick(t)

		assert.Equal(t, 1, ctx.Count("ClearRenderTargetView"), "tick %d", i)
		assert.Equal(t, 1, ctx.Count("ClearDepthStencilView"), "tick %d", i)
		assert.Len(t, triangleDraws(ctx), 1, "tick %d", i)
		assert.Equal(t, 1, ctx.Count("Present"), "tick %d", i)
		assert.Equal(t, i, f.driver.LastSwapChain().Presents)
		assert.False(t, ctx.Mapped())
	}
}

func TestRenderOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := f.context()
	ctx.Reset()
	f.tick(t)

	names := ctx.Names()
	index := func(name string) int {
		for i, n := range names {
			if n == name {
				return i
			}
		}
		return -1
	}
	lastIndex := func(name string) int {
		for i := len(names) - 1; i >= 0; i-- {
			if names[i] == name {
				return i
			}
		}
		return -1
	}

	clear := index("ClearRenderTargetView")
	viewport := index("RSSetViewports")
	grid := index("Draw")
	present := index("Present")
	require.NotEqual(t, -1, grid)
	assert.Less(t, clear, index("OMSetRenderTargets"))
	assert.Less(t, index("OMSetRenderTargets"), viewport)
	assert.Less(t, viewport, grid)
	assert.Equal(t, present, len(names)-1)
	assert.Less(t, lastIndex("DrawIndexed"), present)

	// The triangle draw follows the grid and precedes the overlays.
	var triangle int
	for i, call := range ctx.Calls {
		if call.Name == "DrawIndexed" && call.Count == 3 {
			triangle = i
			break
		}
	}
	assert.Greater(t, triangle, grid)
	assert.Less(t, triangle, lastIndex("DrawIndexed"))
}

func TestTrianglePipelineState(t *testing.T) {
	f := newFixture(t, nil)
	ctx := f.context()
	f.tick(t)

	draws := triangleDraws(ctx)
	require.Len(t, draws, 1)
	state := draws[0].State
	pipeline := f.game.Pipeline()

	assert.Equal(t, renderer.PRIMITIVE_TOPOLOGY_TRIANGLELIST, state.Topology)
	assert.Equal(t, renderer.FORMAT_R16_UINT, state.IndexFormat)
	assert.Equal(t, []uint32{12}, state.Strides)
	assert.Same(t, pipeline.ConstantBuffer, state.VSConstants[0])
	assert.Same(t, pipeline.VertexShader, state.VertexShader)
	assert.Same(t, pipeline.PixelShader, state.PixelShader)
	assert.Nil(t, state.BlendFactor)
	assert.Equal(t, uint32(0xffffffff), state.SampleMask)
	assert.Equal(t, uint32(0), state.StencilRef)

	raster := state.Rasterizer.(*null.RasterizerState).Desc
	assert.Equal(t, renderer.FILL_SOLID, raster.FillMode)
	assert.Equal(t, renderer.CULL_BACK, raster.CullMode)
	assert.True(t, raster.FrontCounterClockwise)
	assert.True(t, raster.DepthClipEnable)

	depth := state.DepthState.(*null.DepthStencilState).Desc
	assert.True(t, depth.DepthEnable)
	assert.Equal(t, renderer.COMPARISON_LESS, depth.DepthFunc)
	assert.Equal(t, renderer.DEPTH_WRITE_MASK_ALL, depth.DepthWriteMask)

	blend := state.Blend.(*null.BlendState).Desc
	assert.False(t, blend.RenderTarget[0].BlendEnable)
	assert.Equal(t, renderer.COLOR_WRITE_ENABLE_ALL, blend.RenderTarget[0].RenderTargetWriteMask)

	layout := state.InputLayout.(*null.InputLayout)
	require.Len(t, layout.Elements, 1)
	assert.Equal(t, "POSITION", layout.Elements[0].SemanticName)
	assert.Equal(t, renderer.FORMAT_R32G32B32_FLOAT, layout.Elements[0].Format)

	vb := state.VertexBuffers[0].(*null.Buffer)
	assert.Equal(t, renderer.USAGE_DEFAULT, vb.Desc().Usage)
	assert.Equal(t, renderer.AsBytes(TriangleVertices), vb.Data)
	ib := state.IndexBuffer.(*null.Buffer)
	assert.Equal(t, renderer.USAGE_DEFAULT, ib.Desc().Usage)
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0}, ib.Data)
	cb := pipeline.ConstantBuffer.(*null.Buffer)
	assert.Equal(t, renderer.USAGE_DYNAMIC, cb.Desc().Usage)
	assert.Equal(t, renderer.CPU_ACCESS_WRITE, cb.Desc().CPUAccessFlags)
}

func TestConstantBufferIsDeterministic(t *testing.T) {
	upload := func() []byte {
		f := newFixture(t, nil)
		f.tick(t)
		f.tick(t)
		return append([]byte(nil), f.game.Pipeline().ConstantBuffer.(*null.Buffer).Data...)
	}
	first := upload()
	second := upload()
	assert.Equal(t, first, second)

	view := math.NewMat4View(math.NewVec3(0, 0, 5), math.NewVec3Zero(), math.NewVec3Up())
	proj := math.NewMat4Perspective(math.DegToRad(45), float32(DEFAULT_WIDTH)/float32(DEFAULT_HEIGHT), 0.1, 100)
	want := ConstantBuffer{WorldViewProjection: view.Mul(proj).Transposed()}

	var got ConstantBuffer
	copy(renderer.ValueBytes(&got), first)
	assert.True(t, got.WorldViewProjection.Compare(want.WorldViewProjection, 1e-5))
}

func TestTriangleIsFrontFacing(t *testing.T) {
	f := newFixture(t, nil)
	f.tick(t)
	viewProj := f.game.View().Mul(f.game.Projection())

	var ndc [3]math.Vec2
	for i, v := range TriangleVertices {
		clip := math.NewVec4(v.Position.X, v.Position.Y, v.Position.Z, 1).Transform(viewProj)
		require.Greater(t, clip.W, float32(0))
		ndc[i] = math.NewVec2(clip.X/clip.W, clip.Y/clip.W)
	}
	e1 := ndc[1].Sub(ndc[0])
	e2 := ndc[2].Sub(ndc[0])
	area := e1.X*e2.Y - e1.Y*e2.X
	assert.Greater(t, area, float32(0), "counter-clockwise on screen")
}

func TestResizeSameSizeKeepsProjection(t *testing.T) {
	f := newFixture(t, nil)
	builds := f.game.projectionBuilds
	proj := f.game.Projection()
	resizes := f.driver.LastSwapChain().Resizes

	require.NoError(t, f.game.OnWindowSizeChanged(DEFAULT_WIDTH, DEFAULT_HEIGHT))
	assert.Equal(t, builds, f.game.projectionBuilds)
	assert.Equal(t, proj, f.game.Projection())
	assert.Equal(t, resizes, f.driver.LastSwapChain().Resizes)
}

func TestResizeChangesAspectOnly(t *testing.T) {
	f := newFixture(t, nil)
	before := f.game.Projection()

	require.NoError(t, f.game.OnWindowSizeChanged(800, 800))
	after := f.game.Projection()

	want := math.NewMat4Perspective(math.DegToRad(45), 1, 0.1, 100)
	assert.True(t, want.Compare(after, 1e-6))
	assert.NotEqual(t, before.Data[0], after.Data[0])
	for _, i := range []int{5, 10, 11, 14} {
		assert.Equal(t, before.Data[i], after.Data[i], "element %d", i)
	}
	assert.Equal(t, uint32(800), f.driver.LastSwapChain().Width)
	assert.Equal(t, renderer.Viewport{Width: 800, Height: 800, MaxDepth: 1}, f.game.DeviceResources().ScreenViewport())
}

func TestDeviceLostAndRestored(t *testing.T) {
	f := newFixture(t, nil)
	f.tick(t)

	oldDevice := f.driver.LastDevice()
	oldObjects := f.game.Pipeline().Objects()

	oldDevice.SimulateDeviceRemoved()
	f.tick(t)

	newDevice := f.driver.LastDevice()
	require.NotSame(t, oldDevice, newDevice)
	assert.Empty(t, oldDevice.Live(), "every object of the lost device is released")

	newObjects := f.game.Pipeline().Objects()
	require.Len(t, newObjects, len(oldObjects))
	for i, obj := range newObjects {
		require.NotNil(t, obj)
		assert.NotSame(t, oldObjects[i], obj)
		for j, other := range newObjects {
			if i != j {
				assert.NotSame(t, other, obj)
			}
		}
	}

	ctx := newDevice.Context()
	ctx.Reset()
	f.tick(t)
	assert.Len(t, triangleDraws(ctx), 1)
	assert.Equal(t, 1, ctx.Count("Present"))
}

func TestShaderChangeRecreatesDevice(t *testing.T) {
	f := newFixture(t, nil)
	generation := f.game.DeviceResources().Generation()
	devices := len(f.driver.Devices)

	require.NoError(t, f.game.OnAssetChanged("Resources/Font/SegoeUI_18.spritefont"))
	assert.Len(t, f.driver.Devices, devices)

	require.NoError(t, f.game.OnAssetChanged("Resources/Shaders/PixelShader.cso"))
	assert.Len(t, f.driver.Devices, devices+1)
	assert.NotEqual(t, generation, f.game.DeviceResources().Generation())
	assert.NotNil(t, f.game.Pipeline())
}

func TestOnResumingResetsElapsedTime(t *testing.T) {
	f := newFixture(t, nil)
	f.tick(t)

	f.clock.now += 50 * time.Millisecond
	f.game.OnResuming()
	f.tick(t)
	assert.InDelta(t, 0.016, f.game.Timer().ElapsedSeconds(), 1e-9)
}

func TestFocusedPanelBlocksCamera(t *testing.T) {
	press := func(f *fixture) {
		f.input.ProcessKey(core.KEY_W, true)
		f.input.ProcessMouseMove(30, 25)
		f.input.ProcessButton(core.BUTTON_LEFT, true)
	}

	// The first frame creates the panel at (20, 20).
	withUI := newFixture(t, nil)
	withUI.tick(t)
	press(withUI)
	withUI.tick(t)
	assert.Equal(t, math.NewVec3Zero(), withUI.game.Camera().Target)

	withoutUI := newFixture(t, func(c *config.Config) { c.DebugUIEnabled = false })
	withoutUI.tick(t)
	press(withoutUI)
	withoutUI.tick(t)
	assert.NotEqual(t, math.NewVec3Zero(), withoutUI.game.Camera().Target)
}

func TestGetDefaultSize(t *testing.T) {
	f := newFixture(t, nil)
	w, h := f.game.GetDefaultSize()
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, h)
}

func TestFrameLoopState(t *testing.T) {
	g := New(Options{
		Config: config.Default(),
		Driver: null.NewDriver(),
		Assets: assets.NewAssetManagerFS(shaderFS()),
		Input:  core.NewInputState(core.NewEventBus()),
	})
	assert.Equal(t, StateUninitialized, g.State())
	assert.ErrorIs(t, g.Tick(), core.ErrNotInitialized)

	f := newFixture(t, nil)
	assert.Equal(t, StateReady, f.game.State())
	f.tick(t)
	f.tick(t)
	assert.Equal(t, StateReady, f.game.State())

	f.game.Shutdown()
	assert.Equal(t, StateUninitialized, f.game.State())
}

func TestCreationFailureAbortsWithoutPartialResources(t *testing.T) {
	driver := null.NewDriver()
	driver.FailOn = "CreateRasterizerState"
	am := assets.NewAssetManagerFS(shaderFS())
	t.Cleanup(func() { am.Close() })

	g := New(Options{
		Config: config.Default(),
		Driver: driver,
		Assets: am,
		Input:  core.NewInputState(core.NewEventBus()),
	})
	err := g.Initialize(testWindow{DEFAULT_WIDTH, DEFAULT_HEIGHT}, DEFAULT_WIDTH, DEFAULT_HEIGHT)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CreateRasterizerState")
	assert.Nil(t, g.Pipeline())
	assert.Equal(t, StateUninitialized, g.State())
	require.NotNil(t, driver.LastDevice())
	assert.Empty(t, driver.LastDevice().Live())
}

func TestUnreadableShaderChangeKeepsDevice(t *testing.T) {
	fsys := shaderFS()
	am := assets.NewAssetManagerFS(fsys)
	t.Cleanup(func() { am.Close() })
	driver := null.NewDriver()

	g := New(Options{
		Config: config.Default(),
		Driver: driver,
		Assets: am,
		Input:  core.NewInputState(core.NewEventBus()),
	})
	require.NoError(t, g.Initialize(testWindow{DEFAULT_WIDTH, DEFAULT_HEIGHT}, DEFAULT_WIDTH, DEFAULT_HEIGHT))
	t.Cleanup(g.Shutdown)
	pipeline := g.Pipeline()

	// The compiler has truncated the file but not written it yet.
	const pixelShader = "Resources/Shaders/PixelShader.cso"
	valid := fsys[pixelShader].Data
	fsys[pixelShader] = &fstest.MapFile{}

	require.NoError(t, g.OnAssetChanged(pixelShader))
	assert.Len(t, driver.Devices, 1)
	assert.Same(t, pipeline, g.Pipeline())

	fsys[pixelShader] = &fstest.MapFile{Data: valid}
	require.NoError(t, g.OnAssetChanged(pixelShader))
	assert.Len(t, driver.Devices, 2)
	require.NotNil(t, g.Pipeline())
	assert.NotSame(t, pipeline, g.Pipeline())
}
