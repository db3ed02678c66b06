package debug

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/null"
)

type shaderMap map[string][]byte

func (m shaderMap) Shader(name string) ([]byte, error) {
	code, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, core.ErrShaderNotFound)
	}
	return code, nil
}

func testShaders() shaderMap {
	code := append([]byte("DXBC"), make([]byte, 28)...)
	return shaderMap{GRID_VS: code, GRID_PS: code, SPRITE_VS: code, SPRITE_PS: code}
}

func newTestDevice(t *testing.T) (*null.Device, *null.Context) {
	t.Helper()
	driver := null.NewDriver()
	_, _, err := driver.CreateDevice(false)
	require.NoError(t, err)
	device := driver.LastDevice()
	return device, device.Context()
}

var testViewport = renderer.Viewport{Width: 1280, Height: 720, MaxDepth: 1}

func TestGridVertices(t *testing.T) {
	vertices := GridVertices(DEFAULT_GRID_SIZE, DEFAULT_GRID_DIVISIONS, DefaultGridColor)
	require.Len(t, vertices, 44)
	for _, v := range vertices {
		assert.Equal(t, float32(0), v.Position.Y)
		assert.LessOrEqual(t, v.Position.X, float32(5))
		assert.GreaterOrEqual(t, v.Position.X, float32(-5))
		assert.LessOrEqual(t, v.Position.Z, float32(5))
		assert.GreaterOrEqual(t, v.Position.Z, float32(-5))
	}
	assert.Equal(t, math.NewVec3(-5, 0, -5), vertices[0].Position)
	assert.Equal(t, math.NewVec3(-5, 0, 5), vertices[1].Position)
	assert.Equal(t, math.NewVec3(5, 0, 5), vertices[43].Position)
}

func TestGridFloorRender(t *testing.T) {
	device, ctx := newTestDevice(t)
	grid, err := NewGridFloor(device, testShaders(), DEFAULT_GRID_SIZE, DEFAULT_GRID_DIVISIONS, DefaultGridColor)
	require.NoError(t, err)
	defer grid.Release()

	view := math.NewMat4View(math.NewVec3(0, 0, 5), math.NewVec3Zero(), math.NewVec3Up())
	proj := math.NewMat4Perspective(math.DegToRad(45), 16.0/9.0, 0.1, 100)
	require.NoError(t, grid.Render(ctx, view, proj))

	require.Len(t, ctx.Draws, 1)
	draw := ctx.Draws[0]
	assert.Equal(t, "Draw", draw.Call.Name)
	assert.Equal(t, uint32(44), draw.Call.Count)
	assert.Equal(t, renderer.PRIMITIVE_TOPOLOGY_LINELIST, draw.State.Topology)
	assert.Equal(t, []uint32{28}, draw.State.Strides)
	assert.False(t, ctx.Mapped())

	cb := draw.State.VSConstants[0].(*null.Buffer)
	want := view.Mul(proj).Transposed()
	assert.Equal(t, renderer.ValueBytes(&want), cb.Data)
}

func TestGridFloorErrors(t *testing.T) {
	device, _ := newTestDevice(t)
	_, err := NewGridFloor(device, testShaders(), 10, 0, DefaultGridColor)
	assert.Error(t, err)

	_, err = NewGridFloor(device, shaderMap{}, 10, 10, DefaultGridColor)
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
}

func TestSpriteBatchGroupsByTexture(t *testing.T) {
	device, ctx := newTestDevice(t)
	batch, err := NewSpriteBatch(device, testShaders())
	require.NoError(t, err)
	defer batch.Release()

	a, err := NewWhiteTexture(device)
	require.NoError(t, err)
	b, err := NewWhiteTexture(device)
	require.NoError(t, err)

	src := Rect{W: 1, H: 1}
	batch.Begin(ctx, testViewport)
	batch.Draw(a, Rect{W: 10, H: 10}, src, ColorWhite)
	batch.Draw(a, Rect{X: 10, W: 10, H: 10}, src, ColorWhite)
	batch.Draw(b, Rect{X: 20, W: 10, H: 10}, src, ColorWhite)
	batch.Draw(a, Rect{X: 30, W: 0, H: 10}, src, ColorWhite)
	require.NoError(t, batch.End())

	require.Len(t, ctx.Draws, 2)
	assert.Equal(t, uint32(12), ctx.Draws[0].Call.Count)
	assert.Equal(t, uint32(6), ctx.Draws[1].Call.Count)
	assert.Equal(t, renderer.FORMAT_R16_UINT, ctx.Draws[0].State.IndexFormat)
	assert.Equal(t, []uint32{36}, ctx.Draws[0].State.Strides)

	blend := ctx.Draws[0].State.Blend.(*null.BlendState)
	assert.True(t, blend.Desc.RenderTarget[0].BlendEnable)
	assert.Equal(t, renderer.BLEND_ONE, blend.Desc.RenderTarget[0].SrcBlend)
	assert.Equal(t, renderer.BLEND_INV_SRC_ALPHA, blend.Desc.RenderTarget[0].DestBlend)
	depth := ctx.Draws[0].State.DepthState.(*null.DepthStencilState)
	assert.False(t, depth.Desc.DepthEnable)
	assert.False(t, ctx.Mapped())

	assert.Error(t, batch.End())
}

func TestSpriteBatchPremultipliesColor(t *testing.T) {
	device, ctx := newTestDevice(t)
	batch, err := NewSpriteBatch(device, testShaders())
	require.NoError(t, err)
	defer batch.Release()
	tex, err := NewWhiteTexture(device)
	require.NoError(t, err)

	batch.Begin(ctx, testViewport)
	batch.Draw(tex, Rect{W: 4, H: 4}, Rect{W: 1, H: 1}, math.NewVec4(1, 0.5, 0, 0.5))
	require.NoError(t, batch.End())

	vb := ctx.Draws[0].State.VertexBuffers[0].(*null.Buffer)
	vertices := make([]math.VertexPositionColorTexture, 4)
	copy(renderer.AsBytes(vertices), vb.Data)
	assert.Equal(t, math.NewVec4(0.5, 0.25, 0, 0.5), vertices[0].Colour)
	assert.Equal(t, math.NewVec3(4, 4, 0), vertices[3].Position)
	assert.Equal(t, math.NewVec2(1, 1), vertices[3].Texcoord)
}

func TestDebugFontQueuesUntilRender(t *testing.T) {
	device, ctx := newTestDevice(t)
	font, err := NewDebugFont(device, testShaders(), loaders.FallbackFont())
	require.NoError(t, err)
	defer font.Release()

	require.NoError(t, font.Render(ctx, testViewport))
	assert.Empty(t, ctx.Draws)

	font.AddString(10, 10, ColorWhite, "AB")
	font.AddStringf(10, 30, ColorYellow, "%d", 7)
	assert.Equal(t, 2, font.Pending())

	require.NoError(t, font.Render(ctx, testViewport))
	require.Len(t, ctx.Draws, 1)
	assert.Equal(t, uint32(3*6), ctx.Draws[0].Call.Count)
	assert.Equal(t, 0, font.Pending())
}

func TestDebugFontRejectsMissingAtlas(t *testing.T) {
	device, _ := newTestDevice(t)
	_, err := NewDebugFont(device, testShaders(), &loaders.FontData{})
	assert.ErrorIs(t, err, core.ErrInvalidFont)
}

type fakeMouse struct {
	x, y      int32
	down, was bool
}

func (m *fakeMouse) IsButtonDown(button core.Button) bool  { return button == core.BUTTON_LEFT && m.down }
func (m *fakeMouse) WasButtonDown(button core.Button) bool { return button == core.BUTTON_LEFT && m.was }
func (m *fakeMouse) MousePosition() (int32, int32)         { return m.x, m.y }

func (m *fakeMouse) step(x, y int32, down bool) {
	m.was = m.down
	m.x, m.y, m.down = x, y, down
}

func runPanel(ui *DebugUI, input UIInput) bool {
	ui.NewFrame(input)
	ui.Begin("Light & Material")
	ui.Text("FPS %d", 60)
	focused := ui.IsWindowFocused()
	ui.End()
	return focused
}

func TestDebugUIFocusAndDrag(t *testing.T) {
	device, ctx := newTestDevice(t)
	ui, err := NewDebugUI(device, testShaders(), loaders.FallbackFont())
	require.NoError(t, err)
	defer ui.Release()

	mouse := &fakeMouse{x: 600, y: 600}
	assert.False(t, runPanel(ui, mouse), "panels start unfocused")

	// Press on the title bar.
	mouse.step(30, 25, true)
	assert.True(t, runPanel(ui, mouse))
	assert.True(t, ui.WantCaptureMouse())

	// Drag by (100, 50).
	mouse.step(130, 75, true)
	assert.True(t, runPanel(ui, mouse))
	panel := ui.panels["Light & Material"]
	assert.Equal(t, float32(120), panel.x)
	assert.Equal(t, float32(70), panel.y)

	mouse.step(130, 75, false)
	assert.True(t, runPanel(ui, mouse), "focus stays after release")

	// Click outside.
	mouse.step(900, 600, true)
	assert.False(t, runPanel(ui, mouse))
	assert.False(t, ui.WantCaptureMouse())

	require.NoError(t, ui.Render(ctx, testViewport))
	require.NotEmpty(t, ctx.Draws)
}
