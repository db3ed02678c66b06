package debug

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

const (
	DEFAULT_GRID_SIZE      float32 = 10.0
	DEFAULT_GRID_DIVISIONS int     = 10
)

var DefaultGridColor = math.Vec4{X: 0.5, Y: 0.5, Z: 0.5, W: 1.0}

/**
 * @brief A square line grid on the XZ plane centred on the origin, used as a
 * reference floor. It is drawn with the caller's view and projection.
 */
type GridFloor struct {
	Size      float32
	Divisions int
	Color     math.Vec4

	vertexShader   renderer.VertexShader
	pixelShader    renderer.PixelShader
	inputLayout    renderer.InputLayout
	vertexBuffer   renderer.Buffer
	constantBuffer renderer.Buffer
	depthState     renderer.DepthStencilState
	blendState     renderer.BlendState
	rasterizer     renderer.RasterizerState
	vertexCount    uint32
}

// GridVertices returns the line list of a size x size grid with divisions cells per side.
func GridVertices(size float32, divisions int, color math.Vec4) []math.VertexPositionColor {
	half := size / 2
	step := size / float32(divisions)
	vertices := make([]math.VertexPositionColor, 0, (divisions+1)*4)
	for i := 0; i <= divisions; i++ {
		offset := -half + float32(i)*step
		vertices = append(vertices,
			math.VertexPositionColor{Position: math.NewVec3(offset, 0, -half), Colour: color},
			math.VertexPositionColor{Position: math.NewVec3(offset, 0, half), Colour: color},
			math.VertexPositionColor{Position: math.NewVec3(-half, 0, offset), Colour: color},
			math.VertexPositionColor{Position: math.NewVec3(half, 0, offset), Colour: color},
		)
	}
	return vertices
}

func NewGridFloor(device renderer.Device, shaders ShaderSource, size float32, divisions int, color math.Vec4) (_ *GridFloor, err error) {
	if divisions < 1 || size <= 0 {
		return nil, fmt.Errorf("invalid grid %vx%d", size, divisions)
	}
	g := &GridFloor{Size: size, Divisions: divisions, Color: color}
	defer func() {
		if err != nil {
			g.Release()
		}
	}()

	vsCode, err := shaders.Shader(GRID_VS)
	if err != nil {
		return nil, err
	}
	if g.vertexShader, err = device.CreateVertexShader(vsCode); err != nil {
		return nil, fmt.Errorf("grid vertex shader: %w", err)
	}
	if g.inputLayout, err = device.CreateInputLayout([]renderer.InputElementDesc{
		{SemanticName: "POSITION", Format: renderer.FORMAT_R32G32B32_FLOAT, AlignedByteOffset: 0},
		{SemanticName: "COLOR", Format: renderer.FORMAT_R32G32B32A32_FLOAT, AlignedByteOffset: 12},
	}, vsCode); err != nil {
		return nil, fmt.Errorf("grid input layout: %w", err)
	}
	psCode, err := shaders.Shader(GRID_PS)
	if err != nil {
		return nil, err
	}
	if g.pixelShader, err = device.CreatePixelShader(psCode); err != nil {
		return nil, fmt.Errorf("grid pixel shader: %w", err)
	}

	vertices := GridVertices(size, divisions, color)
	g.vertexCount = uint32(len(vertices))
	if g.vertexBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth: uint32(len(vertices) * 28),
		Usage:     renderer.USAGE_DEFAULT,
		BindFlags: renderer.BIND_VERTEX_BUFFER,
	}, renderer.AsBytes(vertices)); err != nil {
		return nil, fmt.Errorf("grid vertex buffer: %w", err)
	}
	if g.constantBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth:      64,
		Usage:          renderer.USAGE_DYNAMIC,
		BindFlags:      renderer.BIND_CONSTANT_BUFFER,
		CPUAccessFlags: renderer.CPU_ACCESS_WRITE,
	}, nil); err != nil {
		return nil, fmt.Errorf("grid constant buffer: %w", err)
	}

	if g.depthState, err = device.CreateDepthStencilState(renderer.DefaultDepthStencilDesc()); err != nil {
		return nil, fmt.Errorf("grid depth state: %w", err)
	}
	if g.blendState, err = device.CreateBlendState(renderer.DefaultBlendDesc()); err != nil {
		return nil, fmt.Errorf("grid blend state: %w", err)
	}
	raster := renderer.DefaultRasterizerDesc()
	raster.CullMode = renderer.CULL_NONE
	if g.rasterizer, err = device.CreateRasterizerState(raster); err != nil {
		return nil, fmt.Errorf("grid rasterizer state: %w", err)
	}
	return g, nil
}

// Render draws the grid with the world at the origin.
func (g *GridFloor) Render(ctx renderer.Context, view, projection math.Mat4) error {
	wvp := view.Mul(projection).Transposed()
	mapped, err := ctx.Map(g.constantBuffer, renderer.MAP_WRITE_DISCARD)
	if err != nil {
		return fmt.Errorf("mapping grid constants: %w", err)
	}
	copy(mapped, renderer.ValueBytes(&wvp))
	ctx.Unmap(g.constantBuffer)

	ctx.IASetInputLayout(g.inputLayout)
	ctx.IASetVertexBuffers(0, []renderer.Buffer{g.vertexBuffer}, []uint32{28}, []uint32{0})
	ctx.IASetPrimitiveTopology(renderer.PRIMITIVE_TOPOLOGY_LINELIST)
	ctx.VSSetShader(g.vertexShader)
	ctx.VSSetConstantBuffers(0, []renderer.Buffer{g.constantBuffer})
	ctx.PSSetShader(g.pixelShader)
	ctx.RSSetState(g.rasterizer)
	ctx.OMSetDepthStencilState(g.depthState, 0)
	ctx.OMSetBlendState(g.blendState, nil, 0xffffffff)
	ctx.Draw(g.vertexCount, 0)
	return nil
}

func (g *GridFloor) VertexCount() uint32 {
	return g.vertexCount
}

func (g *GridFloor) Release() {
	for _, r := range []renderer.Resource{
		g.rasterizer, g.blendState, g.depthState, g.constantBuffer,
		g.vertexBuffer, g.pixelShader, g.inputLayout, g.vertexShader,
	} {
		if r != nil {
			r.Release()
		}
	}
	g.rasterizer, g.blendState, g.depthState = nil, nil, nil
	g.constantBuffer, g.vertexBuffer = nil, nil
	g.pixelShader, g.inputLayout, g.vertexShader = nil, nil, nil
}
