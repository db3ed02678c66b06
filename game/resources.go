package game

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/debug"
)

const (
	VERTEX_SHADER = "VertexShader"
	PIXEL_SHADER  = "PixelShader"
)

// TriangleVertices are listed counter-clockwise as seen from +Z, the front face.
var TriangleVertices = []math.VertexPosition{
	{Position: math.Vec3{X: 0.0, Y: 1.0, Z: 0.0}},
	{Position: math.Vec3{X: -1.0, Y: 0.0, Z: 0.0}},
	{Position: math.Vec3{X: 1.0, Y: 0.0, Z: 0.0}},
}

var TriangleIndices = []uint16{0, 1, 2}

const VERTEX_STRIDE uint32 = 12

// ConstantBuffer mirrors cbuffer ConstantBuffer : register(b0) in the vertex shader.
type ConstantBuffer struct {
	WorldViewProjection math.Mat4
}

func triangleInputElements() []renderer.InputElementDesc {
	return []renderer.InputElementDesc{
		{
			SemanticName:      "POSITION",
			Format:            renderer.FORMAT_R32G32B32_FLOAT,
			AlignedByteOffset: 0,
			InputSlotClass:    renderer.INPUT_PER_VERTEX_DATA,
		},
	}
}

/**
 * @brief Everything needed to draw the triangle. The bundle is created in one go
 * and released in one go; it never outlives the device that created it.
 */
type PipelineBundle struct {
	VertexShader      renderer.VertexShader
	InputLayout       renderer.InputLayout
	PixelShader       renderer.PixelShader
	ConstantBuffer    renderer.Buffer
	VertexBuffer      renderer.Buffer
	IndexBuffer       renderer.Buffer
	RasterizerState   renderer.RasterizerState
	DepthStencilState renderer.DepthStencilState
	BlendState        renderer.BlendState
}

// CreatePipelineBundle creates the triangle's shaders, buffers and states in a fixed
// order. The first failure releases what was created and is returned.
func CreatePipelineBundle(device renderer.Device, shaders debug.ShaderSource) (_ *PipelineBundle, err error) {
	b := &PipelineBundle{}
	defer func() {
		if err != nil {
			b.Release()
		}
	}()

	vsCode, err := shaders.Shader(VERTEX_SHADER)
	if err != nil {
		return nil, err
	}
	if b.VertexShader, err = device.CreateVertexShader(vsCode); err != nil {
		return nil, fmt.Errorf("creating vertex shader: %w", err)
	}
	if b.InputLayout, err = device.CreateInputLayout(triangleInputElements(), vsCode); err != nil {
		return nil, fmt.Errorf("creating input layout: %w", err)
	}

	psCode, err := shaders.Shader(PIXEL_SHADER)
	if err != nil {
		return nil, err
	}
	if b.PixelShader, err = device.CreatePixelShader(psCode); err != nil {
		return nil, fmt.Errorf("creating pixel shader: %w", err)
	}

	if b.ConstantBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth:      64,
		Usage:          renderer.USAGE_DYNAMIC,
		BindFlags:      renderer.BIND_CONSTANT_BUFFER,
		CPUAccessFlags: renderer.CPU_ACCESS_WRITE,
	}, nil); err != nil {
		return nil, fmt.Errorf("creating constant buffer: %w", err)
	}

	if b.VertexBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth: VERTEX_STRIDE * uint32(len(TriangleVertices)),
		Usage:     renderer.USAGE_DEFAULT,
		BindFlags: renderer.BIND_VERTEX_BUFFER,
	}, renderer.AsBytes(TriangleVertices)); err != nil {
		return nil, fmt.Errorf("creating vertex buffer: %w", err)
	}

	if b.IndexBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth: uint32(2 * len(TriangleIndices)),
		Usage:     renderer.USAGE_DEFAULT,
		BindFlags: renderer.BIND_INDEX_BUFFER,
	}, renderer.AsBytes(TriangleIndices)); err != nil {
		return nil, fmt.Errorf("creating index buffer: %w", err)
	}

	raster := renderer.RasterizerDesc{
		FillMode:              renderer.FILL_SOLID,
		CullMode:              renderer.CULL_BACK,
		FrontCounterClockwise: true,
		DepthClipEnable:       true,
	}
	if b.RasterizerState, err = device.CreateRasterizerState(raster); err != nil {
		return nil, fmt.Errorf("creating rasterizer state: %w", err)
	}

	depth := renderer.DefaultDepthStencilDesc()
	depth.DepthFunc = renderer.COMPARISON_LESS
	depth.DepthWriteMask = renderer.DEPTH_WRITE_MASK_ALL
	if b.DepthStencilState, err = device.CreateDepthStencilState(depth); err != nil {
		return nil, fmt.Errorf("creating depth stencil state: %w", err)
	}

	if b.BlendState, err = device.CreateBlendState(renderer.DefaultBlendDesc()); err != nil {
		return nil, fmt.Errorf("creating blend state: %w", err)
	}
	return b, nil
}

// Objects lists the bundle in creation order.
func (b *PipelineBundle) Objects() []renderer.Resource {
	return []renderer.Resource{
		b.VertexShader, b.InputLayout, b.PixelShader,
		b.ConstantBuffer, b.VertexBuffer, b.IndexBuffer,
		b.RasterizerState, b.DepthStencilState, b.BlendState,
	}
}

// Bind sets the bundle's complete pipeline state on ctx.
func (b *PipelineBundle) Bind(ctx renderer.Context) {
	ctx.IASetVertexBuffers(0, []renderer.Buffer{b.VertexBuffer}, []uint32{VERTEX_STRIDE}, []uint32{0})
	ctx.IASetIndexBuffer(b.IndexBuffer, renderer.FORMAT_R16_UINT, 0)
	ctx.IASetInputLayout(b.InputLayout)
	ctx.IASetPrimitiveTopology(renderer.PRIMITIVE_TOPOLOGY_TRIANGLELIST)
	ctx.VSSetConstantBuffers(0, []renderer.Buffer{b.ConstantBuffer})
	ctx.VSSetShader(b.VertexShader)
	ctx.PSSetShader(b.PixelShader)
	ctx.RSSetState(b.RasterizerState)
	ctx.OMSetDepthStencilState(b.DepthStencilState, 0)
	ctx.OMSetBlendState(b.BlendState, nil, 0xffffffff)
}

// Release frees the objects in reverse creation order.
func (b *PipelineBundle) Release() {
	objects := b.Objects()
	for i := len(objects) - 1; i >= 0; i-- {
		if objects[i] != nil {
			objects[i].Release()
		}
	}
	*b = PipelineBundle{}
}
