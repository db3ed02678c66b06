package debug

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

const MAX_BATCH_SPRITES = 2048

// Rect is an axis aligned rectangle in pixels.
type Rect struct {
	X, Y, W, H float32
}

type sprite struct {
	texture *Texture
	dst     Rect
	src     Rect
	color   math.Vec4
}

/**
 * @brief Draws textured quads in screen pixels, top-left origin. Sprites are queued
 * between Begin and End and flushed in order, one draw per run of sprites sharing a
 * texture. Blending is premultiplied alpha and depth is ignored.
 */
type SpriteBatch struct {
	vertexShader   renderer.VertexShader
	pixelShader    renderer.PixelShader
	inputLayout    renderer.InputLayout
	vertexBuffer   renderer.Buffer
	indexBuffer    renderer.Buffer
	constantBuffer renderer.Buffer
	blendState     renderer.BlendState
	depthState     renderer.DepthStencilState
	rasterizer     renderer.RasterizerState
	sampler        renderer.SamplerState

	context  renderer.Context
	viewport renderer.Viewport
	sprites  []sprite
	vertices []math.VertexPositionColorTexture
	inBegin  bool
}

func spriteInputElements() []renderer.InputElementDesc {
	return []renderer.InputElementDesc{
		{SemanticName: "POSITION", Format: renderer.FORMAT_R32G32B32_FLOAT, AlignedByteOffset: 0},
		{SemanticName: "COLOR", Format: renderer.FORMAT_R32G32B32A32_FLOAT, AlignedByteOffset: 12},
		{SemanticName: "TEXCOORD", Format: renderer.FORMAT_R32G32_FLOAT, AlignedByteOffset: 28},
	}
}

func NewSpriteBatch(device renderer.Device, shaders ShaderSource) (_ *SpriteBatch, err error) {
	sb := &SpriteBatch{
		sprites:  make([]sprite, 0, 64),
		vertices: make([]math.VertexPositionColorTexture, 0, MAX_BATCH_SPRITES*4),
	}
	defer func() {
		if err != nil {
			sb.Release()
		}
	}()

	vsCode, err := shaders.Shader(SPRITE_VS)
	if err != nil {
		return nil, err
	}
	if sb.vertexShader, err = device.CreateVertexShader(vsCode); err != nil {
		return nil, fmt.Errorf("sprite vertex shader: %w", err)
	}
	if sb.inputLayout, err = device.CreateInputLayout(spriteInputElements(), vsCode); err != nil {
		return nil, fmt.Errorf("sprite input layout: %w", err)
	}
	psCode, err := shaders.Shader(SPRITE_PS)
	if err != nil {
		return nil, err
	}
	if sb.pixelShader, err = device.CreatePixelShader(psCode); err != nil {
		return nil, fmt.Errorf("sprite pixel shader: %w", err)
	}

	if sb.vertexBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth:      MAX_BATCH_SPRITES * 4 * 36,
		Usage:          renderer.USAGE_DYNAMIC,
		BindFlags:      renderer.BIND_VERTEX_BUFFER,
		CPUAccessFlags: renderer.CPU_ACCESS_WRITE,
	}, nil); err != nil {
		return nil, fmt.Errorf("sprite vertex buffer: %w", err)
	}

	indices := make([]uint16, 0, MAX_BATCH_SPRITES*6)
	for i := uint16(0); i < MAX_BATCH_SPRITES; i++ {
		v := i * 4
		indices = append(indices, v, v+1, v+2, v+2, v+1, v+3)
	}
	if sb.indexBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth: uint32(len(indices) * 2),
		Usage:     renderer.USAGE_DEFAULT,
		BindFlags: renderer.BIND_INDEX_BUFFER,
	}, renderer.AsBytes(indices)); err != nil {
		return nil, fmt.Errorf("sprite index buffer: %w", err)
	}

	if sb.constantBuffer, err = device.CreateBuffer(renderer.BufferDesc{
		ByteWidth:      64,
		Usage:          renderer.USAGE_DYNAMIC,
		BindFlags:      renderer.BIND_CONSTANT_BUFFER,
		CPUAccessFlags: renderer.CPU_ACCESS_WRITE,
	}, nil); err != nil {
		return nil, fmt.Errorf("sprite constant buffer: %w", err)
	}

	if sb.blendState, err = device.CreateBlendState(renderer.AlphaBlendDesc()); err != nil {
		return nil, fmt.Errorf("sprite blend state: %w", err)
	}
	depth := renderer.DefaultDepthStencilDesc()
	depth.DepthEnable = false
	depth.DepthWriteMask = renderer.DEPTH_WRITE_MASK_ZERO
	if sb.depthState, err = device.CreateDepthStencilState(depth); err != nil {
		return nil, fmt.Errorf("sprite depth state: %w", err)
	}
	raster := renderer.DefaultRasterizerDesc()
	raster.CullMode = renderer.CULL_NONE
	if sb.rasterizer, err = device.CreateRasterizerState(raster); err != nil {
		return nil, fmt.Errorf("sprite rasterizer state: %w", err)
	}
	if sb.sampler, err = device.CreateSamplerState(renderer.DefaultSamplerDesc()); err != nil {
		return nil, fmt.Errorf("sprite sampler: %w", err)
	}
	return sb, nil
}

// Begin starts queuing sprites for the given context and viewport.
func (sb *SpriteBatch) Begin(ctx renderer.Context, viewport renderer.Viewport) {
	sb.context = ctx
	sb.viewport = viewport
	sb.sprites = sb.sprites[:0]
	sb.inBegin = true
}

// Draw queues the src region of texture stretched over dst. color is straight
// alpha and multiplies the texel.
func (sb *SpriteBatch) Draw(texture *Texture, dst, src Rect, color math.Vec4) {
	if !sb.inBegin || texture == nil || dst.W == 0 || dst.H == 0 {
		return
	}
	sb.sprites = append(sb.sprites, sprite{texture: texture, dst: dst, src: src, color: color})
}

// End flushes the queued sprites.
func (sb *SpriteBatch) End() error {
	if !sb.inBegin {
		return errors.New("sprite batch End without Begin")
	}
	sb.inBegin = false
	if len(sb.sprites) == 0 {
		return nil
	}

	if err := sb.uploadProjection(); err != nil {
		return err
	}
	sb.bindPipeline()

	start := 0
	for i := 1; i <= len(sb.sprites); i++ {
		if i == len(sb.sprites) || i-start == MAX_BATCH_SPRITES || sb.sprites[i].texture != sb.sprites[start].texture {
			if err := sb.flush(sb.sprites[start:i]); err != nil {
				return err
			}
			start = i
		}
	}
	sb.sprites = sb.sprites[:0]
	return nil
}

func (sb *SpriteBatch) uploadProjection() error {
	ortho := math.NewMat4OrthographicOffCenter(0, sb.viewport.Width, sb.viewport.Height, 0, 0, 1).Transposed()
	mapped, err := sb.context.Map(sb.constantBuffer, renderer.MAP_WRITE_DISCARD)
	if err != nil {
		return fmt.Errorf("mapping sprite constants: %w", err)
	}
	copy(mapped, renderer.ValueBytes(&ortho))
	sb.context.Unmap(sb.constantBuffer)
	return nil
}

func (sb *SpriteBatch) bindPipeline() {
	ctx := sb.context
	ctx.IASetInputLayout(sb.inputLayout)
	ctx.IASetVertexBuffers(0, []renderer.Buffer{sb.vertexBuffer}, []uint32{36}, []uint32{0})
	ctx.IASetIndexBuffer(sb.indexBuffer, renderer.FORMAT_R16_UINT, 0)
	ctx.IASetPrimitiveTopology(renderer.PRIMITIVE_TOPOLOGY_TRIANGLELIST)
	ctx.VSSetShader(sb.vertexShader)
	ctx.VSSetConstantBuffers(0, []renderer.Buffer{sb.constantBuffer})
	ctx.PSSetShader(sb.pixelShader)
	ctx.PSSetSamplers(0, []renderer.SamplerState{sb.sampler})
	ctx.RSSetState(sb.rasterizer)
	ctx.OMSetDepthStencilState(sb.depthState, 0)
	ctx.OMSetBlendState(sb.blendState, nil, 0xffffffff)
}

func (sb *SpriteBatch) flush(run []sprite) error {
	texture := run[0].texture
	invW := 1 / float32(texture.Width)
	invH := 1 / float32(texture.Height)

	sb.vertices = sb.vertices[:0]
	for _, s := range run {
		c := math.NewVec4(s.color.X*s.color.W, s.color.Y*s.color.W, s.color.Z*s.color.W, s.color.W)
		u0, v0 := s.src.X*invW, s.src.Y*invH
		u1, v1 := (s.src.X+s.src.W)*invW, (s.src.Y+s.src.H)*invH
		x0, y0 := s.dst.X, s.dst.Y
		x1, y1 := s.dst.X+s.dst.W, s.dst.Y+s.dst.H
		sb.vertices = append(sb.vertices,
			math.VertexPositionColorTexture{Position: math.NewVec3(x0, y0, 0), Colour: c, Texcoord: math.NewVec2(u0, v0)},
			math.VertexPositionColorTexture{Position: math.NewVec3(x1, y0, 0), Colour: c, Texcoord: math.NewVec2(u1, v0)},
			math.VertexPositionColorTexture{Position: math.NewVec3(x0, y1, 0), Colour: c, Texcoord: math.NewVec2(u0, v1)},
			math.VertexPositionColorTexture{Position: math.NewVec3(x1, y1, 0), Colour: c, Texcoord: math.NewVec2(u1, v1)},
		)
	}

	mapped, err := sb.context.Map(sb.vertexBuffer, renderer.MAP_WRITE_DISCARD)
	if err != nil {
		return fmt.Errorf("mapping sprite vertices: %w", err)
	}
	copy(mapped, renderer.AsBytes(sb.vertices))
	sb.context.Unmap(sb.vertexBuffer)

	sb.context.PSSetShaderResources(0, []renderer.ShaderResourceView{texture.View()})
	sb.context.DrawIndexed(uint32(len(run)*6), 0, 0)
	return nil
}

func (sb *SpriteBatch) Release() {
	for _, r := range []renderer.Resource{
		sb.sampler, sb.rasterizer, sb.depthState, sb.blendState, sb.constantBuffer,
		sb.indexBuffer, sb.vertexBuffer, sb.pixelShader, sb.inputLayout, sb.vertexShader,
	} {
		if r != nil {
			r.Release()
		}
	}
	*sb = SpriteBatch{}
}
