package null

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// Call is one recorded context operation.
type Call struct {
	Name string
	// Count is the vertex or index count of draws.
	Count uint32
	// Start is the start vertex or index of draws, or the start slot of bindings.
	Start uint32
	// Target holds the object a call operated on, if any.
	Target interface{}
	// Args holds call specific values, e.g. the clear color or the topology.
	Args []interface{}
}

// State is the pipeline state currently bound to the context.
type State struct {
	RenderTargets []renderer.RenderTargetView
	DepthStencil  renderer.DepthStencilView
	Viewports     []renderer.Viewport
	VertexBuffers []renderer.Buffer
	Strides       []uint32
	IndexBuffer   renderer.Buffer
	IndexFormat   renderer.Format
	InputLayout   renderer.InputLayout
	Topology      renderer.PrimitiveTopology
	VertexShader  renderer.VertexShader
	PixelShader   renderer.PixelShader
	VSConstants   []renderer.Buffer
	PSConstants   []renderer.Buffer
	PSResources   []renderer.ShaderResourceView
	PSSamplers    []renderer.SamplerState
	Rasterizer    renderer.RasterizerState
	DepthState    renderer.DepthStencilState
	StencilRef    uint32
	Blend         renderer.BlendState
	BlendFactor   *[4]float32
	SampleMask    uint32
}

// DrawRecord is a snapshot of the bound state at a draw call.
type DrawRecord struct {
	Call  Call
	State State
}

type Context struct {
	Object
	device *Device
	state  State
	mapped map[*Buffer]bool

	Calls []Call
	Draws []DrawRecord
}

func (c *Context) record(call Call) {
	c.Calls = append(c.Calls, call)
}

// Reset forgets recorded calls and draws but keeps the bound state.
func (c *Context) Reset() {
	c.Calls = nil
	c.Draws = nil
}

// Count returns how many recorded calls have the given name.
func (c *Context) Count(name string) int {
	n := 0
	for _, call := range c.Calls {
		if call.Name == name {
			n++
		}
	}
	return n
}

// Names returns the names of the recorded calls in order.
func (c *Context) Names() []string {
	names := make([]string, len(c.Calls))
	for i, call := range c.Calls {
		names[i] = call.Name
	}
	return names
}

func (c *Context) State() State { return c.state }

func (c *Context) ClearRenderTargetView(view renderer.RenderTargetView, color [4]float32) {
	c.record(Call{Name: "ClearRenderTargetView", Target: view, Args: []interface{}{color}})
}

func (c *Context) ClearDepthStencilView(view renderer.DepthStencilView, flags renderer.ClearFlag, depth float32, stencil uint8) {
	c.record(Call{Name: "ClearDepthStencilView", Target: view, Args: []interface{}{flags, depth, stencil}})
}

func (c *Context) OMSetRenderTargets(views []renderer.RenderTargetView, depth renderer.DepthStencilView) {
	c.state.RenderTargets = append([]renderer.RenderTargetView(nil), views...)
	c.state.DepthStencil = depth
	c.record(Call{Name: "OMSetRenderTargets", Target: depth})
}

func (c *Context) OMSetBlendState(state renderer.BlendState, blendFactor *[4]float32, sampleMask uint32) {
	c.state.Blend = state
	c.state.BlendFactor = blendFactor
	c.state.SampleMask = sampleMask
	c.record(Call{Name: "OMSetBlendState", Target: state, Args: []interface{}{blendFactor, sampleMask}})
}

func (c *Context) OMSetDepthStencilState(state renderer.DepthStencilState, stencilRef uint32) {
	c.state.DepthState = state
	c.state.StencilRef = stencilRef
	c.record(Call{Name: "OMSetDepthStencilState", Target: state, Args: []interface{}{stencilRef}})
}

func (c *Context) RSSetViewports(viewports []renderer.Viewport) {
	c.state.Viewports = append([]renderer.Viewport(nil), viewports...)
	c.record(Call{Name: "RSSetViewports", Args: []interface{}{c.state.Viewports}})
}

func (c *Context) RSSetState(state renderer.RasterizerState) {
	c.state.Rasterizer = state
	c.record(Call{Name: "RSSetState", Target: state})
}

func (c *Context) IASetInputLayout(layout renderer.InputLayout) {
	c.state.InputLayout = layout
	c.record(Call{Name: "IASetInputLayout", Target: layout})
}

func (c *Context) IASetVertexBuffers(startSlot uint32, buffers []renderer.Buffer, strides, offsets []uint32) {
	c.state.VertexBuffers = append([]renderer.Buffer(nil), buffers...)
	c.state.Strides = append([]uint32(nil), strides...)
	c.record(Call{Name: "IASetVertexBuffers", Start: startSlot, Args: []interface{}{strides, offsets}})
}

func (c *Context) IASetIndexBuffer(buffer renderer.Buffer, format renderer.Format, offset uint32) {
	c.state.IndexBuffer = buffer
	c.state.IndexFormat = format
	c.record(Call{Name: "IASetIndexBuffer", Target: buffer, Args: []interface{}{format, offset}})
}

func (c *Context) IASetPrimitiveTopology(topology renderer.PrimitiveTopology) {
	c.state.Topology = topology
	c.record(Call{Name: "IASetPrimitiveTopology", Args: []interface{}{topology}})
}

func (c *Context) VSSetShader(shader renderer.VertexShader) {
	c.state.VertexShader = shader
	c.record(Call{Name: "VSSetShader", Target: shader})
}

func (c *Context) VSSetConstantBuffers(startSlot uint32, buffers []renderer.Buffer) {
	c.state.VSConstants = append([]renderer.Buffer(nil), buffers...)
	c.record(Call{Name: "VSSetConstantBuffers", Start: startSlot})
}

func (c *Context) PSSetShader(shader renderer.PixelShader) {
	c.state.PixelShader = shader
	c.record(Call{Name: "PSSetShader", Target: shader})
}

func (c *Context) PSSetConstantBuffers(startSlot uint32, buffers []renderer.Buffer) {
	c.state.PSConstants = append([]renderer.Buffer(nil), buffers...)
	c.record(Call{Name: "PSSetConstantBuffers", Start: startSlot})
}

func (c *Context) PSSetShaderResources(startSlot uint32, views []renderer.ShaderResourceView) {
	c.state.PSResources = append([]renderer.ShaderResourceView(nil), views...)
	c.record(Call{Name: "PSSetShaderResources", Start: startSlot})
}

func (c *Context) PSSetSamplers(startSlot uint32, samplers []renderer.SamplerState) {
	c.state.PSSamplers = append([]renderer.SamplerState(nil), samplers...)
	c.record(Call{Name: "PSSetSamplers", Start: startSlot})
}

func (c *Context) Map(buffer renderer.Buffer, mode renderer.MapMode) ([]byte, error) {
	b, ok := buffer.(*Buffer)
	if !ok {
		return nil, fmt.Errorf("null: Map of foreign buffer %T", buffer)
	}
	if b.Released {
		return nil, fmt.Errorf("null: Map of released buffer")
	}
	if b.desc.Usage != renderer.USAGE_DYNAMIC || b.desc.CPUAccessFlags&renderer.CPU_ACCESS_WRITE == 0 {
		return nil, fmt.Errorf("null: Map of buffer without dynamic CPU write access")
	}
	if c.mapped == nil {
		c.mapped = make(map[*Buffer]bool)
	}
	if c.mapped[b] {
		return nil, fmt.Errorf("null: buffer already mapped")
	}
	c.mapped[b] = true
	b.Maps++
	if mode == renderer.MAP_WRITE_DISCARD {
		clear(b.Data)
	}
	c.record(Call{Name: "Map", Target: b, Args: []interface{}{mode}})
	return b.Data, nil
}

func (c *Context) Unmap(buffer renderer.Buffer) {
	if b, ok := buffer.(*Buffer); ok {
		delete(c.mapped, b)
	}
	c.record(Call{Name: "Unmap", Target: buffer})
}

// Mapped reports whether any buffer is still mapped.
func (c *Context) Mapped() bool {
	return len(c.mapped) > 0
}

func (c *Context) Draw(vertexCount, startVertex uint32) {
	call := Call{Name: "Draw", Count: vertexCount, Start: startVertex}
	c.record(call)
	c.Draws = append(c.Draws, DrawRecord{Call: call, State: c.state})
}

func (c *Context) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) {
	call := Call{Name: "DrawIndexed", Count: indexCount, Start: startIndex, Args: []interface{}{baseVertex}}
	c.record(call)
	c.Draws = append(c.Draws, DrawRecord{Call: call, State: c.state})
}
