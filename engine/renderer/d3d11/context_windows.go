//go:build windows

package d3d11

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// Context wraps the immediate ID3D11DeviceContext. Every call forwards
// straight to the driver; the runtime tracks the bound state.
type Context struct {
	ptr object
}

// pointers flattens renderer objects into an array of COM pointers.
func pointers[T any](items []T) []uintptr {
	out := make([]uintptr, len(items))
	for i, item := range items {
		out[i] = rawOf(item)
	}
	return out
}

func first[T any](items []T) unsafe.Pointer {
	if len(items) == 0 {
		return nil
	}
	return unsafe.Pointer(&items[0])
}

func (c *Context) ClearRenderTargetView(view renderer.RenderTargetView, color [4]float32) {
	call(c.ptr, ctxClearRenderTargetView, rawOf(view), uintptr(unsafe.Pointer(&color)))
}

func (c *Context) ClearDepthStencilView(view renderer.DepthStencilView, flags renderer.ClearFlag, depth float32, stencil uint8) {
	call(c.ptr, ctxClearDepthStencilView, rawOf(view), uintptr(flags), uintptr(math.Float32bits(depth)), uintptr(stencil))
}

func (c *Context) OMSetRenderTargets(views []renderer.RenderTargetView, depth renderer.DepthStencilView) {
	ptrs := pointers(views)
	call(c.ptr, ctxOMSetRenderTargets, uintptr(len(ptrs)), uintptr(first(ptrs)), rawOf(depth))
}

func (c *Context) OMSetBlendState(state renderer.BlendState, blendFactor *[4]float32, sampleMask uint32) {
	call(c.ptr, ctxOMSetBlendState, rawOf(state), uintptr(unsafe.Pointer(blendFactor)), uintptr(sampleMask))
}

func (c *Context) OMSetDepthStencilState(state renderer.DepthStencilState, stencilRef uint32) {
	call(c.ptr, ctxOMSetDepthStencilState, rawOf(state), uintptr(stencilRef))
}

func (c *Context) RSSetViewports(viewports []renderer.Viewport) {
	vps := toViewports(viewports)
	call(c.ptr, ctxRSSetViewports, uintptr(len(vps)), uintptr(first(vps)))
}

func (c *Context) RSSetState(state renderer.RasterizerState) {
	call(c.ptr, ctxRSSetState, rawOf(state))
}

func (c *Context) IASetInputLayout(layout renderer.InputLayout) {
	call(c.ptr, ctxIASetInputLayout, rawOf(layout))
}

func (c *Context) IASetVertexBuffers(startSlot uint32, buffers []renderer.Buffer, strides, offsets []uint32) {
	ptrs := pointers(buffers)
	call(c.ptr, ctxIASetVertexBuffers, uintptr(startSlot), uintptr(len(ptrs)), uintptr(first(ptrs)), uintptr(first(strides)), uintptr(first(offsets)))
}

func (c *Context) IASetIndexBuffer(buffer renderer.Buffer, format renderer.Format, offset uint32) {
	call(c.ptr, ctxIASetIndexBuffer, rawOf(buffer), uintptr(format), uintptr(offset))
}

func (c *Context) IASetPrimitiveTopology(topology renderer.PrimitiveTopology) {
	call(c.ptr, ctxIASetPrimitiveTopology, uintptr(topology))
}

func (c *Context) VSSetShader(shader renderer.VertexShader) {
	call(c.ptr, ctxVSSetShader, rawOf(shader), 0, 0)
}

func (c *Context) VSSetConstantBuffers(startSlot uint32, buffers []renderer.Buffer) {
	ptrs := pointers(buffers)
	call(c.ptr, ctxVSSetConstantBuffers, uintptr(startSlot), uintptr(len(ptrs)), uintptr(first(ptrs)))
}

func (c *Context) PSSetShader(shader renderer.PixelShader) {
	call(c.ptr, ctxPSSetShader, rawOf(shader), 0, 0)
}

func (c *Context) PSSetConstantBuffers(startSlot uint32, buffers []renderer.Buffer) {
	ptrs := pointers(buffers)
	call(c.ptr, ctxPSSetConstantBuffers, uintptr(startSlot), uintptr(len(ptrs)), uintptr(first(ptrs)))
}

func (c *Context) PSSetShaderResources(startSlot uint32, views []renderer.ShaderResourceView) {
	ptrs := pointers(views)
	call(c.ptr, ctxPSSetShaderResources, uintptr(startSlot), uintptr(len(ptrs)), uintptr(first(ptrs)))
}

func (c *Context) PSSetSamplers(startSlot uint32, samplers []renderer.SamplerState) {
	ptrs := pointers(samplers)
	call(c.ptr, ctxPSSetSamplers, uintptr(startSlot), uintptr(len(ptrs)), uintptr(first(ptrs)))
}

func (c *Context) Map(buffer renderer.Buffer, mode renderer.MapMode) ([]byte, error) {
	b, ok := buffer.(*Buffer)
	if !ok || b.ptr == nil {
		return nil, fmt.Errorf("Map: not a live d3d11 buffer")
	}
	var mapped mappedSubresource
	hr := callHR(c.ptr, ctxMap, uintptr(b.ptr), 0, uintptr(mode), 0, uintptr(unsafe.Pointer(&mapped)))
	if err := check("Map", hr); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(mapped.Data), b.desc.ByteWidth), nil
}

func (c *Context) Unmap(buffer renderer.Buffer) {
	call(c.ptr, ctxUnmap, rawOf(buffer), 0)
}

func (c *Context) Draw(vertexCount, startVertex uint32) {
	call(c.ptr, ctxDraw, uintptr(vertexCount), uintptr(startVertex))
}

func (c *Context) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) {
	call(c.ptr, ctxDrawIndexed, uintptr(indexCount), uintptr(startIndex), uintptr(baseVertex))
}

// Release unbinds everything and flushes pending work before dropping the context.
func (c *Context) Release() {
	if c.ptr == nil {
		return
	}
	call(c.ptr, ctxClearState)
	call(c.ptr, ctxFlush)
	release(c.ptr)
	c.ptr = nil
}
