package renderer

// Resource is any object created by a Device. Release frees the underlying GPU
// object; releasing twice is a no-op.
type Resource interface {
	Release()
}

type Buffer interface {
	Resource
	Desc() BufferDesc
}

type Texture2D interface {
	Resource
	Desc() Texture2DDesc
}

type VertexShader interface{ Resource }
type PixelShader interface{ Resource }
type InputLayout interface{ Resource }
type RasterizerState interface{ Resource }
type DepthStencilState interface{ Resource }
type BlendState interface{ Resource }
type SamplerState interface{ Resource }
type ShaderResourceView interface{ Resource }
type RenderTargetView interface{ Resource }
type DepthStencilView interface{ Resource }

// Device creates GPU objects. It follows the Direct3D 11 device model.
type Device interface {
	CreateBuffer(desc BufferDesc, initialData []byte) (Buffer, error)
	CreateTexture2D(desc Texture2DDesc, initialData []byte) (Texture2D, error)
	CreateShaderResourceView(texture Texture2D) (ShaderResourceView, error)
	CreateRenderTargetView(texture Texture2D) (RenderTargetView, error)
	CreateDepthStencilView(texture Texture2D) (DepthStencilView, error)
	CreateInputLayout(elements []InputElementDesc, vertexShaderBytecode []byte) (InputLayout, error)
	CreateVertexShader(bytecode []byte) (VertexShader, error)
	CreatePixelShader(bytecode []byte) (PixelShader, error)
	CreateBlendState(desc BlendDesc) (BlendState, error)
	CreateDepthStencilState(desc DepthStencilDesc) (DepthStencilState, error)
	CreateRasterizerState(desc RasterizerDesc) (RasterizerState, error)
	CreateSamplerState(desc SamplerDesc) (SamplerState, error)
	Release()
}

// Context records rendering commands. It follows the Direct3D 11 immediate context:
// state set on it persists until changed.
type Context interface {
	ClearRenderTargetView(view RenderTargetView, color [4]float32)
	ClearDepthStencilView(view DepthStencilView, flags ClearFlag, depth float32, stencil uint8)
	OMSetRenderTargets(views []RenderTargetView, depth DepthStencilView)
	OMSetBlendState(state BlendState, blendFactor *[4]float32, sampleMask uint32)
	OMSetDepthStencilState(state DepthStencilState, stencilRef uint32)
	RSSetViewports(viewports []Viewport)
	RSSetState(state RasterizerState)
	IASetInputLayout(layout InputLayout)
	IASetVertexBuffers(startSlot uint32, buffers []Buffer, strides, offsets []uint32)
	IASetIndexBuffer(buffer Buffer, format Format, offset uint32)
	IASetPrimitiveTopology(topology PrimitiveTopology)
	VSSetShader(shader VertexShader)
	VSSetConstantBuffers(startSlot uint32, buffers []Buffer)
	PSSetShader(shader PixelShader)
	PSSetConstantBuffers(startSlot uint32, buffers []Buffer)
	PSSetShaderResources(startSlot uint32, views []ShaderResourceView)
	PSSetSamplers(startSlot uint32, samplers []SamplerState)
	// Map exposes a DYNAMIC buffer to the CPU. The slice is valid until Unmap.
	Map(buffer Buffer, mode MapMode) ([]byte, error)
	Unmap(buffer Buffer)
	Draw(vertexCount, startVertex uint32)
	DrawIndexed(indexCount, startIndex uint32, baseVertex int32)
	Release()
}

// SwapChain owns the presentable back buffer.
type SwapChain interface {
	// GetBuffer returns the back buffer texture. Callers release it.
	GetBuffer() (Texture2D, error)
	// ResizeBuffers requires every view of the back buffer to be released first.
	ResizeBuffers(width, height uint32) error
	// Present returns core.ErrDeviceLost when the device was removed or reset.
	Present(vsync bool) error
	ColorSpace() ColorSpace
	Release()
}
