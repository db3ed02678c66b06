// Package d3d11 implements renderer.Driver on Direct3D 11 and DXGI through raw
// COM vtable calls. Only the descriptor layouts and result codes build on every
// platform; the device itself is Windows only.
package d3d11

import (
	"unsafe"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// The structs in this file mirror the C layouts passed to d3d11.dll and dxgi.dll.
// Field order and widths must not change.

type bufferDesc struct {
	ByteWidth           uint32
	Usage               uint32
	BindFlags           uint32
	CPUAccessFlags      uint32
	MiscFlags           uint32
	StructureByteStride uint32
}

type subresourceData struct {
	SysMem           unsafe.Pointer
	SysMemPitch      uint32
	SysMemSlicePitch uint32
}

type texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32
	SampleCount    uint32
	SampleQuality  uint32
	Usage          uint32
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type inputElementDesc struct {
	SemanticName         *byte
	SemanticIndex        uint32
	Format               uint32
	InputSlot            uint32
	AlignedByteOffset    uint32
	InputSlotClass       uint32
	InstanceDataStepRate uint32
}

type rasterizerDesc struct {
	FillMode              uint32
	CullMode              uint32
	FrontCounterClockwise int32
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       int32
	ScissorEnable         int32
	MultisampleEnable     int32
	AntialiasedLineEnable int32
}

type depthStencilOpDesc struct {
	StencilFailOp      uint32
	StencilDepthFailOp uint32
	StencilPassOp      uint32
	StencilFunc        uint32
}

type depthStencilDesc struct {
	DepthEnable      int32
	DepthWriteMask   uint32
	DepthFunc        uint32
	StencilEnable    int32
	StencilReadMask  uint8
	StencilWriteMask uint8
	FrontFace        depthStencilOpDesc
	BackFace         depthStencilOpDesc
}

type renderTargetBlendDesc struct {
	BlendEnable           int32
	SrcBlend              uint32
	DestBlend             uint32
	BlendOp               uint32
	SrcBlendAlpha         uint32
	DestBlendAlpha        uint32
	BlendOpAlpha          uint32
	RenderTargetWriteMask uint8
}

type blendDesc struct {
	AlphaToCoverageEnable  int32
	IndependentBlendEnable int32
	RenderTarget           [8]renderTargetBlendDesc
}

type samplerDesc struct {
	Filter         uint32
	AddressU       uint32
	AddressV       uint32
	AddressW       uint32
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc uint32
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

type viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type mappedSubresource struct {
	Data       unsafe.Pointer
	RowPitch   uint32
	DepthPitch uint32
}

type rational struct {
	Numerator   uint32
	Denominator uint32
}

type modeDesc struct {
	Width            uint32
	Height           uint32
	RefreshRate      rational
	Format           uint32
	ScanlineOrdering uint32
	Scaling          uint32
}

type sampleDesc struct {
	Count   uint32
	Quality uint32
}

type swapChainDesc struct {
	BufferDesc   modeDesc
	SampleDesc   sampleDesc
	BufferUsage  uint32
	BufferCount  uint32
	OutputWindow uintptr
	Windowed     int32
	SwapEffect   uint32
	Flags        uint32
}

const (
	dxgiUsageRenderTargetOutput = 0x20
	dxgiSwapEffectFlipDiscard   = 4
	dxgiMWANoAltEnter           = 2
)

func boolean(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func toBufferDesc(d renderer.BufferDesc) bufferDesc {
	return bufferDesc{
		ByteWidth:           d.ByteWidth,
		Usage:               uint32(d.Usage),
		BindFlags:           uint32(d.BindFlags),
		CPUAccessFlags:      uint32(d.CPUAccessFlags),
		MiscFlags:           d.MiscFlags,
		StructureByteStride: d.StructureByteStride,
	}
}

func toTexture2DDesc(d renderer.Texture2DDesc) texture2DDesc {
	out := texture2DDesc{
		Width:          d.Width,
		Height:         d.Height,
		MipLevels:      d.MipLevels,
		ArraySize:      d.ArraySize,
		Format:         uint32(d.Format),
		SampleCount:    d.SampleCount,
		SampleQuality:  d.SampleQuality,
		Usage:          uint32(d.Usage),
		BindFlags:      uint32(d.BindFlags),
		CPUAccessFlags: uint32(d.CPUAccessFlags),
		MiscFlags:      d.MiscFlags,
	}
	if out.SampleCount == 0 {
		out.SampleCount = 1
	}
	if out.ArraySize == 0 {
		out.ArraySize = 1
	}
	return out
}

// toInputElements converts a layout. names keeps the NUL-terminated semantic
// names alive for as long as the returned descriptors are in use.
func toInputElements(elements []renderer.InputElementDesc) (out []inputElementDesc, names [][]byte) {
	out   = make([]inputElementDesc, len(elements))
	names = make([][]byte, len(elements))
	for i, e := range elements {
		names[i] = append([]byte(e.SemanticName), 0)
		out[i] = inputElementDesc{
			SemanticName:         &names[i][0],
			SemanticIndex:        e.SemanticIndex,
			Format:               uint32(e.Format),
			InputSlot:            e.InputSlot,
			AlignedByteOffset:    e.AlignedByteOffset,
			InputSlotClass:       uint32(e.InputSlotClass),
			InstanceDataStepRate: e.InstanceDataStepRate,
		}
	}
	return out, names
}

func toRasterizerDesc(d renderer.RasterizerDesc) rasterizerDesc {
	return rasterizerDesc{
		FillMode:              uint32(d.FillMode),
		CullMode:              uint32(d.CullMode),
		FrontCounterClockwise: boolean(d.FrontCounterClockwise),
		DepthBias:             d.DepthBias,
		DepthBiasClamp:        d.DepthBiasClamp,
		SlopeScaledDepthBias:  d.SlopeScaledDepthBias,
		DepthClipEnable:       boolean(d.DepthClipEnable),
		ScissorEnable:         boolean(d.ScissorEnable),
		MultisampleEnable:     boolean(d.MultisampleEnable),
		AntialiasedLineEnable: boolean(d.AntialiasedLineEnable),
	}
}

func toStencilOp(d renderer.DepthStencilOpDesc) depthStencilOpDesc {
	return depthStencilOpDesc{
		StencilFailOp:      uint32(d.StencilFailOp),
		StencilDepthFailOp: uint32(d.StencilDepthFailOp),
		StencilPassOp:      uint32(d.StencilPassOp),
		StencilFunc:        uint32(d.StencilFunc),
	}
}

func toDepthStencilDesc(d renderer.DepthStencilDesc) depthStencilDesc {
	return depthStencilDesc{
		DepthEnable:      boolean(d.DepthEnable),
		DepthWriteMask:   uint32(d.DepthWriteMask),
		DepthFunc:        uint32(d.DepthFunc),
		StencilEnable:    boolean(d.StencilEnable),
		StencilReadMask:  d.StencilReadMask,
		StencilWriteMask: d.StencilWriteMask,
		FrontFace:        toStencilOp(d.FrontFace),
		BackFace:         toStencilOp(d.BackFace),
	}
}

func toBlendDesc(d renderer.BlendDesc) blendDesc {
	out := blendDesc{
		AlphaToCoverageEnable:  boolean(d.AlphaToCoverageEnable),
		IndependentBlendEnable: boolean(d.IndependentBlendEnable),
	}
	for i, rt := range d.RenderTarget {
		out.RenderTarget[i] = renderTargetBlendDesc{
			BlendEnable:           boolean(rt.BlendEnable),
			SrcBlend:              uint32(rt.SrcBlend),
			DestBlend:             uint32(rt.DestBlend),
			BlendOp:               uint32(rt.BlendOp),
			SrcBlendAlpha:         uint32(rt.SrcBlendAlpha),
			DestBlendAlpha:        uint32(rt.DestBlendAlpha),
			BlendOpAlpha:          uint32(rt.BlendOpAlpha),
			RenderTargetWriteMask: rt.RenderTargetWriteMask,
		}
	}
	return out
}

func toSamplerDesc(d renderer.SamplerDesc) samplerDesc {
	return samplerDesc{
		Filter:         uint32(d.Filter),
		AddressU:       uint32(d.AddressU),
		AddressV:       uint32(d.AddressV),
		AddressW:       uint32(d.AddressW),
		MipLODBias:     d.MipLODBias,
		MaxAnisotropy:  d.MaxAnisotropy,
		ComparisonFunc: uint32(d.ComparisonFunc),
		BorderColor:    d.BorderColor,
		MinLOD:         d.MinLOD,
		MaxLOD:         d.MaxLOD,
	}
}

func toViewports(viewports []renderer.Viewport) []viewport {
	out := make([]viewport, len(viewports))
	for i, v := range viewports {
		out[i] = viewport(v)
	}
	return out
}

// flipSwapChainDesc describes a flip-discard swap chain for hwnd. A zero size
// lets DXGI take the window's client size.
func flipSwapChainDesc(hwnd uintptr, width, height uint32, format renderer.Format, bufferCount uint32) swapChainDesc {
	if bufferCount < 2 {
		bufferCount = 2
	}
	return swapChainDesc{
		BufferDesc: modeDesc{
			Width:  width,
			Height: height,
			Format: uint32(format),
		},
		SampleDesc:   sampleDesc{Count: 1},
		BufferUsage:  dxgiUsageRenderTargetOutput,
		BufferCount:  bufferCount,
		OutputWindow: hwnd,
		Windowed:     1,
		SwapEffect:   dxgiSwapEffectFlipDiscard,
	}
}
