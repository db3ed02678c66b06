package renderer

// The enumerations below carry the Direct3D 11 / DXGI numeric values so the
// Direct3D 11 backend can pass them straight through. Other backends translate.

type Format uint32

const (
	FORMAT_UNKNOWN            Format = 0
	FORMAT_R32G32B32A32_FLOAT Format = 2
	FORMAT_R32G32B32_FLOAT    Format = 6
	FORMAT_R8G8B8A8_UNORM     Format = 28
	FORMAT_D32_FLOAT          Format = 40
	FORMAT_D24_UNORM_S8_UINT  Format = 45
	FORMAT_R8_UNORM           Format = 61
	FORMAT_R16_UINT           Format = 57
	FORMAT_R32_UINT           Format = 42
	FORMAT_R32G32_FLOAT       Format = 16
	FORMAT_B8G8R8A8_UNORM     Format = 87
)

// BytesPerPixel returns the texel size of uncompressed formats, 0 otherwise.
func (f Format) BytesPerPixel() uint32 {
	switch f {
	case FORMAT_R8_UNORM:
		return 1
	case FORMAT_R16_UINT:
		return 2
	case FORMAT_R8G8B8A8_UNORM, FORMAT_B8G8R8A8_UNORM, FORMAT_D24_UNORM_S8_UINT, FORMAT_D32_FLOAT, FORMAT_R32_UINT:
		return 4
	case FORMAT_R32G32_FLOAT:
		return 8
	case FORMAT_R32G32B32_FLOAT:
		return 12
	case FORMAT_R32G32B32A32_FLOAT:
		return 16
	}
	return 0
}

type Usage uint32

const (
	USAGE_DEFAULT   Usage = 0
	USAGE_IMMUTABLE Usage = 1
	USAGE_DYNAMIC   Usage = 2
	USAGE_STAGING   Usage = 3
)

type BindFlag uint32

const (
	BIND_VERTEX_BUFFER   BindFlag = 0x1
	BIND_INDEX_BUFFER    BindFlag = 0x2
	BIND_CONSTANT_BUFFER BindFlag = 0x4
	BIND_SHADER_RESOURCE BindFlag = 0x8
	BIND_RENDER_TARGET   BindFlag = 0x20
	BIND_DEPTH_STENCIL   BindFlag = 0x40
)

type CPUAccessFlag uint32

const (
	CPU_ACCESS_WRITE CPUAccessFlag = 0x10000
	CPU_ACCESS_READ  CPUAccessFlag = 0x20000
)

type MapMode uint32

const (
	MAP_WRITE_DISCARD      MapMode = 4
	MAP_WRITE_NO_OVERWRITE MapMode = 5
)

type PrimitiveTopology uint32

const (
	PRIMITIVE_TOPOLOGY_UNDEFINED     PrimitiveTopology = 0
	PRIMITIVE_TOPOLOGY_POINTLIST     PrimitiveTopology = 1
	PRIMITIVE_TOPOLOGY_LINELIST      PrimitiveTopology = 2
	PRIMITIVE_TOPOLOGY_LINESTRIP     PrimitiveTopology = 3
	PRIMITIVE_TOPOLOGY_TRIANGLELIST  PrimitiveTopology = 4
	PRIMITIVE_TOPOLOGY_TRIANGLESTRIP PrimitiveTopology = 5
)

type InputClassification uint32

const (
	INPUT_PER_VERTEX_DATA   InputClassification = 0
	INPUT_PER_INSTANCE_DATA InputClassification = 1
)

// APPEND_ALIGNED_ELEMENT places an input element directly after the previous one.
const APPEND_ALIGNED_ELEMENT uint32 = 0xffffffff

type FillMode uint32

const (
	FILL_WIREFRAME FillMode = 2
	FILL_SOLID     FillMode = 3
)

type CullMode uint32

const (
	CULL_NONE  CullMode = 1
	CULL_FRONT CullMode = 2
	CULL_BACK  CullMode = 3
)

type ComparisonFunc uint32

const (
	COMPARISON_NEVER         ComparisonFunc = 1
	COMPARISON_LESS          ComparisonFunc = 2
	COMPARISON_EQUAL         ComparisonFunc = 3
	COMPARISON_LESS_EQUAL    ComparisonFunc = 4
	COMPARISON_GREATER       ComparisonFunc = 5
	COMPARISON_NOT_EQUAL     ComparisonFunc = 6
	COMPARISON_GREATER_EQUAL ComparisonFunc = 7
	COMPARISON_ALWAYS        ComparisonFunc = 8
)

type DepthWriteMask uint32

const (
	DEPTH_WRITE_MASK_ZERO DepthWriteMask = 0
	DEPTH_WRITE_MASK_ALL  DepthWriteMask = 1
)

type StencilOp uint32

const (
	STENCIL_OP_KEEP    StencilOp = 1
	STENCIL_OP_ZERO    StencilOp = 2
	STENCIL_OP_REPLACE StencilOp = 3
)

type Blend uint32

const (
	BLEND_ZERO          Blend = 1
	BLEND_ONE           Blend = 2
	BLEND_SRC_ALPHA     Blend = 5
	BLEND_INV_SRC_ALPHA Blend = 6
)

type BlendOp uint32

const (
	BLEND_OP_ADD BlendOp = 1
)

const COLOR_WRITE_ENABLE_ALL uint8 = 0xf

type Filter uint32

const (
	FILTER_MIN_MAG_MIP_POINT  Filter = 0
	FILTER_MIN_MAG_MIP_LINEAR Filter = 0x15
)

type TextureAddressMode uint32

const (
	TEXTURE_ADDRESS_WRAP  TextureAddressMode = 1
	TEXTURE_ADDRESS_CLAMP TextureAddressMode = 3
)

type ClearFlag uint32

const (
	CLEAR_DEPTH   ClearFlag = 0x1
	CLEAR_STENCIL ClearFlag = 0x2
)

type ColorSpace uint32

const (
	COLOR_SPACE_RGB_FULL_G22_NONE_P709    ColorSpace = 0
	COLOR_SPACE_RGB_FULL_G10_NONE_P709    ColorSpace = 1
	COLOR_SPACE_RGB_FULL_G2084_NONE_P2020 ColorSpace = 12
)

func (c ColorSpace) String() string {
	switch c {
	case COLOR_SPACE_RGB_FULL_G22_NONE_P709:
		return "sRGB"
	case COLOR_SPACE_RGB_FULL_G10_NONE_P709:
		return "scRGB"
	case COLOR_SPACE_RGB_FULL_G2084_NONE_P2020:
		return "HDR10"
	}
	return "unknown"
}

type BufferDesc struct {
	ByteWidth           uint32
	Usage               Usage
	BindFlags           BindFlag
	CPUAccessFlags      CPUAccessFlag
	MiscFlags           uint32
	StructureByteStride uint32
}

type InputElementDesc struct {
	SemanticName         string
	SemanticIndex        uint32
	Format               Format
	InputSlot            uint32
	AlignedByteOffset    uint32
	InputSlotClass       InputClassification
	InstanceDataStepRate uint32
}

type RasterizerDesc struct {
	FillMode              FillMode
	CullMode              CullMode
	FrontCounterClockwise bool
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       bool
	ScissorEnable         bool
	MultisampleEnable     bool
	AntialiasedLineEnable bool
}

type DepthStencilOpDesc struct {
	StencilFailOp      StencilOp
	StencilDepthFailOp StencilOp
	StencilPassOp      StencilOp
	StencilFunc        ComparisonFunc
}

type DepthStencilDesc struct {
	DepthEnable      bool
	DepthWriteMask   DepthWriteMask
	DepthFunc        ComparisonFunc
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	FrontFace        DepthStencilOpDesc
	BackFace         DepthStencilOpDesc
}

type RenderTargetBlendDesc struct {
	BlendEnable           bool
	SrcBlend              Blend
	DestBlend             Blend
	BlendOp               BlendOp
	SrcBlendAlpha         Blend
	DestBlendAlpha        Blend
	BlendOpAlpha          BlendOp
	RenderTargetWriteMask uint8
}

type BlendDesc struct {
	AlphaToCoverageEnable  bool
	IndependentBlendEnable bool
	RenderTarget           [8]RenderTargetBlendDesc
}

type SamplerDesc struct {
	Filter         Filter
	AddressU       TextureAddressMode
	AddressV       TextureAddressMode
	AddressW       TextureAddressMode
	MipLODBias     float32
	MaxAnisotropy  uint32
	ComparisonFunc ComparisonFunc
	BorderColor    [4]float32
	MinLOD         float32
	MaxLOD         float32
}

type Texture2DDesc struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         Format
	SampleCount    uint32
	SampleQuality  uint32
	Usage          Usage
	BindFlags      BindFlag
	CPUAccessFlags CPUAccessFlag
	MiscFlags      uint32
}

type Viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

// DefaultRasterizerDesc mirrors CD3D11_RASTERIZER_DESC(D3D11_DEFAULT).
func DefaultRasterizerDesc() RasterizerDesc {
	return RasterizerDesc{
		FillMode:        FILL_SOLID,
		CullMode:        CULL_BACK,
		DepthClipEnable: true,
	}
}

// DefaultDepthStencilDesc mirrors CD3D11_DEPTH_STENCIL_DESC(D3D11_DEFAULT).
func DefaultDepthStencilDesc() DepthStencilDesc {
	op := DepthStencilOpDesc{
		StencilFailOp:      STENCIL_OP_KEEP,
		StencilDepthFailOp: STENCIL_OP_KEEP,
		StencilPassOp:      STENCIL_OP_KEEP,
		StencilFunc:        COMPARISON_ALWAYS,
	}
	return DepthStencilDesc{
		DepthEnable:      true,
		DepthWriteMask:   DEPTH_WRITE_MASK_ALL,
		DepthFunc:        COMPARISON_LESS,
		StencilReadMask:  0xff,
		StencilWriteMask: 0xff,
		FrontFace:        op,
		BackFace:         op,
	}
}

// DefaultBlendDesc mirrors CD3D11_BLEND_DESC(D3D11_DEFAULT): blending off, all channels written.
func DefaultBlendDesc() BlendDesc {
	var desc BlendDesc
	for i := range desc.RenderTarget {
		desc.RenderTarget[i] = RenderTargetBlendDesc{
			SrcBlend:              BLEND_ONE,
			DestBlend:             BLEND_ZERO,
			BlendOp:               BLEND_OP_ADD,
			SrcBlendAlpha:         BLEND_ONE,
			DestBlendAlpha:        BLEND_ZERO,
			BlendOpAlpha:          BLEND_OP_ADD,
			RenderTargetWriteMask: COLOR_WRITE_ENABLE_ALL,
		}
	}
	return desc
}

// AlphaBlendDesc blends premultiplied alpha on render target 0.
func AlphaBlendDesc() BlendDesc {
	desc := DefaultBlendDesc()
	rt := &desc.RenderTarget[0]
	rt.BlendEnable = true
	rt.SrcBlend = BLEND_ONE
	rt.DestBlend = BLEND_INV_SRC_ALPHA
	rt.SrcBlendAlpha = BLEND_ONE
	rt.DestBlendAlpha = BLEND_INV_SRC_ALPHA
	return desc
}

// DefaultSamplerDesc mirrors CD3D11_SAMPLER_DESC(D3D11_DEFAULT).
func DefaultSamplerDesc() SamplerDesc {
	return SamplerDesc{
		Filter:         FILTER_MIN_MAG_MIP_LINEAR,
		AddressU:       TEXTURE_ADDRESS_CLAMP,
		AddressV:       TEXTURE_ADDRESS_CLAMP,
		AddressW:       TEXTURE_ADDRESS_CLAMP,
		MaxAnisotropy:  1,
		ComparisonFunc: COMPARISON_NEVER,
		BorderColor:    [4]float32{1, 1, 1, 1},
		MinLOD:         -3.402823466e+38,
		MaxLOD:         3.402823466e+38,
	}
}

// Binding slots tracked per stage by the backends.
const (
	MAX_VERTEX_BUFFERS   = 4
	MAX_CONSTANT_BUFFERS = 4
	MAX_SHADER_RESOURCES = 4
	MAX_SAMPLERS         = 4
)
