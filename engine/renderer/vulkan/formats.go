package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

var formats = map[renderer.Format]vk.Format{
	renderer.FORMAT_R32G32B32A32_FLOAT: vk.FormatR32g32b32a32Sfloat,
	renderer.FORMAT_R32G32B32_FLOAT:    vk.FormatR32g32b32Sfloat,
	renderer.FORMAT_R32G32_FLOAT:       vk.FormatR32g32Sfloat,
	renderer.FORMAT_R8G8B8A8_UNORM:     vk.FormatR8g8b8a8Unorm,
	renderer.FORMAT_B8G8R8A8_UNORM:     vk.FormatB8g8r8a8Unorm,
	renderer.FORMAT_D32_FLOAT:          vk.FormatD32Sfloat,
	renderer.FORMAT_D24_UNORM_S8_UINT:  vk.FormatD24UnormS8Uint,
	renderer.FORMAT_R8_UNORM:           vk.FormatR8Unorm,
	renderer.FORMAT_R16_UINT:           vk.FormatR16Uint,
	renderer.FORMAT_R32_UINT:           vk.FormatR32Uint,
}

func vkFormat(f renderer.Format) (vk.Format, error) {
	if v, ok := formats[f]; ok {
		return v, nil
	}
	return vk.FormatUndefined, fmt.Errorf("format %d has no vulkan equivalent", f)
}

func isDepthFormat(f vk.Format) bool {
	switch f {
	case vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD16Unorm:
		return true
	}
	return false
}

func hasStencil(f vk.Format) bool {
	return f == vk.FormatD32SfloatS8Uint || f == vk.FormatD24UnormS8Uint
}

func vkIndexType(f renderer.Format) vk.IndexType {
	if f == renderer.FORMAT_R32_UINT {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

func vkTopology(t renderer.PrimitiveTopology) vk.PrimitiveTopology {
	switch t {
	case renderer.PRIMITIVE_TOPOLOGY_POINTLIST:
		return vk.PrimitiveTopologyPointList
	case renderer.PRIMITIVE_TOPOLOGY_LINELIST:
		return vk.PrimitiveTopologyLineList
	case renderer.PRIMITIVE_TOPOLOGY_LINESTRIP:
		return vk.PrimitiveTopologyLineStrip
	case renderer.PRIMITIVE_TOPOLOGY_TRIANGLESTRIP:
		return vk.PrimitiveTopologyTriangleStrip
	}
	return vk.PrimitiveTopologyTriangleList
}

func vkCullMode(c renderer.CullMode) vk.CullModeFlags {
	switch c {
	case renderer.CULL_NONE:
		return vk.CullModeFlags(vk.CullModeNone)
	case renderer.CULL_FRONT:
		return vk.CullModeFlags(vk.CullModeFrontBit)
	}
	return vk.CullModeFlags(vk.CullModeBackBit)
}

func vkFrontFace(counterClockwise bool) vk.FrontFace {
	if counterClockwise {
		return vk.FrontFaceCounterClockwise
	}
	return vk.FrontFaceClockwise
}

func vkPolygonMode(f renderer.FillMode) vk.PolygonMode {
	if f == renderer.FILL_WIREFRAME {
		return vk.PolygonModeLine
	}
	return vk.PolygonModeFill
}

func vkCompareOp(c renderer.ComparisonFunc) vk.CompareOp {
	switch c {
	case renderer.COMPARISON_NEVER:
		return vk.CompareOpNever
	case renderer.COMPARISON_LESS:
		return vk.CompareOpLess
	case renderer.COMPARISON_EQUAL:
		return vk.CompareOpEqual
	case renderer.COMPARISON_LESS_EQUAL:
		return vk.CompareOpLessOrEqual
	case renderer.COMPARISON_GREATER:
		return vk.CompareOpGreater
	case renderer.COMPARISON_NOT_EQUAL:
		return vk.CompareOpNotEqual
	case renderer.COMPARISON_GREATER_EQUAL:
		return vk.CompareOpGreaterOrEqual
	}
	return vk.CompareOpAlways
}

func vkStencilOp(op renderer.StencilOp) vk.StencilOp {
	switch op {
	case renderer.STENCIL_OP_ZERO:
		return vk.StencilOpZero
	case renderer.STENCIL_OP_REPLACE:
		return vk.StencilOpReplace
	}
	return vk.StencilOpKeep
}

func vkStencilOpState(desc renderer.DepthStencilOpDesc, readMask, writeMask uint8) vk.StencilOpState {
	return vk.StencilOpState{
		FailOp:      vkStencilOp(desc.StencilFailOp),
		PassOp:      vkStencilOp(desc.StencilPassOp),
		DepthFailOp: vkStencilOp(desc.StencilDepthFailOp),
		CompareOp:   vkCompareOp(desc.StencilFunc),
		CompareMask: uint32(readMask),
		WriteMask:   uint32(writeMask),
	}
}

func vkBlendFactor(b renderer.Blend) vk.BlendFactor {
	switch b {
	case renderer.BLEND_ZERO:
		return vk.BlendFactorZero
	case renderer.BLEND_SRC_ALPHA:
		return vk.BlendFactorSrcAlpha
	case renderer.BLEND_INV_SRC_ALPHA:
		return vk.BlendFactorOneMinusSrcAlpha
	}
	return vk.BlendFactorOne
}

func vkColorBlendAttachment(rt renderer.RenderTargetBlendDesc) vk.PipelineColorBlendAttachmentState {
	state := vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.False,
		SrcColorBlendFactor: vkBlendFactor(rt.SrcBlend),
		DstColorBlendFactor: vkBlendFactor(rt.DestBlend),
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vkBlendFactor(rt.SrcBlendAlpha),
		DstAlphaBlendFactor: vkBlendFactor(rt.DestBlendAlpha),
		AlphaBlendOp:        vk.BlendOpAdd,
		// D3D11 and Vulkan share the RGBA bit order.
		ColorWriteMask: vk.ColorComponentFlags(rt.RenderTargetWriteMask),
	}
	if rt.BlendEnable {
		state.BlendEnable = vk.True
	}
	return state
}

func vkFilter(f renderer.Filter) (vk.Filter, vk.SamplerMipmapMode) {
	if f == renderer.FILTER_MIN_MAG_MIP_POINT {
		return vk.FilterNearest, vk.SamplerMipmapModeNearest
	}
	return vk.FilterLinear, vk.SamplerMipmapModeLinear
}

func vkAddressMode(m renderer.TextureAddressMode) vk.SamplerAddressMode {
	if m == renderer.TEXTURE_ADDRESS_WRAP {
		return vk.SamplerAddressModeRepeat
	}
	return vk.SamplerAddressModeClampToEdge
}

// vkViewport flips the viewport vertically so clip space keeps the Direct3D
// orientation (+Y up) and the winding set in the rasterizer state stays valid.
func vkViewport(v renderer.Viewport) vk.Viewport {
	return vk.Viewport{
		X:        v.TopLeftX,
		Y:        v.TopLeftY + v.Height,
		Width:    v.Width,
		Height:   -v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}
}

func vkScissor(v renderer.Viewport) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(v.TopLeftX), Y: int32(v.TopLeftY)},
		Extent: vk.Extent2D{Width: uint32(v.Width), Height: uint32(v.Height)},
	}
}

func colorSpaceOf(cs vk.ColorSpace) renderer.ColorSpace {
	switch cs {
	case vk.ColorSpaceExtendedSrgbLinear:
		return renderer.COLOR_SPACE_RGB_FULL_G10_NONE_P709
	case vk.ColorSpaceHdr10St2084:
		return renderer.COLOR_SPACE_RGB_FULL_G2084_NONE_P2020
	}
	return renderer.COLOR_SPACE_RGB_FULL_G22_NONE_P709
}

// vertexAttributes resolves an input layout into attribute descriptions. The
// attribute location is the element's position in the layout, matching the order
// the shader declares its inputs in.
func vertexAttributes(elements []renderer.InputElementDesc) ([]vk.VertexInputAttributeDescription, error) {
	attributes := make([]vk.VertexInputAttributeDescription, 0, len(elements))
	var next [renderer.MAX_VERTEX_BUFFERS]uint32
	for i, e := range elements {
		if e.InputSlot >= renderer.MAX_VERTEX_BUFFERS {
			return nil, fmt.Errorf("input element %s: slot %d out of range", e.SemanticName, e.InputSlot)
		}
		format, err := vkFormat(e.Format)
		if err != nil {
			return nil, fmt.Errorf("input element %s: %w", e.SemanticName, err)
		}
		offset := e.AlignedByteOffset
		if offset == renderer.APPEND_ALIGNED_ELEMENT {
			offset = next[e.InputSlot]
		}
		next[e.InputSlot] = offset + e.Format.BytesPerPixel()
		attributes = append(attributes, vk.VertexInputAttributeDescription{
			Location: uint32(i),
			Binding:  e.InputSlot,
			Format:   format,
			Offset:   offset,
		})
	}
	return attributes, nil
}
