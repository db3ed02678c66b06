package vulkan

import (
	"encoding/binary"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

func TestVkFormat(t *testing.T) {
	f, err := vkFormat(renderer.FORMAT_B8G8R8A8_UNORM)
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, f)

	f, err = vkFormat(renderer.FORMAT_D24_UNORM_S8_UINT)
	require.NoError(t, err)
	assert.True(t, isDepthFormat(f))
	assert.True(t, hasStencil(f))

	_, err = vkFormat(renderer.FORMAT_UNKNOWN)
	assert.Error(t, err)
}

func TestViewportIsFlipped(t *testing.T) {
	v := vkViewport(renderer.Viewport{Width: 1280, Height: 720, MaxDepth: 1})
	assert.Equal(t, float32(720), v.Y)
	assert.Equal(t, float32(-720), v.Height)
	assert.Equal(t, float32(1280), v.Width)
	assert.Equal(t, float32(1), v.MaxDepth)

	s := vkScissor(renderer.Viewport{TopLeftX: 10, TopLeftY: 20, Width: 100, Height: 50})
	assert.Equal(t, int32(10), s.Offset.X)
	assert.Equal(t, int32(20), s.Offset.Y)
	assert.Equal(t, uint32(100), s.Extent.Width)
	assert.Equal(t, uint32(50), s.Extent.Height)
}

func TestRasterizerTranslation(t *testing.T) {
	desc := renderer.DefaultRasterizerDesc()
	desc.FrontCounterClockwise = true

	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), vkCullMode(desc.CullMode))
	assert.Equal(t, vk.FrontFaceCounterClockwise, vkFrontFace(desc.FrontCounterClockwise))
	assert.Equal(t, vk.PolygonModeFill, vkPolygonMode(desc.FillMode))
	assert.Equal(t, vk.PolygonModeLine, vkPolygonMode(renderer.FILL_WIREFRAME))
	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), vkCullMode(renderer.CULL_NONE))
}

func TestVertexAttributesAppendAligned(t *testing.T) {
	attributes, err := vertexAttributes([]renderer.InputElementDesc{
		{SemanticName: "POSITION", Format: renderer.FORMAT_R32G32B32_FLOAT, AlignedByteOffset: 0},
		{SemanticName: "COLOR", Format: renderer.FORMAT_R32G32B32A32_FLOAT, AlignedByteOffset: renderer.APPEND_ALIGNED_ELEMENT},
		{SemanticName: "TEXCOORD", Format: renderer.FORMAT_R32G32_FLOAT, AlignedByteOffset: renderer.APPEND_ALIGNED_ELEMENT},
		{SemanticName: "INSTANCE", Format: renderer.FORMAT_R32G32_FLOAT, InputSlot: 1, AlignedByteOffset: renderer.APPEND_ALIGNED_ELEMENT, InputSlotClass: renderer.INPUT_PER_INSTANCE_DATA},
	})
	require.NoError(t, err)
	require.Len(t, attributes, 4)

	assert.Equal(t, uint32(0), attributes[0].Offset)
	assert.Equal(t, uint32(12), attributes[1].Offset)
	assert.Equal(t, uint32(28), attributes[2].Offset)
	assert.Equal(t, uint32(0), attributes[3].Offset, "slots are laid out independently")
	for i, a := range attributes {
		assert.Equal(t, uint32(i), a.Location)
	}
	assert.Equal(t, uint32(1), attributes[3].Binding)
}

func TestVertexAttributesRejectsBadInput(t *testing.T) {
	_, err := vertexAttributes([]renderer.InputElementDesc{
		{SemanticName: "POSITION", Format: renderer.FORMAT_R32G32B32_FLOAT, InputSlot: renderer.MAX_VERTEX_BUFFERS},
	})
	assert.Error(t, err)

	_, err = vertexAttributes([]renderer.InputElementDesc{
		{SemanticName: "POSITION", Format: renderer.FORMAT_UNKNOWN},
	})
	assert.Error(t, err)
}

func TestInputLayoutSlots(t *testing.T) {
	layout := &InputLayout{Elements: []renderer.InputElementDesc{
		{SemanticName: "INSTANCE", InputSlot: 2, InputSlotClass: renderer.INPUT_PER_INSTANCE_DATA},
		{SemanticName: "POSITION", InputSlot: 0},
		{SemanticName: "NORMAL", InputSlot: 0},
	}}
	assert.Equal(t, []uint32{0, 2}, layout.slots())
	assert.False(t, layout.instanced(0))
	assert.True(t, layout.instanced(2))
}

func TestColorBlendAttachment(t *testing.T) {
	opaque := vkColorBlendAttachment(renderer.DefaultBlendDesc().RenderTarget[0])
	assert.Equal(t, vk.Bool32(vk.False), opaque.BlendEnable)
	assert.Equal(t, vk.ColorComponentFlags(0xf), opaque.ColorWriteMask)

	alpha := vkColorBlendAttachment(renderer.AlphaBlendDesc().RenderTarget[0])
	assert.Equal(t, vk.Bool32(vk.True), alpha.BlendEnable)
	assert.Equal(t, vk.BlendFactorOne, alpha.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, alpha.DstColorBlendFactor)
}

func TestColorSpaceOf(t *testing.T) {
	assert.Equal(t, renderer.COLOR_SPACE_RGB_FULL_G22_NONE_P709, colorSpaceOf(vk.ColorSpaceSrgbNonlinear))
	assert.Equal(t, renderer.COLOR_SPACE_RGB_FULL_G10_NONE_P709, colorSpaceOf(vk.ColorSpaceExtendedSrgbLinear))
	assert.Equal(t, renderer.COLOR_SPACE_RGB_FULL_G2084_NONE_P2020, colorSpaceOf(vk.ColorSpaceHdr10St2084))
}

func TestSpirvWords(t *testing.T) {
	code := make([]byte, 20)
	binary.LittleEndian.PutUint32(code, spirvMagic)
	binary.LittleEndian.PutUint32(code[4:], 0x00010000)

	words, err := spirvWords(code)
	require.NoError(t, err)
	assert.Len(t, words, 5)
	assert.Equal(t, uint32(0x00010000), words[1])

	_, err = spirvWords(code[:18])
	assert.Error(t, err, "not a multiple of four")

	// DXBC bytecode handed to the Vulkan backend.
	dxbc := append([]byte("DXBC"), make([]byte, 16)...)
	_, err = spirvWords(dxbc)
	assert.Error(t, err)
}

func TestShaderModuleCreateInfo(t *testing.T) {
	code := make([]byte, 24)
	binary.LittleEndian.PutUint32(code, spirvMagic)

	info, err := shaderModuleCreateInfo(code)
	require.NoError(t, err)
	assert.Equal(t, vk.StructureTypeShaderModuleCreateInfo, info.SType)
	assert.Equal(t, uint64(24), info.CodeSize)
	assert.Len(t, info.PCode, 6)

	_, err = shaderModuleCreateInfo(code[:8])
	assert.Error(t, err)
}

// The debug report callback must stay assignable to the loader's callback type.
var _ vk.DebugReportCallbackFunc = dbgCallbackFunc

func TestRenderpassKeyLayouts(t *testing.T) {
	key := renderpassKey{
		color:     vk.FormatB8g8r8a8Unorm,
		depth:     vk.FormatD24UnormS8Uint,
		colorLoad: vk.AttachmentLoadOpLoad,
		depthLoad: vk.AttachmentLoadOpClear,
		present:   true,
	}
	initial, final := key.colorLayouts()
	assert.Equal(t, vk.ImageLayoutPresentSrc, initial, "loaded back buffer keeps its contents")
	assert.Equal(t, vk.ImageLayoutPresentSrc, final)

	initial, final = key.depthLayouts()
	assert.Equal(t, vk.ImageLayoutUndefined, initial)
	assert.Equal(t, vk.ImageLayoutDepthStencilAttachmentOptimal, final)

	compatible := key.compatible()
	assert.Equal(t, vk.AttachmentLoadOpClear, compatible.colorLoad)
	assert.Equal(t, key.color, compatible.color)
	assert.Equal(t, key.depth, compatible.depth)
	assert.Equal(t, compatible, compatible.compatible())

	offscreen := renderpassKey{color: vk.FormatR8g8b8a8Unorm, colorLoad: vk.AttachmentLoadOpClear}
	_, final = offscreen.colorLayouts()
	assert.Equal(t, vk.ImageLayoutShaderReadOnlyOptimal, final)
	assert.False(t, offscreen.hasDepth())
}

func TestPipelineKeyReferences(t *testing.T) {
	vs, ps := &Shader{}, &Shader{}
	layout := &InputLayout{}
	blend := &BlendState{}
	key := pipelineKey{vs: vs, ps: ps, layout: layout, blend: blend}

	assert.True(t, key.references(vs))
	assert.True(t, key.references(ps))
	assert.True(t, key.references(layout))
	assert.True(t, key.references(blend))
	assert.False(t, key.references(&Shader{}))
	assert.False(t, key.references(&RasterizerState{}))
}

func TestSwapchainChoices(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode(modes, true))
	assert.Equal(t, vk.PresentModeImmediate, choosePresentMode(modes, false))
	assert.Equal(t, vk.PresentModeFifo, choosePresentMode([]vk.PresentMode{vk.PresentModeFifo}, false))

	var caps vk.SurfaceCapabilities
	caps.CurrentExtent = vk.Extent2D{Width: 0xFFFFFFFF, Height: 0xFFFFFFFF}
	caps.MinImageExtent = vk.Extent2D{Width: 1, Height: 1}
	caps.MaxImageExtent = vk.Extent2D{Width: 1920, Height: 1080}
	extent := clampExtent(4096, 720, caps)
	assert.Equal(t, uint32(1920), extent.Width)
	assert.Equal(t, uint32(720), extent.Height)

	caps.CurrentExtent = vk.Extent2D{Width: 800, Height: 600}
	extent = clampExtent(4096, 720, caps)
	assert.Equal(t, uint32(800), extent.Width, "the surface size wins when it is fixed")
	assert.Equal(t, uint32(600), extent.Height)
}

func TestResultError(t *testing.T) {
	assert.NoError(t, resultError("op", vk.Success))
	assert.NoError(t, resultError("op", vk.Suboptimal))
	assert.Error(t, resultError("op", vk.ErrorOutOfDate))
	assert.Equal(t, "VK_ERROR_DEVICE_LOST", VulkanResultString(vk.ErrorDeviceLost))
}
