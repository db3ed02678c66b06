package d3d11

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

func TestDescriptorLayouts(t *testing.T) {
	assert.Equal(t, uintptr(24), unsafe.Sizeof(bufferDesc{}))
	assert.Equal(t, uintptr(44), unsafe.Sizeof(texture2DDesc{}))
	assert.Equal(t, uintptr(40), unsafe.Sizeof(rasterizerDesc{}))
	assert.Equal(t, uintptr(52), unsafe.Sizeof(depthStencilDesc{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(renderTargetBlendDesc{}))
	assert.Equal(t, uintptr(264), unsafe.Sizeof(blendDesc{}))
	assert.Equal(t, uintptr(52), unsafe.Sizeof(samplerDesc{}))
	assert.Equal(t, uintptr(24), unsafe.Sizeof(viewport{}))
	assert.Equal(t, uintptr(28), unsafe.Sizeof(modeDesc{}))

	if unsafe.Sizeof(uintptr(0)) != 8 {
		t.Skip("pointer-carrying layouts are checked on 64-bit targets")
	}
	assert.Equal(t, uintptr(16), unsafe.Sizeof(subresourceData{}))
	assert.Equal(t, uintptr(32), unsafe.Sizeof(inputElementDesc{}))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(mappedSubresource{}))
	assert.Equal(t, uintptr(72), unsafe.Sizeof(swapChainDesc{}))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(swapChainDesc{}.OutputWindow))
}

func TestRasterizerDescPassesThrough(t *testing.T) {
	desc := renderer.DefaultRasterizerDesc()
	desc.FrontCounterClockwise = true

	rd := toRasterizerDesc(desc)
	assert.Equal(t, uint32(3), rd.FillMode, "D3D11_FILL_SOLID")
	assert.Equal(t, uint32(3), rd.CullMode, "D3D11_CULL_BACK")
	assert.Equal(t, int32(1), rd.FrontCounterClockwise)
	assert.Equal(t, int32(1), rd.DepthClipEnable)
	assert.Equal(t, int32(0), rd.ScissorEnable)
}

func TestBlendAndDepthDesc(t *testing.T) {
	bd := toBlendDesc(renderer.AlphaBlendDesc())
	assert.Equal(t, int32(1), bd.RenderTarget[0].BlendEnable)
	assert.Equal(t, uint32(6), bd.RenderTarget[0].DestBlend, "D3D11_BLEND_INV_SRC_ALPHA")
	assert.Equal(t, int32(0), bd.RenderTarget[1].BlendEnable)
	assert.Equal(t, uint8(0xf), bd.RenderTarget[7].RenderTargetWriteMask)

	dd := toDepthStencilDesc(renderer.DefaultDepthStencilDesc())
	assert.Equal(t, int32(1), dd.DepthEnable)
	assert.Equal(t, uint32(2), dd.DepthFunc, "D3D11_COMPARISON_LESS")
	assert.Equal(t, uint8(0xff), dd.StencilReadMask)
	assert.Equal(t, uint32(8), dd.BackFace.StencilFunc, "D3D11_COMPARISON_ALWAYS")
}

func TestTextureDescDefaults(t *testing.T) {
	td := toTexture2DDesc(renderer.Texture2DDesc{
		Width:     1280,
		Height:    720,
		MipLevels: 1,
		Format:    renderer.FORMAT_D24_UNORM_S8_UINT,
		BindFlags: renderer.BIND_DEPTH_STENCIL,
	})
	assert.Equal(t, uint32(1), td.SampleCount)
	assert.Equal(t, uint32(1), td.ArraySize)
	assert.Equal(t, uint32(45), td.Format)
	assert.Equal(t, uint32(0x40), td.BindFlags)
}

func TestInputElementsAreNulTerminated(t *testing.T) {
	descs, names := toInputElements([]renderer.InputElementDesc{
		{SemanticName: "POSITION", Format: renderer.FORMAT_R32G32B32_FLOAT},
		{SemanticName: "TEXCOORD", SemanticIndex: 1, Format: renderer.FORMAT_R32G32_FLOAT, AlignedByteOffset: renderer.APPEND_ALIGNED_ELEMENT},
	})
	require.Len(t, descs, 2)
	assert.Equal(t, []byte("POSITION\x00"), names[0])
	assert.Same(t, &names[1][0], descs[1].SemanticName)
	assert.Equal(t, uint32(1), descs[1].SemanticIndex)
	assert.Equal(t, uint32(0xffffffff), descs[1].AlignedByteOffset)
}

func TestFlipSwapChainDesc(t *testing.T) {
	desc := flipSwapChainDesc(0x1234, 1280, 720, renderer.FORMAT_B8G8R8A8_UNORM, 1)
	assert.Equal(t, uint32(2), desc.BufferCount, "flip model needs two buffers")
	assert.Equal(t, uint32(dxgiSwapEffectFlipDiscard), desc.SwapEffect)
	assert.Equal(t, uint32(1), desc.SampleDesc.Count)
	assert.Equal(t, uintptr(0x1234), desc.OutputWindow)
	assert.Equal(t, uint32(87), desc.BufferDesc.Format)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, check("Present", 0))
	assert.NoError(t, check("Present", 0x087A0001), "DXGI_STATUS_OCCLUDED is a success code")

	err := check("Present", dxgiErrorDeviceRemoved)
	assert.ErrorIs(t, err, core.ErrDeviceLost)
	assert.Contains(t, err.Error(), "DXGI_ERROR_DEVICE_REMOVED")

	err = check("CreateBuffer", eInvalidArg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrDeviceLost)
	assert.Equal(t, "HRESULT(0x887a0099)", hresult(0x887A0099).String())
}
