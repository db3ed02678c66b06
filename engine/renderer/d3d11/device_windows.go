//go:build windows

package d3d11

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// Device wraps ID3D11Device.
type Device struct {
	ptr          object
	featureLevel uint32
}

func (d *Device) raw() object { return d.ptr }

func (d *Device) CreateBuffer(desc renderer.BufferDesc, initialData []byte) (renderer.Buffer, error) {
	bd := toBufferDesc(desc)
	var init *subresourceData
	if len(initialData) > 0 {
		if uint32(len(initialData)) < desc.ByteWidth {
			return nil, fmt.Errorf("CreateBuffer: %d bytes of initial data for a %d byte buffer", len(initialData), desc.ByteWidth)
		}
		init = &subresourceData{SysMem: unsafe.Pointer(&initialData[0])}
	}
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateBuffer, uintptr(unsafe.Pointer(&bd)), uintptr(unsafe.Pointer(init)), uintptr(unsafe.Pointer(&out)))
	runtime.KeepAlive(initialData)
	if err := check("CreateBuffer", hr); err != nil {
		return nil, err
	}
	return &Buffer{resource: resource{object(out)}, desc: desc}, nil
}

func (d *Device) CreateTexture2D(desc renderer.Texture2DDesc, initialData []byte) (renderer.Texture2D, error) {
	td := toTexture2DDesc(desc)
	var init *subresourceData
	if len(initialData) > 0 {
		pitch := desc.Width * desc.Format.BytesPerPixel()
		if pitch == 0 || uint32(len(initialData)) < pitch*desc.Height {
			return nil, fmt.Errorf("CreateTexture2D: %d bytes of initial data for a %dx%d texture", len(initialData), desc.Width, desc.Height)
		}
		init = &subresourceData{SysMem: unsafe.Pointer(&initialData[0]), SysMemPitch: pitch}
	}
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateTexture2D, uintptr(unsafe.Pointer(&td)), uintptr(unsafe.Pointer(init)), uintptr(unsafe.Pointer(&out)))
	runtime.KeepAlive(initialData)
	if err := check("CreateTexture2D", hr); err != nil {
		return nil, err
	}
	return &Texture{resource: resource{object(out)}, desc: desc}, nil
}

func (d *Device) CreateShaderResourceView(texture renderer.Texture2D) (renderer.ShaderResourceView, error) {
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateShaderResourceView, rawOf(texture), 0, uintptr(unsafe.Pointer(&out)))
	if err := check("CreateShaderResourceView", hr); err != nil {
		return nil, err
	}
	return &ShaderResourceView{resource{object(out)}}, nil
}

func (d *Device) CreateRenderTargetView(texture renderer.Texture2D) (renderer.RenderTargetView, error) {
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateRenderTargetView, rawOf(texture), 0, uintptr(unsafe.Pointer(&out)))
	if err := check("CreateRenderTargetView", hr); err != nil {
		return nil, err
	}
	return &RenderTargetView{resource{object(out)}}, nil
}

func (d *Device) CreateDepthStencilView(texture renderer.Texture2D) (renderer.DepthStencilView, error) {
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateDepthStencilView, rawOf(texture), 0, uintptr(unsafe.Pointer(&out)))
	if err := check("CreateDepthStencilView", hr); err != nil {
		return nil, err
	}
	return &DepthStencilView{resource{object(out)}}, nil
}

func (d *Device) CreateInputLayout(elements []renderer.InputElementDesc, vertexShaderBytecode []byte) (renderer.InputLayout, error) {
	if len(elements) == 0 || len(vertexShaderBytecode) == 0 {
		return nil, fmt.Errorf("CreateInputLayout: empty layout or bytecode")
	}
	descs, names := toInputElements(elements)
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateInputLayout,
		uintptr(unsafe.Pointer(&descs[0])),
		uintptr(len(descs)),
		uintptr(unsafe.Pointer(&vertexShaderBytecode[0])),
		uintptr(len(vertexShaderBytecode)),
		uintptr(unsafe.Pointer(&out)),
	)
	runtime.KeepAlive(names)
	if err := check("CreateInputLayout", hr); err != nil {
		return nil, err
	}
	return &InputLayout{resource{object(out)}}, nil
}

func (d *Device) CreateVertexShader(bytecode []byte) (renderer.VertexShader, error) {
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("CreateVertexShader: empty bytecode")
	}
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateVertexShader, uintptr(unsafe.Pointer(&bytecode[0])), uintptr(len(bytecode)), 0, uintptr(unsafe.Pointer(&out)))
	if err := check("CreateVertexShader", hr); err != nil {
		return nil, err
	}
	return &VertexShader{resource{object(out)}}, nil
}

func (d *Device) CreatePixelShader(bytecode []byte) (renderer.PixelShader, error) {
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("CreatePixelShader: empty bytecode")
	}
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreatePixelShader, uintptr(unsafe.Pointer(&bytecode[0])), uintptr(len(bytecode)), 0, uintptr(unsafe.Pointer(&out)))
	if err := check("CreatePixelShader", hr); err != nil {
		return nil, err
	}
	return &PixelShader{resource{object(out)}}, nil
}

func (d *Device) CreateBlendState(desc renderer.BlendDesc) (renderer.BlendState, error) {
	bd := toBlendDesc(desc)
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateBlendState, uintptr(unsafe.Pointer(&bd)), uintptr(unsafe.Pointer(&out)))
	if err := check("CreateBlendState", hr); err != nil {
		return nil, err
	}
	return &BlendState{resource{object(out)}}, nil
}

func (d *Device) CreateDepthStencilState(desc renderer.DepthStencilDesc) (renderer.DepthStencilState, error) {
	dd := toDepthStencilDesc(desc)
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateDepthStencilState, uintptr(unsafe.Pointer(&dd)), uintptr(unsafe.Pointer(&out)))
	if err := check("CreateDepthStencilState", hr); err != nil {
		return nil, err
	}
	return &DepthStencilState{resource{object(out)}}, nil
}

func (d *Device) CreateRasterizerState(desc renderer.RasterizerDesc) (renderer.RasterizerState, error) {
	rd := toRasterizerDesc(desc)
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateRasterizerState, uintptr(unsafe.Pointer(&rd)), uintptr(unsafe.Pointer(&out)))
	if err := check("CreateRasterizerState", hr); err != nil {
		return nil, err
	}
	return &RasterizerState{resource{object(out)}}, nil
}

func (d *Device) CreateSamplerState(desc renderer.SamplerDesc) (renderer.SamplerState, error) {
	sd := toSamplerDesc(desc)
	var out unsafe.Pointer
	hr := callHR(d.ptr, deviceCreateSamplerState, uintptr(unsafe.Pointer(&sd)), uintptr(unsafe.Pointer(&out)))
	if err := check("CreateSamplerState", hr); err != nil {
		return nil, err
	}
	return &SamplerState{resource{object(out)}}, nil
}

// removedReason returns S_OK while the device is healthy.
func (d *Device) removedReason() hresult {
	return callHR(d.ptr, deviceGetDeviceRemovedReason)
}

func (d *Device) Release() {
	if d.ptr == nil {
		return
	}
	release(d.ptr)
	d.ptr = nil
	core.LogDebug("d3d11 device released")
}
