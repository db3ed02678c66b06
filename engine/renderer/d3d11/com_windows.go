//go:build windows

package d3d11

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	d3d11DLL = windows.NewLazySystemDLL("d3d11.dll")

	procD3D11CreateDevice = d3d11DLL.NewProc("D3D11CreateDevice")
)

var (
	iidIDXGIDevice     = windows.GUID{Data1: 0x54ec77fa, Data2: 0x1377, Data3: 0x44e6, Data4: [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidIDXGIFactory    = windows.GUID{Data1: 0x7b7166ec, Data2: 0x21c7, Data3: 0x44ae, Data4: [8]byte{0xb2, 0x1a, 0xc9, 0xae, 0x32, 0x1a, 0xe3, 0x69}}
	iidID3D11Texture2D = windows.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// COM vtable slots.
const (
	vtblQueryInterface = 0
	vtblRelease        = 2

	// IDXGIObject / IDXGIDevice / IDXGIFactory
	dxgiObjectGetParent        = 6
	dxgiDeviceGetAdapter       = 7
	dxgiFactoryMakeWindowAssoc = 8
	dxgiFactoryCreateSwapChain = 10
	dxgiSwapChainPresent       = 8
	dxgiSwapChainGetBuffer     = 9
	dxgiSwapChainResizeBuffers = 13

	// ID3D11Device
	deviceCreateBuffer             = 3
	deviceCreateTexture2D          = 5
	deviceCreateShaderResourceView = 7
	deviceCreateRenderTargetView   = 9
	deviceCreateDepthStencilView   = 10
	deviceCreateInputLayout        = 11
	deviceCreateVertexShader       = 12
	deviceCreatePixelShader        = 15
	deviceCreateBlendState         = 20
	deviceCreateDepthStencilState  = 21
	deviceCreateRasterizerState    = 22
	deviceCreateSamplerState       = 23
	deviceGetDeviceRemovedReason   = 39

	// ID3D11DeviceContext
	ctxVSSetConstantBuffers   = 7
	ctxPSSetShaderResources   = 8
	ctxPSSetShader            = 9
	ctxPSSetSamplers          = 10
	ctxVSSetShader            = 11
	ctxDrawIndexed            = 12
	ctxDraw                   = 13
	ctxMap                    = 14
	ctxUnmap                  = 15
	ctxPSSetConstantBuffers   = 16
	ctxIASetInputLayout       = 17
	ctxIASetVertexBuffers     = 18
	ctxIASetIndexBuffer       = 19
	ctxIASetPrimitiveTopology = 24
	ctxOMSetRenderTargets     = 33
	ctxOMSetBlendState        = 35
	ctxOMSetDepthStencilState = 36
	ctxRSSetState             = 43
	ctxRSSetViewports         = 44
	ctxClearRenderTargetView  = 50
	ctxClearDepthStencilView  = 53
	ctxClearState             = 110
	ctxFlush                  = 111
)

// object is a COM interface pointer.
type object unsafe.Pointer

// call invokes vtable slot method on obj and returns the raw result.
//
//go:uintptrescapes
func call(obj object, method int, args ...uintptr) uintptr {
	vtbl := *(*unsafe.Pointer)(obj)
	fn := *(*uintptr)(unsafe.Add(vtbl, method*int(unsafe.Sizeof(uintptr(0)))))
	r, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(obj)}, args...)...)
	return r
}

//go:uintptrescapes
func callHR(obj object, method int, args ...uintptr) hresult {
	return hresult(call(obj, method, args...))
}

func release(obj object) {
	if obj != nil {
		call(obj, vtblRelease)
	}
}

func queryInterface(obj object, iid *windows.GUID) (object, error) {
	var out unsafe.Pointer
	hr := callHR(obj, vtblQueryInterface, uintptr(unsafe.Pointer(iid)), uintptr(unsafe.Pointer(&out)))
	if err := check("QueryInterface", hr); err != nil {
		return nil, err
	}
	return object(out), nil
}

// handle is implemented by every resource this package creates.
type handle interface {
	raw() object
}

// rawOf returns the COM pointer behind a renderer object, or nil.
func rawOf(v interface{}) uintptr {
	if h, ok := v.(handle); ok && h != nil {
		return uintptr(h.raw())
	}
	return 0
}
