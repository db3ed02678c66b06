//go:build windows

package d3d11

import (
	"unsafe"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// SwapChain wraps a flip-discard IDXGISwapChain.
type SwapChain struct {
	device      *Device
	ptr         object
	width       uint32
	height      uint32
	format      renderer.Format
	bufferCount uint32
}

// factoryOf walks device -> IDXGIDevice -> adapter -> IDXGIFactory. The swap
// chain has to come from the factory that created the device.
func factoryOf(device *Device) (object, error) {
	dxgiDevice, err := queryInterface(device.ptr, &iidIDXGIDevice)
	if err != nil {
		return nil, err
	}
	defer release(dxgiDevice)

	var adapter unsafe.Pointer
	if err := check("IDXGIDevice::GetAdapter", callHR(dxgiDevice, dxgiDeviceGetAdapter, uintptr(unsafe.Pointer(&adapter)))); err != nil {
		return nil, err
	}
	defer release(object(adapter))

	var factory unsafe.Pointer
	hr := callHR(object(adapter), dxgiObjectGetParent, uintptr(unsafe.Pointer(&iidIDXGIFactory)), uintptr(unsafe.Pointer(&factory)))
	if err := check("IDXGIAdapter::GetParent", hr); err != nil {
		return nil, err
	}
	return object(factory), nil
}

func newSwapChain(device *Device, hwnd uintptr, width, height uint32, format renderer.Format, bufferCount uint32) (*SwapChain, error) {
	factory, err := factoryOf(device)
	if err != nil {
		return nil, err
	}
	defer release(factory)

	desc := flipSwapChainDesc(hwnd, width, height, format, bufferCount)
	var out unsafe.Pointer
	hr := callHR(factory, dxgiFactoryCreateSwapChain, uintptr(device.ptr), uintptr(unsafe.Pointer(&desc)), uintptr(unsafe.Pointer(&out)))
	if err := check("IDXGIFactory::CreateSwapChain", hr); err != nil {
		return nil, err
	}
	// Alt+Enter fullscreen is not supported.
	callHR(factory, dxgiFactoryMakeWindowAssoc, hwnd, dxgiMWANoAltEnter)

	core.LogInfo("d3d11 swap chain created: %dx%d, %d buffers", width, height, desc.BufferCount)
	return &SwapChain{
		device:      device,
		ptr:         object(out),
		width:       width,
		height:      height,
		format:      format,
		bufferCount: desc.BufferCount,
	}, nil
}

func (sc *SwapChain) GetBuffer() (renderer.Texture2D, error) {
	var out unsafe.Pointer
	hr := callHR(sc.ptr, dxgiSwapChainGetBuffer, 0, uintptr(unsafe.Pointer(&iidID3D11Texture2D)), uintptr(unsafe.Pointer(&out)))
	if err := check("IDXGISwapChain::GetBuffer", hr); err != nil {
		return nil, err
	}
	return &Texture{
		resource: resource{object(out)},
		desc: renderer.Texture2DDesc{
			Width:       sc.width,
			Height:      sc.height,
			MipLevels:   1,
			ArraySize:   1,
			Format:      sc.format,
			SampleCount: 1,
			Usage:       renderer.USAGE_DEFAULT,
			BindFlags:   renderer.BIND_RENDER_TARGET,
		},
	}, nil
}

func (sc *SwapChain) ResizeBuffers(width, height uint32) error {
	hr := callHR(sc.ptr, dxgiSwapChainResizeBuffers, uintptr(sc.bufferCount), uintptr(width), uintptr(height), uintptr(sc.format), 0)
	if err := check("IDXGISwapChain::ResizeBuffers", hr); err != nil {
		sc.logRemoved(hr)
		return err
	}
	sc.width, sc.height = width, height
	return nil
}

func (sc *SwapChain) Present(vsync bool) error {
	var interval uintptr
	if vsync {
		interval = 1
	}
	hr := callHR(sc.ptr, dxgiSwapChainPresent, interval, 0)
	// DXGI_STATUS_OCCLUDED is a success code and needs no handling.
	sc.logRemoved(hr)
	return check("IDXGISwapChain::Present", hr)
}

func (sc *SwapChain) logRemoved(hr hresult) {
	if !hr.deviceLost() {
		return
	}
	reason := hr
	if hr == dxgiErrorDeviceRemoved {
		reason = sc.device.removedReason()
	}
	core.LogWarn("d3d11 device lost: %s (reason %s)", hr, reason)
}

// ColorSpace reports sRGB. HDR output needs IDXGISwapChain3, which this
// backend does not request.
func (sc *SwapChain) ColorSpace() renderer.ColorSpace {
	return renderer.COLOR_SPACE_RGB_FULL_G22_NONE_P709
}

func (sc *SwapChain) Release() {
	release(sc.ptr)
	sc.ptr = nil
}

