//go:build windows

package d3d11

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

const (
	driverTypeHardware = 1
	driverTypeWARP     = 5

	createDeviceDebug       = 0x2
	createDeviceBGRASupport = 0x20
	sdkVersion              = 7
)

var featureLevels = []uint32{
	0xb000, // 11_0
	0xa100, // 10_1
	0xa000, // 10_0
}

// Driver creates Direct3D 11 devices on the default adapter.
type Driver struct{}

func NewDriver() (*Driver, error) {
	if err := procD3D11CreateDevice.Find(); err != nil {
		return nil, fmt.Errorf("loading d3d11.dll: %v: %w", err, core.ErrUnsupportedBackend)
	}
	return &Driver{}, nil
}

func (*Driver) Type() renderer.RendererType { return renderer.Direct3D11 }

func (*Driver) ShaderExtension() string { return ".cso" }

// CreateDevice prefers a hardware device. Without the SDK layers installed the
// debug flag is dropped, and without a usable GPU it falls back to WARP.
func (drv *Driver) CreateDevice(debug bool) (renderer.Device, renderer.Context, error) {
	flags := uint32(createDeviceBGRASupport)
	if debug {
		flags |= createDeviceDebug
	}

	device, context, err := createDevice(driverTypeHardware, flags)
	if err != nil && debug {
		core.LogWarn("d3d11 debug layer unavailable, continuing without it: %v", err)
		flags &^= createDeviceDebug
		device, context, err = createDevice(driverTypeHardware, flags)
	}
	if err != nil {
		core.LogWarn("hardware d3d11 device unavailable, falling back to WARP: %v", err)
		device, context, err = createDevice(driverTypeWARP, flags)
	}
	if err != nil {
		return nil, nil, err
	}
	core.LogInfo("d3d11 device created, feature level %x", device.featureLevel)
	return device, context, nil
}

func createDevice(driverType, flags uint32) (*Device, *Context, error) {
	var device, context unsafe.Pointer
	var level uint32
	r, _, _ := procD3D11CreateDevice.Call(
		0,
		uintptr(driverType),
		0,
		uintptr(flags),
		uintptr(unsafe.Pointer(&featureLevels[0])),
		uintptr(len(featureLevels)),
		sdkVersion,
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&level)),
		uintptr(unsafe.Pointer(&context)),
	)
	if err := check("D3D11CreateDevice", hresult(r)); err != nil {
		return nil, nil, err
	}
	return &Device{ptr: object(device), featureLevel: level}, &Context{ptr: object(context)}, nil
}

func (drv *Driver) CreateSwapChain(device renderer.Device, window renderer.Window, width, height uint32, format renderer.Format, bufferCount uint32) (renderer.SwapChain, error) {
	d, ok := device.(*Device)
	if !ok {
		return nil, fmt.Errorf("device %T was not created by the d3d11 driver", device)
	}
	w, ok := window.(renderer.Win32Window)
	if !ok {
		return nil, fmt.Errorf("window has no HWND: %w", core.ErrUnsupportedBackend)
	}
	return newSwapChain(d, w.Win32Handle(), width, height, format, bufferCount)
}
