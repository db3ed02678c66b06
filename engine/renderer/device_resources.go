package renderer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/gametemplate/engine/core"
)

// DeviceNotify receives device-lost and device-restored notifications from
// DeviceResources. OnDeviceLost must release every device-dependent object.
type DeviceNotify interface {
	OnDeviceLost()
	OnDeviceRestored() error
}

type DeviceResourcesOptions struct {
	BackBufferFormat  Format
	DepthBufferFormat Format
	BackBufferCount   uint32
	VSync             bool
	DebugLayer        bool
}

func DefaultDeviceResourcesOptions() DeviceResourcesOptions {
	return DeviceResourcesOptions{
		BackBufferFormat:  FORMAT_B8G8R8A8_UNORM,
		DepthBufferFormat: FORMAT_D24_UNORM_S8_UINT,
		BackBufferCount:   2,
		VSync:             true,
	}
}

// DeviceResources owns the device, the immediate context, the swap chain and the
// size-dependent render target and depth buffer. It is passed explicitly to
// whoever renders; there is no global instance.
type DeviceResources struct {
	driver  Driver
	options DeviceResourcesOptions

	device    Device
	context   Context
	swapChain SwapChain

	renderTarget     Texture2D
	renderTargetView RenderTargetView
	depthStencil     Texture2D
	depthStencilView DepthStencilView

	window         Window
	outputWidth    uint32
	outputHeight   uint32
	screenViewport Viewport
	colorSpace     ColorSpace

	generation uuid.UUID
	notify     DeviceNotify
}

func NewDeviceResources(driver Driver, options DeviceResourcesOptions) *DeviceResources {
	if options.BackBufferCount == 0 {
		options.BackBufferCount = 2
	}
	return &DeviceResources{
		driver:       driver,
		options:      options,
		outputWidth:  1,
		outputHeight: 1,
	}
}

// SetWindow records the window and its initial client size. Call it before
// creating the size-dependent resources.
func (dr *DeviceResources) SetWindow(window Window, width, height int) {
	dr.window = window
	dr.outputWidth = clampSize(width)
	dr.outputHeight = clampSize(height)
}

func (dr *DeviceResources) RegisterDeviceNotify(notify DeviceNotify) {
	dr.notify = notify
}

// CreateDeviceResources creates the device and the immediate context.
func (dr *DeviceResources) CreateDeviceResources() error {
	device, context, err := dr.driver.CreateDevice(dr.options.DebugLayer)
	if err != nil {
		return fmt.Errorf("creating %s device: %w", dr.driver.Type(), err)
	}
	dr.device = device
	dr.context = context
	dr.generation = uuid.New()
	core.LogInfo("%s device created (generation %s)", dr.driver.Type(), dr.generation)
	return nil
}

// CreateWindowSizeDependentResources (re)creates the swap chain buffers, the render
// target view, the depth buffer and the screen viewport for the current output size.
func (dr *DeviceResources) CreateWindowSizeDependentResources() error {
	if dr.window == nil {
		return fmt.Errorf("window not set: %w", core.ErrNotInitialized)
	}
	if dr.device == nil {
		return fmt.Errorf("device not created: %w", core.ErrNotInitialized)
	}

	// Clear the previous size-specific context.
	dr.context.OMSetRenderTargets(nil, nil)
	dr.releaseSizeDependent()

	width, height := dr.outputWidth, dr.outputHeight

	if dr.swapChain != nil {
		err := dr.swapChain.ResizeBuffers(width, height)
		if errors.Is(err, core.ErrDeviceLost) {
			// HandleDeviceLost rebuilds everything, including this method's work.
			return dr.HandleDeviceLost()
		}
		if err != nil {
			return fmt.Errorf("resizing swap chain to %dx%d: %w", width, height, err)
		}
	} else {
		swapChain, err := dr.driver.CreateSwapChain(dr.device, dr.window, width, height, dr.options.BackBufferFormat, dr.options.BackBufferCount)
		if err != nil {
			return fmt.Errorf("creating swap chain: %w", err)
		}
		dr.swapChain = swapChain
	}

	dr.UpdateColorSpace()

	backBuffer, err := dr.swapChain.GetBuffer()
	if err != nil {
		return fmt.Errorf("getting back buffer: %w", err)
	}
	dr.renderTarget = backBuffer
	if dr.renderTargetView, err = dr.device.CreateRenderTargetView(backBuffer); err != nil {
		return fmt.Errorf("creating render target view: %w", err)
	}

	if dr.options.DepthBufferFormat != FORMAT_UNKNOWN {
		dr.depthStencil, err = dr.device.CreateTexture2D(Texture2DDesc{
			Width:       width,
			Height:      height,
			MipLevels:   1,
			ArraySize:   1,
			Format:      dr.options.DepthBufferFormat,
			SampleCount: 1,
			Usage:       USAGE_DEFAULT,
			BindFlags:   BIND_DEPTH_STENCIL,
		}, nil)
		if err != nil {
			return fmt.Errorf("creating depth buffer: %w", err)
		}
		if dr.depthStencilView, err = dr.device.CreateDepthStencilView(dr.depthStencil); err != nil {
			return fmt.Errorf("creating depth stencil view: %w", err)
		}
	}

	dr.screenViewport = Viewport{
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	core.LogDebug("window size dependent resources created for %dx%d", width, height)
	return nil
}

// WindowSizeChanged updates the output size. It returns false, and does no work
// beyond refreshing the color space, when the size is unchanged.
func (dr *DeviceResources) WindowSizeChanged(width, height int) (bool, error) {
	if dr.window == nil {
		return false, fmt.Errorf("window not set: %w", core.ErrNotInitialized)
	}
	w, h := clampSize(width), clampSize(height)
	if w == dr.outputWidth && h == dr.outputHeight {
		dr.UpdateColorSpace()
		return false, nil
	}
	dr.outputWidth = w
	dr.outputHeight = h
	if err := dr.CreateWindowSizeDependentResources(); err != nil {
		return true, err
	}
	return true, nil
}

// HandleDeviceLost tears down every device object, notifies the owner, recreates
// the device and size-dependent resources and then notifies again.
func (dr *DeviceResources) HandleDeviceLost() error {
	core.LogWarn("%s device lost (generation %s), recreating", dr.driver.Type(), dr.generation)
	if dr.notify != nil {
		dr.notify.OnDeviceLost()
	}

	dr.releaseSizeDependent()
	if dr.swapChain != nil {
		dr.swapChain.Release()
		dr.swapChain = nil
	}
	if dr.context != nil {
		dr.context.Release()
		dr.context = nil
	}
	if dr.device != nil {
		dr.device.Release()
		dr.device = nil
	}

	if err := dr.CreateDeviceResources(); err != nil {
		return err
	}
	if err := dr.CreateWindowSizeDependentResources(); err != nil {
		return err
	}

	if dr.notify != nil {
		if err := dr.notify.OnDeviceRestored(); err != nil {
			return fmt.Errorf("restoring device dependent resources: %w", err)
		}
	}
	return nil
}

// Present shows the back buffer. A lost device is recovered in place.
func (dr *DeviceResources) Present() error {
	if dr.swapChain == nil {
		return fmt.Errorf("swap chain not created: %w", core.ErrNotInitialized)
	}
	err := dr.swapChain.Present(dr.options.VSync)
	if errors.Is(err, core.ErrDeviceLost) {
		return dr.HandleDeviceLost()
	}
	if err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// UpdateColorSpace refreshes the color space of the output the window is on.
func (dr *DeviceResources) UpdateColorSpace() {
	if dr.swapChain == nil {
		return
	}
	cs := dr.swapChain.ColorSpace()
	if cs != dr.colorSpace {
		core.LogInfo("output color space changed to %s", cs)
	}
	dr.colorSpace = cs
}

// Release destroys every object in reverse creation order.
func (dr *DeviceResources) Release() {
	dr.releaseSizeDependent()
	if dr.swapChain != nil {
		dr.swapChain.Release()
		dr.swapChain = nil
	}
	if dr.context != nil {
		dr.context.Release()
		dr.context = nil
	}
	if dr.device != nil {
		dr.device.Release()
		dr.device = nil
	}
}

func (dr *DeviceResources) releaseSizeDependent() {
	if dr.depthStencilView != nil {
		dr.depthStencilView.Release()
		dr.depthStencilView = nil
	}
	if dr.depthStencil != nil {
		dr.depthStencil.Release()
		dr.depthStencil = nil
	}
	if dr.renderTargetView != nil {
		dr.renderTargetView.Release()
		dr.renderTargetView = nil
	}
	if dr.renderTarget != nil {
		dr.renderTarget.Release()
		dr.renderTarget = nil
	}
}

func (dr *DeviceResources) Device() Device                     { return dr.device }
func (dr *DeviceResources) Context() Context                   { return dr.context }
func (dr *DeviceResources) SwapChain() SwapChain               { return dr.swapChain }
func (dr *DeviceResources) RenderTargetView() RenderTargetView { return dr.renderTargetView }
func (dr *DeviceResources) DepthStencilView() DepthStencilView { return dr.depthStencilView }
func (dr *DeviceResources) BackBufferFormat() Format           { return dr.options.BackBufferFormat }
func (dr *DeviceResources) DepthBufferFormat() Format          { return dr.options.DepthBufferFormat }
func (dr *DeviceResources) ScreenViewport() Viewport           { return dr.screenViewport }
func (dr *DeviceResources) ColorSpace() ColorSpace             { return dr.colorSpace }
func (dr *DeviceResources) Generation() uuid.UUID              { return dr.generation }
func (dr *DeviceResources) ShaderExtension() string            { return dr.driver.ShaderExtension() }
func (dr *DeviceResources) RendererType() RendererType         { return dr.driver.Type() }

func (dr *DeviceResources) OutputSize() (width, height uint32) {
	return dr.outputWidth, dr.outputHeight
}

func clampSize(v int) uint32 {
	if v < 1 {
		return 1
	}
	return uint32(v)
}
