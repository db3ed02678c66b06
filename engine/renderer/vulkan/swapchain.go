package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// SwapChain implements renderer.SwapChain. Its back buffer is a proxy texture
// whose render target view follows the image acquired for the current frame.
type SwapChain struct {
	context *VulkanContext

	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Images      []vk.Image
	Views       []vk.ImageView

	desc        renderer.Texture2DDesc
	bufferCount uint32
	vsync       bool
	// outdated is set when the surface no longer matches; the swap chain is
	// recreated before the next acquire.
	outdated bool
}

func newSwapChain(context *VulkanContext, width, height uint32, format renderer.Format, bufferCount uint32) (*SwapChain, error) {
	sc := &SwapChain{
		context:     context,
		bufferCount: bufferCount,
		vsync:       true,
		desc: renderer.Texture2DDesc{
			Width:       width,
			Height:      height,
			MipLevels:   1,
			ArraySize:   1,
			Format:      format,
			SampleCount: 1,
			BindFlags:   renderer.BIND_RENDER_TARGET,
		},
	}
	if err := sc.create(width, height); err != nil {
		return nil, err
	}
	context.swapchain = sc
	return sc, nil
}

func (sc *SwapChain) chooseSurfaceFormat(support VulkanSwapchainSupportInfo) vk.SurfaceFormat {
	wanted, err := vkFormat(sc.desc.Format)
	if err == nil {
		for _, f := range support.Formats {
			if f.Format == wanted && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return f
			}
		}
	}
	for _, f := range support.Formats {
		if f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return support.Formats[0]
}

func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	// FIFO is the only mode every implementation supports.
	if vsync {
		return vk.PresentModeFifo
	}
	for _, preferred := range []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeImmediate} {
		for _, mode := range modes {
			if mode == preferred {
				return mode
			}
		}
	}
	return vk.PresentModeFifo
}

func clampExtent(width, height uint32, capabilities vk.SurfaceCapabilities) vk.Extent2D {
	extent := vk.Extent2D{Width: width, Height: height}
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		extent = capabilities.CurrentExtent
	}
	min, max := capabilities.MinImageExtent, capabilities.MaxImageExtent
	extent.Width = clampUint32(extent.Width, min.Width, max.Width)
	extent.Height = clampUint32(extent.Height, min.Height, max.Height)
	if extent.Width == 0 {
		extent.Width = 1
	}
	if extent.Height == 0 {
		extent.Height = 1
	}
	return extent
}

func clampUint32(v, lo, hi uint32) uint32 {
	if hi != 0 && v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// create builds the swap chain and its views, retiring the previous swap chain
// if there is one.
func (sc *SwapChain) create(width, height uint32) error {
	context := sc.context
	device := context.Device

	support, err := DeviceQuerySwapchainSupport(device.PhysicalDevice, context.Surface)
	if err != nil {
		return err
	}
	if len(support.Formats) == 0 {
		return fmt.Errorf("surface reports no formats")
	}
	device.SwapchainSupport = support
	capabilities := support.Capabilities

	sc.ImageFormat = sc.chooseSurfaceFormat(support)
	sc.Extent = clampExtent(width, height, capabilities)

	imageCount := sc.bufferCount
	if imageCount < capabilities.MinImageCount {
		imageCount = capabilities.MinImageCount
	}
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if capabilities.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	oldSwapchain := sc.Handle
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      sc.ImageFormat.Format,
		ImageColorSpace:  sc.ImageFormat.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      choosePresentMode(support.PresentModes, sc.vsync),
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}
	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(device.GraphicsQueueIndex),
			uint32(device.PresentQueueIndex),
		}
	}

	var handle vk.Swapchain
	res := vk.CreateSwapchain(context.device(), &swapchainCreateInfo, context.Allocator, &handle)
	sc.destroyViews()
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(context.device(), oldSwapchain, context.Allocator)
		sc.Handle = vk.NullSwapchain
	}
	if res != vk.Success {
		return resultError("vkCreateSwapchainKHR", res)
	}
	sc.Handle = handle

	var count uint32
	if res := vk.GetSwapchainImages(context.device(), sc.Handle, &count, nil); res != vk.Success {
		return resultError("vkGetSwapchainImagesKHR", res)
	}
	sc.Images = make([]vk.Image, count)
	if res := vk.GetSwapchainImages(context.device(), sc.Handle, &count, sc.Images); res != vk.Success {
		return resultError("vkGetSwapchainImagesKHR", res)
	}

	// Only views are created here; the images belong to the swap chain.
	sc.Views = make([]vk.ImageView, count)
	for i, image := range sc.Images {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   sc.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				LevelCount: 1,
				LayerCount: 1,
			},
		}
		if res := vk.CreateImageView(context.device(), &viewInfo, context.Allocator, &sc.Views[i]); res != vk.Success {
			return resultError("vkCreateImageView", res)
		}
	}

	sc.desc.Width = sc.Extent.Width
	sc.desc.Height = sc.Extent.Height
	sc.outdated = false
	core.LogDebug("swapchain created: %dx%d, %d images, %s", sc.Extent.Width, sc.Extent.Height, count, colorSpaceOf(sc.ImageFormat.ColorSpace))
	return nil
}

// destroyViews requires an idle device.
func (sc *SwapChain) destroyViews() {
	context := sc.context
	for _, view := range sc.Views {
		if view != vk.NullImageView {
			context.framebuffers.evict(context, view)
		}
	}
	context.collectGarbage(context.frameSerial)
	for _, view := range sc.Views {
		if view != vk.NullImageView {
			vk.DestroyImageView(context.device(), view, context.Allocator)
		}
	}
	sc.Views = nil
	sc.Images = nil
}

// recreate rebuilds the swap chain at the current extent. The device must be idle.
func (sc *SwapChain) recreate(width, height uint32) error {
	sc.context.waitIdle()
	return sc.create(width, height)
}

// acquire gets the next image for frame f. An out of date swap chain is rebuilt
// once before giving up.
func (sc *SwapChain) acquire(f *frame) error {
	f.acquired = false
	if sc.outdated {
		if err := sc.recreate(sc.desc.Width, sc.desc.Height); err != nil {
			return err
		}
	}
	for attempt := 0; attempt < 2; attempt++ {
		var index uint32
		res := vk.AcquireNextImage(sc.context.device(), sc.Handle, vk.MaxUint64, f.imageAvailable, vk.NullFence, &index)
		switch res {
		case vk.Success, vk.Suboptimal:
			if res == vk.Suboptimal {
				sc.outdated = true
			}
			f.imageIndex = index
			f.acquired = true
			return nil
		case vk.ErrorOutOfDate:
			if err := sc.recreate(sc.desc.Width, sc.desc.Height); err != nil {
				return err
			}
		default:
			return resultError("vkAcquireNextImageKHR", res)
		}
	}
	return fmt.Errorf("vkAcquireNextImageKHR: swapchain stayed out of date")
}

// currentView is the image view acquired for the frame being recorded.
func (sc *SwapChain) currentView() vk.ImageView {
	f := sc.context.frame()
	if !sc.context.frameActive || !f.acquired || int(f.imageIndex) >= len(sc.Views) {
		return vk.NullImageView
	}
	return sc.Views[f.imageIndex]
}

func (sc *SwapChain) GetBuffer() (renderer.Texture2D, error) {
	if sc.Handle == vk.NullSwapchain {
		return nil, fmt.Errorf("swap chain released: %w", core.ErrNotInitialized)
	}
	return &Texture{
		context:    sc.context,
		desc:       sc.desc,
		Format:     sc.ImageFormat.Format,
		backBuffer: sc,
	}, nil
}

func (sc *SwapChain) ResizeBuffers(width, height uint32) error {
	if sc.context.frameActive {
		return fmt.Errorf("resize while a frame is being recorded")
	}
	sc.desc.Width, sc.desc.Height = width, height
	return sc.recreate(width, height)
}

// Present submits the frame and queues the acquired image for display. A frame
// with no draws still presents, cleared to black.
func (sc *SwapChain) Present(vsync bool) error {
	context := sc.context
	if vsync != sc.vsync {
		sc.vsync = vsync
		sc.outdated = true
	}

	if context.immediate == nil {
		return fmt.Errorf("immediate context released: %w", core.ErrNotInitialized)
	}
	recordErr := context.immediate.finishFrame()
	if deferred := context.immediate.takeError(); deferred != nil && recordErr == nil {
		recordErr = deferred
	}
	if recordErr != nil && !context.frameActive {
		context.advanceFrame()
		return recordErr
	}
	if err := context.submitFrame(); err != nil {
		context.advanceFrame()
		return err
	}

	f := context.frame()
	defer context.advanceFrame()
	if !f.acquired {
		return recordErr
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{f.renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{f.imageIndex},
	}
	res := vk.QueuePresent(context.Device.PresentQueue, &presentInfo)
	f.acquired = false
	switch res {
	case vk.Success:
	case vk.Suboptimal, vk.ErrorOutOfDate:
		sc.outdated = true
	default:
		return resultError("vkQueuePresentKHR", res)
	}
	return recordErr
}

func (sc *SwapChain) ColorSpace() renderer.ColorSpace {
	return colorSpaceOf(sc.ImageFormat.ColorSpace)
}

func (sc *SwapChain) Release() {
	context := sc.context
	if context == nil || sc.Handle == vk.NullSwapchain {
		return
	}
	context.waitIdle()
	sc.destroyViews()
	vk.DestroySwapchain(context.device(), sc.Handle, context.Allocator)
	sc.Handle = vk.NullSwapchain
	if context.swapchain == sc {
		context.swapchain = nil
	}
}
