package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// Texture is a 2D image with its memory. The swap chain back buffer is a
// Texture with backBuffer set: its image changes every frame and is owned by
// the swap chain.
type Texture struct {
	context *VulkanContext
	desc    renderer.Texture2DDesc

	Handle vk.Image
	Memory vk.DeviceMemory
	Format vk.Format

	backBuffer *SwapChain
}

func imageUsage(bind renderer.BindFlag) vk.ImageUsageFlags {
	var usage vk.ImageUsageFlags
	if bind&renderer.BIND_SHADER_RESOURCE != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit) | vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	if bind&renderer.BIND_RENDER_TARGET != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if bind&renderer.BIND_DEPTH_STENCIL != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	}
	return usage
}

func newTexture(context *VulkanContext, desc renderer.Texture2DDesc, initialData []byte) (*Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("texture size %dx%d is empty", desc.Width, desc.Height)
	}
	format, err := vkFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	if desc.BindFlags&renderer.BIND_DEPTH_STENCIL != 0 && !context.Device.supportsDepthFormat(format) {
		format = context.Device.DepthFormat
	}

	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: desc.Width, Height: desc.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         imageUsage(desc.BindFlags),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if res := vk.CreateImage(context.device(), &imageInfo, context.Allocator, &image); res != vk.Success {
		return nil, resultError("vkCreateImage", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.device(), image, &requirements)
	requirements.Deref()
	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, deviceLocal)
	if err != nil {
		vk.DestroyImage(context.device(), image, context.Allocator)
		return nil, err
	}
	var memory vk.DeviceMemory
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	if res := vk.AllocateMemory(context.device(), &allocateInfo, context.Allocator, &memory); res != vk.Success {
		vk.DestroyImage(context.device(), image, context.Allocator)
		return nil, resultError("vkAllocateMemory", res)
	}
	if res := vk.BindImageMemory(context.device(), image, memory, 0); res != vk.Success {
		vk.DestroyImage(context.device(), image, context.Allocator)
		vk.FreeMemory(context.device(), memory, context.Allocator)
		return nil, resultError("vkBindImageMemory", res)
	}

	t := &Texture{context: context, desc: desc, Handle: image, Memory: memory, Format: format}
	if desc.BindFlags&renderer.BIND_SHADER_RESOURCE != 0 {
		if err := t.upload(initialData); err != nil {
			t.destroy()
			return nil, err
		}
	}
	return t, nil
}

func (t *Texture) Desc() renderer.Texture2DDesc { return t.desc }

func (t *Texture) aspect() vk.ImageAspectFlags {
	if isDepthFormat(t.Format) {
		aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if hasStencil(t.Format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
		return aspect
	}
	return vk.ImageAspectFlags(vk.ImageAspectColorBit)
}

// upload copies data through a staging buffer and leaves the image in
// SHADER_READ_ONLY_OPTIMAL. Without data the image is only transitioned.
func (t *Texture) upload(data []byte) error {
	context := t.context
	var staging vk.Buffer
	var stagingMemory vk.DeviceMemory
	if len(data) > 0 {
		expected := int(t.desc.Width * t.desc.Height * t.desc.Format.BytesPerPixel())
		if len(data) < expected {
			return fmt.Errorf("texture data is %d bytes, %dx%d needs %d", len(data), t.desc.Width, t.desc.Height, expected)
		}
		var err error
		staging, stagingMemory, err = createBuffer(context, uint64(expected), vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostVisible)
		if err != nil {
			return err
		}
		defer destroyBuffer(context, staging, stagingMemory)
		if err := writeMemory(context, stagingMemory, data[:expected]); err != nil {
			return err
		}
	}

	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return err
	}
	subresource := vk.ImageSubresourceRange{AspectMask: t.aspect(), LevelCount: 1, LayerCount: 1}
	if staging != vk.NullBuffer {
		transitionImage(cb.Handle, t.Handle, subresource, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
		region := vk.BufferImageCopy{
			ImageSubresource: vk.ImageSubresourceLayers{AspectMask: t.aspect(), LayerCount: 1},
			ImageExtent:      vk.Extent3D{Width: t.desc.Width, Height: t.desc.Height, Depth: 1},
		}
		vk.CmdCopyBufferToImage(cb.Handle, staging, t.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
		transitionImage(cb.Handle, t.Handle, subresource, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	} else {
		transitionImage(cb.Handle, t.Handle, subresource, vk.ImageLayoutUndefined, vk.ImageLayoutShaderReadOnlyOptimal)
	}
	return cb.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue)
}

func transitionImage(cmd vk.CommandBuffer, image vk.Image, subresource vk.ImageSubresourceRange, oldLayout, newLayout vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    subresource,
	}
	var srcStage, dstStage vk.PipelineStageFlags
	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case oldLayout == vk.ImageLayoutTransferDstOptimal:
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	default:
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func (t *Texture) destroy() {
	if t.Handle != vk.NullImage {
		vk.DestroyImage(t.context.device(), t.Handle, t.context.Allocator)
	}
	if t.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(t.context.device(), t.Memory, t.context.Allocator)
	}
	t.Handle = vk.NullImage
	t.Memory = vk.NullDeviceMemory
}

func (t *Texture) Release() {
	if t.context == nil {
		return
	}
	context := t.context
	if t.backBuffer == nil {
		image, memory := t.Handle, t.Memory
		context.deferDestroy(func() {
			vk.DestroyImage(context.device(), image, context.Allocator)
			vk.FreeMemory(context.device(), memory, context.Allocator)
		})
	}
	t.Handle = vk.NullImage
	t.Memory = vk.NullDeviceMemory
	t.backBuffer = nil
	t.context = nil
}

type viewKind uint8

const (
	viewShaderResource viewKind = iota
	viewRenderTarget
	viewDepthStencil
)

// View is a render target, depth stencil or shader resource view. A view of the
// back buffer resolves to the swap chain image acquired for the current frame.
type View struct {
	context *VulkanContext
	kind    viewKind
	texture *Texture

	Handle vk.ImageView
	Width  uint32
	Height uint32
	Format vk.Format

	backBuffer *SwapChain
}

func newView(context *VulkanContext, texture renderer.Texture2D, kind viewKind) (*View, error) {
	t, ok := texture.(*Texture)
	if !ok || t.context == nil {
		return nil, fmt.Errorf("texture %T was not created by this device", texture)
	}
	v := &View{
		context: context,
		kind:    kind,
		texture: t,
		Width:   t.desc.Width,
		Height:  t.desc.Height,
		Format:  t.Format,
	}
	if t.backBuffer != nil {
		if kind != viewRenderTarget {
			return nil, fmt.Errorf("the back buffer only supports render target views")
		}
		v.backBuffer = t.backBuffer
		return v, nil
	}

	aspect := t.aspect()
	if kind == viewShaderResource && isDepthFormat(t.Format) {
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    t.Handle,
		ViewType: vk.ImageViewType2d,
		Format:   t.Format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	if res := vk.CreateImageView(context.device(), &viewInfo, context.Allocator, &v.Handle); res != vk.Success {
		return nil, resultError("vkCreateImageView", res)
	}
	return v, nil
}

// imageView returns the view to attach for the current frame.
func (v *View) imageView() vk.ImageView {
	if v.backBuffer != nil {
		return v.backBuffer.currentView()
	}
	return v.Handle
}

func (v *View) isBackBuffer() bool { return v.backBuffer != nil }

func (v *View) Release() {
	if v.context == nil {
		return
	}
	context, handle := v.context, v.Handle
	v.context = nil
	v.texture = nil
	v.backBuffer = nil
	v.Handle = vk.NullImageView
	if handle == vk.NullImageView {
		return
	}
	context.framebuffers.evict(context, handle)
	context.deferDestroy(func() { vk.DestroyImageView(context.device(), handle, context.Allocator) })
}
