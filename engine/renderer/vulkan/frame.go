package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// frame is one slot of the frames-in-flight ring.
type frame struct {
	commandBuffer  *VulkanCommandBuffer
	fence          *VulkanFence
	imageAvailable vk.Semaphore
	renderComplete vk.Semaphore
	upload         *uploadRing
	descriptors    vk.DescriptorPool

	// serial is the frameSerial of the last frame recorded in this slot.
	serial     uint64
	imageIndex uint32
	acquired   bool
}

func newSemaphore(context *VulkanContext) (vk.Semaphore, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var semaphore vk.Semaphore
	if res := vk.CreateSemaphore(context.device(), &info, context.Allocator, &semaphore); res != vk.Success {
		return vk.NullSemaphore, resultError("vkCreateSemaphore", res)
	}
	return semaphore, nil
}

func newFrame(context *VulkanContext) (f *frame, err error) {
	f = &frame{}
	defer func() {
		if err != nil {
			f.destroy(context)
		}
	}()
	if f.commandBuffer, err = NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool); err != nil {
		return nil, err
	}
	if f.fence, err = NewFence(context, true); err != nil {
		return nil, err
	}
	if f.imageAvailable, err = newSemaphore(context); err != nil {
		return nil, err
	}
	if f.renderComplete, err = newSemaphore(context); err != nil {
		return nil, err
	}
	if f.upload, err = newUploadRing(context, UPLOAD_RING_SIZE); err != nil {
		return nil, err
	}
	if f.descriptors, err = newDescriptorPool(context); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *frame) destroy(context *VulkanContext) {
	if f.descriptors != nil {
		vk.DestroyDescriptorPool(context.device(), f.descriptors, context.Allocator)
		f.descriptors = nil
	}
	if f.upload != nil {
		f.upload.destroy(context)
		f.upload = nil
	}
	if f.renderComplete != vk.NullSemaphore {
		vk.DestroySemaphore(context.device(), f.renderComplete, context.Allocator)
		f.renderComplete = vk.NullSemaphore
	}
	if f.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(context.device(), f.imageAvailable, context.Allocator)
		f.imageAvailable = vk.NullSemaphore
	}
	if f.fence != nil {
		f.fence.Destroy(context)
		f.fence = nil
	}
	if f.commandBuffer != nil {
		f.commandBuffer.Free(context, context.Device.GraphicsCommandPool)
		f.commandBuffer = nil
	}
}

// placeholders fill descriptor bindings a draw leaves unset, so every set is
// fully written.
type placeholders struct {
	buffer     vk.Buffer
	memory     vk.DeviceMemory
	bufferSize uint64
	texture    *Texture
	view       vk.ImageView
	sampler    vk.Sampler
}

func newPlaceholders(context *VulkanContext) (p *placeholders, err error) {
	p = &placeholders{bufferSize: UPLOAD_ALIGNMENT}
	defer func() {
		if err != nil {
			p.destroy(context)
		}
	}()
	p.buffer, p.memory, err = createBuffer(context, p.bufferSize, vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostVisible)
	if err != nil {
		return nil, err
	}
	if err = writeMemory(context, p.memory, make([]byte, p.bufferSize)); err != nil {
		return nil, err
	}
	p.texture, err = newTexture(context, renderer.Texture2DDesc{
		Width:       1,
		Height:      1,
		MipLevels:   1,
		ArraySize:   1,
		Format:      renderer.FORMAT_R8G8B8A8_UNORM,
		SampleCount: 1,
		BindFlags:   renderer.BIND_SHADER_RESOURCE,
	}, []byte{0xff, 0xff, 0xff, 0xff})
	if err != nil {
		return nil, err
	}
	view, err := newView(context, p.texture, viewShaderResource)
	if err != nil {
		return nil, err
	}
	p.view = view.Handle
	sampler, err := newSampler(context, renderer.DefaultSamplerDesc())
	if err != nil {
		return nil, err
	}
	p.sampler = sampler.Handle
	return p, nil
}

func (p *placeholders) destroy(context *VulkanContext) {
	if p.sampler != nil {
		vk.DestroySampler(context.device(), p.sampler, context.Allocator)
		p.sampler = nil
	}
	if p.view != vk.NullImageView {
		vk.DestroyImageView(context.device(), p.view, context.Allocator)
		p.view = vk.NullImageView
	}
	if p.texture != nil {
		p.texture.destroy()
		p.texture = nil
	}
	destroyBuffer(context, p.buffer, p.memory)
	p.buffer = vk.NullBuffer
	p.memory = vk.NullDeviceMemory
}
