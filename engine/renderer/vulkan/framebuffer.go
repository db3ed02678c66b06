package vulkan

import (
	vk "github.com/goki/vulkan"
)

type framebufferKey struct {
	color  vk.ImageView
	depth  vk.ImageView
	width  uint32
	height uint32
}

// framebufferCache keeps one framebuffer per attachment combination. Entries
// are dropped as soon as one of their views is released.
type framebufferCache struct {
	framebuffers map[framebufferKey]vk.Framebuffer
}

func newFramebufferCache() *framebufferCache {
	return &framebufferCache{framebuffers: make(map[framebufferKey]vk.Framebuffer)}
}

func (fc *framebufferCache) get(context *VulkanContext, key framebufferKey, pass vk.RenderPass) (vk.Framebuffer, error) {
	if fb, ok := fc.framebuffers[key]; ok {
		return fb, nil
	}
	var attachments []vk.ImageView
	if key.color != vk.NullImageView {
		attachments = append(attachments, key.color)
	}
	if key.depth != vk.NullImageView {
		attachments = append(attachments, key.depth)
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           key.width,
		Height:          key.height,
		Layers:          1,
	}
	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(context.device(), &createInfo, context.Allocator, &fb); res != vk.Success {
		return vk.NullFramebuffer, resultError("vkCreateFramebuffer", res)
	}
	fc.framebuffers[key] = fb
	return fb, nil
}

// evict schedules destruction of every framebuffer that references view.
func (fc *framebufferCache) evict(context *VulkanContext, view vk.ImageView) {
	for key, fb := range fc.framebuffers {
		if key.color != view && key.depth != view {
			continue
		}
		delete(fc.framebuffers, key)
		handle := fb
		context.deferDestroy(func() { vk.DestroyFramebuffer(context.device(), handle, context.Allocator) })
	}
}

func (fc *framebufferCache) destroy(context *VulkanContext) {
	for key, fb := range fc.framebuffers {
		vk.DestroyFramebuffer(context.device(), fb, context.Allocator)
		delete(fc.framebuffers, key)
	}
}
