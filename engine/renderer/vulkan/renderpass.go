package vulkan

import (
	vk "github.com/goki/vulkan"
)

// renderpassKey describes one render pass variant. Passes that differ only in
// load ops and layouts are compatible, so pipelines and framebuffers created
// against one variant work with every other variant of the same formats.
type renderpassKey struct {
	color     vk.Format
	depth     vk.Format
	colorLoad vk.AttachmentLoadOp
	depthLoad vk.AttachmentLoadOp
	// present is set when the color attachment is a swap chain image.
	present bool
}

// compatible returns the canonical variant pipelines are built against.
func (k renderpassKey) compatible() renderpassKey {
	return renderpassKey{
		color:     k.color,
		depth:     k.depth,
		colorLoad: vk.AttachmentLoadOpClear,
		depthLoad: vk.AttachmentLoadOpClear,
		present:   k.present,
	}
}

func (k renderpassKey) hasColor() bool { return k.color != vk.FormatUndefined }
func (k renderpassKey) hasDepth() bool { return k.depth != vk.FormatUndefined }

// layouts returns the initial and final layout of the color attachment. A
// cleared attachment discards its previous contents.
func (k renderpassKey) colorLayouts() (vk.ImageLayout, vk.ImageLayout) {
	final := vk.ImageLayoutShaderReadOnlyOptimal
	if k.present {
		final = vk.ImageLayoutPresentSrc
	}
	if k.colorLoad == vk.AttachmentLoadOpLoad {
		return final, final
	}
	return vk.ImageLayoutUndefined, final
}

func (k renderpassKey) depthLayouts() (vk.ImageLayout, vk.ImageLayout) {
	final := vk.ImageLayoutDepthStencilAttachmentOptimal
	if k.depthLoad == vk.AttachmentLoadOpLoad {
		return final, final
	}
	return vk.ImageLayoutUndefined, final
}

type renderpassCache struct {
	passes map[renderpassKey]vk.RenderPass
}

func newRenderpassCache() *renderpassCache {
	return &renderpassCache{passes: make(map[renderpassKey]vk.RenderPass)}
}

func (rc *renderpassCache) get(context *VulkanContext, key renderpassKey) (vk.RenderPass, error) {
	if pass, ok := rc.passes[key]; ok {
		return pass, nil
	}
	pass, err := createRenderpass(context, key)
	if err != nil {
		return vk.NullRenderPass, err
	}
	rc.passes[key] = pass
	return pass, nil
}

func (rc *renderpassCache) destroy(context *VulkanContext) {
	for key, pass := range rc.passes {
		vk.DestroyRenderPass(context.device(), pass, context.Allocator)
		delete(rc.passes, key)
	}
}

func createRenderpass(context *VulkanContext, key renderpassKey) (vk.RenderPass, error) {
	var attachments []vk.AttachmentDescription
	subpass := vk.SubpassDescription{
		PipelineBindPoint: vk.PipelineBindPointGraphics,
	}

	if key.hasColor() {
		initial, final := key.colorLayouts()
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         key.color,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         key.colorLoad,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  initial,
			FinalLayout:    final,
		})
		subpass.ColorAttachmentCount = 1
		subpass.PColorAttachments = []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}}
	}

	if key.hasDepth() {
		initial, final := key.depthLayouts()
		stencilLoad := vk.AttachmentLoadOpDontCare
		stencilStore := vk.AttachmentStoreOpDontCare
		if hasStencil(key.depth) {
			stencilLoad = key.depthLoad
			stencilStore = vk.AttachmentStoreOpStore
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         key.depth,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         key.depthLoad,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  stencilLoad,
			StencilStoreOp: stencilStore,
			InitialLayout:  initial,
			FinalLayout:    final,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	// Order this pass after earlier passes and the presentation engine.
	dependency := vk.SubpassDependency{
		SrcSubpass: vk.SubpassExternal,
		DstSubpass: 0,
		SrcStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
			vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
		SrcAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		DstStageMask: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) |
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) |
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) |
			vk.AccessFlags(vk.AccessColorAttachmentWriteBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) |
			vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit) |
			vk.AccessFlags(vk.AccessShaderReadBit),
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}
	var pass vk.RenderPass
	if res := vk.CreateRenderPass(context.device(), &createInfo, context.Allocator, &pass); res != vk.Success {
		return vk.NullRenderPass, resultError("vkCreateRenderPass", res)
	}
	return pass, nil
}

// clearValues returns the clear values in attachment order.
func clearValues(key renderpassKey, color [4]float32, depth float32, stencil uint32) []vk.ClearValue {
	var values []vk.ClearValue
	if key.hasColor() {
		var v vk.ClearValue
		v.SetColor(color[:])
		values = append(values, v)
	}
	if key.hasDepth() {
		var v vk.ClearValue
		v.SetDepthStencil(depth, stencil)
		values = append(values, v)
	}
	return values
}
