package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Bindings of the single descriptor set every shader uses. HLSL sources are
// compiled with -fcbuffer-binding-base 0, -ftexture-binding-base 1 and
// -fsampler-binding-base 2 so register b0, t0 and s0 land here.
const (
	BINDING_CONSTANT_BUFFER uint32 = 0
	BINDING_TEXTURE         uint32 = 1
	BINDING_SAMPLER         uint32 = 2

	// MAX_DESCRIPTOR_SETS bounds the draws per frame.
	MAX_DESCRIPTOR_SETS uint32 = 4096
)

/**
 * @brief The descriptor set layout and pipeline layout shared by every
 * pipeline the device creates.
 */
type pipelineLayout struct {
	/** @brief Layout of set 0. */
	setLayout vk.DescriptorSetLayout
	/** @brief The pipeline layout handle. */
	handle vk.PipelineLayout
}

func newPipelineLayout(context *VulkanContext) (*pipelineLayout, error) {
	stages := vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BINDING_CONSTANT_BUFFER,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stages,
		},
		{
			Binding:         BINDING_TEXTURE,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
		{
			Binding:         BINDING_SAMPLER,
			DescriptorType:  vk.DescriptorTypeSampler,
			DescriptorCount: 1,
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	out := &pipelineLayout{}
	if res := vk.CreateDescriptorSetLayout(context.device(), &layoutInfo, context.Allocator, &out.setLayout); res != vk.Success {
		return nil, resultError("vkCreateDescriptorSetLayout", res)
	}

	pipelineLayoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{out.setLayout},
	}
	if res := vk.CreatePipelineLayout(context.device(), &pipelineLayoutInfo, context.Allocator, &out.handle); res != vk.Success {
		vk.DestroyDescriptorSetLayout(context.device(), out.setLayout, context.Allocator)
		return nil, resultError("vkCreatePipelineLayout", res)
	}
	return out, nil
}

func (pl *pipelineLayout) destroy(context *VulkanContext) {
	if pl.handle != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(context.device(), pl.handle, context.Allocator)
		pl.handle = vk.NullPipelineLayout
	}
	if pl.setLayout != nil {
		vk.DestroyDescriptorSetLayout(context.device(), pl.setLayout, context.Allocator)
		pl.setLayout = nil
	}
}

// newDescriptorPool creates a pool holding one frame's worth of sets. It is
// reset wholesale when the frame slot is reused.
func newDescriptorPool(context *VulkanContext) (vk.DescriptorPool, error) {
	sizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: MAX_DESCRIPTOR_SETS},
		{Type: vk.DescriptorTypeSampledImage, DescriptorCount: MAX_DESCRIPTOR_SETS},
		{Type: vk.DescriptorTypeSampler, DescriptorCount: MAX_DESCRIPTOR_SETS},
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       MAX_DESCRIPTOR_SETS,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.device(), &poolInfo, context.Allocator, &pool); res != vk.Success {
		return nil, resultError("vkCreateDescriptorPool", res)
	}
	return pool, nil
}

// descriptorBindings is what a draw reads from set 0. Unset entries fall back
// to the device's placeholder objects.
type descriptorBindings struct {
	buffer vk.Buffer
	offset uint64
	size   uint64
	view   vk.ImageView
	sample vk.Sampler
}

// allocateDescriptorSet allocates a set from the current frame's pool and
// writes all three bindings.
func (vc *VulkanContext) allocateDescriptorSet(b descriptorBindings) (vk.DescriptorSet, error) {
	f := vc.frame()
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     f.descriptors,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{vc.layout.setLayout},
	}
	var set vk.DescriptorSet
	if res := vk.AllocateDescriptorSets(vc.device(), &allocateInfo, &set); res != vk.Success {
		return nil, resultError("vkAllocateDescriptorSets", res)
	}

	placeholder := vc.placeholders
	if b.buffer == vk.NullBuffer {
		b.buffer, b.offset, b.size = placeholder.buffer, 0, placeholder.bufferSize
	}
	if b.view == vk.NullImageView {
		b.view = placeholder.view
	}
	if b.sample == nil {
		b.sample = placeholder.sampler
	}
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_CONSTANT_BUFFER,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: b.buffer,
				Offset: vk.DeviceSize(b.offset),
				Range:  vk.DeviceSize(b.size),
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_TEXTURE,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeSampledImage,
			PImageInfo: []vk.DescriptorImageInfo{{
				ImageView:   b.view,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_SAMPLER,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeSampler,
			PImageInfo: []vk.DescriptorImageInfo{{
				Sampler: b.sample,
			}},
		},
	}
	vk.UpdateDescriptorSets(vc.device(), uint32(len(writes)), writes, 0, nil)
	return set, nil
}
