package vulkan

import (
	"encoding/binary"
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

const spirvMagic uint32 = 0x07230203

/**
 * @brief A compiled SPIR-V module for one pipeline stage. The entry point is
 * always "main".
 */
type Shader struct {
	context *VulkanContext
	/** @brief The stage the module was created for. */
	Stage vk.ShaderStageFlagBits
	/** @brief The internal shader module handle. */
	Handle vk.ShaderModule
}

// spirvWords converts little-endian SPIR-V bytes into words.
func spirvWords(bytecode []byte) ([]uint32, error) {
	if len(bytecode) < 20 || len(bytecode)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V bytecode must be a non-empty multiple of 4 bytes, got %d", len(bytecode))
	}
	words := make([]uint32, len(bytecode)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(bytecode[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic %#08x", words[0])
	}
	return words, nil
}

func shaderModuleCreateInfo(bytecode []byte) (vk.ShaderModuleCreateInfo, error) {
	words, err := spirvWords(bytecode)
	if err != nil {
		return vk.ShaderModuleCreateInfo{}, err
	}
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(bytecode)),
		PCode:    words,
	}, nil
}

func newShader(context *VulkanContext, bytecode []byte, stage vk.ShaderStageFlagBits) (*Shader, error) {
	createInfo, err := shaderModuleCreateInfo(bytecode)
	if err != nil {
		return nil, err
	}
	var handle vk.ShaderModule
	if res := vk.CreateShaderModule(context.device(), &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError("vkCreateShaderModule", res)
	}
	return &Shader{context: context, Stage: stage, Handle: handle}, nil
}

func (s *Shader) stageInfo() vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Handle,
		PName:  VulkanSafeString("main"),
	}
}

func (s *Shader) Release() {
	if s.context == nil {
		return
	}
	context, handle := s.context, s.Handle
	s.context = nil
	s.Handle = vk.NullShaderModule
	context.pipelines.evict(s)
	context.deferDestroy(func() { vk.DestroyShaderModule(context.device(), handle, context.Allocator) })
}

// InputLayout holds resolved vertex attributes. Vulkan has no layout object: the
// attributes are baked into every pipeline that uses the layout.
type InputLayout struct {
	context    *VulkanContext
	Elements   []renderer.InputElementDesc
	Attributes []vk.VertexInputAttributeDescription
}

func newInputLayout(context *VulkanContext, elements []renderer.InputElementDesc, vertexShaderBytecode []byte) (*InputLayout, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("input layout has no elements")
	}
	if _, err := spirvWords(vertexShaderBytecode); err != nil {
		return nil, fmt.Errorf("input layout vertex shader: %w", err)
	}
	attributes, err := vertexAttributes(elements)
	if err != nil {
		return nil, err
	}
	return &InputLayout{
		context:    context,
		Elements:   append([]renderer.InputElementDesc(nil), elements...),
		Attributes: attributes,
	}, nil
}

// instanced reports whether a slot advances per instance.
func (l *InputLayout) instanced(slot uint32) bool {
	for _, e := range l.Elements {
		if e.InputSlot == slot {
			return e.InputSlotClass == renderer.INPUT_PER_INSTANCE_DATA
		}
	}
	return false
}

// slots returns the vertex buffer slots the layout reads from, in ascending order.
func (l *InputLayout) slots() []uint32 {
	var used [renderer.MAX_VERTEX_BUFFERS]bool
	for _, e := range l.Elements {
		used[e.InputSlot] = true
	}
	var out []uint32
	for slot, ok := range used {
		if ok {
			out = append(out, uint32(slot))
		}
	}
	return out
}

func (l *InputLayout) Release() {
	if l.context == nil {
		return
	}
	l.context.pipelines.evict(l)
	l.context = nil
}

// The fixed-function state objects only carry their description. Pipelines are
// built from the descriptions when a draw first uses a combination.

type RasterizerState struct {
	context *VulkanContext
	Desc    renderer.RasterizerDesc
}

func (s *RasterizerState) Release() {
	if s.context != nil {
		s.context.pipelines.evict(s)
		s.context = nil
	}
}

type DepthStencilState struct {
	context *VulkanContext
	Desc    renderer.DepthStencilDesc
}

func (s *DepthStencilState) Release() {
	if s.context != nil {
		s.context.pipelines.evict(s)
		s.context = nil
	}
}

type BlendState struct {
	context *VulkanContext
	Desc    renderer.BlendDesc
}

func (s *BlendState) Release() {
	if s.context != nil {
		s.context.pipelines.evict(s)
		s.context = nil
	}
}

type Sampler struct {
	context *VulkanContext
	Desc    renderer.SamplerDesc
	Handle  vk.Sampler
}

func newSampler(context *VulkanContext, desc renderer.SamplerDesc) (*Sampler, error) {
	filter, mipmap := vkFilter(desc.Filter)
	createInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter,
		MinFilter:               filter,
		MipmapMode:              mipmap,
		AddressModeU:            vkAddressMode(desc.AddressU),
		AddressModeV:            vkAddressMode(desc.AddressV),
		AddressModeW:            vkAddressMode(desc.AddressW),
		MipLodBias:              desc.MipLODBias,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  1000,
		BorderColor:             vk.BorderColorFloatOpaqueWhite,
		UnnormalizedCoordinates: vk.False,
	}
	if desc.MaxAnisotropy > 1 && context.Device.Features.SamplerAnisotropy == vk.True {
		createInfo.AnisotropyEnable = vk.True
		createInfo.MaxAnisotropy = float32(desc.MaxAnisotropy)
	}
	var handle vk.Sampler
	if res := vk.CreateSampler(context.device(), &createInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError("vkCreateSampler", res)
	}
	return &Sampler{context: context, Desc: desc, Handle: handle}, nil
}

func (s *Sampler) Release() {
	if s.context == nil {
		return
	}
	context, handle := s.context, s.Handle
	s.context = nil
	s.Handle = nil
	context.deferDestroy(func() { vk.DestroySampler(context.device(), handle, context.Allocator) })
}
