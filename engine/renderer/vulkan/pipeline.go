package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

/**
 * @brief Everything a graphics pipeline is built from. Nil state objects mean
 * the Direct3D 11 defaults.
 */
type pipelineKey struct {
	vs       *Shader
	ps       *Shader
	layout   *InputLayout
	raster   *RasterizerState
	depth    *DepthStencilState
	blend    *BlendState
	topology renderer.PrimitiveTopology
	/** @brief Vertex buffer strides, per slot. */
	strides [renderer.MAX_VERTEX_BUFFERS]uint32
	/** @brief The compatible render pass variant. */
	pass renderpassKey
}

func (k pipelineKey) references(object interface{}) bool {
	switch o := object.(type) {
	case *Shader:
		return k.vs == o || k.ps == o
	case *InputLayout:
		return k.layout == o
	case *RasterizerState:
		return k.raster == o
	case *DepthStencilState:
		return k.depth == o
	case *BlendState:
		return k.blend == o
	}
	return false
}

type pipelineCache struct {
	owner     *VulkanContext
	pipelines map[pipelineKey]vk.Pipeline
}

func newPipelineCache(owner *VulkanContext) *pipelineCache {
	return &pipelineCache{owner: owner, pipelines: make(map[pipelineKey]vk.Pipeline)}
}

func (pc *pipelineCache) get(context *VulkanContext, key pipelineKey) (vk.Pipeline, error) {
	if pipeline, ok := pc.pipelines[key]; ok {
		return pipeline, nil
	}
	pipeline, err := createGraphicsPipeline(context, key)
	if err != nil {
		return vk.NullPipeline, err
	}
	pc.pipelines[key] = pipeline
	core.LogDebug("graphics pipeline created (%d cached)", len(pc.pipelines))
	return pipeline, nil
}

// evict schedules destruction of every pipeline built from object.
func (pc *pipelineCache) evict(object interface{}) {
	if pc == nil {
		return
	}
	context := pc.owner
	for key, pipeline := range pc.pipelines {
		if !key.references(object) {
			continue
		}
		delete(pc.pipelines, key)
		handle := pipeline
		context.deferDestroy(func() { vk.DestroyPipeline(context.device(), handle, context.Allocator) })
	}
}

func (pc *pipelineCache) destroy(context *VulkanContext) {
	for key, pipeline := range pc.pipelines {
		vk.DestroyPipeline(context.device(), pipeline, context.Allocator)
		delete(pc.pipelines, key)
	}
}

func createGraphicsPipeline(context *VulkanContext, key pipelineKey) (vk.Pipeline, error) {
	if key.vs == nil || key.ps == nil {
		return vk.NullPipeline, fmt.Errorf("draw without a vertex and pixel shader bound")
	}
	if key.layout == nil {
		return vk.NullPipeline, fmt.Errorf("draw without an input layout bound")
	}

	rasterDesc := renderer.DefaultRasterizerDesc()
	if key.raster != nil {
		rasterDesc = key.raster.Desc
	}
	depthDesc := renderer.DefaultDepthStencilDesc()
	if key.depth != nil {
		depthDesc = key.depth.Desc
	}
	blendDesc := renderer.DefaultBlendDesc()
	if key.blend != nil {
		blendDesc = key.blend.Desc
	}

	// Vertex input
	var bindings []vk.VertexInputBindingDescription
	for _, slot := range key.layout.slots() {
		inputRate := vk.VertexInputRateVertex
		if key.layout.instanced(slot) {
			inputRate = vk.VertexInputRateInstance
		}
		bindings = append(bindings, vk.VertexInputBindingDescription{
			Binding:   slot,
			Stride:    key.strides[slot],
			InputRate: inputRate,
		})
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(bindings)),
		PVertexBindingDescriptions:      bindings,
		VertexAttributeDescriptionCount: uint32(len(key.layout.Attributes)),
		PVertexAttributeDescriptions:    key.layout.Attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vkTopology(key.topology),
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vkPolygonMode(rasterDesc.FillMode),
		CullMode:                vkCullMode(rasterDesc.CullMode),
		FrontFace:               vkFrontFace(rasterDesc.FrontCounterClockwise),
		DepthBiasEnable:         vk.False,
		DepthBiasConstantFactor: float32(rasterDesc.DepthBias),
		DepthBiasClamp:          rasterDesc.DepthBiasClamp,
		DepthBiasSlopeFactor:    rasterDesc.SlopeScaledDepthBias,
		LineWidth:               1.0,
	}
	if rasterDesc.DepthBias != 0 || rasterDesc.SlopeScaledDepthBias != 0 {
		rasterizerCreateInfo.DepthBiasEnable = vk.True
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples:  vk.SampleCount1Bit,
		SampleShadingEnable:   vk.False,
		MinSampleShading:      1.0,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}
	if blendDesc.AlphaToCoverageEnable {
		multisamplingCreateInfo.AlphaToCoverageEnable = vk.True
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.False,
		DepthWriteEnable:      vk.False,
		DepthCompareOp:        vkCompareOp(depthDesc.DepthFunc),
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
		Front:                 vkStencilOpState(depthDesc.FrontFace, depthDesc.StencilReadMask, depthDesc.StencilWriteMask),
		Back:                  vkStencilOpState(depthDesc.BackFace, depthDesc.StencilReadMask, depthDesc.StencilWriteMask),
		MaxDepthBounds:        1.0,
	}
	if key.pass.hasDepth() {
		if depthDesc.DepthEnable {
			depthStencil.DepthTestEnable = vk.True
			if depthDesc.DepthWriteMask == renderer.DEPTH_WRITE_MASK_ALL {
				depthStencil.DepthWriteEnable = vk.True
			}
		}
		if depthDesc.StencilEnable && hasStencil(key.pass.depth) {
			depthStencil.StencilTestEnable = vk.True
		}
	}

	// Blending. Render target 0 is the only color attachment.
	colorBlendAttachmentState := vkColorBlendAttachment(blendDesc.RenderTarget[0])
	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:         vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable: vk.False,
		LogicOp:       vk.LogicOpCopy,
	}
	if key.pass.hasColor() {
		colorBlendStateCreateInfo.AttachmentCount = 1
		colorBlendStateCreateInfo.PAttachments = []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState}
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
		vk.DynamicStateBlendConstants,
		vk.DynamicStateStencilReference,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	pass, err := context.renderpasses.get(context, key.pass)
	if err != nil {
		return vk.NullPipeline, err
	}

	stages := []vk.PipelineShaderStageCreateInfo{key.vs.stageInfo(), key.ps.stageInfo()}
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              context.layout.handle,
		RenderPass:          pass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(context.device(), vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{pipelineCreateInfo}, context.Allocator, pipelines); res != vk.Success {
		return vk.NullPipeline, resultError("vkCreateGraphicsPipelines", res)
	}
	return pipelines[0], nil
}
