package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

type depthClear struct {
	depth   float32
	stencil uint32
}

// passTarget is the attachment set of one render pass instance.
type passTarget struct {
	color       vk.ImageView
	colorFormat vk.Format
	present     bool
	depth       vk.ImageView
	depthFormat vk.Format
	width       uint32
	height      uint32
}

// ImmediateContext implements renderer.Context. State set on it persists across
// draws and frames, as in Direct3D 11. Commands go into the command buffer of
// the current frame; the frame starts on the first map or draw and ends in
// SwapChain.Present.
type ImmediateContext struct {
	context *VulkanContext

	vs          *Shader
	ps          *Shader
	layout      *InputLayout
	raster      *RasterizerState
	depthState  *DepthStencilState
	blend       *BlendState
	blendFactor [4]float32
	stencilRef  uint32
	topology    renderer.PrimitiveTopology

	vertexBuffers [renderer.MAX_VERTEX_BUFFERS]*Buffer
	strides       [renderer.MAX_VERTEX_BUFFERS]uint32
	offsets       [renderer.MAX_VERTEX_BUFFERS]uint32
	indexBuffer   *Buffer
	indexFormat   renderer.Format
	indexOffset   uint32

	vsConstants     [renderer.MAX_CONSTANT_BUFFERS]*Buffer
	psConstants     [renderer.MAX_CONSTANT_BUFFERS]*Buffer
	shaderResources [renderer.MAX_SHADER_RESOURCES]*View
	samplers        [renderer.MAX_SAMPLERS]*Sampler

	viewport    renderer.Viewport
	hasViewport bool
	rtv         *View
	dsv         *View

	colorClears map[*View][4]float32
	depthClears map[*View]depthClear

	inPass      bool
	pass        passTarget
	passKey     renderpassKey
	presentUsed bool

	// err holds the first recording failure of the frame. Context methods
	// cannot return errors, so Present reports it.
	err error
}

func newImmediateContext(context *VulkanContext) *ImmediateContext {
	ic := &ImmediateContext{
		context:     context,
		blendFactor: [4]float32{1, 1, 1, 1},
		topology:    renderer.PRIMITIVE_TOPOLOGY_TRIANGLELIST,
		colorClears: make(map[*View][4]float32),
		depthClears: make(map[*View]depthClear),
	}
	context.immediate = ic
	return ic
}

func (ic *ImmediateContext) fail(err error) {
	if err == nil {
		return
	}
	if ic.err == nil {
		core.LogError("vulkan: %s", err)
		ic.err = err
	}
}

func (ic *ImmediateContext) takeError() error {
	err := ic.err
	ic.err = nil
	return err
}

func (ic *ImmediateContext) cmd() vk.CommandBuffer {
	return ic.context.frame().commandBuffer.Handle
}

func asView(v interface{}) *View {
	if view, ok := v.(*View); ok {
		return view
	}
	return nil
}

func asBuffer(b renderer.Buffer) *Buffer {
	if buffer, ok := b.(*Buffer); ok {
		return buffer
	}
	return nil
}

func (ic *ImmediateContext) ClearRenderTargetView(view renderer.RenderTargetView, color [4]float32) {
	v := asView(view)
	if v == nil || v.context == nil {
		return
	}
	if ic.inPass && ic.pass.color != vk.NullImageView && ic.pass.color == v.imageView() {
		var value vk.ClearValue
		value.SetColor(color[:])
		ic.clearAttachment(vk.ImageAspectFlags(vk.ImageAspectColorBit), value)
		return
	}
	ic.colorClears[v] = color
}

func (ic *ImmediateContext) ClearDepthStencilView(view renderer.DepthStencilView, flags renderer.ClearFlag, depth float32, stencil uint8) {
	v := asView(view)
	if v == nil || v.context == nil {
		return
	}
	if ic.inPass && ic.pass.depth != vk.NullImageView && ic.pass.depth == v.Handle {
		var aspect vk.ImageAspectFlags
		if flags&renderer.CLEAR_DEPTH != 0 {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		}
		if flags&renderer.CLEAR_STENCIL != 0 && hasStencil(v.Format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
		if aspect == 0 {
			return
		}
		var value vk.ClearValue
		value.SetDepthStencil(depth, uint32(stencil))
		ic.clearAttachment(aspect, value)
		return
	}
	// The render pass clears depth and stencil together.
	ic.depthClears[v] = depthClear{depth: depth, stencil: uint32(stencil)}
}

// clearAttachment clears inside the active render pass.
func (ic *ImmediateContext) clearAttachment(aspect vk.ImageAspectFlags, value vk.ClearValue) {
	attachment := vk.ClearAttachment{AspectMask: aspect, ClearValue: value}
	if aspect == vk.ImageAspectFlags(vk.ImageAspectColorBit) {
		attachment.ColorAttachment = 0
	}
	rect := vk.ClearRect{
		Rect:       vk.Rect2D{Extent: vk.Extent2D{Width: ic.pass.width, Height: ic.pass.height}},
		LayerCount: 1,
	}
	vk.CmdClearAttachments(ic.cmd(), 1, []vk.ClearAttachment{attachment}, 1, []vk.ClearRect{rect})
}

func (ic *ImmediateContext) OMSetRenderTargets(views []renderer.RenderTargetView, depth renderer.DepthStencilView) {
	ic.rtv = nil
	if len(views) > 0 {
		ic.rtv = asView(views[0])
	}
	ic.dsv = asView(depth)
}

func (ic *ImmediateContext) OMSetBlendState(state renderer.BlendState, blendFactor *[4]float32, sampleMask uint32) {
	ic.blend, _ = state.(*BlendState)
	ic.blendFactor = [4]float32{1, 1, 1, 1}
	if blendFactor != nil {
		ic.blendFactor = *blendFactor
	}
}

func (ic *ImmediateContext) OMSetDepthStencilState(state renderer.DepthStencilState, stencilRef uint32) {
	ic.depthState, _ = state.(*DepthStencilState)
	ic.stencilRef = stencilRef
}

func (ic *ImmediateContext) RSSetViewports(viewports []renderer.Viewport) {
	ic.hasViewport = len(viewports) > 0
	if ic.hasViewport {
		ic.viewport = viewports[0]
	}
}

func (ic *ImmediateContext) RSSetState(state renderer.RasterizerState) {
	ic.raster, _ = state.(*RasterizerState)
}

func (ic *ImmediateContext) IASetInputLayout(layout renderer.InputLayout) {
	ic.layout, _ = layout.(*InputLayout)
}

func (ic *ImmediateContext) IASetVertexBuffers(startSlot uint32, buffers []renderer.Buffer, strides, offsets []uint32) {
	for i, b := range buffers {
		slot := startSlot + uint32(i)
		if slot >= renderer.MAX_VERTEX_BUFFERS {
			break
		}
		ic.vertexBuffers[slot] = asBuffer(b)
		ic.strides[slot] = 0
		ic.offsets[slot] = 0
		if i < len(strides) {
			ic.strides[slot] = strides[i]
		}
		if i < len(offsets) {
			ic.offsets[slot] = offsets[i]
		}
	}
}

func (ic *ImmediateContext) IASetIndexBuffer(buffer renderer.Buffer, format renderer.Format, offset uint32) {
	ic.indexBuffer = asBuffer(buffer)
	ic.indexFormat = format
	ic.indexOffset = offset
}

func (ic *ImmediateContext) IASetPrimitiveTopology(topology renderer.PrimitiveTopology) {
	ic.topology = topology
}

func (ic *ImmediateContext) VSSetShader(shader renderer.VertexShader) {
	ic.vs, _ = shader.(*Shader)
}

func (ic *ImmediateContext) VSSetConstantBuffers(startSlot uint32, buffers []renderer.Buffer) {
	for i, b := range buffers {
		if slot := startSlot + uint32(i); slot < renderer.MAX_CONSTANT_BUFFERS {
			ic.vsConstants[slot] = asBuffer(b)
		}
	}
}

func (ic *ImmediateContext) PSSetShader(shader renderer.PixelShader) {
	ic.ps, _ = shader.(*Shader)
}

func (ic *ImmediateContext) PSSetConstantBuffers(startSlot uint32, buffers []renderer.Buffer) {
	for i, b := range buffers {
		if slot := startSlot + uint32(i); slot < renderer.MAX_CONSTANT_BUFFERS {
			ic.psConstants[slot] = asBuffer(b)
		}
	}
}

func (ic *ImmediateContext) PSSetShaderResources(startSlot uint32, views []renderer.ShaderResourceView) {
	for i, v := range views {
		if slot := startSlot + uint32(i); slot < renderer.MAX_SHADER_RESOURCES {
			ic.shaderResources[slot] = asView(v)
		}
	}
}

func (ic *ImmediateContext) PSSetSamplers(startSlot uint32, samplers []renderer.SamplerState) {
	for i, s := range samplers {
		if slot := startSlot + uint32(i); slot < renderer.MAX_SAMPLERS {
			ic.samplers[slot], _ = s.(*Sampler)
		}
	}
}

func (ic *ImmediateContext) Map(buffer renderer.Buffer, mode renderer.MapMode) ([]byte, error) {
	b := asBuffer(buffer)
	if b == nil || b.context == nil {
		return nil, fmt.Errorf("buffer %T was not created by this device", buffer)
	}
	if err := ic.context.beginFrame(); err != nil {
		return nil, err
	}
	return b.mapRange(mode)
}

func (ic *ImmediateContext) Unmap(buffer renderer.Buffer) {
	if b := asBuffer(buffer); b != nil {
		b.unmap()
	}
}

// target resolves the bound render target and depth views into attachments.
func (ic *ImmediateContext) target(rtv, dsv *View) (passTarget, error) {
	var t passTarget
	if rtv != nil && rtv.context != nil {
		t.color = rtv.imageView()
		t.colorFormat = rtv.Format
		t.width, t.height = rtv.Width, rtv.Height
		if rtv.isBackBuffer() {
			sc := rtv.backBuffer
			t.present = true
			t.colorFormat = sc.ImageFormat.Format
			t.width, t.height = sc.Extent.Width, sc.Extent.Height
		}
		if t.color == vk.NullImageView {
			return t, fmt.Errorf("back buffer has no acquired image")
		}
	}
	if dsv != nil && dsv.context != nil {
		t.depth = dsv.Handle
		t.depthFormat = dsv.Format
		if t.color == vk.NullImageView || dsv.Width < t.width {
			t.width = dsv.Width
		}
		if t.color == vk.NullImageView || dsv.Height < t.height {
			t.height = dsv.Height
		}
	}
	if t.color == vk.NullImageView && t.depth == vk.NullImageView {
		return t, fmt.Errorf("no render target bound")
	}
	return t, nil
}

// beginPass starts a render pass on the bound targets unless one is already
// running on them. Pending clears of those targets become load op clears.
func (ic *ImmediateContext) beginPass(rtv, dsv *View) error {
	if err := ic.context.beginFrame(); err != nil {
		return err
	}
	t, err := ic.target(rtv, dsv)
	if err != nil {
		return err
	}
	if ic.inPass && ic.pass == t {
		return ic.applyPendingClears(rtv, dsv)
	}
	ic.endPass()

	key := renderpassKey{
		color:     t.colorFormat,
		depth:     t.depthFormat,
		colorLoad: vk.AttachmentLoadOpLoad,
		depthLoad: vk.AttachmentLoadOpLoad,
		present:   t.present,
	}
	var color [4]float32
	var depth depthClear
	if rtv != nil {
		if c, ok := ic.colorClears[rtv]; ok {
			key.colorLoad = vk.AttachmentLoadOpClear
			color = c
			delete(ic.colorClears, rtv)
		}
	}
	if dsv != nil {
		if d, ok := ic.depthClears[dsv]; ok {
			key.depthLoad = vk.AttachmentLoadOpClear
			depth = d
			delete(ic.depthClears, dsv)
		}
	}
	return ic.startPass(t, key, color, depth)
}

func (ic *ImmediateContext) startPass(t passTarget, key renderpassKey, color [4]float32, depth depthClear) error {
	context := ic.context
	pass, err := context.renderpasses.get(context, key)
	if err != nil {
		return err
	}
	framebuffer, err := context.framebuffers.get(context, framebufferKey{
		color:  t.color,
		depth:  t.depth,
		width:  t.width,
		height: t.height,
	}, pass)
	if err != nil {
		return err
	}
	values := clearValues(key, color, depth.depth, depth.stencil)
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: t.width, Height: t.height},
		},
		ClearValueCount: uint32(len(values)),
		PClearValues:    values,
	}
	f := context.frame()
	vk.CmdBeginRenderPass(f.commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	f.commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
	ic.inPass = true
	ic.pass = t
	ic.passKey = key
	if t.present {
		ic.presentUsed = true
	}
	return nil
}

func (ic *ImmediateContext) applyPendingClears(rtv, dsv *View) error {
	if rtv != nil {
		if c, ok := ic.colorClears[rtv]; ok {
			delete(ic.colorClears, rtv)
			var value vk.ClearValue
			value.SetColor(c[:])
			ic.clearAttachment(vk.ImageAspectFlags(vk.ImageAspectColorBit), value)
		}
	}
	if dsv != nil {
		if d, ok := ic.depthClears[dsv]; ok {
			delete(ic.depthClears, dsv)
			aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
			if hasStencil(dsv.Format) {
				aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
			}
			var value vk.ClearValue
			value.SetDepthStencil(d.depth, d.stencil)
			ic.clearAttachment(aspect, value)
		}
	}
	return nil
}

func (ic *ImmediateContext) endPass() {
	if !ic.inPass {
		return
	}
	f := ic.context.frame()
	vk.CmdEndRenderPass(f.commandBuffer.Handle)
	f.commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
	ic.inPass = false
	ic.pass = passTarget{}
}

// prepareDraw begins the pass and binds the pipeline, dynamic state,
// descriptors and vertex buffers.
func (ic *ImmediateContext) prepareDraw() error {
	if err := ic.beginPass(ic.rtv, ic.dsv); err != nil {
		return err
	}
	context := ic.context
	cmd := ic.cmd()

	if ic.layout == nil {
		return fmt.Errorf("draw without an input layout bound")
	}
	key := pipelineKey{
		vs:       ic.vs,
		ps:       ic.ps,
		layout:   ic.layout,
		raster:   ic.raster,
		depth:    ic.depthState,
		blend:    ic.blend,
		topology: ic.topology,
		strides:  ic.strides,
		pass:     ic.passKey.compatible(),
	}
	pipeline, err := context.pipelines.get(context, key)
	if err != nil {
		return err
	}
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pipeline)

	viewport := renderer.Viewport{Width: float32(ic.pass.width), Height: float32(ic.pass.height), MaxDepth: 1}
	if ic.hasViewport {
		viewport = ic.viewport
	}
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{vkViewport(viewport)})
	scissor := vkScissor(viewport)
	if scissor.Offset.X < 0 {
		scissor.Offset.X = 0
	}
	if scissor.Offset.Y < 0 {
		scissor.Offset.Y = 0
	}
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
	vk.CmdSetBlendConstants(cmd, &ic.blendFactor)
	vk.CmdSetStencilReference(cmd, vk.StencilFaceFlags(vk.StencilFaceFrontBit|vk.StencilFaceBackBit), ic.stencilRef)

	var bindings descriptorBindings
	constants := ic.vsConstants[0]
	if constants == nil {
		constants = ic.psConstants[0]
	}
	if constants != nil && constants.context != nil {
		buffer, offset, err := constants.resolve()
		if err != nil {
			return err
		}
		bindings.buffer, bindings.offset, bindings.size = buffer, offset, uint64(constants.desc.ByteWidth)
	}
	if srv := ic.shaderResources[0]; srv != nil && srv.context != nil {
		bindings.view = srv.Handle
	}
	if sampler := ic.samplers[0]; sampler != nil && sampler.context != nil {
		bindings.sample = sampler.Handle
	}
	set, err := context.allocateDescriptorSet(bindings)
	if err != nil {
		return err
	}
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, context.layout.handle, 0, 1, []vk.DescriptorSet{set}, 0, nil)

	for _, slot := range ic.layout.slots() {
		vb := ic.vertexBuffers[slot]
		if vb == nil || vb.context == nil {
			return fmt.Errorf("no vertex buffer bound to slot %d", slot)
		}
		buffer, offset, err := vb.resolve()
		if err != nil {
			return err
		}
		vk.CmdBindVertexBuffers(cmd, slot, 1, []vk.Buffer{buffer}, []vk.DeviceSize{vk.DeviceSize(offset + uint64(ic.offsets[slot]))})
	}
	return nil
}

func (ic *ImmediateContext) Draw(vertexCount, startVertex uint32) {
	if err := ic.prepareDraw(); err != nil {
		ic.fail(err)
		return
	}
	vk.CmdDraw(ic.cmd(), vertexCount, 1, startVertex, 0)
}

func (ic *ImmediateContext) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) {
	if err := ic.prepareDraw(); err != nil {
		ic.fail(err)
		return
	}
	ib := ic.indexBuffer
	if ib == nil || ib.context == nil {
		ic.fail(fmt.Errorf("indexed draw without an index buffer bound"))
		return
	}
	buffer, offset, err := ib.resolve()
	if err != nil {
		ic.fail(err)
		return
	}
	cmd := ic.cmd()
	vk.CmdBindIndexBuffer(cmd, buffer, vk.DeviceSize(offset+uint64(ic.indexOffset)), vkIndexType(ic.indexFormat))
	vk.CmdDrawIndexed(cmd, indexCount, 1, startIndex, baseVertex, 0)
}

// finishFrame ends recording: clears nobody drew to are flushed as their own
// passes, and an untouched back buffer is cleared to black so it reaches the
// present layout.
func (ic *ImmediateContext) finishFrame() error {
	context := ic.context
	if err := context.beginFrame(); err != nil {
		return err
	}
	var err error
	for v := range ic.colorClears {
		if v.context == nil {
			delete(ic.colorClears, v)
			continue
		}
		if e := ic.beginPass(v, nil); e != nil && err == nil {
			err = e
		}
	}
	for v := range ic.depthClears {
		if v.context == nil {
			delete(ic.depthClears, v)
			continue
		}
		if e := ic.beginPass(nil, v); e != nil && err == nil {
			err = e
		}
	}
	ic.endPass()

	f := context.frame()
	if f.acquired && !ic.presentUsed && context.swapchain != nil {
		sc := context.swapchain
		t := passTarget{
			color:       sc.Views[f.imageIndex],
			colorFormat: sc.ImageFormat.Format,
			present:     true,
			width:       sc.Extent.Width,
			height:      sc.Extent.Height,
		}
		key := renderpassKey{
			color:     t.colorFormat,
			depth:     vk.FormatUndefined,
			colorLoad: vk.AttachmentLoadOpClear,
			depthLoad: vk.AttachmentLoadOpClear,
			present:   true,
		}
		if e := ic.startPass(t, key, [4]float32{0, 0, 0, 1}, depthClear{}); e != nil && err == nil {
			err = e
		}
		ic.endPass()
	}
	ic.presentUsed = false
	for v := range ic.colorClears {
		delete(ic.colorClears, v)
	}
	for v := range ic.depthClears {
		delete(ic.depthClears, v)
	}
	return err
}

// Release drops every binding. The device owns the objects.
func (ic *ImmediateContext) Release() {
	if ic.context == nil {
		return
	}
	if ic.context.immediate == ic {
		ic.context.immediate = nil
	}
	*ic = ImmediateContext{}
}
