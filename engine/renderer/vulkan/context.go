package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

// MAX_FRAMES_IN_FLIGHT is how many frames the CPU may record ahead of the GPU.
const MAX_FRAMES_IN_FLIGHT = 2

// VulkanContext holds the state shared by every object created from one device:
// the instance and surface, the logical device, the per-frame resources and the
// object caches.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	layout       *pipelineLayout
	pipelines    *pipelineCache
	renderpasses *renderpassCache
	framebuffers *framebufferCache
	placeholders *placeholders

	frames       [MAX_FRAMES_IN_FLIGHT]*frame
	currentFrame uint32
	frameActive  bool
	// frameSerial increments every frame so dynamic buffers can tell stale
	// upload ring allocations from fresh ones.
	frameSerial uint64
	garbage     []garbage

	swapchain *SwapChain
	immediate *ImmediateContext
}

func (vc *VulkanContext) device() vk.Device {
	return vc.Device.LogicalDevice
}

func (vc *VulkanContext) frame() *frame {
	return vc.frames[vc.currentFrame]
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// every property in propertyFlags.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	memory := vc.Device.Memory
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
		if typeFilter&(1<<i) != 0 && memory.MemoryTypes[i].PropertyFlags&propertyFlags == propertyFlags {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type matches filter %#x with properties %#x", typeFilter, propertyFlags)
}

type garbage struct {
	serial  uint64
	destroy func()
}

// deferDestroy runs fn once every frame recorded so far has finished on the GPU.
// After the device is gone there is nothing left to destroy.
func (vc *VulkanContext) deferDestroy(fn func()) {
	if vc.Device == nil || vc.Device.LogicalDevice == nil {
		return
	}
	if vc.frameSerial == 0 {
		fn()
		return
	}
	vc.garbage = append(vc.garbage, garbage{serial: vc.frameSerial, destroy: fn})
}

// collectGarbage destroys the objects released at or before serial.
func (vc *VulkanContext) collectGarbage(serial uint64) {
	pending := vc.garbage
	vc.garbage = nil
	for _, g := range pending {
		if g.serial <= serial {
			g.destroy()
			continue
		}
		vc.garbage = append(vc.garbage, g)
	}
}

// waitIdle blocks until the device finished all work and runs every deferred
// destruction.
func (vc *VulkanContext) waitIdle() {
	if vc.Device == nil || vc.Device.LogicalDevice == nil {
		return
	}
	if res := vk.DeviceWaitIdle(vc.device()); !VulkanResultIsSuccess(res) {
		core.LogWarn("vkDeviceWaitIdle failed: %s", VulkanResultString(res))
	}
	vc.collectGarbage(vc.frameSerial)
}

// beginFrame waits for the frame slot to be free, recycles its resources,
// acquires a swap chain image and starts recording.
func (vc *VulkanContext) beginFrame() error {
	if vc.frameActive {
		return nil
	}
	f := vc.frame()
	if f == nil {
		return fmt.Errorf("frame resources missing: %w", core.ErrNotInitialized)
	}
	if err := f.fence.Wait(vc, vk.MaxUint64); err != nil {
		return err
	}
	vc.collectGarbage(f.serial)
	f.upload.reset()
	if res := vk.ResetDescriptorPool(vc.device(), f.descriptors, 0); !VulkanResultIsSuccess(res) {
		return resultError("vkResetDescriptorPool", res)
	}

	if vc.swapchain != nil {
		if err := vc.swapchain.acquire(f); err != nil {
			return err
		}
	}

	if err := f.fence.Reset(vc); err != nil {
		return err
	}
	f.commandBuffer.Reset()
	if err := f.commandBuffer.Begin(true, false, false); err != nil {
		return err
	}
	vc.frameSerial++
	f.serial = vc.frameSerial
	vc.frameActive = true
	return nil
}

// submitFrame ends recording and submits the frame. When the frame acquired a
// swap chain image the submission waits for it and signals renderComplete.
func (vc *VulkanContext) submitFrame() error {
	f := vc.frame()
	if err := f.commandBuffer.End(); err != nil {
		return err
	}
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{f.commandBuffer.Handle},
	}
	if f.acquired {
		submit.WaitSemaphoreCount = 1
		submit.PWaitSemaphores = []vk.Semaphore{f.imageAvailable}
		submit.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
		submit.SignalSemaphoreCount = 1
		submit.PSignalSemaphores = []vk.Semaphore{f.renderComplete}
	}
	res := vk.QueueSubmit(vc.Device.GraphicsQueue, 1, []vk.SubmitInfo{submit}, f.fence.Handle)
	vc.frameActive = false
	if !VulkanResultIsSuccess(res) {
		return resultError("vkQueueSubmit", res)
	}
	f.commandBuffer.UpdateSubmitted()
	return nil
}

func (vc *VulkanContext) advanceFrame() {
	vc.currentFrame = (vc.currentFrame + 1) % MAX_FRAMES_IN_FLIGHT
}
