package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		// Signaled so the first wait on a fresh frame slot returns at once.
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if res := vk.CreateFence(context.device(), &fenceCreateInfo, context.Allocator, &handle); res != vk.Success {
		return nil, resultError("vkCreateFence", res)
	}
	fence.Handle = handle
	return fence, nil
}

func (vf *VulkanFence) Destroy(context *VulkanContext) {
	if vf.Handle != nil {
		vk.DestroyFence(context.device(), vf.Handle, context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

func (vf *VulkanFence) Wait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		return nil
	}
	res := vk.WaitForFences(context.device(), 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	if res == vk.Timeout {
		return resultError("vkWaitForFences timed out", vk.ErrorUnknown)
	}
	if err := resultError("vkWaitForFences", res); err != nil {
		return err
	}
	vf.IsSignaled = true
	return nil
}

func (vf *VulkanFence) Reset(context *VulkanContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if res := vk.ResetFences(context.device(), 1, []vk.Fence{vf.Handle}); res != vk.Success {
		return resultError("vkResetFences", res)
	}
	vf.IsSignaled = false
	return nil
}
