package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/core"
)

type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool
}

func NewFence(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fence := &VulkanFence{
		// Make sure to signal the fence if required.
		IsSignaled: createSignaled,
	}

	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if fence.IsSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	if err := ResultError("vkCreateFence", vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &fence.Handle)); err != nil {
		return nil, err
	}
	return fence, nil
}

func (vf *VulkanFence) FenceDestroy(context *VulkanContext) {
	if vf == nil {
		return
	}
	if vf.Handle != nil {
		vk.DestroyFence(context.Device.LogicalDevice, vf.Handle, context.Allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

// FenceWait blocks until the fence signals. A timeout is reported as an error
// like any other failure; the frame loop waits without one.
func (vf *VulkanFence) FenceWait(context *VulkanContext, timeoutNs uint64) error {
	if vf.IsSignaled {
		// If already signaled, do not wait.
		return nil
	}
	result := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs)
	switch result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("vk_fence_wait - Timed out")
	}
	return ResultError("vkWaitForFences", result)
}

func (vf *VulkanFence) FenceReset(context *VulkanContext) error {
	if !vf.IsSignaled {
		return nil
	}
	if err := ResultError("vkResetFences", vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{vf.Handle})); err != nil {
		return err
	}
	vf.IsSignaled = false
	return nil
}
