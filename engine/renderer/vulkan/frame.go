package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

/**
 * @brief Everything one frame in flight owns. A slot is reused only
 * after its fence has signaled, so nothing here is shared between frames.
 */
type FrameSlot struct {
	Index uint32

	CommandBuffer *VulkanCommandBuffer
	// signaled by acquire, waited on by the submit
	ImageAvailable vk.Semaphore
	// signaled by the submit, waited on by present
	RenderFinished vk.Semaphore
	// created signaled so the first wait on the slot returns at once
	InFlight *VulkanFence

	// persistently mapped, host coherent
	Uniform       *VulkanBuffer
	DescriptorSet vk.DescriptorSet
}

func NewFrameSlot(context *VulkanContext, index uint32, descriptors *VulkanDescriptors) (*FrameSlot, error) {
	slot := &FrameSlot{Index: index}

	cb, err := NewVulkanCommandBuffer(context, context.Device.GraphicsCommandPool, true)
	if err != nil {
		return nil, err
	}
	slot.CommandBuffer = cb

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	device := context.Device.LogicalDevice
	if err := ResultError("vkCreateSemaphore", vk.CreateSemaphore(device, &semaphoreCreateInfo, context.Allocator, &slot.ImageAvailable)); err != nil {
		slot.Destroy(context)
		return nil, err
	}
	if err := ResultError("vkCreateSemaphore", vk.CreateSemaphore(device, &semaphoreCreateInfo, context.Allocator, &slot.RenderFinished)); err != nil {
		slot.Destroy(context)
		return nil, err
	}

	fence, err := NewFence(context, true)
	if err != nil {
		slot.Destroy(context)
		return nil, err
	}
	slot.InFlight = fence

	uniform, err := BufferCreate(context, metadata.UniformBufferObjectSize,
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		slot.Destroy(context)
		return nil, err
	}
	slot.Uniform = uniform
	if _, err := uniform.Map(context); err != nil {
		slot.Destroy(context)
		return nil, err
	}

	set, err := descriptors.AllocateUniformSet(context, uniform)
	if err != nil {
		slot.Destroy(context)
		return nil, err
	}
	slot.DescriptorSet = set
	return slot, nil
}

// UniformBytes is the mapped uniform memory of the slot.
func (s *FrameSlot) UniformBytes() []byte {
	return s.Uniform.Mapped()
}

// Destroy releases the slot's objects. The descriptor set goes back with the
// pool. The device must be idle.
func (s *FrameSlot) Destroy(context *VulkanContext) {
	if s == nil {
		return
	}
	device := context.Device.LogicalDevice

	s.Uniform.Destroy(context)
	s.Uniform = nil
	s.DescriptorSet = nil

	s.InFlight.FenceDestroy(context)
	s.InFlight = nil

	if s.RenderFinished != vk.NullSemaphore {
		vk.DestroySemaphore(device, s.RenderFinished, context.Allocator)
		s.RenderFinished = vk.NullSemaphore
	}
	if s.ImageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(device, s.ImageAvailable, context.Allocator)
		s.ImageAvailable = vk.NullSemaphore
	}

	s.CommandBuffer.Free(context, context.Device.GraphicsCommandPool)
	s.CommandBuffer = nil
}
