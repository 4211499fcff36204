package vulkan

import (
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

// VulkanContext holds the handles that live for the whole run: instance,
// surface, debug callback and device.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debug         DebugOptions
	debugCallback vk.DebugReportCallback

	Device *VulkanDevice

	locks *VulkanLockPool
}

func NewVulkanContext(debug DebugOptions) *VulkanContext {
	return &VulkanContext{
		Allocator: nil,
		debug:     debug,
		Device:    &VulkanDevice{GraphicsQueueIndex: -1, PresentQueueIndex: -1},
		locks:     NewVulkanLockPool(),
	}
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that
// has every bit of propertyFlags set.
func (vc *VulkanContext) FindMemoryIndex(typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	types := make([]vk.MemoryPropertyFlags, memoryProperties.MemoryTypeCount)
	for i := range types {
		memoryProperties.MemoryTypes[i].Deref()
		types[i] = memoryProperties.MemoryTypes[i].PropertyFlags
	}
	index, ok := SelectMemoryType(types, typeFilter, propertyFlags)
	if !ok {
		core.LogWarn("Unable to find suitable memory type!")
		return 0, pkgerrors.Wrapf(core.ErrNoMemoryType, "filter %#x flags %#x", typeFilter, uint32(propertyFlags))
	}
	return index, nil
}

// SelectMemoryType is the pure part of FindMemoryIndex.
func SelectMemoryType(types []vk.MemoryPropertyFlags, typeFilter uint32, propertyFlags vk.MemoryPropertyFlags) (uint32, bool) {
	for i, flags := range types {
		if typeFilter&(1<<uint(i)) != 0 && flags&propertyFlags == propertyFlags {
			return uint32(i), true
		}
	}
	return 0, false
}
