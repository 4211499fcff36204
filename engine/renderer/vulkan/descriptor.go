package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

/**
 * @brief The global descriptor layout: binding 0 is the per-frame uniform
 * block, read by the vertex stage only. The pool holds one set per frame
 * slot.
 */
type VulkanDescriptors struct {
	Layout vk.DescriptorSetLayout
	Pool   vk.DescriptorPool
}

func NewVulkanDescriptors(context *VulkanContext, maxSets uint32) (*VulkanDescriptors, error) {
	out := &VulkanDescriptors{}

	uboLayoutBinding := vk.DescriptorSetLayoutBinding{
		Binding:            0,
		DescriptorType:     vk.DescriptorTypeUniformBuffer,
		DescriptorCount:    1,
		StageFlags:         vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		PImmutableSamplers: nil,
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{uboLayoutBinding},
	}

	device := context.Device.LogicalDevice
	if err := context.locks.SafeCall(DescriptorManagement, func() error {
		return ResultError("vkCreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(device, &layoutInfo, context.Allocator, &out.Layout))
	}); err != nil {
		return nil, err
	}

	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: maxSets,
		}},
	}
	if err := context.locks.SafeCall(DescriptorManagement, func() error {
		return ResultError("vkCreateDescriptorPool", vk.CreateDescriptorPool(device, &poolInfo, context.Allocator, &out.Pool))
	}); err != nil {
		out.Destroy(context)
		return nil, err
	}
	return out, nil
}

// AllocateUniformSet allocates one set from the pool and points binding 0 at
// the given uniform buffer.
func (d *VulkanDescriptors) AllocateUniformSet(context *VulkanContext, uniform *VulkanBuffer) (vk.DescriptorSet, error) {
	allocInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.Pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{d.Layout},
	}
	sets := make([]vk.DescriptorSet, 1)
	device := context.Device.LogicalDevice
	if err := context.locks.SafeCall(DescriptorManagement, func() error {
		return ResultError("vkAllocateDescriptorSets", vk.AllocateDescriptorSets(device, &allocInfo, &sets[0]))
	}); err != nil {
		return nil, err
	}

	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          sets[0],
		DstBinding:      0,
		DstArrayElement: 0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: uniform.Handle,
			Offset: 0,
			Range:  vk.DeviceSize(metadata.UniformBufferObjectSize),
		}},
	}
	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{write}, 0, nil)
	return sets[0], nil
}

// Destroy frees the pool, and with it every set allocated from it.
func (d *VulkanDescriptors) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if d.Pool != nil {
		vk.DestroyDescriptorPool(device, d.Pool, context.Allocator)
		d.Pool = nil
	}
	if d.Layout != nil {
		vk.DestroyDescriptorSetLayout(device, d.Layout, context.Allocator)
		d.Layout = nil
	}
}
