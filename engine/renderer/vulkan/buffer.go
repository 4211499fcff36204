package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

/**
 * @brief A device buffer and the memory bound to it.
 */
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	/** @brief The size the buffer was created with, in bytes. */
	Size  uint64
	Usage vk.BufferUsageFlags
	/** @brief The property flags of the backing memory. */
	MemoryFlags vk.MemoryPropertyFlags

	mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (*VulkanBuffer, error) {
	if size == 0 {
		return nil, pkgerrors.New("buffer size must be greater than zero")
	}
	outBuffer := &VulkanBuffer{
		Size:        size,
		Usage:       usage,
		MemoryFlags: memoryFlags,
	}

	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive, // NOTE: Only used in one queue.
	}

	device := context.Device.LogicalDevice
	if err := context.locks.SafeCall(BufferManagement, func() error {
		return ResultError("vkCreateBuffer", vk.CreateBuffer(device, &bufferInfo, context.Allocator, &outBuffer.Handle))
	}); err != nil {
		return nil, err
	}

	// Gather memory requirements.
	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, outBuffer.Handle, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		core.LogError("Unable to create vulkan buffer because the required memory type index was not found.")
		outBuffer.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	if err := context.locks.SafeCall(BufferManagement, func() error {
		return ResultError("vkAllocateMemory", vk.AllocateMemory(device, &allocateInfo, context.Allocator, &outBuffer.Memory))
	}); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}

	if err := ResultError("vkBindBufferMemory", vk.BindBufferMemory(device, outBuffer.Handle, outBuffer.Memory, 0)); err != nil {
		outBuffer.Destroy(context)
		return nil, err
	}
	return outBuffer, nil
}

// Map maps the whole buffer. Mapping an already mapped buffer returns the
// existing mapping.
func (b *VulkanBuffer) Map(context *VulkanContext) ([]byte, error) {
	if b.mapped == nil {
		var data unsafe.Pointer
		if err := ResultError("vkMapMemory", vk.MapMemory(context.Device.LogicalDevice, b.Memory, 0, vk.DeviceSize(b.Size), 0, &data)); err != nil {
			return nil, err
		}
		b.mapped = data
	}
	return unsafe.Slice((*byte)(b.mapped), b.Size), nil
}

func (b *VulkanBuffer) Unmap(context *VulkanContext) {
	if b.mapped == nil {
		return
	}
	vk.UnmapMemory(context.Device.LogicalDevice, b.Memory)
	b.mapped = nil
}

// Mapped reports the persistent mapping, nil when the buffer is not mapped.
func (b *VulkanBuffer) Mapped() []byte {
	if b == nil || b.mapped == nil {
		return nil
	}
	return unsafe.Slice((*byte)(b.mapped), b.Size)
}

// LoadData copies data into host visible memory at offset.
func (b *VulkanBuffer) LoadData(context *VulkanContext, offset uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if offset+uint64(len(data)) > b.Size {
		return pkgerrors.Errorf("load of %d bytes at %d overflows buffer of %d", len(data), offset, b.Size)
	}
	wasMapped := b.mapped != nil
	mem, err := b.Map(context)
	if err != nil {
		return err
	}
	vk.Memcopy(unsafe.Pointer(&mem[offset]), data)
	if !wasMapped {
		b.Unmap(context)
	}
	return nil
}

// CopyTo records a copy into dest on a single use command buffer and waits
// for the queue to finish it.
func (b *VulkanBuffer) CopyTo(context *VulkanContext, pool vk.CommandPool, queue vk.Queue, queueFamily uint32, dest *VulkanBuffer, size uint64) error {
	cb, err := AllocateAndBeginSingleUse(context, pool)
	if err != nil {
		return err
	}
	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      vk.DeviceSize(size),
	}
	vk.CmdCopyBuffer(cb.Handle, b.Handle, dest.Handle, 1, []vk.BufferCopy{copyRegion})
	return cb.EndSingleUse(context, pool, queue, queueFamily)
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	if b == nil {
		return
	}
	device := context.Device.LogicalDevice
	b.Unmap(context)
	context.locks.SafeCall(BufferManagement, func() error {
		if b.Memory != nil {
			vk.FreeMemory(device, b.Memory, context.Allocator)
			b.Memory = nil
		}
		if b.Handle != nil {
			vk.DestroyBuffer(device, b.Handle, context.Allocator)
			b.Handle = nil
		}
		return nil
	})
	b.Size = 0
}

// UploadToDeviceLocal creates a device local buffer holding data through a
// temporary staging buffer.
func UploadToDeviceLocal(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	size := uint64(len(data))
	staging, err := BufferCreate(context, size,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.LoadData(context, 0, data); err != nil {
		return nil, err
	}

	buffer, err := BufferCreate(context, size,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, err
	}

	device := context.Device
	if err := staging.CopyTo(context, device.GraphicsCommandPool, device.GraphicsQueue, uint32(device.GraphicsQueueIndex), buffer, size); err != nil {
		buffer.Destroy(context)
		return nil, err
	}
	return buffer, nil
}
