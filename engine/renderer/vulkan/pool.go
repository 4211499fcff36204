package vulkan

import "sync"

type LockGroup string

const (
	CommandBufferManagement LockGroup = "command_buffer_management"
	BufferManagement        LockGroup = "buffer_management"
	PipelineManagement      LockGroup = "pipeline_management"
	DescriptorManagement    LockGroup = "descriptor_management"
	SwapchainManagement     LockGroup = "swapchain_management"
)

// VulkanLockPool hands out one mutex per lock group and one per queue
// family. Vulkan requires external synchronization on queues and on the
// pools objects are allocated from, so every submit and present goes
// through the lock of its queue family.
type VulkanLockPool struct {
	mu sync.Mutex // Protects access to the maps

	locks        map[LockGroup]*sync.Mutex
	queueMutexes map[uint32]*sync.Mutex // Queue family index as key
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{
		locks:        make(map[LockGroup]*sync.Mutex),
		queueMutexes: make(map[uint32]*sync.Mutex),
	}
}

func (vs *VulkanLockPool) groupLock(group LockGroup) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	l, ok := vs.locks[group]
	if !ok {
		l = &sync.Mutex{}
		vs.locks[group] = l
	}
	return l
}

func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := vs.groupLock(group)
	l.Lock()
	defer l.Unlock()

	return fn()
}

func (vs *VulkanLockPool) SetQueueFamily(index uint32) {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, exists := vs.queueMutexes[index]; !exists {
		vs.queueMutexes[index] = &sync.Mutex{}
	}
}

func (vs *VulkanLockPool) queueLock(index uint32) *sync.Mutex {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	l, ok := vs.queueMutexes[index]
	if !ok {
		l = &sync.Mutex{}
		vs.queueMutexes[index] = l
	}
	return l
}

// SafeQueueCall runs fn holding the lock of the given queue family. Graphics
// and present share one lock when they share a family.
func (vs *VulkanLockPool) SafeQueueCall(queueFamilyIndex uint32, fn func() error) error {
	l := vs.queueLock(queueFamilyIndex)
	l.Lock()
	defer l.Unlock()

	return fn()
}
