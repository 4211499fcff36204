package vulkan

import (
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	// Both handles alias the same queue when the families match.
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

// depth formats in order of preference
var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

// FindQueueFamilies picks the first graphics family and a family that can
// present, preferring the graphics family itself so a single queue serves
// both. Indices are -1 when no family qualifies.
func FindQueueFamilies(queueFlags []vk.QueueFlags, presentSupport []bool) VulkanPhysicalDeviceQueueFamilyInfo {
	info := VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: -1, PresentFamilyIndex: -1}
	for i, flags := range queueFlags {
		if info.GraphicsFamilyIndex < 0 && flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			info.GraphicsFamilyIndex = int32(i)
		}
	}
	if info.GraphicsFamilyIndex >= 0 && int(info.GraphicsFamilyIndex) < len(presentSupport) && presentSupport[info.GraphicsFamilyIndex] {
		info.PresentFamilyIndex = info.GraphicsFamilyIndex
		return info
	}
	for i, ok := range presentSupport {
		if ok {
			info.PresentFamilyIndex = int32(i)
			break
		}
	}
	return info
}

func (q VulkanPhysicalDeviceQueueFamilyInfo) Complete() bool {
	return q.GraphicsFamilyIndex >= 0 && q.PresentFamilyIndex >= 0
}

// UniqueFamilies lists each distinct family once, graphics first.
func (q VulkanPhysicalDeviceQueueFamilyInfo) UniqueFamilies() []uint32 {
	if q.GraphicsFamilyIndex == q.PresentFamilyIndex {
		return []uint32{uint32(q.GraphicsFamilyIndex)}
	}
	return []uint32{uint32(q.GraphicsFamilyIndex), uint32(q.PresentFamilyIndex)}
}

func DeviceCreate(context *VulkanContext) error {
	if err := SelectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	queueInfo := VulkanPhysicalDeviceQueueFamilyInfo{
		GraphicsFamilyIndex: context.Device.GraphicsQueueIndex,
		PresentFamilyIndex:  context.Device.PresentQueueIndex,
	}
	families := queueInfo.UniqueFamilies()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
		context.locks.SetQueueFamily(family)
	}

	available, err := deviceExtensionNames(context.Device.PhysicalDevice)
	if err != nil {
		return err
	}
	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if len(MissingNames([]string{"VK_KHR_portability_subset"}, available)) == 0 {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
		// Deprecated and ignored, so pass nothing.
		EnabledLayerCount:   0,
		PpEnabledLayerNames: nil,
	}

	var logicalDevice vk.Device
	if err := ResultError("vkCreateDevice", vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice)); err != nil {
		return err
	}
	context.Device.LogicalDevice = logicalDevice
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.GraphicsQueueIndex), 0, &graphicsQueue)
	vk.GetDeviceQueue(logicalDevice, uint32(context.Device.PresentQueueIndex), 0, &presentQueue)
	context.Device.GraphicsQueue = graphicsQueue
	context.Device.PresentQueue = presentQueue
	core.LogInfo("Queues obtained.")

	// Command pool for graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := ResultError("vkCreateCommandPool", vk.CreateCommandPool(logicalDevice, &poolCreateInfo, context.Allocator, &pool)); err != nil {
		return err
	}
	context.Device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	if !DeviceDetectDepthFormat(context.Device) {
		return pkgerrors.Wrap(core.ErrNoCapableDevice, "no supported depth format")
	}
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	device.GraphicsQueue = nil
	device.PresentQueue = nil

	if device.GraphicsCommandPool != nil {
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = nil
	}

	if device.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	device.SwapchainSupport = VulkanSwapchainSupportInfo{}
	device.GraphicsQueueIndex = -1
	device.PresentQueueIndex = -1
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	var capabilities vk.SurfaceCapabilities
	if err := ResultError("vkGetPhysicalDeviceSurfaceCapabilities", vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &capabilities)); err != nil {
		return err
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	supportInfo.Capabilities = capabilities

	var formatCount uint32
	if err := ResultError("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil)); err != nil {
		return err
	}
	supportInfo.Formats = make([]vk.SurfaceFormat, formatCount)
	if formatCount != 0 {
		if err := ResultError("vkGetPhysicalDeviceSurfaceFormats", vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, supportInfo.Formats)); err != nil {
			return err
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}
	supportInfo.FormatCount = formatCount

	var presentModeCount uint32
	if err := ResultError("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil)); err != nil {
		return err
	}
	supportInfo.PresentModes = make([]vk.PresentMode, presentModeCount)
	if presentModeCount != 0 {
		if err := ResultError("vkGetPhysicalDeviceSurfacePresentModes", vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, supportInfo.PresentModes)); err != nil {
			return err
		}
	}
	supportInfo.PresentModeCount = presentModeCount
	return nil
}

func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, candidate := range depthFormatCandidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if properties.OptimalTilingFeatures&flags == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	device.DepthFormat = vk.FormatUndefined
	return false
}

func deviceExtensionNames(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := ResultError("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, err
	}
	extensions := make([]vk.ExtensionProperties, count)
	if count != 0 {
		if err := ResultError("vkEnumerateDeviceExtensionProperties", vk.EnumerateDeviceExtensionProperties(device, "", &count, extensions)); err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, count)
	for i := range extensions {
		extensions[i].Deref()
		names = append(names, CString(extensions[i].ExtensionName[:]))
	}
	return names, nil
}

// SelectPhysicalDevice takes the first enumerated device that meets the
// requirements. There is no scoring.
func SelectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32
	if err := ResultError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil)); err != nil {
		return err
	}
	if physicalDeviceCount == 0 {
		core.LogError("No devices which support Vulkan were found.")
		return pkgerrors.Wrap(core.ErrNoCapableDevice, "no Vulkan devices")
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if err := ResultError("vkEnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices)); err != nil {
		return err
	}

	for _, candidate := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(candidate, &properties)
		properties.Deref()

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(candidate, &features)
		features.Deref()

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(candidate, &memory)
		memory.Deref()

		var support VulkanSwapchainSupportInfo
		queueInfo, ok := PhysicalDeviceMeetsRequirements(candidate, context.Surface, &properties, &support)
		if !ok {
			continue
		}

		logDeviceInfo(&properties, &memory)

		context.Device.PhysicalDevice = candidate
		context.Device.GraphicsQueueIndex = queueInfo.GraphicsFamilyIndex
		context.Device.PresentQueueIndex = queueInfo.PresentFamilyIndex
		context.Device.SwapchainSupport = support
		context.Device.Properties = properties
		context.Device.Features = features
		context.Device.Memory = memory
		core.LogInfo("Physical device selected.")
		return nil
	}

	core.LogError("No physical devices were found which meet the requirements.")
	return core.ErrNoCapableDevice
}

func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, surface vk.Surface, properties *vk.PhysicalDeviceProperties, outSwapchainSupport *VulkanSwapchainSupportInfo) (VulkanPhysicalDeviceQueueFamilyInfo, bool) {
	name := CString(properties.DeviceName[:])

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	queueFlags := make([]vk.QueueFlags, queueFamilyCount)
	presentSupport := make([]bool, queueFamilyCount)
	for i := range queueFamilies {
		queueFamilies[i].Deref()
		queueFlags[i] = queueFamilies[i].QueueFlags

		var supportsPresent vk.Bool32
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, uint32(i), surface, &supportsPresent); res != vk.Success {
			core.LogWarn("Querying present support on '%s' failed with %s, skipping.", name, VulkanResultString(res, false))
			return VulkanPhysicalDeviceQueueFamilyInfo{}, false
		}
		presentSupport[i] = supportsPresent == vk.True
	}

	queueInfo := FindQueueFamilies(queueFlags, presentSupport)
	core.LogInfo("Graphics | Present | Name")
	core.LogInfo("      %2d |      %2d | %s", queueInfo.GraphicsFamilyIndex, queueInfo.PresentFamilyIndex, name)
	if !queueInfo.Complete() {
		core.LogInfo("Device '%s' lacks a graphics or present queue, skipping.", name)
		return queueInfo, false
	}

	available, err := deviceExtensionNames(device)
	if err != nil {
		core.LogWarn("Reading extensions of '%s' failed: %s", name, err)
		return queueInfo, false
	}
	if missing := MissingNames([]string{vk.KhrSwapchainExtensionName}, available); len(missing) > 0 {
		core.LogInfo("Required extension not found: '%s', skipping device.", missing[0])
		return queueInfo, false
	}

	if err := DeviceQuerySwapchainSupport(device, surface, outSwapchainSupport); err != nil {
		core.LogWarn("Querying swapchain support of '%s' failed: %s", name, err)
		return queueInfo, false
	}
	if outSwapchainSupport.FormatCount < 1 || outSwapchainSupport.PresentModeCount < 1 {
		core.LogInfo("Required swapchain support not present, skipping device.")
		return queueInfo, false
	}

	core.LogInfo("Device meets queue requirements.")
	core.LogDebug("Graphics Family Index: %d", queueInfo.GraphicsFamilyIndex)
	core.LogDebug("Present Family Index:  %d", queueInfo.PresentFamilyIndex)
	return queueInfo, true
}

func logDeviceInfo(properties *vk.PhysicalDeviceProperties, memory *vk.PhysicalDeviceMemoryProperties) {
	core.LogInfo("Selected device: '%s'.", CString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}

	driver := vk.Version(properties.DriverVersion)
	core.LogInfo("GPU Driver version: %d.%d.%d", driver.Major(), driver.Minor(), driver.Patch())
	api := vk.Version(properties.ApiVersion)
	core.LogInfo("Vulkan API version: %d.%d.%d", api.Major(), api.Minor(), api.Patch())

	for j := 0; j < int(memory.MemoryHeapCount); j++ {
		memory.MemoryHeaps[j].Deref()
		memorySizeGib := float64(memory.MemoryHeaps[j].Size) / 1024.0 / 1024.0 / 1024.0
		if memory.MemoryHeaps[j].Flags&vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit) != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
}
