package vulkan

import (
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

type resultInfo struct {
	name        string
	description string
}

// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
var resultTable = map[vk.Result]resultInfo{
	vk.Success:                    {"VK_SUCCESS", "Command successfully completed"},
	vk.NotReady:                   {"VK_NOT_READY", "A fence or query has not yet completed"},
	vk.Timeout:                    {"VK_TIMEOUT", "A wait operation has not completed in the specified time"},
	vk.EventSet:                   {"VK_EVENT_SET", "An event is signaled"},
	vk.EventReset:                 {"VK_EVENT_RESET", "An event is unsignaled"},
	vk.Incomplete:                 {"VK_INCOMPLETE", "A return array was too small for the result"},
	vk.Suboptimal:                 {"VK_SUBOPTIMAL_KHR", "The swapchain no longer matches the surface properties exactly, but can still present"},
	vk.ErrorOutOfHostMemory:       {"VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed"},
	vk.ErrorOutOfDeviceMemory:     {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed"},
	vk.ErrorInitializationFailed:  {"VK_ERROR_INITIALIZATION_FAILED", "Initialization of an object could not be completed"},
	vk.ErrorDeviceLost:            {"VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost"},
	vk.ErrorMemoryMapFailed:       {"VK_ERROR_MEMORY_MAP_FAILED", "Mapping of a memory object has failed"},
	vk.ErrorLayerNotPresent:       {"VK_ERROR_LAYER_NOT_PRESENT", "A requested layer is not present or could not be loaded"},
	vk.ErrorExtensionNotPresent:   {"VK_ERROR_EXTENSION_NOT_PRESENT", "A requested extension is not supported"},
	vk.ErrorFeatureNotPresent:     {"VK_ERROR_FEATURE_NOT_PRESENT", "A requested feature is not supported"},
	vk.ErrorIncompatibleDriver:    {"VK_ERROR_INCOMPATIBLE_DRIVER", "The requested version of Vulkan is not supported by the driver"},
	vk.ErrorTooManyObjects:        {"VK_ERROR_TOO_MANY_OBJECTS", "Too many objects of the type have already been created"},
	vk.ErrorFormatNotSupported:    {"VK_ERROR_FORMAT_NOT_SUPPORTED", "A requested format is not supported on this device"},
	vk.ErrorFragmentedPool:        {"VK_ERROR_FRAGMENTED_POOL", "A pool allocation has failed due to fragmentation"},
	vk.ErrorSurfaceLost:           {"VK_ERROR_SURFACE_LOST_KHR", "A surface is no longer available"},
	vk.ErrorNativeWindowInUse:     {"VK_ERROR_NATIVE_WINDOW_IN_USE_KHR", "The requested window is already in use"},
	vk.ErrorOutOfDate:             {"VK_ERROR_OUT_OF_DATE_KHR", "The surface changed and the swapchain must be recreated"},
	vk.ErrorIncompatibleDisplay:   {"VK_ERROR_INCOMPATIBLE_DISPLAY_KHR", "The display is incompatible with the swapchain"},
	vk.ErrorInvalidShaderNv:       {"VK_ERROR_INVALID_SHADER_NV", "One or more shaders failed to compile or link"},
	vk.ErrorOutOfPoolMemory:       {"VK_ERROR_OUT_OF_POOL_MEMORY", "A pool memory allocation has failed"},
	vk.ErrorInvalidExternalHandle: {"VK_ERROR_INVALID_EXTERNAL_HANDLE", "An external handle is not a valid handle of the specified type"},
	vk.ErrorFragmentation:         {"VK_ERROR_FRAGMENTATION", "A descriptor pool creation has failed due to fragmentation"},
	vk.ErrorUnknown:               {"VK_ERROR_UNKNOWN", "An unknown error has occurred"},
}

func VulkanResultString(result vk.Result, getExtended bool) string {
	info, ok := resultTable[result]
	if !ok {
		info = resultTable[vk.ErrorUnknown]
	}
	return ConditionalOperator(!getExtended, info.name, info.name+" "+info.description)
}

// VulkanResultIsSuccess reports the non-negative result codes.
func VulkanResultIsSuccess(result vk.Result) bool {
	return result >= vk.Success
}

// ResultError maps a Vulkan result to the engine error taxonomy. Success maps
// to nil. Out-of-date and suboptimal surfaces become core.ErrSurfaceStale so
// the frame loop can recover; anything else is left for the caller to treat
// as fatal.
func ResultError(op string, result vk.Result) error {
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return pkgerrors.Wrapf(core.ErrSurfaceStale, "%s: %s", op, VulkanResultString(result, false))
	case vk.ErrorDeviceLost:
		return pkgerrors.Wrapf(core.ErrDeviceLost, "%s: %s", op, VulkanResultString(result, false))
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfPoolMemory:
		return pkgerrors.Wrapf(core.ErrOutOfMemory, "%s: %s", op, VulkanResultString(result, false))
	case vk.ErrorExtensionNotPresent:
		return pkgerrors.Wrapf(core.ErrMissingExtension, "%s: %s", op, VulkanResultString(result, false))
	case vk.ErrorLayerNotPresent:
		return pkgerrors.Wrapf(core.ErrMissingLayer, "%s: %s", op, VulkanResultString(result, false))
	}
	if _, ok := resultTable[result]; !ok || result == vk.ErrorUnknown {
		return pkgerrors.Wrapf(core.ErrUnknown, "%s: result %d", op, int32(result))
	}
	return pkgerrors.Errorf("%s failed with %s", op, VulkanResultString(result, true))
}

func ConditionalOperator(condition bool, res1, res2 string) string {
	if condition {
		return res1
	}
	return res2
}

const endChar byte = '\x00'

// VulkanSafeString returns s terminated by a single NUL, as the C side expects.
func VulkanSafeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != endChar {
		return s + string(endChar)
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = VulkanSafeString(list[i])
	}
	return out
}

// FindFirstZeroInByteArray returns the index of the first NUL, or len(arr)
// when there is none.
func FindFirstZeroInByteArray(arr []byte) int {
	for i, b := range arr {
		if b == 0 {
			return i
		}
	}
	return len(arr)
}

// CString decodes a fixed-size, NUL-padded name array such as
// LayerProperties.LayerName.
func CString(arr []byte) string {
	return string(arr[:FindFirstZeroInByteArray(arr)])
}
