package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

// DebugCallback receives validation messages at or above the configured
// severity.
type DebugCallback func(severity metadata.DebugSeverity, layer string, code int32, message string)

type DebugOptions struct {
	EnableValidation bool
	SeverityFilter   metadata.DebugSeverity
	// Callback defaults to forwarding into the engine log.
	Callback DebugCallback
}

func LogDebugCallback(severity metadata.DebugSeverity, layer string, code int32, message string) {
	switch severity {
	case metadata.DebugSeverityError:
		core.LogError("ERROR: [%s] Code %d : %s", layer, code, message)
	case metadata.DebugSeverityWarning:
		core.LogWarn("WARNING: [%s] Code %d : %s", layer, code, message)
	case metadata.DebugSeverityInfo:
		core.LogInfo("INFORMATION: [%s] Code %d : %s", layer, code, message)
	default:
		core.LogDebug("DEBUG: [%s] Code %d : %s", layer, code, message)
	}
}

// DebugReportFlagsFor returns the report flags that cover severity and
// everything more severe.
func DebugReportFlagsFor(severity metadata.DebugSeverity) vk.DebugReportFlags {
	flags := vk.DebugReportFlags(vk.DebugReportErrorBit)
	if severity >= metadata.DebugSeverityWarning {
		flags |= vk.DebugReportFlags(vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit)
	}
	if severity >= metadata.DebugSeverityInfo {
		flags |= vk.DebugReportFlags(vk.DebugReportInformationBit)
	}
	if severity >= metadata.DebugSeverityVerbose {
		flags |= vk.DebugReportFlags(vk.DebugReportDebugBit)
	}
	return flags
}

// SeverityOf picks the most severe bit present in flags.
func SeverityOf(flags vk.DebugReportFlags) metadata.DebugSeverity {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return metadata.DebugSeverityError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return metadata.DebugSeverityWarning
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return metadata.DebugSeverityInfo
	}
	return metadata.DebugSeverityVerbose
}

// reportFunc adapts the options into the function the loader calls back. It
// closes over the options so no package state is needed.
func (o DebugOptions) reportFunc() vk.DebugReportCallbackFunc {
	callback := o.Callback
	if callback == nil {
		callback = LogDebugCallback
	}
	filter := o.SeverityFilter
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
		severity := SeverityOf(flags)
		if severity <= filter {
			callback(severity, pLayerPrefix, messageCode, pMessage)
		}
		return vk.Bool32(vk.False)
	}
}

func (vc *VulkanContext) createDebugCallback() error {
	core.LogDebug("Creating Vulkan debugger...")
	debugCreateInfo := vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       DebugReportFlagsFor(vc.debug.SeverityFilter),
		PfnCallback: vc.debug.reportFunc(),
		PNext:       nil,
	}

	var dbg vk.DebugReportCallback
	if err := ResultError("vkCreateDebugReportCallback", vk.CreateDebugReportCallback(vc.Instance, &debugCreateInfo, vc.Allocator, &dbg)); err != nil {
		return err
	}
	vc.debugCallback = dbg
	core.LogDebug("Vulkan debugger created.")
	return nil
}

func (vc *VulkanContext) destroyDebugCallback() {
	if vc.debugCallback != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugCallback, vc.Allocator)
		vc.debugCallback = vk.NullDebugReportCallback
	}
}
