package vulkan

import (
	"runtime"

	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

const validationLayerName = "VK_LAYER_KHRONOS_validation"

// RequiredInstanceExtensions merges the window system extensions with what
// the engine itself needs, without duplicates.
func RequiredInstanceExtensions(platformExtensions []string, validation bool, goos string) []string {
	required := []string{"VK_KHR_surface"}
	required = append(required, platformExtensions...)
	if goos == "darwin" {
		required = append(required,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}
	if validation {
		required = append(required, "VK_EXT_debug_report")
	}

	seen := make(map[string]struct{}, len(required))
	out := required[:0]
	for _, name := range required {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// MissingNames returns the entries of required that are absent from available.
func MissingNames(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, a := range available {
		have[a] = struct{}{}
	}
	var missing []string
	for _, r := range required {
		if _, ok := have[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

func availableInstanceLayers() ([]string, error) {
	var count uint32
	if err := ResultError("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, nil)); err != nil {
		return nil, err
	}
	layers := make([]vk.LayerProperties, count)
	if err := ResultError("vkEnumerateInstanceLayerProperties", vk.EnumerateInstanceLayerProperties(&count, layers)); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, CString(layers[i].LayerName[:]))
	}
	return names, nil
}

func (vc *VulkanContext) createInstance(appName string, platformExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Rebound Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}
	if runtime.GOOS == "darwin" {
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	requiredExtensions := RequiredInstanceExtensions(platformExtensions, vc.debug.EnableValidation, runtime.GOOS)
	core.LogInfo("Required extensions:")
	for _, name := range requiredExtensions {
		core.LogInfo(name)
	}
	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Layers are only requested, and only required, with validation on.
	var requiredLayers []string
	if vc.debug.EnableValidation {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredLayers = []string{validationLayerName}
		available, err := availableInstanceLayers()
		if err != nil {
			return err
		}
		if missing := MissingNames(requiredLayers, available); len(missing) > 0 {
			core.LogError("Required validation layer is missing: %s", missing[0])
			return pkgerrors.Wrap(core.ErrMissingLayer, missing[0])
		}
		core.LogInfo("All required validation layers are present.")
	}
	createInfo.EnabledLayerCount = uint32(len(requiredLayers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredLayers)

	if err := ResultError("vkCreateInstance", vk.CreateInstance(&createInfo, vc.Allocator, &vc.Instance)); err != nil {
		return err
	}
	if err := vk.InitInstance(vc.Instance); err != nil {
		return pkgerrors.Wrap(err, "vk.InitInstance")
	}
	core.LogInfo("Vulkan Instance created.")

	if vc.debug.EnableValidation {
		if err := vc.createDebugCallback(); err != nil {
			return err
		}
	}
	return nil
}

func (vc *VulkanContext) destroyInstance() {
	vc.destroyDebugCallback()
	if vc.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
}
