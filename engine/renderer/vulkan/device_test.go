package vulkan

import (
	"reflect"
	"testing"

	vk "github.com/goki/vulkan"
)

var (
	graphics = vk.QueueFlags(vk.QueueGraphicsBit)
	compute  = vk.QueueFlags(vk.QueueComputeBit)
)

func TestFindQueueFamilies(t *testing.T) {
	tests := []struct {
		name           string
		flags          []vk.QueueFlags
		present        []bool
		graphics       int32
		presentFamily  int32
		uniqueFamilies []uint32
	}{
		{"shared family", []vk.QueueFlags{graphics | compute}, []bool{true}, 0, 0, []uint32{0}},
		{"prefer graphics for present", []vk.QueueFlags{compute, graphics}, []bool{true, true}, 1, 1, []uint32{1}},
		{"separate families", []vk.QueueFlags{graphics, compute}, []bool{false, true}, 0, 1, []uint32{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := FindQueueFamilies(tt.flags, tt.present)
			if info.GraphicsFamilyIndex != tt.graphics || info.PresentFamilyIndex != tt.presentFamily {
				t.Fatalf("families = %+v", info)
			}
			if !info.Complete() {
				t.Error("expected complete queue families")
			}
			if got := info.UniqueFamilies(); !reflect.DeepEqual(got, tt.uniqueFamilies) {
				t.Errorf("UniqueFamilies = %v, want %v", got, tt.uniqueFamilies)
			}
		})
	}
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	if info := FindQueueFamilies([]vk.QueueFlags{compute}, []bool{true}); info.Complete() || info.GraphicsFamilyIndex != -1 {
		t.Errorf("no graphics family: %+v", info)
	}
	if info := FindQueueFamilies([]vk.QueueFlags{graphics}, []bool{false}); info.Complete() || info.PresentFamilyIndex != -1 {
		t.Errorf("no present family: %+v", info)
	}
}

func TestRequiredInstanceExtensions(t *testing.T) {
	got := RequiredInstanceExtensions([]string{"VK_KHR_surface", "VK_KHR_xcb_surface"}, true, "linux")
	want := []string{"VK_KHR_surface", "VK_KHR_xcb_surface", "VK_EXT_debug_report"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("linux with validation = %v, want %v", got, want)
	}

	got = RequiredInstanceExtensions([]string{"VK_EXT_metal_surface"}, false, "darwin")
	want = []string{"VK_KHR_surface", "VK_EXT_metal_surface", "VK_KHR_portability_enumeration", "VK_KHR_get_physical_device_properties2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("darwin without validation = %v, want %v", got, want)
	}
}

func TestMissingNames(t *testing.T) {
	available := []string{"VK_LAYER_KHRONOS_validation", "VK_LAYER_MESA_overlay"}
	if got := MissingNames([]string{validationLayerName}, available); len(got) != 0 {
		t.Errorf("MissingNames = %v, want none", got)
	}
	if got := MissingNames([]string{validationLayerName, "VK_LAYER_other"}, nil); !reflect.DeepEqual(got, []string{validationLayerName, "VK_LAYER_other"}) {
		t.Errorf("MissingNames = %v", got)
	}
}

func TestSelectMemoryType(t *testing.T) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	coherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	deviceLocal := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	types := []vk.MemoryPropertyFlags{deviceLocal, hostVisible, hostVisible | coherent}

	if i, ok := SelectMemoryType(types, 0b111, hostVisible|coherent); !ok || i != 2 {
		t.Errorf("host coherent = %d, %v; want 2", i, ok)
	}
	if i, ok := SelectMemoryType(types, 0b110, hostVisible); !ok || i != 1 {
		t.Errorf("host visible = %d, %v; want 1", i, ok)
	}
	if _, ok := SelectMemoryType(types, 0b001, hostVisible); ok {
		t.Error("filter excludes every host visible type")
	}
}
