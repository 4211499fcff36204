package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

func TestVertexAttributes(t *testing.T) {
	attributes := VertexAttributes()
	wantOffsets := []uint32{0, 12, 24}
	if len(attributes) != len(wantOffsets) {
		t.Fatalf("got %d attributes", len(attributes))
	}
	for i, a := range attributes {
		if a.Location != uint32(i) || a.Binding != 0 || a.Format != vk.FormatR32g32b32Sfloat {
			t.Errorf("attribute %d = %+v", i, a)
		}
		if a.Offset != wantOffsets[i] {
			t.Errorf("attribute %d offset = %d, want %d", i, a.Offset, wantOffsets[i])
		}
	}
}

func TestDefaultPipelineConfig(t *testing.T) {
	config := DefaultPipelineConfig(&VulkanRenderpass{}, nil, nil)
	if config.Stride != metadata.VertexStride || config.Stride != 36 {
		t.Errorf("stride = %d", config.Stride)
	}
	if config.CullMode != vk.CullModeBackBit || config.IsWireframe {
		t.Errorf("raster state = cull %d wireframe %v", config.CullMode, config.IsWireframe)
	}
	if !config.DepthTest || !config.DepthWrite {
		t.Error("depth test and write must be on")
	}
}
