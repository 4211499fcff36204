package metadata

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/math"
)

func TestVertexLayout(t *testing.T) {
	if VertexStride != 36 {
		t.Fatalf("stride = %d, want 36", VertexStride)
	}
	if VertexPositionOffset != 0 || VertexNormalOffset != 12 || VertexColourOffset != 24 {
		t.Fatalf("offsets = %d/%d/%d", VertexPositionOffset, VertexNormalOffset, VertexColourOffset)
	}
	if UniformBufferObjectSize != 192 {
		t.Fatalf("uniform block = %d bytes, want 192", UniformBufferObjectSize)
	}
}

func TestEmptyMeshHasMinimumSizes(t *testing.T) {
	var m MeshData
	if got := len(m.VertexBytes()); got != int(VertexStride) {
		t.Fatalf("vertex bytes = %d", got)
	}
	if got := len(m.IndexBytes()); got != int(IndexSize) {
		t.Fatalf("index bytes = %d", got)
	}
	if m.IndexCount() != 0 || m.VertexCount() != 0 {
		t.Fatal("empty mesh reports content")
	}
	var nilMesh *MeshData
	if nilMesh.IndexCount() != 0 {
		t.Fatal("nil mesh reports indices")
	}
}

func TestMeshBytes(t *testing.T) {
	m := MeshData{
		Vertices: []math.Vertex3D{
			{Position: mgl32.Vec3{1, 2, 3}},
			{Position: mgl32.Vec3{4, 5, 6}},
		},
		Indices: []uint32{0, 1, 0},
	}
	if got := len(m.VertexBytes()); got != 2*36 {
		t.Fatalf("vertex bytes = %d", got)
	}
	if got := len(m.IndexBytes()); got != 12 {
		t.Fatalf("index bytes = %d", got)
	}
}

func TestUniformRoundTrip(t *testing.T) {
	ubo := UniformBufferObject{
		Model:      mgl32.Translate3D(1, -2, 3),
		View:       mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Perspective(0.8, 1.5, 0.1, 10),
	}
	mapped := make([]byte, UniformBufferObjectSize)
	if err := ubo.WriteTo(mapped); err != nil {
		t.Fatal(err)
	}
	got, err := ReadUniformBufferObject(mapped)
	if err != nil {
		t.Fatal(err)
	}
	if got != ubo {
		t.Fatalf("round trip changed the block:\n%v\n%v", got, ubo)
	}
	if err := ubo.WriteTo(mapped[:10]); err == nil {
		t.Fatal("short destination accepted")
	}
}

func TestUniformShortBuffer(t *testing.T) {
	type stackTracer interface {
		StackTrace() pkgerrors.StackTrace
	}
	short := make([]byte, UniformBufferObjectSize-1)
	tests := []struct {
		name string
		fn   func() error
	}{
		{"write", func() error {
			ubo := UniformBufferObject{}
			return ubo.WriteTo(short)
		}},
		{"read", func() error {
			_, err := ReadUniformBufferObject(short)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if err == nil {
				t.Fatal("short buffer accepted")
			}
			if _, ok := err.(stackTracer); !ok {
				t.Errorf("error %q carries no stack trace", err)
			}
		})
	}
}

func TestSurfaceDescriptionEquivalent(t *testing.T) {
	a := SurfaceDescription{Generation: 1, Extent: Extent2D{800, 600}, ColorFormat: 50, PresentMode: 1, ImageCount: 3}
	b := a
	b.Generation = 2
	if !a.Equivalent(b) {
		t.Fatal("generation must not affect equivalence")
	}
	b.Extent.Width = 640
	if a.Equivalent(b) {
		t.Fatal("different extents are not equivalent")
	}
}

func TestParseDebugSeverity(t *testing.T) {
	for _, s := range []string{"error", "warning", "info", "verbose"} {
		if got := ParseDebugSeverity(s).String(); got != s {
			t.Errorf("%s -> %s", s, got)
		}
	}
}
