package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

const quadOBJ = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
f 1/1 2/1 3/1 4/1
`

func TestParseOBJFanTriangulation(t *testing.T) {
	mesh, err := ParseOBJ(strings.NewReader(quadOBJ), nil, "quad", 1)
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if mesh.VertexCount() != 6 || mesh.IndexCount() != 6 {
		t.Fatalf("got %d vertices, %d indices, want 6 and 6", mesh.VertexCount(), mesh.IndexCount())
	}
	for i, idx := range mesh.Indices {
		if idx != uint32(i) {
			t.Errorf("index %d = %d, want sequential", i, idx)
		}
	}
	// Second triangle is 1 3 4.
	if got := mesh.Vertices[5].Position; got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("last vertex position = %v", got)
	}
	if got := mesh.Vertices[0].Colour; got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("default colour = %v, want white", got)
	}
	for i, v := range mesh.Vertices {
		if !v.Normal.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
			t.Errorf("vertex %d flat normal = %v, want +z", i, v.Normal)
		}
	}
}

func TestParseOBJFaceForms(t *testing.T) {
	src := `v 0 0 0
v 2 0 0
v 0 2 0
vn 0 1 0
vt 0 0
f 1//1 2//1 3//1
f 1/1/1 2/1/1 3/1/1
f -3 -2 -1
`
	mesh, err := ParseOBJ(strings.NewReader(src), nil, "forms", 0.5)
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if mesh.IndexCount() != 9 {
		t.Fatalf("index count = %d, want 9", mesh.IndexCount())
	}
	if got := mesh.Vertices[1].Position; got != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("scaled position = %v, want (1,0,0)", got)
	}
	if got := mesh.Vertices[0].Normal; got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("explicit normal = %v", got)
	}
	if got := mesh.Vertices[8].Position; got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("negative index position = %v", got)
	}
	if got := mesh.Vertices[8].Normal; !got.ApproxEqual(mgl32.Vec3{0, 0, 1}) {
		t.Errorf("fallback flat normal = %v", got)
	}
}

func TestParseOBJMaterialColour(t *testing.T) {
	src := `o tri
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
usemtl red
f 1 2 3
f 2 4 3
`
	mtl := `newmtl red
Kd 1 0 0
`
	mesh, err := ParseOBJ(strings.NewReader(src), strings.NewReader(mtl), "coloured", 1)
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if mesh.VertexCount() != 6 {
		t.Fatalf("vertex count = %d, want 6", mesh.VertexCount())
	}
	for i, v := range mesh.Vertices {
		if !v.Colour.ApproxEqual(mgl32.Vec3{1, 0, 0}) {
			t.Errorf("vertex %d colour = %v, want the diffuse red", i, v.Colour)
		}
	}
}

func TestParseOBJInvalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad float", "v 0 x 0\n"},
		{"short vertex", "v 0 0\n"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"out of range", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 4\n"},
		{"missing normal", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1//1 2//1 3//1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tt.src), nil, tt.name, 1)
			if !errors.Is(err, core.ErrInvalidModel) {
				t.Fatalf("err = %v, want ErrInvalidModel", err)
			}
		})
	}
}

func TestParseOBJEmpty(t *testing.T) {
	mesh, err := ParseOBJ(strings.NewReader("# nothing\n"), nil, "empty", 1)
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if mesh.IndexCount() != 0 {
		t.Errorf("index count = %d, want 0", mesh.IndexCount())
	}
}

func TestModelLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := &ModelLoader{}
	res, err := loader.Load(path, metadata.ResourceTypeModel, &ModelParams{Scale: 2})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mesh, ok := res.Data.(*metadata.MeshData)
	if !ok {
		t.Fatalf("resource data is %T", res.Data)
	}
	if mesh.Name != "quad" || res.Name != "quad" {
		t.Errorf("name = %q / %q, want quad", mesh.Name, res.Name)
	}
	if got := mesh.Vertices[1].Position; got != (mgl32.Vec3{2, 0, 0}) {
		t.Errorf("scaled position = %v", got)
	}
	if want := uint64(6*metadata.VertexStride + 6*metadata.IndexSize); res.DataSize != want {
		t.Errorf("data size = %d, want %d", res.DataSize, want)
	}
	// a sibling material library is picked up by base name
	mtlPath := filepath.Join(filepath.Dir(path), "quad.mtl")
	if err := os.WriteFile(mtlPath, []byte("newmtl skin\nKd 0 1 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Replace(quadOBJ, "o quad\n", "o quad\nusemtl skin\n", 1)), 0o644); err != nil {
		t.Fatal(err)
	}
	green, err := LoadOBJ(path, 1)
	if err != nil {
		t.Fatalf("LoadOBJ: %v", err)
	}
	if got := green.Vertices[0].Colour; !got.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
		t.Errorf("material colour = %v, want green", got)
	}

	if err := loader.Unload(res); err != nil || res.Data != nil {
		t.Errorf("Unload left data %v, err %v", res.Data, err)
	}

	if _, err := LoadOBJ(filepath.Join(t.TempDir(), "missing.obj"), 1); !errors.Is(err, core.ErrInvalidModel) {
		t.Errorf("missing file err = %v", err)
	}
}
