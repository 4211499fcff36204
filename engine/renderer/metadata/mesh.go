package metadata

import (
	"unsafe"

	"github.com/spaghettifunk/rebound/engine/math"
)

// Vertex input layout, shared with shaders/shader.vert.
const (
	VertexStride         = uint32(unsafe.Sizeof(math.Vertex3D{}))
	VertexPositionOffset = uint32(unsafe.Offsetof(math.Vertex3D{}.Position))
	VertexNormalOffset   = uint32(unsafe.Offsetof(math.Vertex3D{}.Normal))
	VertexColourOffset   = uint32(unsafe.Offsetof(math.Vertex3D{}.Colour))
	IndexSize            = uint32(unsafe.Sizeof(uint32(0)))
)

/**
 * @brief A fully resolved mesh as consumed by the renderer: one vertex array
 * and one triangle-list index array.
 */
type MeshData struct {
	Name     string
	Vertices []math.Vertex3D
	Indices  []uint32
}

func (m *MeshData) VertexCount() uint32 {
	if m == nil {
		return 0
	}
	return uint32(len(m.Vertices))
}

func (m *MeshData) IndexCount() uint32 {
	if m == nil {
		return 0
	}
	return uint32(len(m.Indices))
}

// VertexBytes returns the raw vertex data. An empty mesh yields one zeroed
// vertex so buffer creation never sees a zero size.
func (m *MeshData) VertexBytes() []byte {
	if m.VertexCount() == 0 {
		return make([]byte, VertexStride)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Vertices[0])), len(m.Vertices)*int(VertexStride))
}

// IndexBytes is the index counterpart of VertexBytes.
func (m *MeshData) IndexBytes() []byte {
	if m.IndexCount() == 0 {
		return make([]byte, IndexSize)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&m.Indices[0])), len(m.Indices)*int(IndexSize))
}
