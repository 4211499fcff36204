package metadata

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	pkgerrors "github.com/pkg/errors"
)

/**
 * @brief The per-frame uniform block bound at set 0, binding 0 of the
 * vertex stage. Matrices are column-major and tightly packed, which matches
 * the std140 layout of three mat4 members.
 */
type UniformBufferObject struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

const UniformBufferObjectSize = uint64(unsafe.Sizeof(UniformBufferObject{}))

// WriteTo copies the block into dst, which is usually persistently mapped memory.
func (u *UniformBufferObject) WriteTo(dst []byte) error {
	if uint64(len(dst)) < UniformBufferObjectSize {
		return pkgerrors.Errorf("uniform destination holds %d bytes, need %d", len(dst), UniformBufferObjectSize)
	}
	copy(dst, unsafe.Slice((*byte)(unsafe.Pointer(u)), UniformBufferObjectSize))
	return nil
}

// ReadUniformBufferObject decodes a block previously written with WriteTo.
func ReadUniformBufferObject(src []byte) (UniformBufferObject, error) {
	var u UniformBufferObject
	if uint64(len(src)) < UniformBufferObjectSize {
		return u, pkgerrors.Errorf("uniform source holds %d bytes, need %d", len(src), UniformBufferObjectSize)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&u)), UniformBufferObjectSize), src)
	return u, nil
}
