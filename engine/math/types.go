package math

import "github.com/go-gl/mathgl/mgl32"

const (
	K_PI            float32 = 3.14159265358979323846
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

/**
 * @brief Represents a single vertex in 3D space. The layout is shared with the
 * vertex shader input, so field order and types must not change.
 */
type Vertex3D struct {
	/** @brief The position of the vertex */
	Position mgl32.Vec3
	/** @brief The normal of the vertex. */
	Normal mgl32.Vec3
	/** @brief The colour of the vertex. */
	Colour mgl32.Vec3
}

func DegToRad(degrees float32) float32 {
	return degrees * K_PI / 180.0
}
