package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

/**
 * @brief Creates and returns a right-handed perspective matrix with a depth
 * range of [0, 1], as expected by Vulkan. The vertical axis is left in the
 * OpenGL convention; see FlipY.
 *
 * @param fov_radians The vertical field of view in radians.
 * @param aspect_ratio The aspect ratio.
 * @param near_clip The near clipping plane distance.
 * @param far_clip The far clipping plane distance.
 * @return A new perspective matrix.
 */
func NewMat4Perspective(fov_radians, aspect_ratio, near_clip, far_clip float32) mgl32.Mat4 {
	half_tan_fov := float32(gomath.Tan(float64(fov_radians) * 0.5))
	out_matrix := mgl32.Mat4{}
	out_matrix[0] = 1.0 / (aspect_ratio * half_tan_fov)
	out_matrix[5] = 1.0 / half_tan_fov
	out_matrix[10] = far_clip / (near_clip - far_clip)
	out_matrix[11] = -1.0
	out_matrix[14] = -(far_clip * near_clip) / (far_clip - near_clip)
	return out_matrix
}

// FlipY negates element [1][1] so clip space Y points down like Vulkan's.
func FlipY(projection mgl32.Mat4) mgl32.Mat4 {
	projection[5] *= -1
	return projection
}

/**
 * @brief Creates and returns a look-at matrix, or a matrix looking
 * at target from the perspective of position.
 */
func NewMat4LookAt(position, target, up mgl32.Vec3) mgl32.Mat4 {
	return mgl32.LookAtV(position, target, up)
}

func NewMat4Translation(position mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(position.X(), position.Y(), position.Z())
}

// AspectRatio guards against a zero height while the window is minimized.
func AspectRatio(width, height uint32) float32 {
	if height == 0 {
		return 1.0
	}
	return float32(width) / float32(height)
}
