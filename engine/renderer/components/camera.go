package components

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

/**
 * @brief A fixed look-at camera with a perspective projection. The view
 * matrix is cached and only rebuilt when the camera moves.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3

	FovRadians float32
	NearClip   float32
	FarClip    float32

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix mgl32.Mat4
}

/** @brief The default field of view, in degrees. */
const DEFAULT_CAMERA_FOV float32 = 45.0

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Position = mgl32.Vec3{0, 0, 5}
	c.Target = mgl32.Vec3{}
	c.Up = mgl32.Vec3{0, 1, 0}
	c.FovRadians = math.DegToRad(DEFAULT_CAMERA_FOV)
	c.NearClip = 0.1
	c.FarClip = 10.0
	c.IsDirty = true
	c.ViewMatrix = mgl32.Ident4()
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) LookAt(target, up mgl32.Vec3) {
	c.Target = target
	c.Up = up
	c.IsDirty = true
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

// GetProjection returns the projection for the given extent with the Y axis
// already flipped for Vulkan clip space.
func (c *Camera) GetProjection(extent metadata.Extent2D) mgl32.Mat4 {
	aspect := math.AspectRatio(extent.Width, extent.Height)
	return math.FlipY(math.NewMat4Perspective(c.FovRadians, aspect, c.NearClip, c.FarClip))
}

// Uniforms assembles the per-frame uniform block for one draw.
func (c *Camera) Uniforms(model mgl32.Mat4, extent metadata.Extent2D) metadata.UniformBufferObject {
	return metadata.UniformBufferObject{
		Model:      model,
		View:       c.GetView(),
		Projection: c.GetProjection(extent),
	}
}
