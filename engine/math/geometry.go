package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rebound/engine/core"
)

var (
	checkerLight = mgl32.Vec3{1.0, 1.0, 1.0}
	checkerDark  = mgl32.Vec3{0.1, 0.1, 0.1}
)

/**
 * @brief Generates a UV sphere centred on the origin, coloured as a checkerboard
 * over the stack/sector grid. Every ring carries sectors+1 vertices so the seam
 * is duplicated, and the degenerate pole triangles are skipped.
 *
 * @param radius The sphere radius. Must be > 0.
 * @param sectors Number of longitude subdivisions. Must be >= 3.
 * @param stacks Number of latitude subdivisions. Must be >= 2.
 * @return The vertices and indices, both empty if the parameters are invalid.
 */
func GeometryGenerateSphere(radius float32, sectors, stacks int) ([]Vertex3D, []uint32) {
	if radius <= 0 || sectors < 3 || stacks < 2 {
		core.LogWarn("invalid sphere parameters (radius=%f, sectors=%d, stacks=%d)", radius, sectors, stacks)
		return []Vertex3D{}, []uint32{}
	}

	sectorStep := 2.0 * gomath.Pi / float64(sectors)
	stackStep := gomath.Pi / float64(stacks)

	vertices := make([]Vertex3D, 0, (stacks+1)*(sectors+1))
	for i := 0; i <= stacks; i++ {
		stackAngle := gomath.Pi/2.0 - float64(i)*stackStep
		xy := float64(radius) * gomath.Cos(stackAngle)
		z := float32(float64(radius) * gomath.Sin(stackAngle))

		for j := 0; j <= sectors; j++ {
			sectorAngle := float64(j) * sectorStep
			x := float32(xy * gomath.Cos(sectorAngle))
			y := float32(xy * gomath.Sin(sectorAngle))

			colour := checkerDark
			if (i%2 == 0) != (j%2 == 0) {
				colour = checkerLight
			}
			// z is the pole axis here, swap it into Y so the poles point up.
			position := mgl32.Vec3{x, z, y}
			vertices = append(vertices, Vertex3D{
				Position: position,
				Normal:   position.Mul(1.0 / radius),
				Colour:   colour,
			})
		}
	}

	indices := make([]uint32, 0, 6*sectors*(stacks-1))
	for i := 0; i < stacks; i++ {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors) + 1
		for j := 0; j < sectors; j, k1, k2 = j+1, k1+1, k2+1 {
			if i != 0 {
				indices = append(indices, k1, k2, k1+1)
			}
			if i != stacks-1 {
				indices = append(indices, k1+1, k2, k2+1)
			}
		}
	}
	return vertices, indices
}

func GeometryGenerateNormals(vertices []Vertex3D, indices []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		edge1 := vertices[i1].Position.Sub(vertices[i0].Position)
		edge2 := vertices[i2].Position.Sub(vertices[i0].Position)

		c := edge1.Cross(edge2)
		if c.Len() < K_FLOAT_EPSILON {
			continue
		}
		normal := c.Normalize()

		// NOTE: This just generates a face normal. Smoothing out should be done in a separate pass if desired.
		vertices[i0].Normal = normal
		vertices[i1].Normal = normal
		vertices[i2].Normal = normal
	}
}
