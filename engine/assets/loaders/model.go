package loaders

import (
	"bytes"
	"errors"
	"io"
	gomath "math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

// ModelParams are the optional load parameters of a ModelLoader.
type ModelParams struct {
	Scale float32
}

type ModelLoader struct{}

func (ml *ModelLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	scale := float32(1)
	if p, ok := params.(*ModelParams); ok && p != nil && p.Scale != 0 {
		scale = p.Scale
	}
	mesh, err := LoadOBJ(path, scale)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeModel,
		Name:     mesh.Name,
		FullPath: path,
		DataSize: uint64(len(mesh.Vertices))*uint64(metadata.VertexStride) + uint64(len(mesh.Indices))*uint64(metadata.IndexSize),
		Data:     mesh,
	}, nil
}

func (ml *ModelLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// LoadOBJ reads a Wavefront OBJ file from disk. A material library with the
// same base name next to it, when present, supplies the diffuse colours.
func LoadOBJ(path string, scale float32) (*metadata.MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(core.ErrInvalidModel, "open %s: %v", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var mtl io.Reader = bytes.NewReader(nil)
	mtlFile, err := os.Open(filepath.Join(filepath.Dir(path), name+".mtl"))
	switch {
	case err == nil:
		defer mtlFile.Close()
		mtl = mtlFile
	case !errors.Is(err, os.ErrNotExist):
		return nil, pkgerrors.Wrapf(core.ErrInvalidModel, "open material library: %v", err)
	}

	mesh, err := ParseOBJ(f, mtl, name, scale)
	if err != nil {
		return nil, pkgerrors.Wrap(err, path)
	}
	return mesh, nil
}

/**
 * @brief Decodes OBJ text into an un-indexed triangle list: every triangle
 * contributes three fresh vertices and sequential indices. Polygons are fan
 * triangulated. The vertex colour is the diffuse colour of the face material
 * when mtl defines one, white otherwise; usemtl must follow an o or g line.
 * Normals come from `vn` when the face references one, otherwise the flat
 * normal of the triangle is used.
 */
func ParseOBJ(r io.Reader, mtl io.Reader, name string, scale float32) (*metadata.MeshData, error) {
	if mtl == nil {
		// a nil reader makes the decoder fall back to its default material
		mtl = bytes.NewReader(nil)
	}
	dec, err := obj.DecodeReader(r, mtl)
	if err != nil {
		return nil, pkgerrors.Wrapf(core.ErrInvalidModel, "decode: %v", err)
	}

	positionCount := len(dec.Vertices) / 3
	normalCount := len(dec.Normals) / 3

	mesh := &metadata.MeshData{Name: name}
	var explicit []bool
	for _, o := range dec.Objects {
		for f, face := range o.Faces {
			colour := faceColour(dec, face.Material)
			for i := 2; i < len(face.Vertices); i++ {
				for _, corner := range [3]int{0, i - 1, i} {
					p := face.Vertices[corner]
					if p < 0 || p >= positionCount {
						return nil, pkgerrors.Wrapf(core.ErrInvalidModel, "object %q face %d: vertex index %d out of range", o.Name, f, p)
					}
					vertex := math.Vertex3D{
						Position: mgl32.Vec3{dec.Vertices[3*p], dec.Vertices[3*p+1], dec.Vertices[3*p+2]}.Mul(scale),
						Normal:   mgl32.Vec3{0, 1, 0},
						Colour:   colour,
					}

					hasNormal := false
					if corner < len(face.Normals) && !isAbsentIndex(face.Normals[corner]) {
						n := face.Normals[corner]
						if n < 0 || n >= normalCount {
							return nil, pkgerrors.Wrapf(core.ErrInvalidModel, "object %q face %d: normal index %d out of range", o.Name, f, n)
						}
						vertex.Normal = mgl32.Vec3{dec.Normals[3*n], dec.Normals[3*n+1], dec.Normals[3*n+2]}
						hasNormal = true
					}

					explicit = append(explicit, hasNormal)
					mesh.Indices = append(mesh.Indices, uint32(len(mesh.Vertices)))
					mesh.Vertices = append(mesh.Vertices, vertex)
				}
			}
		}
	}

	// Every vertex belongs to exactly one triangle, so the face normals can be
	// computed on a copy and taken only where the file gave none. Degenerate
	// triangles keep the up vector.
	flat := slices.Clone(mesh.Vertices)
	math.GeometryGenerateNormals(flat, mesh.Indices)
	for i, ok := range explicit {
		if !ok {
			mesh.Vertices[i].Normal = flat[i].Normal
		}
	}
	core.LogDebug("parsed model %s: %d vertices, %d indices", name, len(mesh.Vertices), len(mesh.Indices))
	return mesh, nil
}

// faceColour is the diffuse colour of the material. The decoder registers a
// zero material for every usemtl name, so a black diffuse counts as unset.
func faceColour(dec *obj.Decoder, material string) mgl32.Vec3 {
	if m, ok := dec.Materials[material]; ok && m != nil {
		c := mgl32.Vec3{m.Diffuse.R, m.Diffuse.G, m.Diffuse.B}
		if c != (mgl32.Vec3{}) {
			return c
		}
	}
	return mgl32.Vec3{1, 1, 1}
}

// The decoder marks a corner without a normal with an out of range sentinel.
func isAbsentIndex(i int) bool {
	return int64(i) >= gomath.MaxUint32
}
