package scene

import (
	"github.com/achilleasa/heartglow/asset/model"
	"github.com/go-gl/mathgl/mgl32"
)

// A Mesh is a renderable triangle list. Geometry slices are shared with the
// imported model and must be treated as read-only.
type Mesh struct {
	Name string

	Positions [][3]float32
	Normals   [][3]float32
	Indices   []uint32

	Transform mgl32.Mat4
	Material  *PBRMetallicRoughnessMaterial
}

func meshFromModel(src *model.Mesh) *Mesh {
	return &Mesh{
		Name:      src.Name,
		Positions: src.Positions,
		Normals:   src.Normals,
		Indices:   src.Indices,
		Transform: src.Transform,
		Material:  materialFromModel(src.Material),
	}
}
