package scene

import (
	"github.com/achilleasa/heartglow/asset/model"
	"github.com/go-gl/mathgl/mgl32"
)

// A physically based material using the metallic/roughness workflow.
type PBRMetallicRoughnessMaterial struct {
	Name string

	BaseColor mgl32.Vec3
	Alpha     float32

	Metallic  float32
	Roughness float32
}

// NewPBRMetallicRoughnessMaterial returns a material with the glTF defaults:
// white base color, fully metallic and fully rough.
func NewPBRMetallicRoughnessMaterial(name string) *PBRMetallicRoughnessMaterial {
	return &PBRMetallicRoughnessMaterial{
		Name:      name,
		BaseColor: mgl32.Vec3{1, 1, 1},
		Alpha:     1,
		Metallic:  1,
		Roughness: 1,
	}
}

func materialFromModel(src *model.Material) *PBRMetallicRoughnessMaterial {
	if src == nil {
		return nil
	}
	return &PBRMetallicRoughnessMaterial{
		Name:      src.Name,
		BaseColor: mgl32.Vec3{src.BaseColor[0], src.BaseColor[1], src.BaseColor[2]},
		Alpha:     src.BaseColor[3],
		Metallic:  src.Metallic,
		Roughness: src.Roughness,
	}
}
