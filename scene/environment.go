package scene

import (
	"github.com/achilleasa/heartglow/asset/envmap"
	"github.com/go-gl/mathgl/mgl32"
)

// A Skybox renders an environment texture as the scene background.
type Skybox struct {
	Texture *envmap.Texture
	Size    float32
	Blur    float32

	// Mean radiance of the mip level selected by Blur.
	Tint mgl32.Vec3
}

// NewSkybox creates a skybox and precomputes its tint.
func NewSkybox(tex *envmap.Texture, size, blur float32) (*Skybox, error) {
	tint, err := tex.AverageColor(tex.LevelForBlur(blur))
	if err != nil {
		return nil, err
	}

	return &Skybox{
		Texture: tex,
		Size:    size,
		Blur:    blur,
		Tint:    mgl32.Vec3(tint),
	}, nil
}
