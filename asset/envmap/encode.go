package envmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
)

// FaceFunc returns the image for a cube face at a mip level. Level 0 images
// are width x width pixels and each subsequent level halves the size.
type FaceFunc func(level, face int) image.Image

// Encode writes an environment texture container. Face images are stored as
// PNG; callers are expected to provide RGBD encoded pixels (see RGBD).
func Encode(w io.Writer, width int, irradiance map[string][3]float32, faces FaceFunc) error {
	if width <= 0 || width&(width-1) != 0 {
		return fmt.Errorf("%w: width %d is not a power of two", ErrBadManifest, width)
	}

	var m manifest
	m.Version = 1
	m.Width = width
	m.ImageType = "image/png"
	m.Irradiance = irradiance
	m.Specular.LodGenerationScale = 0.8

	var blobs bytes.Buffer
	levels := levelsForWidth(width)
	for level := 0; level < levels; level++ {
		for face := 0; face < FacesPerLevel; face++ {
			start := blobs.Len()
			if err := png.Encode(&blobs, faces(level, face)); err != nil {
				return err
			}
			m.Specular.Mipmaps = append(m.Specular.Mipmaps, Mipmap{
				Position: start,
				Length:   blobs.Len() - start,
			})
		}
	}

	manifestData, err := json.Marshal(m)
	if err != nil {
		return err
	}

	for _, chunk := range [][]byte{magic[:], manifestData, {0}, blobs.Bytes()} {
		if _, err = w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Uniform returns a FaceFunc producing a constant radiance environment.
func Uniform(width int, rgb [3]float32) FaceFunc {
	c := RGBD(rgb)
	return func(level, _ int) image.Image {
		size := width >> uint(level)
		if size < 1 {
			size = 1
		}
		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
		}
		return img
	}
}
