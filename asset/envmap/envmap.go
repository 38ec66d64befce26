// Package envmap decodes prefiltered environment textures (.env files).
//
// An .env container starts with 8 magic bytes followed by a NUL terminated
// JSON manifest. The manifest lists the RGBD encoded images of each cube face
// for every specular mip level; image positions are relative to the byte that
// follows the manifest terminator.
package envmap

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"math/bits"
)

// Number of cube faces stored per mip level.
const FacesPerLevel = 6

var magic = [8]byte{0x86, 0x16, 0x87, 0x96, 0xf6, 0xd6, 0x96, 0x36}

var (
	ErrBadMagic       = errors.New("envmap: not a prefiltered environment texture")
	ErrBadManifest    = errors.New("envmap: malformed manifest")
	ErrUnsupportedImg = errors.New("envmap: unsupported image type")
)

// Mipmap locates one encoded face image.
type Mipmap struct {
	Position int `json:"position"`
	Length   int `json:"length"`
}

type manifest struct {
	Version    int                   `json:"version"`
	Width      int                   `json:"width"`
	ImageType  string                `json:"imageType"`
	Irradiance map[string][3]float32 `json:"irradiance"`
	Specular   struct {
		Mipmaps            []Mipmap `json:"mipmaps"`
		LodGenerationScale float32  `json:"lodGenerationScale"`
	} `json:"specular"`
}

// A Texture is a decoded environment container. Face images are decoded on
// demand.
type Texture struct {
	Name               string
	Version            int
	Width              int
	ImageType          string
	Irradiance         map[string][3]float32
	LodGenerationScale float32

	mipmaps []Mipmap
	data    []byte
}

// Decode parses an environment texture from r.
func Decode(name string, r io.Reader) (*Texture, error) {
	br := bufio.NewReader(r)

	var header [8]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMagic, err)
	}
	if header != magic {
		return nil, ErrBadMagic
	}

	manifestData, err := br.ReadBytes(0)
	if err != nil {
		return nil, fmt.Errorf("%w: missing terminator", ErrBadManifest)
	}

	var m manifest
	if err = json.Unmarshal(manifestData[:len(manifestData)-1], &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
	}

	if m.Version == 0 {
		m.Version = 1
	}
	if m.ImageType == "" {
		m.ImageType = "image/png"
	}
	if m.ImageType != "image/png" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImg, m.ImageType)
	}
	if m.Width <= 0 || m.Width&(m.Width-1) != 0 {
		return nil, fmt.Errorf("%w: width %d is not a power of two", ErrBadManifest, m.Width)
	}
	if expMips := levelsForWidth(m.Width) * FacesPerLevel; len(m.Specular.Mipmaps) != expMips {
		return nil, fmt.Errorf("%w: expected %d mipmap entries; got %d", ErrBadManifest, expMips, len(m.Specular.Mipmaps))
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	for index, mip := range m.Specular.Mipmaps {
		if mip.Position < 0 || mip.Length <= 0 || mip.Position > len(data) || mip.Length > len(data)-mip.Position {
			return nil, fmt.Errorf("%w: mipmap %d out of bounds", ErrBadManifest, index)
		}
	}

	return &Texture{
		Name:               name,
		Version:            m.Version,
		Width:              m.Width,
		ImageType:          m.ImageType,
		Irradiance:         m.Irradiance,
		LodGenerationScale: m.Specular.LodGenerationScale,
		mipmaps:            m.Specular.Mipmaps,
		data:               data,
	}, nil
}

func levelsForWidth(width int) int {
	return bits.Len(uint(width))
}

// Levels returns the number of specular mip levels.
func (t *Texture) Levels() int {
	return len(t.mipmaps) / FacesPerLevel
}

// Face decodes the RGBD image of a cube face at the given mip level.
func (t *Texture) Face(level, face int) (image.Image, error) {
	if level < 0 || level >= t.Levels() || face < 0 || face >= FacesPerLevel {
		return nil, fmt.Errorf("envmap: face %d at level %d out of range", face, level)
	}

	mip := t.mipmaps[level*FacesPerLevel+face]
	img, _, err := image.Decode(bytes.NewReader(t.data[mip.Position : mip.Position+mip.Length]))
	if err != nil {
		return nil, fmt.Errorf("envmap: could not decode face %d at level %d of %s: %w", face, level, t.Name, err)
	}
	return img, nil
}

// LevelForBlur maps a blur factor in [0, 1] to a mip level; 0 selects the
// sharpest level and 1 the smallest one.
func (t *Texture) LevelForBlur(blur float32) int {
	if blur <= 0 {
		return 0
	}
	if blur >= 1 {
		return t.Levels() - 1
	}
	return int(blur*float32(t.Levels()-1) + 0.5)
}

// AverageColor returns the mean linear radiance over all faces of a mip
// level, decoding RGBD pixels as rgb / d.
func (t *Texture) AverageColor(level int) ([3]float32, error) {
	var sum [3]float64
	var count float64
	for face := 0; face < FacesPerLevel; face++ {
		img, err := t.Face(level, face)
		if err != nil {
			return [3]float32{}, err
		}

		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgbd := fromRGBD(img.At(x, y))
				sum[0] += float64(rgbd[0])
				sum[1] += float64(rgbd[1])
				sum[2] += float64(rgbd[2])
				count++
			}
		}
	}

	if count == 0 {
		return [3]float32{}, nil
	}
	return [3]float32{
		float32(sum[0] / count),
		float32(sum[1] / count),
		float32(sum[2] / count),
	}, nil
}

// Ambient returns the constant term of the irradiance encoding. Both the
// spherical harmonics (l00) and the polynomial (x/y/z) forms are supported.
func (t *Texture) Ambient() [3]float32 {
	if l00, ok := t.Irradiance["l00"]; ok {
		return l00
	}

	xx, yy, zz := t.Irradiance["xx"], t.Irradiance["yy"], t.Irradiance["zz"]
	return [3]float32{
		(xx[0] + yy[0] + zz[0]) / 3,
		(xx[1] + yy[1] + zz[1]) / 3,
		(xx[2] + yy[2] + zz[2]) / 3,
	}
}
