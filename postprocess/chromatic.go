package postprocess

import (
	"image"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Per channel refraction offsets for red, green and blue.
var refractionIndices = [3]float32{-0.3, 0, 0.3}

// ChromaticAberration shifts the red and blue channels in opposite directions
// by an amount that grows with the distance from Centre.
type ChromaticAberration struct {
	// Maximum channel shift in pixels.
	Amount float32

	// Exponent applied to the distance from the centre; 0 shifts every
	// pixel equally.
	RadialIntensity float32

	// Direction of the shift. A zero vector shifts radially away from the
	// centre.
	Direction mgl32.Vec2

	// Centre of the effect in normalized screen coordinates.
	Centre mgl32.Vec2
}

// DefaultChromaticAberration returns the settings used when the effect is
// enabled without further configuration.
func DefaultChromaticAberration() ChromaticAberration {
	return ChromaticAberration{
		Amount:          30,
		RadialIntensity: 0,
		Direction:       mgl32.Vec2{0.707, 0.707},
		Centre:          mgl32.Vec2{0.5, 0.5},
	}
}

// Stage returns a pipeline stage applying the effect with the current
// settings.
func (ca ChromaticAberration) Stage() PipelineStage {
	return func(frame *image.RGBA) time.Duration {
		start := time.Now()
		ca.apply(frame)
		return time.Since(start)
	}
}

func (ca ChromaticAberration) apply(frame *image.RGBA) {
	if ca.Amount == 0 {
		return
	}

	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	src := make([]uint8, len(frame.Pix))
	copy(src, frame.Pix)

	sample := func(x, y float32, c int) uint8 {
		px := clampInt(int(math.Floor(float64(x))), 0, w-1)
		py := clampInt(int(math.Floor(float64(y))), 0, h-1)
		return src[py*frame.Stride+px*4+c]
	}

	for y := 0; y < h; y++ {
		v := (float32(y)+0.5)/float32(h) - ca.Centre[1]
		for x := 0; x < w; x++ {
			u := (float32(x)+0.5)/float32(w) - ca.Centre[0]

			dir := ca.Direction
			if dir[0] == 0 && dir[1] == 0 {
				dir = mgl32.Vec2{u, v}
				if dir.Len() > 0 {
					dir = dir.Normalize()
				}
			}

			radius := float32(math.Sqrt(float64(u*u + v*v)))
			shift := ca.Amount * float32(math.Pow(float64(radius), float64(ca.RadialIntensity)))
			shiftX, shiftY := shift*dir[0], shift*dir[1]

			off := y*frame.Stride + x*4
			for c := 0; c < 3; c++ {
				ref := refractionIndices[c]
				if ref == 0 {
					continue
				}
				// The vertical shift is halved; image rows grow downwards.
				sx := float32(x) + 0.5 + ref*shiftX
				sy := float32(y) + 0.5 - ref*shiftY*0.5
				frame.Pix[off+c] = sample(sx, sy, c)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
