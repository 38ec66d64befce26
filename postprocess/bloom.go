package postprocess

import (
	"image"
	"time"

	"golang.org/x/image/draw"
)

// Bloom extracts the pixels brighter than Threshold at a reduced resolution,
// blurs them and adds them back to the frame scaled by Weight.
type Bloom struct {
	// Luminance in [0, 1] above which pixels contribute to the glow.
	Threshold float32

	// Strength of the blurred glow when merged with the frame.
	Weight float32

	// Blur kernel size in pixels of the downscaled image.
	Kernel int

	// Resolution of the glow buffer relative to the frame, in (0, 1].
	Scale float32
}

// DefaultBloom returns the settings used when bloom is enabled without
// further configuration.
func DefaultBloom() Bloom {
	return Bloom{
		Threshold: 0.9,
		Weight:    0.15,
		Kernel:    64,
		Scale:     0.5,
	}
}

// Stage returns a pipeline stage applying the effect with the current
// settings.
func (b Bloom) Stage() PipelineStage {
	return func(frame *image.RGBA) time.Duration {
		start := time.Now()
		b.apply(frame)
		return time.Since(start)
	}
}

func (b Bloom) apply(frame *image.RGBA) {
	bounds := frame.Bounds()
	scale := b.Scale
	if scale <= 0 || scale > 1 {
		scale = 1
	}

	w := max(1, int(float32(bounds.Dx())*scale))
	h := max(1, int(float32(bounds.Dy())*scale))
	glow := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(glow, glow.Bounds(), frame, bounds, draw.Src, nil)

	if !extractHighlights(glow, b.Threshold) {
		return
	}

	radius := b.Kernel / 4
	if radius > 0 {
		// Two box passes approximate a gaussian kernel.
		boxBlur(glow, radius)
		boxBlur(glow, radius)
	}

	full := image.NewRGBA(bounds)
	draw.BiLinear.Scale(full, bounds, glow, glow.Bounds(), draw.Src, nil)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst, src := frame.PixOffset(x, y), full.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(frame.Pix[dst+c]) + b.Weight*float32(full.Pix[src+c])
				frame.Pix[dst+c] = clampByte(v)
			}
		}
	}
}

// extractHighlights zeroes every pixel whose luminance is below threshold. It
// reports whether any pixel was kept.
func extractHighlights(img *image.RGBA, threshold float32) bool {
	kept := false
	for i := 0; i < len(img.Pix); i += 4 {
		luma := (0.2126*float32(img.Pix[i]) + 0.7152*float32(img.Pix[i+1]) + 0.0722*float32(img.Pix[i+2])) / 255
		if luma < threshold {
			img.Pix[i], img.Pix[i+1], img.Pix[i+2] = 0, 0, 0
			continue
		}
		kept = true
	}
	return kept
}

// boxBlur applies a separable box filter of the given radius with clamped
// edges.
func boxBlur(img *image.RGBA, radius int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	tmp := make([]uint8, len(img.Pix))

	blurLine(img.Pix, tmp, w, h, radius, 4, img.Stride)
	blurLine(tmp, img.Pix, h, w, radius, img.Stride, 4)
}

// blurLine filters count lines of n pixels. step is the distance in bytes
// between neighbouring pixels of a line and lineStep the distance between the
// first pixels of two lines.
func blurLine(src, dst []uint8, n, count, radius, step, lineStep int) {
	window := float32(2*radius + 1)
	for line := 0; line < count; line++ {
		base := line * lineStep
		at := func(i int) int {
			if i < 0 {
				i = 0
			} else if i >= n {
				i = n - 1
			}
			return base + i*step
		}

		for c := 0; c < 3; c++ {
			var sum int
			for i := -radius; i <= radius; i++ {
				sum += int(src[at(i)+c])
			}
			for i := 0; i < n; i++ {
				dst[base+i*step+c] = clampByte(float32(sum) / window)
				sum += int(src[at(i+radius+1)+c]) - int(src[at(i-radius)+c])
			}
		}
		for i := 0; i < n; i++ {
			dst[base+i*step+3] = src[base+i*step+3]
		}
	}
}

func clampByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
