package envmap

import "image/color"

// fromRGBD converts a non-premultiplied RGBD sample to linear radiance.
func fromRGBD(c color.Color) [3]float32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0 {
		return [3]float32{}
	}

	d := float32(n.A) / 255
	return [3]float32{
		float32(n.R) / 255 / d,
		float32(n.G) / 255 / d,
		float32(n.B) / 255 / d,
	}
}

// RGBD encodes linear radiance with the largest component mapped to the
// divisor. Values are clamped to the [1/255, 255] range RGBD can represent.
func RGBD(rgb [3]float32) color.NRGBA {
	maxRGB := rgb[0]
	if rgb[1] > maxRGB {
		maxRGB = rgb[1]
	}
	if rgb[2] > maxRGB {
		maxRGB = rgb[2]
	}

	d := float32(1)
	if maxRGB > 1 {
		d = 1 / maxRGB
		if d < 1.0/255 {
			d = 1.0 / 255
		}
	}

	return color.NRGBA{
		R: clampByte(rgb[0] * d),
		G: clampByte(rgb[1] * d),
		B: clampByte(rgb[2] * d),
		A: clampByte(d),
	}
}

func clampByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
