package renderer

import "image"

// flipRows mirrors img vertically in place.
func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	rowLen := img.Rect.Dx() * 4
	tmp := make([]uint8, rowLen)
	for top, bottom := 0, h-1; top < bottom; top, bottom = top+1, bottom-1 {
		topRow := img.Pix[top*img.Stride : top*img.Stride+rowLen]
		bottomRow := img.Pix[bottom*img.Stride : bottom*img.Stride+rowLen]
		copy(tmp, topRow)
		copy(topRow, bottomRow)
		copy(bottomRow, tmp)
	}
}
