package model

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

// centerCrop вырезает центральный квадрат изображения.
func centerCrop(img image.Image) image.Image {
	b := img.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	r := image.Rect(x0, y0, x0+side, y0+side)

	if si, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return si.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// toTensor готовит вход модели: квадрат size×size, значения в [-1, 1].
func toTensor(img image.Image, size int, layout string) []float32 {
	resized := resize.Resize(uint(size), uint(size), centerCrop(img), resize.Bilinear)
	b := resized.Bounds()

	plane := size * size
	data := make([]float32, 3*plane)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, bl, _ := resized.At(b.Min.X+x, b.Min.Y+y).RGBA()
			px := [3]float32{normalize8(r), normalize8(g), normalize8(bl)}

			idx := y*size + x
			for c := 0; c < 3; c++ {
				if layout == "nchw" {
					data[c*plane+idx] = px[c]
				} else {
					data[idx*3+c] = px[c]
				}
			}
		}
	}

	return data
}

// normalize8 переводит 16-битный канал RGBA() в [-1, 1]
func normalize8(v uint32) float32 {
	return float32(v>>8)/127.5 - 1
}
