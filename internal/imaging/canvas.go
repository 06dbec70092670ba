package imaging

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
)

// newCanvas returns a drawable copy of img. The copy has the same concrete
// type as img when that type supports Set; otherwise it is an *image.RGBA.
func newCanvas(img image.Image) draw.Image {
	b := img.Bounds()

	var dst draw.Image
	switch img.(type) {
	case *image.RGBA:
		dst = image.NewRGBA(b)
	case *image.NRGBA:
		dst = image.NewNRGBA(b)
	case *image.RGBA64:
		dst = image.NewRGBA64(b)
	case *image.NRGBA64:
		dst = image.NewNRGBA64(b)
	case *image.Gray:
		dst = image.NewGray(b)
	case *image.Gray16:
		dst = image.NewGray16(b)
	case *image.CMYK:
		dst = image.NewCMYK(b)
	default:
		return clone.AsRGBA(img)
	}

	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
