package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// Crop extracts region from img, optionally padded and scaled. The padding is
// clipped to the image bounds.
func Crop(img image.Image, region image.Rectangle, pad int, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	region = region.Inset(-pad).Intersect(bounds)
	if region.Empty() {
		return nil, fmt.Errorf("crop region outside image bounds %v", bounds)
	}

	cropped := imaging.Crop(img, region)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

// EncodePNG encodes img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
