package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/png" // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// ErrInvalidImageDimensions is returned when an image does not have the size
// a pipeline requires.
var ErrInvalidImageDimensions = errors.New("invalid image dimensions")

// ImageInfo describes an image file without holding its pixels.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder name reported by the image package ("png", "tiff").
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Load decodes the image at path.
//
// The decoded image keeps its native color model: a 16-bit grayscale TIFF is
// returned as *image.Gray16, an RGBA PNG as *image.NRGBA, and so on.
func Load(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

// Save encodes img to path. The format follows the path extension (".png",
// ".tif", ".tiff").
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}

// LoadImageInfo reads only the image header.
func LoadImageInfo(path string) (*ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}

// CheckDimensions returns ErrInvalidImageDimensions when want is non-zero and
// differs from the size of bounds.
func CheckDimensions(bounds image.Rectangle, want image.Point) error {
	if want == (image.Point{}) {
		return nil
	}
	if bounds.Dx() != want.X || bounds.Dy() != want.Y {
		return fmt.Errorf("%w: got %dx%d, want %dx%d",
			ErrInvalidImageDimensions, bounds.Dx(), bounds.Dy(), want.X, want.Y)
	}
	return nil
}

// HasExtension reports whether path ends in ext, ignoring case.
func HasExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}
