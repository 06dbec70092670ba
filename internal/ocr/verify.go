package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"

	imgutil "github.com/ironsheep/scalebar-tools/internal/imaging"
)

var (
	// ErrUnavailable is returned when the binary was built without Tesseract.
	ErrUnavailable = errors.New("ocr support not compiled in (build with -tags tesseract)")

	// ErrMismatch is returned when the recognized label differs from the
	// expected one.
	ErrMismatch = errors.New("label mismatch")
)

// Verifier checks rendered labels.
type Verifier struct {
	// Language is the Tesseract language code. Defaults to "eng".
	Language string

	// Pad is added around the label region before recognition.
	Pad int

	// Scale enlarges the region before recognition. Small glyphs read poorly.
	Scale float64
}

// NewVerifier returns a verifier with settings that work for the bundled
// label sizes.
func NewVerifier() *Verifier {
	return &Verifier{Language: "eng", Pad: 12, Scale: 2}
}

// VerifyLabel recognizes the text in region of img and compares its digits
// with want.
func (v *Verifier) VerifyLabel(img image.Image, region image.Rectangle, want string) error {
	data, err := v.prepare(img, region)
	if err != nil {
		return err
	}

	lang := v.Language
	if lang == "" {
		lang = "eng"
	}
	got, err := readText(data, lang)
	if err != nil {
		return err
	}

	if !Matches(got, want) {
		return fmt.Errorf("%w: read %q, want %q", ErrMismatch, strings.TrimSpace(got), want)
	}
	return nil
}

// prepare crops the label, converts it to dark text on a light background
// and encodes it as PNG.
func (v *Verifier) prepare(img image.Image, region image.Rectangle) ([]byte, error) {
	if region.Empty() {
		return nil, fmt.Errorf("empty label region")
	}
	scale := v.Scale
	if scale <= 0 {
		scale = 1
	}
	crop, err := imgutil.Crop(img, region, v.Pad, scale)
	if err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(crop)
	if meanLuma(gray) < 128 {
		gray = imaging.Invert(gray)
	}
	return imgutil.EncodePNG(gray)
}

// meanLuma returns the mean of the red channel of a grayscale NRGBA image.
func meanLuma(img *image.NRGBA) float64 {
	n := len(img.Pix) / 4
	if n == 0 {
		return 0
	}
	var sum int
	for i := 0; i < len(img.Pix); i += 4 {
		sum += int(img.Pix[i])
	}
	return float64(sum) / float64(n)
}

// Matches reports whether recognized text carries the same digits as want.
// A label without digits matches when the letters agree, ignoring case and
// spacing.
func Matches(got, want string) bool {
	wd := digits(want)
	if wd != "" {
		return digits(got) == wd
	}
	return letters(got) == letters(want) && letters(want) != ""
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func letters(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}
