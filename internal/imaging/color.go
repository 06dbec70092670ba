package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Bar colors used by the two pipelines.
var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
)

// ParseHexColor parses "#RRGGBB" or "#RGB" (the leading '#' is optional) and
// the names "black" and "white". The result is fully opaque.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		return color.RGBA{}, fmt.Errorf("empty color string")
	case "black":
		return Black, nil
	case "white":
		return White, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RGB or #RRGGBB", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// HexString formats c as "#RRGGBB", dropping alpha.
func HexString(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return strings.ToUpper(cf.Hex())
}

// SampleColor returns the 8-bit RGBA value at (x, y).
func SampleColor(img image.Image, x, y int) (color.RGBA, error) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return color.RGBA{}, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}, nil
}
