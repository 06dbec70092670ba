package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Layout holds the fixed placement and style of a scale bar.
type Layout struct {
	// XOffset is the gap between the bar's right end and the right edge.
	XOffset int

	// YOffset is the distance from the bottom edge up to the bar's top edge.
	YOffset int

	// Thickness is the bar height in pixels.
	Thickness int

	// TextYOffset is the distance from the bar's top edge up to the label's
	// ascender line.
	TextYOffset int

	// FontSize is the label em height in pixels.
	FontSize float64

	// Color fills the bar and the label.
	Color color.Color
}

// ScaleBar is everything needed to annotate one image.
type ScaleBar struct {
	Layout

	// Length is the bar width in pixels.
	Length int

	// Label is drawn above the bar. Empty draws the bar only.
	Label string
}

// Annotation is the result of drawing a scale bar.
type Annotation struct {
	// Image is a new image; the input is never modified.
	Image draw.Image

	// Bar is the filled rectangle, clipped to the image.
	Bar image.Rectangle

	// Label is the ink bounds of the label, clipped to the image. Empty when
	// there is no label.
	Label image.Rectangle
}

// Annotator draws scale bars.
type Annotator struct {
	// Fonts resolves the label face. Only consulted when the label is non-empty.
	Fonts FontResolver

	// Size, when non-zero, is the exact image size required.
	Size image.Point
}

// Annotate draws bar onto a copy of img.
func (a *Annotator) Annotate(img image.Image, bar ScaleBar) (*Annotation, error) {
	if err := CheckDimensions(img.Bounds(), a.Size); err != nil {
		return nil, err
	}
	if bar.Length <= 0 {
		return nil, fmt.Errorf("invalid bar length %d", bar.Length)
	}

	var face font.Face
	if bar.Label != "" {
		if a.Fonts == nil {
			return nil, fmt.Errorf("no font resolver configured")
		}
		f, err := a.Fonts.Face(bar.FontSize)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		face = f
	}

	canvas := newCanvas(img)
	bounds := canvas.Bounds()
	fill := image.NewUniform(bar.Color)

	origin := BarOrigin(bounds, bar)
	barRect := image.Rect(origin.X, origin.Y, origin.X+bar.Length, origin.Y+bar.Thickness).Intersect(bounds)
	draw.Draw(canvas, barRect, fill, image.Point{}, draw.Src)

	result := &Annotation{Image: canvas, Bar: barRect}
	if face == nil {
		return result, nil
	}

	d := &font.Drawer{Dst: canvas, Src: fill, Face: face}
	d.Dot = LabelDot(face, origin, bar)

	ink, _ := d.BoundString(bar.Label)
	d.DrawString(bar.Label)

	result.Label = image.Rect(
		ink.Min.X.Floor(), ink.Min.Y.Floor(),
		ink.Max.X.Ceil(), ink.Max.Y.Ceil(),
	).Intersect(bounds)
	return result, nil
}

// BarOrigin returns the top-left corner of the bar within bounds.
func BarOrigin(bounds image.Rectangle, bar ScaleBar) image.Point {
	return image.Point{
		X: bounds.Max.X - bar.Length - bar.XOffset,
		Y: bounds.Max.Y - bar.YOffset,
	}
}

// LabelDot returns the baseline start of the label: centered on the bar using
// the advance width, ascender line TextYOffset above the bar.
func LabelDot(face font.Face, origin image.Point, bar ScaleBar) fixed.Point26_6 {
	width := float64(font.MeasureString(face, bar.Label)) / 64
	x := origin.X + int(math.Floor((float64(bar.Length)-width)/2))
	top := origin.Y - bar.TextYOffset
	return fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(top) + face.Metrics().Ascent,
	}
}
