package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// colorTolerance is the mean per-channel difference above which two pixels
// count as different.
const colorTolerance = 10

// BarMeasurement describes how well a rectangle of an image matches a solid
// fill color.
type BarMeasurement struct {
	// Coverage is the fraction of pixels within tolerance of the fill.
	Coverage float64

	// Length is the longest matching run along the middle row.
	Length int

	// Thickness is the longest matching run along the middle column.
	Thickness int

	// AverageColorDiff is the mean per-channel difference from the fill.
	AverageColorDiff float64
}

// Complete reports whether every pixel of a w×h bar matched.
func (m *BarMeasurement) Complete(w, h int) bool {
	return m.Coverage == 1 && m.Length == w && m.Thickness == h
}

// MeasureBar compares rect of img against the solid color c. Scanning stays
// inside rect, so a background of the same color does not lengthen the bar.
func MeasureBar(img image.Image, rect image.Rectangle, c color.Color) (*BarMeasurement, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("bar rectangle outside image bounds %v", img.Bounds())
	}

	want := color.RGBAModel.Convert(c).(color.RGBA)
	matching := 0
	var totalDiff float64

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			d := colorDiff(img.At(x, y), want)
			totalDiff += d
			if d <= colorTolerance {
				matching++
			}
		}
	}

	total := rect.Dx() * rect.Dy()
	midY := rect.Min.Y + rect.Dy()/2
	midX := rect.Min.X + rect.Dx()/2

	return &BarMeasurement{
		Coverage:         float64(matching) / float64(total),
		Length:           longestRun(img, want, image.Pt(rect.Min.X, midY), image.Pt(1, 0), rect.Dx()),
		Thickness:        longestRun(img, want, image.Pt(midX, rect.Min.Y), image.Pt(0, 1), rect.Dy()),
		AverageColorDiff: math.Round(totalDiff/float64(total)*100) / 100,
	}, nil
}

// longestRun walks n pixels from start in steps of step and returns the
// longest stretch matching want.
func longestRun(img image.Image, want color.RGBA, start, step image.Point, n int) int {
	best, cur := 0, 0
	p := start
	for i := 0; i < n; i++ {
		if colorDiff(img.At(p.X, p.Y), want) <= colorTolerance {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 0
		}
		p = p.Add(step)
	}
	return best
}

func colorDiff(c color.Color, want color.RGBA) float64 {
	r, g, b, _ := c.RGBA()
	dr := absDiff(uint8(r>>8), want.R)
	dg := absDiff(uint8(g>>8), want.G)
	db := absDiff(uint8(b>>8), want.B)
	return float64(dr+dg+db) / 3.0
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
