package pipeline

import (
	"image"

	"github.com/ironsheep/scalebar-tools/internal/calibration"
	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

// Profile describes one annotation pipeline.
type Profile struct {
	// Name identifies the profile in logs ("generic", "ix71").
	Name string

	// Extension is the only accepted input extension, with the leading dot.
	Extension string

	// Size, when non-zero, is the exact image size required.
	Size image.Point

	// Layout is the bar placement and style.
	Layout imaging.Layout

	// ShowLabel draws the calibration label above the bar.
	ShowLabel bool

	// Table resolves keys to bar lengths and labels.
	Table *calibration.Table
}

// Generic is the fixed-calibration profile for PNG images of any size.
func Generic() Profile {
	return Profile{
		Name:      "generic",
		Extension: ".png",
		Layout: imaging.Layout{
			XOffset:     10,
			YOffset:     35,
			Thickness:   25,
			TextYOffset: 50,
			FontSize:    50,
			Color:       imaging.Black,
		},
		ShowLabel: false,
		Table:     calibration.Generic(),
	}
}

// IX71 is the profile for 1920×1440 TIFF captures from the IX71 scopes.
func IX71() Profile {
	return Profile{
		Name:      "ix71",
		Extension: ".tif",
		Size:      image.Pt(1920, 1440),
		Layout: imaging.Layout{
			XOffset:     60,
			YOffset:     80,
			Thickness:   30,
			TextYOffset: 60,
			FontSize:    45,
			Color:       imaging.White,
		},
		ShowLabel: true,
		Table:     calibration.IX71(),
	}
}
