// Package imaging provides the image operations behind scale bar annotation.
//
// This package loads and saves PNG and TIFF images, copies decoded images into
// drawable canvases, resolves fonts per platform, and burns a scale bar with an
// optional centered label into the bottom-right corner of an image.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner:
//   - X increases rightward
//   - Y increases downward
//   - Rectangles are inclusive at Min and exclusive at Max
//
// # Scale Bar Placement
//
// The bar is anchored to the bottom-right corner:
//
//	x = width  - length - XOffset
//	y = height - YOffset
//
// and covers length × Thickness pixels from (x, y). The label is centered on
// the bar horizontally with its ascender line TextYOffset pixels above the bar.
//
// # Pixel Model
//
// Annotation never mutates its input. It draws on a copy of the same concrete
// image type when that type is drawable (RGBA, NRGBA, Gray, Gray16, ...), so
// 16-bit grayscale microscope captures stay 16-bit grayscale on output. Other
// decodes (YCbCr, paletted) are copied to RGBA.
//
// # Fonts
//
// Font lookup is a [FontResolver]. [PlatformFonts] mirrors the lab setup: a
// bundled font on macOS, Arial on Windows, Liberation Sans on Linux, and
// [ErrUnsupportedPlatform] anywhere else. [EmbeddedFont] always works and is
// what tests use. Parsed font files are kept in a [FontCache] so a batch parses
// each file once.
//
// # Checking Output
//
// [MeasureBar] scans a rectangle of a decoded image against the bar color, so
// a written file can be checked after it is read back.
//
// # Thread Safety
//
// FontCache is safe for concurrent use. Annotator holds no mutable state and
// can annotate different images concurrently.
package imaging
