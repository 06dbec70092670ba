package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

// ScaledMarker is inserted before the extension of every output file.
const ScaledMarker = "_scaled"

// OutputPath returns path with ScaledMarker inserted before its extension.
func OutputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ScaledMarker + ext
}

// IsScaled reports whether the file name (not the directory) carries the
// marker.
func IsScaled(path string) bool {
	return strings.Contains(filepath.Base(path), ScaledMarker)
}

// Eligible reports whether path should be annotated by p.
func (p Profile) Eligible(path string) bool {
	return imaging.HasExtension(path, p.Extension) && !IsScaled(path)
}
