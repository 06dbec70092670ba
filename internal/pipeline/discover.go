package pipeline

import (
	"os"
	"path/filepath"

	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

// Discover lists the immediate children of dir with the profile extension,
// sorted by name. Files already carrying the scaled marker are returned
// separately.
func Discover(dir string, p Profile) (files, scaled []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !imaging.HasExtension(path, p.Extension) {
			continue
		}
		if IsScaled(path) {
			scaled = append(scaled, path)
			continue
		}
		files = append(files, path)
	}
	return files, scaled, nil
}
