package imaging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// ErrUnsupportedPlatform is returned when no font location is known for the
// running operating system.
var ErrUnsupportedPlatform = errors.New("unsupported operating system")

// Font locations used on the lab machines.
const (
	windowsFontName = "arial.ttf"
	linuxFontPath   = "/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf"
	bundledFontName = "Go Regular (bundled)"
)

// FontResolver returns a face for the given pixel size. Callers close the
// face when done.
type FontResolver interface {
	Face(size float64) (font.Face, error)
}

// FontCache keeps parsed font files keyed by path.
//
// FontCache is safe for concurrent use by multiple goroutines.
type FontCache struct {
	mu    sync.RWMutex
	fonts map[string]*opentype.Font
}

// NewFontCache creates an empty font cache.
func NewFontCache() *FontCache {
	return &FontCache{
		fonts: make(map[string]*opentype.Font),
	}
}

// Load returns the parsed font at path, reading and parsing it on first use.
func (c *FontCache) Load(path string) (*opentype.Font, error) {
	c.mu.RLock()
	if f, ok := c.fonts[path]; ok {
		c.mu.RUnlock()
		return f, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
	}

	c.mu.Lock()
	c.fonts[path] = f
	c.mu.Unlock()

	return f, nil
}

// Evict removes one font from the cache.
func (c *FontCache) Evict(path string) {
	c.mu.Lock()
	delete(c.fonts, path)
	c.mu.Unlock()
}

// FontSource says where a platform's font comes from. Exactly one of Path and
// Data is set.
type FontSource struct {
	Name string
	Path string
	Data []byte
}

// PlatformFontSource returns the font location for goos.
func PlatformFontSource(goos string) (FontSource, error) {
	switch goos {
	case "darwin":
		return FontSource{Name: bundledFontName, Data: goregular.TTF}, nil
	case "windows":
		dir := os.Getenv("WINDIR")
		if dir == "" {
			dir = `C:\Windows`
		}
		p := filepath.Join(dir, "Fonts", windowsFontName)
		return FontSource{Name: windowsFontName, Path: p}, nil
	case "linux":
		return FontSource{Name: filepath.Base(linuxFontPath), Path: linuxFontPath}, nil
	default:
		return FontSource{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// PlatformFonts resolves fonts the way the lab machines are set up. A
// non-empty override path replaces the platform lookup.
type PlatformFonts struct {
	goos     string
	override string
	cache    *FontCache
}

// NewPlatformFonts creates a resolver for goos. Pass runtime.GOOS for the
// running system.
func NewPlatformFonts(goos, override string, cache *FontCache) *PlatformFonts {
	if goos == "" {
		goos = runtime.GOOS
	}
	if cache == nil {
		cache = NewFontCache()
	}
	return &PlatformFonts{goos: goos, override: override, cache: cache}
}

// Source returns where the face will be loaded from.
func (p *PlatformFonts) Source() (FontSource, error) {
	if p.override != "" {
		return FontSource{Name: filepath.Base(p.override), Path: p.override}, nil
	}
	return PlatformFontSource(p.goos)
}

// Face implements FontResolver.
func (p *PlatformFonts) Face(size float64) (font.Face, error) {
	src, err := p.Source()
	if err != nil {
		return nil, err
	}

	var f *opentype.Font
	if src.Data != nil {
		f, err = embeddedFont()
	} else {
		f, err = p.cache.Load(src.Path)
	}
	if err != nil {
		return nil, err
	}
	return newFace(f, size)
}

// EmbeddedFont resolves every size to the Go Regular font compiled into the
// binary.
type EmbeddedFont struct{}

// Face implements FontResolver.
func (EmbeddedFont) Face(size float64) (font.Face, error) {
	f, err := embeddedFont()
	if err != nil {
		return nil, err
	}
	return newFace(f, size)
}

var (
	goRegular     *opentype.Font
	goRegularErr  error
	goRegularOnce sync.Once
)

func embeddedFont() (*opentype.Font, error) {
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = opentype.Parse(goregular.TTF)
	})
	return goRegular, goRegularErr
}

// newFace builds a face where size is the em height in pixels.
func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}
