package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

// writePNG writes a solid gray PNG of the given size into dir.
func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// writeTIFF writes a black 8-bit grayscale TIFF of the given size into dir.
func writeTIFF(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}))
	return path
}

// writeFile writes arbitrary bytes into dir.
func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// testWalker builds a walker with the embedded font and a captured reporter.
func testWalker(t *testing.T, p Profile, opts Options) (*Walker, *lockedBuffer) {
	t.Helper()
	out := &lockedBuffer{}
	w := NewWalker(p, imaging.EmbeddedFont{}, NewReporter(out), zaptest.NewLogger(t), opts)
	return w, out
}

// lockedBuffer lets a test read output while a walker goroutine writes it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// sample returns the 8-bit color at (x, y) of the image at path.
func sample(t *testing.T, path string, x, y int) color.RGBA {
	t.Helper()
	img, err := imaging.Load(path)
	require.NoError(t, err)
	c, err := imaging.SampleColor(img, x, y)
	require.NoError(t, err)
	return c
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
