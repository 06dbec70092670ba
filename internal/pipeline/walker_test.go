package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

func TestIX71_EndToEnd_InferredKey(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1.6X.tif", 1920, 1440)
	w, out := testWalker(t, IX71(), Options{})

	s := w.ProcessPath(context.Background(), in)

	want := filepath.Join(dir, "sample_10X_1.6X_scaled.tif")
	require.FileExists(t, want)
	assert.Equal(t, Summary{Found: 1, Processed: 1, Succeeded: 1}, s)
	assert.Contains(t, out.String(), "Scale bar added to "+want)

	img, err := imaging.Load(want)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 1920, 1440), img.Bounds())

	// Bar spans x 1649..1859 on rows 1360..1389.
	for _, p := range []image.Point{{1649, 1360}, {1859, 1360}, {1754, 1375}, {1859, 1389}} {
		c, _ := imaging.SampleColor(img, p.X, p.Y)
		assert.Equal(t, imaging.White, c, "bar pixel %v", p)
	}
	for _, p := range []image.Point{{1648, 1375}, {1860, 1375}, {1754, 1359}, {1754, 1390}} {
		c, _ := imaging.SampleColor(img, p.X, p.Y)
		assert.Equal(t, uint8(0), c.R, "pixel %v next to bar", p)
	}

	// "100 μm" is drawn in white between the text line and the bar.
	lit := 0
	for y := 1300; y < 1360; y++ {
		for x := 1600; x < 1900; x++ {
			if c, _ := imaging.SampleColor(img, x, y); c.R > 200 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 100, "expected label pixels above the bar")
}

func TestIX71_EndToEnd_MatchesDirectAnnotation(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1.6X.tif", 1920, 1440)
	w, _ := testWalker(t, IX71(), Options{})
	w.ProcessPath(context.Background(), in)

	src, err := imaging.Load(in)
	require.NoError(t, err)
	a := &imaging.Annotator{Fonts: imaging.EmbeddedFont{}, Size: image.Pt(1920, 1440)}
	ann, err := a.Annotate(src, imaging.ScaleBar{Layout: IX71().Layout, Length: 211, Label: "100 μm"})
	require.NoError(t, err)

	got, err := imaging.Load(OutputPath(in))
	require.NoError(t, err)
	for _, p := range []image.Point{
		{ann.Label.Min.X + ann.Label.Dx()/2, ann.Label.Min.Y + ann.Label.Dy()/2},
		{ann.Bar.Min.X, ann.Bar.Min.Y},
		{10, 10},
	} {
		wantC, _ := imaging.SampleColor(ann.Image, p.X, p.Y)
		gotC, _ := imaging.SampleColor(got, p.X, p.Y)
		assert.Equal(t, wantC, gotC, "pixel %v", p)
	}
}

func TestIX71_ExplicitKey(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "cells.tif", 1920, 1440)
	w, _ := testWalker(t, IX71(), Options{Key: "4X_1X"})

	s := w.ProcessPath(context.Background(), in)
	require.Equal(t, 1, s.Succeeded)

	// 159 px bar: x 1701..1859.
	assert.Equal(t, imaging.White, sample(t, OutputPath(in), 1701, 1370))
	assert.Equal(t, uint8(0), sample(t, OutputPath(in), 1700, 1370).R)
}

func TestIX71_KeyFromParentDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run_40X_1X")
	require.NoError(t, os.Mkdir(dir, 0o755))
	in := writeTIFF(t, dir, "field1.tif", 1920, 1440)
	w, _ := testWalker(t, IX71(), Options{})

	s := w.ProcessPath(context.Background(), in)
	require.Equal(t, 1, s.Succeeded)

	// 270 px bar: x 1590..1859.
	assert.Equal(t, imaging.White, sample(t, OutputPath(in), 1590, 1370))
}

func TestIX71_WrongSize(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1X.tif", 640, 480)
	w, out := testWalker(t, IX71(), Options{})

	s := w.ProcessPath(context.Background(), in)

	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, out.String(), "must be 1920x1440 in size")
	assert.NoFileExists(t, OutputPath(in))
}

func TestIX71_UnresolvedKey(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "cells.tif", 1920, 1440)
	w, out := testWalker(t, IX71(), Options{})

	s := w.ProcessPath(context.Background(), in)

	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, out.String(), "Failed to detect scope type from filename")
	assert.NoFileExists(t, OutputPath(in))
}

func TestIX71_InvalidKey(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1X.tif", 1920, 1440)
	w, out := testWalker(t, IX71(), Options{Key: "20X_1X"})

	s := w.ProcessPath(context.Background(), in)

	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, out.String(), "Invalid scope type. Please use 4X_1X, 4X_1.6X, 10X_1X, 10X_1.6X, 40X_1X, or 40X_1.6X.")
	assert.NoFileExists(t, OutputPath(in))
}

func TestGeneric_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "plate.png", 400, 300)
	w, out := testWalker(t, Generic(), Options{})

	s := w.ProcessPath(context.Background(), in)

	want := filepath.Join(dir, "plate_scaled.png")
	require.FileExists(t, want)
	assert.Equal(t, 1, s.Succeeded)
	assert.Contains(t, out.String(), "Scale bar added to "+want)

	// 240 px black bar at (150,265)-(390,290); no label by default.
	assert.Equal(t, imaging.Black, sample(t, want, 150, 265))
	assert.Equal(t, imaging.Black, sample(t, want, 389, 289))
	assert.Equal(t, uint8(0x80), sample(t, want, 270, 240).R)
}

func TestGeneric_RejectsJPEG(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "photo.jpg", []byte("jpeg bytes"))
	w, out := testWalker(t, Generic(), Options{})

	s := w.ProcessPath(context.Background(), in)

	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, out.String(), "must be in .png format")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "nothing should be written")
}

func TestProcessPath_NotAPath(t *testing.T) {
	w, out := testWalker(t, Generic(), Options{})

	s := w.ProcessPath(context.Background(), filepath.Join(t.TempDir(), "missing"))

	assert.Equal(t, Summary{}, s)
	assert.Contains(t, out.String(), "The provided path does not exist or is not a valid image or directory.")
}

func TestProcessFile_Missing(t *testing.T) {
	w, out := testWalker(t, Generic(), Options{})

	err := w.ProcessFile(filepath.Join(t.TempDir(), "gone.png"))

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, out.String(), "The image does not exist.")
}

func TestProcessFile_AlreadyScaled(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "plate_scaled.png", 300, 100)
	w, _ := testWalker(t, Generic(), Options{})

	err := w.ProcessFile(in)

	assert.ErrorIs(t, err, ErrAlreadyScaled)
	assert.NoFileExists(t, filepath.Join(dir, "plate_scaled_scaled.png"))
}

func TestProcessFile_CorruptImage(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "broken.png", []byte("not a png"))
	w, out := testWalker(t, Generic(), Options{})

	err := w.ProcessFile(in)

	require.Error(t, err)
	assert.Contains(t, out.String(), "Failed to add scale bar to "+in)
	assert.NoFileExists(t, OutputPath(in))
}

func TestProcessDir_SkipsScaledOnRerun(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 300, 100)
	writePNG(t, dir, "b.png", 300, 100)
	writePNG(t, dir, "c.png", 300, 100)
	writeFile(t, dir, "notes.txt", []byte("x"))
	w, out := testWalker(t, Generic(), Options{})

	first := w.ProcessPath(context.Background(), dir)
	assert.Equal(t, Summary{Found: 3, Processed: 3, Succeeded: 3}, first)
	assert.Contains(t, out.String(), "Processing complete: 3 images processed")

	second := w.ProcessPath(context.Background(), dir)
	assert.Equal(t, Summary{Found: 6, Skipped: 3, Processed: 3, Succeeded: 3}, second)

	for _, name := range []string{"a_scaled.png", "b_scaled.png", "c_scaled.png"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	for _, name := range []string{"a_scaled_scaled.png", "b_scaled_scaled.png"} {
		assert.NoFileExists(t, filepath.Join(dir, name))
	}
}

func TestProcessDir_FailureIsolation(t *testing.T) {
	dir := t.TempDir()
	writeTIFF(t, dir, "a_10X_1X.tif", 1920, 1440)
	writeTIFF(t, dir, "b_10X_1X.tif", 800, 600)
	writeTIFF(t, dir, "c_nokey.tif", 1920, 1440)
	writeTIFF(t, dir, "d_40X_1.6X.tif", 1920, 1440)
	w, out := testWalker(t, IX71(), Options{})

	s := w.ProcessPath(context.Background(), dir)

	assert.Equal(t, Summary{Found: 4, Processed: 4, Succeeded: 2, Failed: 2}, s)
	assert.FileExists(t, filepath.Join(dir, "a_10X_1X_scaled.tif"))
	assert.FileExists(t, filepath.Join(dir, "d_40X_1.6X_scaled.tif"))
	assert.NoFileExists(t, filepath.Join(dir, "b_10X_1X_scaled.tif"))
	assert.NoFileExists(t, filepath.Join(dir, "c_nokey_scaled.tif"))
	assert.Contains(t, out.String(), "Processing complete: 4 images processed (2 failed)")
}

func TestProcessDir_Empty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", []byte("x"))
	w, out := testWalker(t, Generic(), Options{})

	s := w.ProcessPath(context.Background(), dir)

	assert.Equal(t, Summary{}, s)
	assert.Contains(t, out.String(), "No PNG files found in "+dir)
}

func TestProcessDir_Parallel(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png", "e.png"} {
		writePNG(t, dir, name, 300, 100)
	}
	writeFile(t, dir, "f.png", []byte("broken"))
	w, _ := testWalker(t, Generic(), Options{Jobs: 3})

	s := w.ProcessPath(context.Background(), dir)

	assert.Equal(t, Summary{Found: 6, Processed: 6, Succeeded: 5, Failed: 1}, s)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		assert.FileExists(t, filepath.Join(dir, name+"_scaled.png"))
	}
}

func TestProcessDir_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 300, 100)
	writePNG(t, dir, "b.png", 300, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w, _ := testWalker(t, Generic(), Options{})

	s := w.ProcessPath(ctx, dir)

	assert.Equal(t, 0, s.Processed)
	assert.NoFileExists(t, filepath.Join(dir, "a_scaled.png"))
}

func TestProcessPath_DryRun(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1.6X.tif", 1920, 1440)
	w, out := testWalker(t, IX71(), Options{DryRun: true})

	s := w.ProcessPath(context.Background(), in)

	assert.Equal(t, 1, s.Succeeded)
	assert.Contains(t, out.String(), "[DRY] Would add 211 px for 10X_1.6X scale bar to")
	assert.NoFileExists(t, OutputPath(in))
}

func TestProcessPath_DryRunChecksSize(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1.6X.tif", 100, 100)
	w, out := testWalker(t, IX71(), Options{DryRun: true})

	s := w.ProcessPath(context.Background(), in)

	assert.Equal(t, 1, s.Failed)
	assert.Contains(t, out.String(), "must be 1920x1440")
}

// failingFonts always reports an unsupported platform.
type failingFonts struct{}

func (failingFonts) Face(float64) (font.Face, error) {
	return nil, imaging.ErrUnsupportedPlatform
}

func TestProcessFile_UnsupportedPlatform(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1X.tif", 1920, 1440)
	out := &lockedBuffer{}
	w := NewWalker(IX71(), failingFonts{}, NewReporter(out), zap.NewNop(), Options{})

	err := w.ProcessFile(in)

	assert.ErrorIs(t, err, imaging.ErrUnsupportedPlatform)
	assert.Contains(t, out.String(), "Unsupported operating system.")
	assert.NoFileExists(t, OutputPath(in))
}

func TestProcessFile_UnsupportedPlatformWithoutLabel(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "plate.png", 300, 100)
	w := NewWalker(Generic(), failingFonts{}, NewReporter(&lockedBuffer{}), nil, Options{})

	// The generic profile hides its label, so no font is needed.
	require.NoError(t, w.ProcessFile(in))
	assert.FileExists(t, OutputPath(in))
}

// recordingVerifier records verification calls.
type recordingVerifier struct {
	labels  []string
	regions []image.Rectangle
	err     error
}

func (v *recordingVerifier) VerifyLabel(_ image.Image, region image.Rectangle, want string) error {
	v.labels = append(v.labels, want)
	v.regions = append(v.regions, region)
	return v.err
}

func TestProcessFile_Verify(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_40X_1X.tif", 1920, 1440)
	v := &recordingVerifier{}
	w, out := testWalker(t, IX71(), Options{Verify: true, Verifier: v})

	require.NoError(t, w.ProcessFile(in))

	require.Equal(t, []string{"50 μm"}, v.labels)
	assert.False(t, v.regions[0].Empty())
	assert.NotContains(t, out.String(), "Warning")
}

func TestProcessFile_VerifyFailureOnlyWarns(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_40X_1X.tif", 1920, 1440)
	v := &recordingVerifier{err: errors.New("read \"5O pm\"")}
	w, out := testWalker(t, IX71(), Options{Verify: true, Verifier: v})

	require.NoError(t, w.ProcessFile(in))

	assert.FileExists(t, OutputPath(in))
	assert.True(t, strings.Contains(out.String(), "Warning: label check on"), out.String())
}

func TestProcessFile_VerifyWithoutVerifierChecksBar(t *testing.T) {
	dir := t.TempDir()
	in := writePNG(t, dir, "plate.png", 400, 300)
	w, out := testWalker(t, Generic(), Options{Verify: true})

	require.NoError(t, w.ProcessFile(in))
	assert.NotContains(t, out.String(), "Warning")
}

func TestProcessFile_VerifyWarnsOnUnrepresentableColor(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_10X_1X.tif", 1920, 1440)
	p := IX71()
	p.Layout.Color = color.RGBA{R: 255, A: 255}
	w, out := testWalker(t, p, Options{Verify: true})

	// Pure red on an 8-bit gray image is stored as a dark gray.
	require.NoError(t, w.ProcessFile(in))
	assert.Contains(t, out.String(), "Warning: bar check on "+OutputPath(in))
}

func TestProcessFile_VerifierIgnoredWithoutVerify(t *testing.T) {
	dir := t.TempDir()
	in := writeTIFF(t, dir, "sample_40X_1X.tif", 1920, 1440)
	v := &recordingVerifier{}
	w, _ := testWalker(t, IX71(), Options{Verifier: v})

	require.NoError(t, w.ProcessFile(in))
	assert.Empty(t, v.labels)
}
