package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/scalebar-tools/internal/calibration"
	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

// Verifier checks that a label was rendered legibly in region of img.
type Verifier interface {
	VerifyLabel(img image.Image, region image.Rectangle, want string) error
}

// Options tune a Walker.
type Options struct {
	// Key is the explicit calibration key. Empty means infer from filenames.
	Key string

	// Jobs bounds how many files are annotated at once. Values below 2 run
	// sequentially.
	Jobs int

	// DryRun resolves and validates without drawing or writing.
	DryRun bool

	// Verify re-reads each written image and checks the bar. The label is
	// checked too when Verifier is set.
	Verify bool

	// Verifier reads labels back. Only used with Verify.
	Verifier Verifier
}

// Walker annotates files and directories for one profile.
type Walker struct {
	profile   Profile
	annotator *imaging.Annotator
	report    *Reporter
	log       *zap.Logger
	opts      Options
}

// NewWalker creates a walker. fonts resolves label faces; log may be nil.
func NewWalker(p Profile, fonts imaging.FontResolver, report *Reporter, log *zap.Logger, opts Options) *Walker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Walker{
		profile:   p,
		annotator: &imaging.Annotator{Fonts: fonts, Size: p.Size},
		report:    report,
		log:       log.With(zap.String("profile", p.Name)),
		opts:      opts,
	}
}

// ProcessPath annotates a single file or every eligible file in a directory.
// Problems are reported, never returned.
func (w *Walker) ProcessPath(ctx context.Context, path string) Summary {
	fi, err := os.Stat(path)
	if err != nil {
		w.log.Debug("stat failed", zap.String("path", path), zap.Error(err))
		w.report.Failed(w.profile, path, fmt.Errorf("%w: %s", ErrNotAPath, path))
		return Summary{}
	}

	switch {
	case fi.IsDir():
		return w.ProcessDir(ctx, path)
	case fi.Mode().IsRegular():
		var s Summary
		s.Found = 1
		s.record(w.ProcessFile(path))
		return s
	default:
		w.report.Failed(w.profile, path, fmt.Errorf("%w: %s", ErrNotAPath, path))
		return Summary{}
	}
}

// ProcessDir annotates the eligible immediate children of dir.
func (w *Walker) ProcessDir(ctx context.Context, dir string) Summary {
	var s Summary

	files, scaled, err := Discover(dir, w.profile)
	if err != nil {
		w.log.Warn("cannot read directory", zap.String("dir", dir), zap.Error(err))
		w.report.Failed(w.profile, dir, fmt.Errorf("%w: %s", ErrNotAPath, dir))
		return s
	}
	s.Found = len(files) + len(scaled)
	s.Skipped = len(scaled)

	if len(files) == 0 {
		w.report.NoFiles(w.profile, dir)
		return s
	}

	w.log.Debug("discovered files",
		zap.String("dir", dir),
		zap.Int("eligible", len(files)),
		zap.Int("already_scaled", len(scaled)))

	if w.opts.Jobs > 1 {
		w.processParallel(ctx, files, &s)
	} else {
		for _, path := range files {
			if ctx.Err() != nil {
				w.log.Warn("interrupted", zap.Int("remaining", len(files)-s.Processed))
				break
			}
			s.record(w.ProcessFile(path))
		}
	}

	w.report.Done(s)
	return s
}

// processParallel runs at most Jobs files at once. Per-file errors stay
// inside their goroutine; the group only stops scheduling on cancellation.
func (w *Walker) processParallel(ctx context.Context, files []string, s *Summary) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Jobs)

	for _, path := range files {
		if gctx.Err() != nil {
			w.log.Warn("interrupted")
			break
		}
		path := path
		g.Go(func() error {
			err := w.ProcessFile(path)
			mu.Lock()
			s.record(err)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// ProcessFile annotates one file and reports the outcome. The returned error
// is for counting only; it has already been reported.
func (w *Walker) ProcessFile(path string) error {
	err := w.processFile(path)
	if err != nil {
		w.log.Debug("file failed", zap.String("path", path), zap.Error(err))
		w.report.Failed(w.profile, path, err)
	}
	return err
}

func (w *Walker) processFile(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrInvalidExtension, path)
	}
	if !imaging.HasExtension(path, w.profile.Extension) {
		return fmt.Errorf("%w: %s", ErrInvalidExtension, filepath.Ext(path))
	}
	if IsScaled(path) {
		return ErrAlreadyScaled
	}

	output := OutputPath(path)

	if w.opts.DryRun {
		return w.dryRun(path, output)
	}

	img, err := imaging.Load(path)
	if err != nil {
		return err
	}
	if err := imaging.CheckDimensions(img.Bounds(), w.profile.Size); err != nil {
		return err
	}

	res, err := w.resolve(path)
	if err != nil {
		return err
	}

	bar := imaging.ScaleBar{Layout: w.profile.Layout, Length: res.BarLength, Label: res.Label}
	ann, err := w.annotator.Annotate(img, bar)
	if err != nil {
		return err
	}

	if err := imaging.Save(ann.Image, output); err != nil {
		os.Remove(output)
		return err
	}

	w.log.Debug("annotated",
		zap.String("path", path),
		zap.String("output", output),
		zap.String("key", res.Key),
		zap.Bool("inferred", res.Inferred),
		zap.Int("bar_px", res.BarLength),
		zap.Stringer("bar", ann.Bar))

	w.verify(output, ann, res.Label)
	w.report.Added(output)
	return nil
}

func (w *Walker) dryRun(path, output string) error {
	info, err := imaging.LoadImageInfo(path)
	if err != nil {
		return err
	}
	if err := imaging.CheckDimensions(image.Rect(0, 0, info.Width, info.Height), w.profile.Size); err != nil {
		return err
	}
	res, err := w.resolve(path)
	if err != nil {
		return err
	}
	w.report.WouldAdd(output, res)
	return nil
}

// resolve tries the file name first and then the full path, so a key in a
// parent directory name also works.
func (w *Walker) resolve(path string) (calibration.Resolution, error) {
	res, err := w.profile.Table.Resolve(w.opts.Key, filepath.Base(path), w.profile.ShowLabel)
	if errors.Is(err, calibration.ErrUnresolvedConfiguration) {
		res, err = w.profile.Table.Resolve(w.opts.Key, path, w.profile.ShowLabel)
	}
	return res, err
}

// verify checks the file as written, not the in-memory canvas. Problems are
// warnings only.
func (w *Walker) verify(output string, ann *imaging.Annotation, label string) {
	if !w.opts.Verify {
		return
	}
	written, err := imaging.Load(output)
	if err != nil {
		w.report.Warn("cannot re-read %s: %v", output, err)
		return
	}

	bar := ann.Bar
	m, err := imaging.MeasureBar(written, bar, w.profile.Layout.Color)
	switch {
	case err != nil:
		w.report.Warn("bar check on %s: %v", output, err)
	case !m.Complete(bar.Dx(), bar.Dy()):
		w.log.Warn("bar verification failed",
			zap.String("output", output),
			zap.Float64("coverage", m.Coverage),
			zap.Float64("avg_color_diff", m.AverageColorDiff))
		w.report.Warn("bar check on %s: measured %dx%d px, want %dx%d",
			output, m.Length, m.Thickness, bar.Dx(), bar.Dy())
	}

	if w.opts.Verifier == nil || label == "" {
		return
	}
	if err := w.opts.Verifier.VerifyLabel(written, ann.Label, label); err != nil {
		w.log.Warn("label verification failed", zap.String("output", output), zap.Error(err))
		w.report.Warn("label check on %s: %v", output, err)
	}
}
