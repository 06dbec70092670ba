package pipeline

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ironsheep/scalebar-tools/internal/calibration"
	"github.com/ironsheep/scalebar-tools/internal/imaging"
)

// Reporter prints one-line user messages. It is safe for concurrent use.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewReporter writes messages to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

func (r *Reporter) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, format+"\n", args...)
}

// Added reports a written output.
func (r *Reporter) Added(output string) {
	r.printf("Scale bar added to %s", output)
}

// WouldAdd reports a dry-run result.
func (r *Reporter) WouldAdd(output string, res calibration.Resolution) {
	what := fmt.Sprintf("%d px", res.BarLength)
	if res.Key != "" {
		what += " for " + res.Key
	}
	r.printf("[DRY] Would add %s scale bar to %s", what, output)
}

// Failed reports a file that produced no output.
func (r *Reporter) Failed(p Profile, path string, err error) {
	r.printf("%s", Message(p, path, err))
}

// Warn reports a non-fatal problem with a written file.
func (r *Reporter) Warn(format string, args ...interface{}) {
	r.printf("Warning: "+format, args...)
}

// NoFiles reports a directory without eligible images.
func (r *Reporter) NoFiles(p Profile, dir string) {
	r.printf("No %s files found in %s", strings.ToUpper(strings.TrimPrefix(p.Extension, ".")), dir)
}

// Done reports the end of a directory run.
func (r *Reporter) Done(s Summary) {
	msg := fmt.Sprintf("\nProcessing complete: %d images processed", s.Processed)
	if s.Failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", s.Failed)
	}
	r.printf("%s", msg)
}

// Message returns the user-facing text for an error raised while processing
// path with profile p.
func Message(p Profile, path string, err error) string {
	switch {
	case errors.Is(err, ErrNotAPath):
		return "The provided path does not exist or is not a valid image or directory."
	case errors.Is(err, ErrFileNotFound):
		return "The image does not exist. Please provide a valid image."
	case errors.Is(err, ErrInvalidExtension):
		return fmt.Sprintf("Skipping %s: The image must be in %s format. Please provide a valid image.", path, p.Extension)
	case errors.Is(err, ErrAlreadyScaled):
		return fmt.Sprintf("Skipping %s: The image already has a scale bar.", path)
	case errors.Is(err, imaging.ErrInvalidImageDimensions):
		return fmt.Sprintf("Skipping %s: The image must be %dx%d in size. Please provide a valid image.",
			path, p.Size.X, p.Size.Y)
	case errors.Is(err, calibration.ErrUnresolvedConfiguration):
		return fmt.Sprintf("Skipping %s: Failed to detect scope type from filename. "+
			"Please add magnification to the filename or use the proper command-line argument.", filepath.Base(path))
	case errors.Is(err, calibration.ErrInvalidConfiguration):
		return "Invalid scope type. Please use " + keyList(p.Table.Keys()) + "."
	case errors.Is(err, imaging.ErrUnsupportedPlatform):
		return "Unsupported operating system. Please run this tool on MacOS, Windows, or Linux."
	default:
		return fmt.Sprintf("Failed to add scale bar to %s: %v", path, err)
	}
}

// keyList joins keys as "a, b, or c".
func keyList(keys []string) string {
	switch len(keys) {
	case 0:
		return "a valid scope type"
	case 1:
		return keys[0]
	case 2:
		return keys[0] + " or " + keys[1]
	}
	return strings.Join(keys[:len(keys)-1], ", ") + ", or " + keys[len(keys)-1]
}
