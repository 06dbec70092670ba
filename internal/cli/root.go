// Package cli builds the cobra commands behind cmd/scalebar and
// cmd/ix71-scalebar.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/scalebar-tools/internal/config"
	"github.com/ironsheep/scalebar-tools/internal/imaging"
	"github.com/ironsheep/scalebar-tools/internal/logging"
	"github.com/ironsheep/scalebar-tools/internal/ocr"
	"github.com/ironsheep/scalebar-tools/internal/pipeline"
)

// BuildInfo is set by ldflags in each main package.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// flags mirrors config.Config for the command line. Only flags the user set
// override the config file.
type flags struct {
	configPath string
	showLabel  bool
	color      string
	fontPath   string
	jobs       int
	watch      bool
	settle     time.Duration
	verify     bool
	dryRun     bool
	verbose    bool
}

// NewGenericCommand returns the "scalebar" command for PNG images.
func NewGenericCommand(info BuildInfo) *cobra.Command {
	cmd := newRootCommand("scalebar", pipeline.Generic(), info)
	cmd.Use = "scalebar <path>"
	cmd.Short = "Add a 1 cm scale bar to PNG images"
	cmd.Long = `Adds a fixed 240 px (1 cm) scale bar to the bottom-right corner of a PNG
image, or of every PNG image directly inside a directory. Each result is
written next to its input with "_scaled" before the extension; inputs that
already carry that marker are skipped.`
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

// NewIX71Command returns the "ix71-scalebar" command for IX71 TIFF captures.
func NewIX71Command(info BuildInfo) *cobra.Command {
	p := pipeline.IX71()
	cmd := newRootCommand("ix71-scalebar", p, info)
	cmd.Use = "ix71-scalebar <path> [scope_type]"
	cmd.Short = "Add a calibrated scale bar to IX71 TIFF captures"
	cmd.Long = fmt.Sprintf(`Adds a calibrated scale bar and label to 1920x1440 TIFF images from the
IX71 microscopes. The scope type is one of:

  %s

When scope_type is omitted it is read from each file name (or its directory
name), e.g. "cells_10X_1.6X.tif". Results are written next to the input with
"_scaled" before the extension.`, strings.Join(p.Table.Keys(), ", "))
	cmd.Args = cobra.RangeArgs(1, 2)
	return cmd
}

func newRootCommand(name string, p pipeline.Profile, info BuildInfo) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       info.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := ""
			if len(args) > 1 {
				key = args[1]
			}
			run(cmd, p, f, args[0], key)
			return nil
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("%s {{.Version}}\n  Build time: %s\n  Git commit: %s\n",
		name, info.BuildTime, info.GitCommit))

	defaults := config.DefaultConfig(p)
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML settings file")
	fl.BoolVar(&f.showLabel, "show-label", defaults.ShowLabel, "draw the calibration label above the bar")
	fl.StringVar(&f.color, "color", defaults.BarColor, "bar and label color (#RRGGBB, black or white)")
	fl.StringVar(&f.fontPath, "font", "", "font file to use instead of the platform font")
	fl.IntVarP(&f.jobs, "jobs", "j", defaults.Jobs, "images annotated at once in a directory")
	fl.BoolVarP(&f.watch, "watch", "w", false, "keep watching a directory for new images")
	fl.DurationVar(&f.settle, "settle", defaults.Settle, "quiet time before a new file is annotated in watch mode")
	fl.BoolVar(&f.verify, "verify", false, "re-read each written image and check the bar and label")
	fl.BoolVarP(&f.dryRun, "dry-run", "n", false, "report what would be written without writing")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging on stderr")
	return cmd
}

// loadConfig layers the config file and any flags the user set over the
// pipeline defaults.
func loadConfig(cmd *cobra.Command, p pipeline.Profile, f *flags) (*config.Config, error) {
	cfg := config.DefaultConfig(p)
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath, p); err != nil {
			return nil, err
		}
	}

	fl := cmd.Flags()
	if fl.Changed("show-label") {
		cfg.ShowLabel = f.showLabel
	}
	if fl.Changed("color") {
		cfg.BarColor = f.color
	}
	if fl.Changed("font") {
		cfg.FontPath = f.fontPath
	}
	if fl.Changed("jobs") {
		cfg.Jobs = f.jobs
	}
	if fl.Changed("watch") {
		cfg.Watch = f.watch
	}
	if fl.Changed("settle") {
		cfg.Settle = f.settle
	}
	if fl.Changed("verify") {
		cfg.Verify = f.verify
	}
	if fl.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if fl.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	return cfg, cfg.Validate()
}

// run never fails: every problem becomes a message on stdout.
func run(cmd *cobra.Command, p pipeline.Profile, f *flags, path, key string) {
	stdout := cmd.OutOrStdout()
	report := pipeline.NewReporter(stdout)

	cfg, err := loadConfig(cmd, p, f)
	if err != nil {
		fmt.Fprintf(stdout, "Configuration error: %v\n", err)
		return
	}

	log := logging.New(cmd.ErrOrStderr(), cfg.Verbose)
	defer func() { _ = log.Sync() }()

	p, err = cfg.Apply(p)
	if err != nil {
		fmt.Fprintf(stdout, "Configuration error: %v\n", err)
		return
	}

	fonts := imaging.NewPlatformFonts(runtime.GOOS, cfg.FontPath, imaging.NewFontCache())
	if src, err := fonts.Source(); err == nil {
		log.Debug("font", zap.String("name", src.Name), zap.String("path", src.Path))
	}

	opts := cfg.Options(key)
	if cfg.Verify {
		if ocr.Available() {
			opts.Verifier = ocr.NewVerifier()
		} else {
			report.Warn("label verification skipped: %v", ocr.ErrUnavailable)
		}
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	w := pipeline.NewWalker(p, fonts, report, log, opts)
	w.ProcessPath(ctx, path)

	if cfg.Watch {
		watch(ctx, w, report, log, path, cfg.Settle)
	}
}

func watch(ctx context.Context, w *pipeline.Walker, report *pipeline.Reporter, log *zap.Logger, path string, settle time.Duration) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		report.Warn("watch mode needs a directory, %s is not one", path)
		return
	}
	s, err := w.Watch(ctx, path, settle)
	if err != nil {
		log.Error("watch stopped", zap.Error(err))
		report.Warn("watch stopped: %v", err)
		return
	}
	report.Done(s)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs cmd. Errors cobra detects itself (bad flags or argument
// counts) are printed to stdout; the caller always exits 0.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %v\nRun '%s --help' for usage.\n", err, cmd.Name())
	}
}
