// Package config holds the run settings shared by both command-line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/scalebar-tools/internal/imaging"
	"github.com/ironsheep/scalebar-tools/internal/pipeline"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the set of user-adjustable settings. Calibration tables and
// layout offsets are fixed per pipeline and cannot be changed here.
type Config struct {
	// ShowLabel draws the calibration label above the bar.
	ShowLabel bool `yaml:"show_label"`

	// BarColor is the bar and label color as #RGB, #RRGGBB, black or white.
	BarColor string `yaml:"bar_color"`

	// FontPath replaces the platform font lookup when set.
	FontPath string `yaml:"font_path"`

	// Jobs is the number of files annotated at once in a directory run.
	Jobs int `yaml:"jobs"`

	// Watch keeps running after a directory pass and annotates new files.
	Watch bool `yaml:"watch"`

	// Settle is how long a new file must be quiet before it is annotated.
	Settle time.Duration `yaml:"settle"`

	// Verify re-reads each written image to check the bar, and the label when
	// OCR support is compiled in.
	Verify bool `yaml:"verify"`

	// DryRun reports outputs without writing them.
	DryRun bool `yaml:"dry_run"`

	// Verbose enables debug logging on stderr.
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the settings p runs with when nothing is overridden.
func DefaultConfig(p pipeline.Profile) *Config {
	return &Config{
		ShowLabel: p.ShowLabel,
		BarColor:  imaging.HexString(p.Layout.Color),
		Jobs:      1,
		Settle:    pipeline.DefaultSettle,
	}
}

// Load reads a YAML file over the defaults for p. Keys missing from the
// file keep their default values.
func Load(path string, p pipeline.Profile) (*Config, error) {
	cfg := DefaultConfig(p)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Save writes c as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late, per file.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalid, c.Jobs)
	}
	if c.Settle < 0 {
		return fmt.Errorf("%w: settle must not be negative, got %s", ErrInvalid, c.Settle)
	}
	if _, err := imaging.ParseHexColor(c.BarColor); err != nil {
		return fmt.Errorf("%w: bar_color: %v", ErrInvalid, err)
	}
	if c.FontPath != "" {
		fi, err := os.Stat(c.FontPath)
		if err != nil {
			return fmt.Errorf("%w: font_path: %v", ErrInvalid, err)
		}
		if fi.IsDir() {
			return fmt.Errorf("%w: font_path %s is a directory", ErrInvalid, c.FontPath)
		}
	}
	return nil
}

// Apply returns p with the label and color settings of c.
func (c *Config) Apply(p pipeline.Profile) (pipeline.Profile, error) {
	col, err := imaging.ParseHexColor(c.BarColor)
	if err != nil {
		return p, fmt.Errorf("%w: bar_color: %v", ErrInvalid, err)
	}
	p.ShowLabel = c.ShowLabel
	p.Layout.Color = col
	return p, nil
}

// Options returns the walker options for c. key is the explicit calibration
// key, empty to infer it from file names.
func (c *Config) Options(key string) pipeline.Options {
	return pipeline.Options{
		Key:    key,
		Jobs:   c.Jobs,
		DryRun: c.DryRun,
		Verify: c.Verify,
	}
}
