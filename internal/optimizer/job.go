package optimizer

import (
	"fmt"
	"time"
)

// Tuning constants for the adaptive size search, shared by all formats.
const (
	// DefaultQuality is the starting quality factor when none is configured.
	DefaultQuality = 80

	// MinQuality is the floor below which quality is never reduced; past it
	// the optimizer shrinks dimensions instead.
	MinQuality = 30

	// DefaultMaxSizeKB is the byte-size cap the optimizer works toward.
	DefaultMaxSizeKB = 100

	// targetMinSizeKB is the size under which quality is raised again.
	targetMinSizeKB = 30

	// qualityCeiling caps upward quality adjustment. 100 tends to inflate
	// files disproportionately.
	qualityCeiling = 98

	// resizeFactor is the per-attempt dimension reduction.
	resizeFactor = 0.8

	// maxResizeAttempts bounds the dimension reduction loop.
	maxResizeAttempts = 5

	// largeInputKB marks inputs whose starting quality is lowered up front.
	largeInputKB = 500
)

// Job describes a single optimization: one input file, one encoded output.
// A Job is built once per file from flags and config, consumed by a single
// Optimize call, and discarded.
type Job struct {
	InputPath  string
	OutputPath string // derived from InputPath and Format when empty
	Format     string // target encoding: webp, jpeg or png; webp when empty
	Quality    int    // initial quality factor 0-100; 0 means DefaultQuality unless pinned
	MaxSizeKB  int    // size cap the optimizer works toward; 0 means DefaultMaxSizeKB

	// QualityPinned marks Quality as an explicit request. A pinned quality is
	// still lowered to satisfy the size cap, but never raised above the
	// requested value, and a pinned 0 stays 0 instead of meaning "default".
	QualityPinned bool
}

// Validate checks the job parameters that do not require touching the
// filesystem.
func (j *Job) Validate() error {
	if j.InputPath == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if j.Quality < 0 || j.Quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100, got %d", j.Quality)
	}
	if j.MaxSizeKB <= 0 {
		return fmt.Errorf("max size must be positive, got %dKB", j.MaxSizeKB)
	}
	return nil
}

// Result reports the outcome of one optimization.
type Result struct {
	InputPath      string
	OutputPath     string
	Format         string
	OriginalBytes  int64
	OptimizedBytes int64
	Quality        int // final quality factor used
	OriginalWidth  int
	OriginalHeight int
	FinalWidth     int
	FinalHeight    int
	Resized        bool
	Duration       time.Duration
}

// SavedPercent returns the size reduction as a percentage of the original.
// Negative when the output grew.
func (r *Result) SavedPercent() float64 {
	if r.OriginalBytes == 0 {
		return 0
	}
	return float64(r.OriginalBytes-r.OptimizedBytes) / float64(r.OriginalBytes) * 100
}
