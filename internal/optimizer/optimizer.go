package optimizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/hvalle/optimg/internal/codec"
)

// Optimizer re-encodes images toward a byte-size cap, trading quality first
// and dimensions second.
type Optimizer struct {
	registry *codec.Registry
}

// New creates an optimizer backed by the default codec registry.
func New() *Optimizer {
	return NewWithRegistry(codec.DefaultRegistry)
}

// NewWithRegistry creates an optimizer backed by the given codec registry.
func NewWithRegistry(registry *codec.Registry) *Optimizer {
	return &Optimizer{registry: registry}
}

// Optimize runs a single job: decode the input, search for an encoding at or
// under the size cap, and write the result. The input file is never modified.
func (o *Optimizer) Optimize(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()

	if job.Format == "" {
		job.Format = "webp"
	}
	if job.Quality == 0 && !job.QualityPinned {
		job.Quality = DefaultQuality
	}
	if job.MaxSizeKB == 0 {
		job.MaxSizeKB = DefaultMaxSizeKB
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}

	info, err := os.Stat(job.InputPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", job.InputPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", job.InputPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file: %w", job.InputPath, ErrNotFound)
	}

	data, err := os.ReadFile(job.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", job.InputPath, err)
	}

	img, inputFormat, err := codec.DecodeAny(data)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", job.InputPath, err)
	}

	targetCodec, err := o.registry.Lookup(job.Format)
	if err != nil {
		return nil, err
	}

	originalBytes := info.Size()
	bounds := img.Bounds()

	slog.Info("optimizing image",
		"input", job.InputPath,
		"input_format", inputFormat,
		"target_format", job.Format,
		"original_size_bytes", originalBytes,
		"width", bounds.Dx(),
		"height", bounds.Dy())

	// A pinned quality is the user's request: no up-front heuristic lowering
	// and no upward adjustment later; only the size cap may force it down.
	initialQuality := job.Quality
	if !job.QualityPinned {
		initialQuality = adjustInitialQuality(job.Quality, originalBytes)
	}

	encoded, finalImg, finalQuality, resized, err := o.shrinkToTarget(
		ctx, targetCodec, img, initialQuality, job.MaxSizeKB, !job.QualityPinned)
	if err != nil {
		return nil, err
	}

	outputPath := job.OutputPath
	if outputPath == "" {
		outputPath = uniquePath(DeriveOutputPath(job.InputPath, job.Format))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory for %s: %w (%w)",
			outputPath, err, ErrWrite)
	}

	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w (%w)", outputPath, err, ErrWrite)
	}

	result := &Result{
		InputPath:      job.InputPath,
		OutputPath:     outputPath,
		Format:         job.Format,
		OriginalBytes:  originalBytes,
		OptimizedBytes: int64(len(encoded)),
		Quality:        finalQuality,
		OriginalWidth:  bounds.Dx(),
		OriginalHeight: bounds.Dy(),
		FinalWidth:     finalImg.Bounds().Dx(),
		FinalHeight:    finalImg.Bounds().Dy(),
		Resized:        resized,
		Duration:       time.Since(start),
	}

	slog.Info("optimization complete",
		"output", result.OutputPath,
		"optimized_size_bytes", result.OptimizedBytes,
		"quality", result.Quality,
		"resized", result.Resized,
		"saved_percent", fmt.Sprintf("%.2f", result.SavedPercent()),
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// adjustInitialQuality lowers the starting quality for large inputs so the
// search converges in fewer encode passes.
func adjustInitialQuality(quality int, originalBytes int64) int {
	if originalBytes > largeInputKB*1024 {
		lowered := quality - 10
		if lowered < MinQuality {
			lowered = MinQuality
		}
		slog.Debug("large input, lowering initial quality",
			"original_size_bytes", originalBytes,
			"quality", lowered)
		return lowered
	}
	return quality
}

// shrinkToTarget searches for an encoding at or under maxSizeKB. Quality is
// reduced first; once it hits MinQuality the dimensions are shrunk by
// resizeFactor and the quality search restarts at the new size, up to
// maxResizeAttempts times. When allowRaise is set, results that land well
// under the cap without a resize get their quality raised back up.
func (o *Optimizer) shrinkToTarget(ctx context.Context, c codec.Codec, img image.Image, initialQuality, maxSizeKB int, allowRaise bool) ([]byte, image.Image, int, bool, error) {
	maxBytes := maxSizeKB * 1024
	quality := initialQuality
	current := img
	resized := false
	resizeCount := 0

	encoded, err := encodeBytes(c, current, quality)
	if err != nil {
		return nil, nil, 0, false, err
	}

	lossless := c.Format() == "png"

	for len(encoded) > maxBytes {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, false, err
		}

		if !lossless && quality > MinQuality {
			reduction := 5
			if len(encoded) > 2*maxBytes {
				reduction = 10
			}
			quality -= reduction
			if quality < MinQuality {
				quality = MinQuality
			}
			slog.Debug("reducing quality",
				"quality", quality,
				"current_size_bytes", len(encoded))
		} else {
			if resizeCount >= maxResizeAttempts {
				slog.Warn("could not reach size cap, keeping smallest attempt",
					"cap_kb", maxSizeKB,
					"resize_attempts", resizeCount,
					"current_size_bytes", len(encoded))
				break
			}

			oldBounds := current.Bounds()
			newWidth := int(float64(oldBounds.Dx()) * resizeFactor)
			newHeight := int(float64(oldBounds.Dy()) * resizeFactor)
			if newWidth < 1 || newHeight < 1 {
				slog.Warn("image too small to shrink further",
					"width", oldBounds.Dx(),
					"height", oldBounds.Dy())
				break
			}

			slog.Debug("shrinking dimensions",
				"from_width", oldBounds.Dx(),
				"from_height", oldBounds.Dy(),
				"to_width", newWidth,
				"to_height", newHeight)

			current = imaging.Resize(current, newWidth, newHeight, imaging.Lanczos)
			quality = initialQuality
			resized = true
			resizeCount++
		}

		encoded, err = encodeBytes(c, current, quality)
		if err != nil {
			return nil, nil, 0, false, err
		}
	}

	// Raise quality again when the first pass undershot and dimensions are
	// untouched, staying under the cap.
	if allowRaise && !lossless && !resized && len(encoded) < targetMinSizeKB*1024 {
		for len(encoded) < targetMinSizeKB*1024 && quality < qualityCeiling {
			next := quality + 5
			if next > qualityCeiling {
				next = qualityCeiling
			}
			attempt, err := encodeBytes(c, current, next)
			if err != nil {
				return nil, nil, 0, false, err
			}
			if len(attempt) > maxBytes {
				break
			}
			quality = next
			encoded = attempt
			slog.Debug("raising quality",
				"quality", quality,
				"current_size_bytes", len(encoded))
		}
	}

	return encoded, current, quality, resized, nil
}

// encodeBytes runs one encode pass into memory.
func encodeBytes(c codec.Codec, img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, img, quality); err != nil {
		return nil, fmt.Errorf("encode pass at quality %d: %w", quality, err)
	}
	return buf.Bytes(), nil
}
