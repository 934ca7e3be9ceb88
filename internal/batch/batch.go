package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hvalle/optimg/internal/optimizer"
)

// supportedExtensions lists the input file extensions collected from a
// directory, matching what the codec layer can decode.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
	".svg":  true,
}

// FileError pairs a failed input with its error.
type FileError struct {
	Path string
	Err  error
}

// Summary aggregates the outcome of one directory run.
type Summary struct {
	Total          int
	Succeeded      int
	Skipped        int
	Failed         int
	OriginalBytes  int64
	OptimizedBytes int64
	Results        []*optimizer.Result
	Errors         []FileError
	Duration       time.Duration
}

// Processor is the per-file operation a batch run applies. Satisfied by
// *optimizer.Optimizer.
type Processor interface {
	Optimize(ctx context.Context, job optimizer.Job) (*optimizer.Result, error)
}

// Runner processes every supported image in a directory on a fixed worker
// pool. Each file is independent; no ordering is guaranteed.
type Runner struct {
	processor Processor
	workers   int
}

// NewRunner creates a batch runner with the given parallelism.
func NewRunner(processor Processor, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{processor: processor, workers: workers}
}

// FindImages returns the supported image files directly inside dir, sorted by
// name. The scan is flat, not recursive.
func FindImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if supportedExtensions[ext] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run optimizes every supported image in dir using template for the per-file
// settings. Files whose derived output already exists are skipped. Workers
// stop picking up new files once ctx is canceled.
func (r *Runner) Run(ctx context.Context, dir string, template optimizer.Job) (*Summary, error) {
	start := time.Now()

	files, err := FindImages(dir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(files)}
	if len(files) == 0 {
		slog.Info("no supported images found", "dir", dir)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	slog.Info("starting batch run",
		"dir", dir,
		"file_count", len(files),
		"workers", r.workers,
		"target_format", template.Format)

	outputs := deriveOutputs(files, template.Format)

	workers := r.workers
	if workers > len(files) {
		workers = len(files)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(workers)

	// Work is distributed by striding to balance uneven file sizes.
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for i := w; i < len(files); i += workers {
				if ctx.Err() != nil {
					return
				}
				r.processOne(ctx, files[i], outputs[i], template, summary, &mu)
			}
		}()
	}

	wg.Wait()
	summary.Duration = time.Since(start)

	slog.Info("batch run complete",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration_ms", summary.Duration.Milliseconds())

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// deriveOutputs maps each input to its output path up front. Inputs sharing a
// stem (a.png and a.jpg both derive a.webp) get a numbered suffix so no two
// workers ever write the same file; files is sorted, so the assignment is
// deterministic.
func deriveOutputs(files []string, format string) []string {
	outputs := make([]string, len(files))
	assigned := make(map[string]bool, len(files))
	for i, path := range files {
		derived := optimizer.DeriveOutputPath(path, format)
		candidate := derived
		for n := 1; assigned[candidate]; n++ {
			ext := filepath.Ext(derived)
			candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(derived, ext), n, ext)
		}
		assigned[candidate] = true
		outputs[i] = candidate
	}
	return outputs
}

func (r *Runner) processOne(ctx context.Context, path, output string, template optimizer.Job, summary *Summary, mu *sync.Mutex) {
	// Outputs that already exist mark the file as done in a previous run;
	// batch mode never re-optimizes them.
	if _, err := os.Stat(output); err == nil {
		slog.Debug("skipping already optimized image", "input", path, "output", output)
		mu.Lock()
		summary.Skipped++
		mu.Unlock()
		return
	}

	job := template
	job.InputPath = path
	job.OutputPath = output

	result, err := r.processor.Optimize(ctx, job)

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		slog.Error("failed to optimize image", "input", path, "error", err)
		summary.Failed++
		summary.Errors = append(summary.Errors, FileError{Path: path, Err: err})
		return
	}
	summary.Succeeded++
	summary.OriginalBytes += result.OriginalBytes
	summary.OptimizedBytes += result.OptimizedBytes
	summary.Results = append(summary.Results, result)
}

// SavedPercent returns the aggregate size reduction across all successes.
func (s *Summary) SavedPercent() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.OriginalBytes-s.OptimizedBytes) / float64(s.OriginalBytes) * 100
}
