package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hvalle/optimg/internal/optimizer"
)

// mockProcessor records the jobs it receives and can fail selected inputs.
type mockProcessor struct {
	mu       sync.Mutex
	jobs     []optimizer.Job
	failPath string
}

func (m *mockProcessor) Optimize(_ context.Context, job optimizer.Job) (*optimizer.Result, error) {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()

	if m.failPath != "" && job.InputPath == m.failPath {
		return nil, fmt.Errorf("%s: %w", job.InputPath, optimizer.ErrNotFound)
	}
	return &optimizer.Result{
		InputPath:      job.InputPath,
		OutputPath:     job.OutputPath,
		Format:         job.Format,
		OriginalBytes:  1000,
		OptimizedBytes: 400,
	}, nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func TestFindImages(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.png", "b.JPG", "c.jpeg", "d.webp", "e.svg", "notes.txt", "f.tiff")
	if err := os.Mkdir(filepath.Join(tmpDir, "sub"), 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}
	writeFiles(t, filepath.Join(tmpDir, "sub"), "nested.png")

	files, err := FindImages(tmpDir)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}

	// Sorted, flat, images only
	expected := []string{
		filepath.Join(tmpDir, "a.png"),
		filepath.Join(tmpDir, "b.JPG"),
		filepath.Join(tmpDir, "c.jpeg"),
		filepath.Join(tmpDir, "d.webp"),
		filepath.Join(tmpDir, "e.svg"),
		filepath.Join(tmpDir, "f.tiff"),
	}
	if len(files) != len(expected) {
		t.Fatalf("Expected %d files, got %d: %v", len(expected), len(files), files)
	}
	for i, path := range expected {
		if files[i] != path {
			t.Errorf("Expected %s at index %d, got %s", path, i, files[i])
		}
	}
}

func TestFindImages_MissingDirectory(t *testing.T) {
	_, err := FindImages(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("Expected error for missing directory, got nil")
	}
}

func TestRunner_Run(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.png", "b.png", "c.png")

	processor := &mockProcessor{}
	runner := NewRunner(processor, 2)

	summary, err := runner.Run(context.Background(), tmpDir, optimizer.Job{Format: "webp"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Total != 3 {
		t.Errorf("Expected total 3, got %d", summary.Total)
	}
	if summary.Succeeded != 3 {
		t.Errorf("Expected 3 successes, got %d", summary.Succeeded)
	}
	if summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("Expected no failures or skips, got %d/%d", summary.Failed, summary.Skipped)
	}
	if summary.OriginalBytes != 3000 || summary.OptimizedBytes != 1200 {
		t.Errorf("Expected totals 3000/1200, got %d/%d",
			summary.OriginalBytes, summary.OptimizedBytes)
	}

	// Every job must carry a derived output path inside optimized/
	for _, job := range processor.jobs {
		expected := optimizer.DeriveOutputPath(job.InputPath, "webp")
		if job.OutputPath != expected {
			t.Errorf("Expected output path %s, got %s", expected, job.OutputPath)
		}
	}
}

func TestRunner_Run_StemCollision(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.jpg", "a.png", "b.png")

	processor := &mockProcessor{}
	runner := NewRunner(processor, 2)

	summary, err := runner.Run(context.Background(), tmpDir, optimizer.Job{Format: "webp"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Succeeded != 3 {
		t.Fatalf("Expected 3 successes, got %d", summary.Succeeded)
	}

	// a.jpg and a.png both derive a.webp; no two inputs may share an output.
	seen := make(map[string]string)
	for _, job := range processor.jobs {
		if prev, ok := seen[job.OutputPath]; ok {
			t.Fatalf("Output %s assigned to both %s and %s",
				job.OutputPath, prev, job.InputPath)
		}
		seen[job.OutputPath] = job.InputPath
	}

	// Inputs are sorted, so a.jpg keeps the plain name and a.png is numbered.
	expected := map[string]string{
		filepath.Join(tmpDir, "a.jpg"): filepath.Join(tmpDir, "optimized", "a.webp"),
		filepath.Join(tmpDir, "a.png"): filepath.Join(tmpDir, "optimized", "a-1.webp"),
		filepath.Join(tmpDir, "b.png"): filepath.Join(tmpDir, "optimized", "b.webp"),
	}
	for _, job := range processor.jobs {
		if job.OutputPath != expected[job.InputPath] {
			t.Errorf("Expected %s for %s, got %s",
				expected[job.InputPath], job.InputPath, job.OutputPath)
		}
	}
}

func TestRunner_Run_SkipsExistingOutputs(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.png", "b.png")

	// Pre-create the derived output for a.png
	existing := optimizer.DeriveOutputPath(filepath.Join(tmpDir, "a.png"), "webp")
	if err := os.MkdirAll(filepath.Dir(existing), 0o755); err != nil {
		t.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.WriteFile(existing, []byte("done"), 0o644); err != nil {
		t.Fatalf("Failed to create existing output: %v", err)
	}

	processor := &mockProcessor{}
	runner := NewRunner(processor, 1)

	summary, err := runner.Run(context.Background(), tmpDir, optimizer.Job{Format: "webp"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Skipped != 1 {
		t.Errorf("Expected 1 skip, got %d", summary.Skipped)
	}
	if summary.Succeeded != 1 {
		t.Errorf("Expected 1 success, got %d", summary.Succeeded)
	}
	if len(processor.jobs) != 1 {
		t.Fatalf("Expected 1 processed job, got %d", len(processor.jobs))
	}
	if processor.jobs[0].InputPath != filepath.Join(tmpDir, "b.png") {
		t.Errorf("Expected only b.png to be processed, got %s", processor.jobs[0].InputPath)
	}
}

func TestRunner_Run_CollectsFailures(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.png", "b.png", "c.png")

	failPath := filepath.Join(tmpDir, "b.png")
	processor := &mockProcessor{failPath: failPath}
	runner := NewRunner(processor, 3)

	summary, err := runner.Run(context.Background(), tmpDir, optimizer.Job{Format: "webp"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Failed != 1 {
		t.Fatalf("Expected 1 failure, got %d", summary.Failed)
	}
	if summary.Succeeded != 2 {
		t.Errorf("Expected 2 successes, got %d", summary.Succeeded)
	}
	if summary.Errors[0].Path != failPath {
		t.Errorf("Expected failed path %s, got %s", failPath, summary.Errors[0].Path)
	}
	if !errors.Is(summary.Errors[0].Err, optimizer.ErrNotFound) {
		t.Errorf("Expected wrapped ErrNotFound, got %v", summary.Errors[0].Err)
	}
}

func TestRunner_Run_EmptyDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	runner := NewRunner(&mockProcessor{}, 4)
	summary, err := runner.Run(context.Background(), tmpDir, optimizer.Job{Format: "webp"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Total != 0 {
		t.Errorf("Expected empty summary, got total %d", summary.Total)
	}
}

func TestRunner_Run_Canceled(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, "a.png", "b.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(&mockProcessor{}, 1)
	summary, err := runner.Run(ctx, tmpDir, optimizer.Job{Format: "webp"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if summary == nil {
		t.Fatal("Expected a partial summary even when canceled")
	}
	if summary.Succeeded != 0 {
		t.Errorf("Expected no files processed after cancellation, got %d", summary.Succeeded)
	}
}

func TestSummary_SavedPercent(t *testing.T) {
	summary := Summary{OriginalBytes: 2000, OptimizedBytes: 500}
	if got := summary.SavedPercent(); got != 75 {
		t.Errorf("Expected 75%%, got %.2f%%", got)
	}

	empty := Summary{}
	if got := empty.SavedPercent(); got != 0 {
		t.Errorf("Expected 0%% for empty summary, got %.2f%%", got)
	}
}
