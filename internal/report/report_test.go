package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gookit/color"

	"github.com/hvalle/optimg/internal/batch"
	"github.com/hvalle/optimg/internal/optimizer"
)

func render(fn func(w *bytes.Buffer)) string {
	var buf bytes.Buffer
	fn(&buf)
	// Color codes depend on the environment; compare plain text
	return color.ClearCode(buf.String())
}

func sampleResult() *optimizer.Result {
	return &optimizer.Result{
		InputPath:      "photos/cat.png",
		OutputPath:     "photos/optimized/cat.webp",
		Format:         "webp",
		OriginalBytes:  5 * 1024 * 1024,
		OptimizedBytes: 90 * 1024,
		Quality:        80,
		OriginalWidth:  2000,
		OriginalHeight: 1500,
		FinalWidth:     2000,
		FinalHeight:    1500,
	}
}

func TestPrintResult(t *testing.T) {
	out := render(func(w *bytes.Buffer) {
		PrintResult(w, sampleResult())
	})

	for _, want := range []string{
		"OPTIMIZATION SUMMARY",
		"photos/cat.png",
		"photos/optimized/cat.webp",
		"5.0 MiB",
		"90 KiB",
		"2000x1500",
		"quality 80",
		"saved 98.24%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}

	if strings.Contains(out, "[resized]") {
		t.Error("Expected no resize marker for an unresized result")
	}
}

func TestPrintResult_Resized(t *testing.T) {
	result := sampleResult()
	result.Resized = true
	result.FinalWidth = 1600
	result.FinalHeight = 1200

	out := render(func(w *bytes.Buffer) {
		PrintResult(w, result)
	})

	if !strings.Contains(out, "[resized]") {
		t.Error("Expected resize marker")
	}
	if !strings.Contains(out, "1600x1200") {
		t.Errorf("Expected final dimensions in output, got:\n%s", out)
	}
}

func TestPrintLine_Growth(t *testing.T) {
	result := sampleResult()
	result.OriginalBytes = 1000
	result.OptimizedBytes = 1500

	out := render(func(w *bytes.Buffer) {
		PrintLine(w, result)
	})

	if !strings.Contains(out, "grew 50.00%") {
		t.Errorf("Expected growth to be reported, got:\n%s", out)
	}
}

func TestPrintSummary(t *testing.T) {
	summary := &batch.Summary{
		Total:          4,
		Succeeded:      2,
		Skipped:        1,
		Failed:         1,
		OriginalBytes:  2048 * 1024,
		OptimizedBytes: 512 * 1024,
		Errors: []batch.FileError{
			{Path: "photos/broken.png", Err: errors.New("failed to decode")},
		},
	}

	out := render(func(w *bytes.Buffer) {
		PrintSummary(w, summary)
	})

	for _, want := range []string{
		"BATCH SUMMARY",
		"Processed: 4  Succeeded: 2  Skipped: 1  Failed: 1",
		"saved 75.00%",
		"photos/broken.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}
