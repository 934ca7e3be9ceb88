package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"

	"github.com/hvalle/optimg/internal/batch"
	"github.com/hvalle/optimg/internal/optimizer"
)

const rule = 50

// PrintResult writes the optimization summary for a single file.
func PrintResult(w io.Writer, result *optimizer.Result) {
	fmt.Fprintln(w, color.Yellow.Sprint(strings.Repeat("=", rule)))
	fmt.Fprintln(w, color.Blue.Sprint("  OPTIMIZATION SUMMARY"))
	fmt.Fprintln(w, color.Yellow.Sprint(strings.Repeat("=", rule)))

	fmt.Fprintf(w, "%s: %s - %s (%dx%d)\n",
		color.Red.Sprint("Original"),
		result.InputPath,
		humanize.IBytes(uint64(result.OriginalBytes)),
		result.OriginalWidth,
		result.OriginalHeight)

	fmt.Fprintln(w, formatLine(result))
	fmt.Fprintln(w, color.Yellow.Sprint(strings.Repeat("=", rule)))
}

// PrintSummary writes the aggregate summary of a batch run, followed by any
// per-file failures.
func PrintSummary(w io.Writer, summary *batch.Summary) {
	fmt.Fprintln(w, color.Yellow.Sprint(strings.Repeat("=", rule)))
	fmt.Fprintln(w, color.Blue.Sprint("  BATCH SUMMARY"))
	fmt.Fprintln(w, color.Yellow.Sprint(strings.Repeat("=", rule)))

	fmt.Fprintf(w, "Processed: %d  Succeeded: %d  Skipped: %d  Failed: %d\n",
		summary.Total, summary.Succeeded, summary.Skipped, summary.Failed)

	if summary.Succeeded > 0 {
		fmt.Fprintf(w, "%s %s -> %s (%s)\n",
			color.Green.Sprint("Total size:"),
			humanize.IBytes(uint64(summary.OriginalBytes)),
			humanize.IBytes(uint64(summary.OptimizedBytes)),
			savings(summary.SavedPercent()))
	}

	for _, fe := range summary.Errors {
		fmt.Fprintf(w, "%s %s: %v\n", color.Red.Sprint("Failed:"), fe.Path, fe.Err)
	}
	fmt.Fprintln(w, color.Yellow.Sprint(strings.Repeat("=", rule)))
}

// PrintLine writes the one-line per-file report used in batch verbose output.
func PrintLine(w io.Writer, result *optimizer.Result) {
	fmt.Fprintln(w, formatLine(result))
}

func formatLine(result *optimizer.Result) string {
	line := fmt.Sprintf("%s: %s - %s (quality %d, %s)",
		color.Green.Sprint(strings.ToUpper(result.Format)),
		result.OutputPath,
		humanize.IBytes(uint64(result.OptimizedBytes)),
		result.Quality,
		savings(result.SavedPercent()))
	if result.Resized {
		line += fmt.Sprintf(" %s to %dx%d",
			color.Bold.Sprint("[resized]"),
			result.FinalWidth,
			result.FinalHeight)
	}
	return line
}

// savings renders a percentage, green when the file shrank and red when the
// re-encode inflated it.
func savings(percent float64) string {
	text := fmt.Sprintf("saved %.2f%%", percent)
	if percent < 0 {
		return color.Red.Sprintf("grew %.2f%%", -percent)
	}
	return color.Green.Sprint(text)
}
