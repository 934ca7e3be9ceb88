package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hvalle/optimg/internal/batch"
	"github.com/hvalle/optimg/internal/codec"
	"github.com/hvalle/optimg/internal/config"
	"github.com/hvalle/optimg/internal/optimizer"
	"github.com/hvalle/optimg/internal/report"
)

// Exit codes. Each error kind gets its own code so callers can distinguish
// failures without parsing stderr.
const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitNotFound    = 2
	ExitUnsupported = 3
	ExitWrite       = 4
)

type options struct {
	output        string
	format        string
	quality       int
	qualityPinned bool // -quality was passed explicitly
	maxSizeKB     int
	workers       int
	config        string
	verbose       bool
	input         string
}

// Run parses args, executes one optimization (file) or a batch run
// (directory), and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitOK
		}
		fmt.Fprintf(stderr, "optimg: %v\n", err)
		return ExitUsage
	}

	setupLogging(stderr, opts.verbose)

	cfg, err := config.Resolve(opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "optimg: %v\n", err)
		return ExitUsage
	}
	applyDefaults(opts, cfg)

	job := optimizer.Job{
		InputPath:     opts.input,
		OutputPath:    opts.output,
		Format:        opts.format,
		Quality:       opts.quality,
		QualityPinned: opts.qualityPinned,
		MaxSizeKB:     opts.maxSizeKB,
	}

	info, err := os.Stat(opts.input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(stderr, "optimg: %s: no such file or directory\n", opts.input)
			return ExitNotFound
		}
		fmt.Fprintf(stderr, "optimg: %v\n", err)
		return ExitUsage
	}

	if info.IsDir() {
		return runBatch(ctx, opts, job, stdout, stderr)
	}
	return runSingle(ctx, opts, job, stdout, stderr)
}

func runSingle(ctx context.Context, opts *options, job optimizer.Job, stdout, stderr io.Writer) int {
	result, err := optimizer.New().Optimize(ctx, job)
	if err != nil {
		fmt.Fprintf(stderr, "optimg: %v\n", err)
		return exitCodeFor(err)
	}

	if opts.verbose {
		report.PrintResult(stdout, result)
	} else {
		report.PrintLine(stdout, result)
	}
	return ExitOK
}

func runBatch(ctx context.Context, opts *options, job optimizer.Job, stdout, stderr io.Writer) int {
	if opts.output != "" {
		fmt.Fprintln(stderr, "optimg: -output cannot be combined with a directory input")
		return ExitUsage
	}
	job.OutputPath = ""

	runner := batch.NewRunner(optimizer.New(), opts.workers)
	summary, err := runner.Run(ctx, opts.input, job)
	if err != nil && summary == nil {
		fmt.Fprintf(stderr, "optimg: %v\n", err)
		return exitCodeFor(err)
	}

	if opts.verbose {
		for _, result := range summary.Results {
			report.PrintLine(stdout, result)
		}
	}
	report.PrintSummary(stdout, summary)

	if len(summary.Errors) > 0 {
		return exitCodeFor(summary.Errors[0].Err)
	}
	if err != nil {
		// context canceled mid-run
		fmt.Fprintf(stderr, "optimg: %v\n", err)
		return ExitUsage
	}
	return ExitOK
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("optimg", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.output, "output", "", "destination file (single-file mode only)")
	fs.StringVar(&opts.format, "format", "", "target format: webp, jpeg or png (default webp)")
	fs.IntVar(&opts.quality, "quality", -1, "initial quality factor 0-100 (default 80)")
	fs.IntVar(&opts.maxSizeKB, "max-size", 0, "size cap in KB to optimize toward (default 100)")
	fs.IntVar(&opts.workers, "workers", 0, "parallel workers in directory mode (default 4)")
	fs.StringVar(&opts.config, "config", "", "path to a YAML defaults file")
	fs.BoolVar(&opts.verbose, "verbose", false, "print detailed diagnostics and the savings report")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: optimg [flags] <path-to-image-or-directory>")
		fmt.Fprintln(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected exactly one input path, got %d", fs.NArg())
	}
	opts.input = fs.Arg(0)

	if opts.format != "" && !codec.DefaultRegistry.IsRegistered(opts.format) {
		return nil, fmt.Errorf("unknown target format %q (supported: %v)",
			opts.format, codec.DefaultRegistry.Formats())
	}
	if opts.quality != -1 && (opts.quality < 0 || opts.quality > 100) {
		return nil, fmt.Errorf("quality must be between 0 and 100, got %d", opts.quality)
	}
	opts.qualityPinned = opts.quality != -1

	return opts, nil
}

// applyDefaults fills flag values left unset from the resolved configuration.
func applyDefaults(opts *options, cfg *config.Config) {
	if opts.format == "" {
		opts.format = cfg.Format
	}
	if opts.quality == -1 {
		opts.quality = cfg.Quality
	}
	if opts.maxSizeKB <= 0 {
		opts.maxSizeKB = cfg.MaxSizeKB
	}
	if opts.workers <= 0 {
		opts.workers = cfg.Workers
	}
}

// setupLogging routes slog to stderr. Verbose mode surfaces the step-level
// debug logs; otherwise only warnings get through so reports stay clean.
func setupLogging(stderr io.Writer, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, optimizer.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, codec.ErrUnsupportedFormat):
		return ExitUnsupported
	case errors.Is(err, optimizer.ErrWrite):
		return ExitWrite
	default:
		return ExitUsage
	}
}
