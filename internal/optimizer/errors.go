package optimizer

import "errors"

// Error taxonomy for a single optimization run. All of these are terminal for
// the invocation; callers map them to distinct exit codes.
var (
	// ErrNotFound is returned when the input path does not exist or is not a
	// regular file.
	ErrNotFound = errors.New("input file not found")

	// ErrWrite is returned when the optimized output cannot be written.
	ErrWrite = errors.New("failed to write output")
)
