package optimizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// outputDirName is the sibling directory derived outputs are written into.
const outputDirName = "optimized"

// DeriveOutputPath builds the default output location for an input file:
// optimized/<stem>.<format> next to the input. The input file itself is never
// the derived target, so an in-place overwrite cannot happen by accident.
func DeriveOutputPath(inputPath, format string) string {
	dir := filepath.Dir(inputPath)
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, outputDirName, stem+"."+strings.ToLower(format))
}

// uniquePath returns path unchanged when nothing exists there, otherwise the
// first <stem>-N.<ext> variant that is free. Collisions are only possible for
// derived outputs; an explicit -output target is written as given.
func uniquePath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
