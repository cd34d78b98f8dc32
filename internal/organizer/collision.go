// Package organizer moves files into their category folders.
package organizer

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileExists reports whether anything occupies path. Dangling symlinks count as present.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ResolveCollision returns desired if nothing exists there. Otherwise it appends
// " (N)" before the extension, trying N = 1, 2, ... and returns the first free path.
//
// Examples:
//   - "report.pdf" -> "report (1).pdf" (if report.pdf exists)
//   - "report.pdf" -> "report (2).pdf" (if report.pdf and report (1).pdf exist)
//   - "Makefile"   -> "Makefile (1)"
//
// The check is not atomic with the subsequent move.
func ResolveCollision(desired string) string {
	if !FileExists(desired) {
		return desired
	}

	dir := filepath.Dir(desired)
	stem, ext := splitName(filepath.Base(desired))

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, stem+" ("+strconv.Itoa(n)+")"+ext)
		if !FileExists(candidate) {
			return candidate
		}
	}
}

// splitName splits a base name into stem and extension. Leading-dot names
// without a second dot have no extension.
func splitName(name string) (stem, ext string) {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 {
		return name, ""
	}
	return name[:idx], name[idx:]
}
