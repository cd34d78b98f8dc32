package watcher

import (
	"path/filepath"
	"strings"
)

// DefaultIgnorePatterns returns the default patterns for in-progress downloads and temp files.
func DefaultIgnorePatterns() []string {
	return []string{
		"*.tmp",
		"*.part",
		"*.download",
		"*.crdownload", // Chrome partial downloads
		"*.partial",    // Generic partial file
		"*.opdownload", // Opera partial downloads
		".~*",          // Office lock files
	}
}

// FileFilter decides which names in the watched directory are never organized.
type FileFilter struct {
	patterns []string
	reserved map[string]struct{}
}

// NewFileFilter creates a FileFilter with the given patterns. A nil slice uses the
// default patterns; an empty non-nil slice disables pattern matching. Reserved names
// (category folders) are matched exactly against the base name.
func NewFileFilter(patterns []string, reserved []string) *FileFilter {
	if patterns == nil {
		patterns = DefaultIgnorePatterns()
	}
	f := &FileFilter{
		patterns: patterns,
		reserved: make(map[string]struct{}, len(reserved)),
	}
	for _, name := range reserved {
		f.reserved[name] = struct{}{}
	}
	return f
}

// ShouldIgnore reports whether path should be left alone. Hidden files, reserved
// names, and names matching an ignore pattern are ignored. Patterns are matched
// against the base name only:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [abc] matches any character in the set
//   - a bare ".ext" pattern matches that suffix case-insensitively
func (f *FileFilter) ShouldIgnore(path string) bool {
	filename := filepath.Base(path)

	if strings.HasPrefix(filename, ".") {
		return true
	}
	if _, ok := f.reserved[filename]; ok {
		return true
	}

	for _, pattern := range f.patterns {
		if matched, err := filepath.Match(pattern, filename); err == nil && matched {
			return true
		}

		if strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?[") {
			if strings.HasSuffix(strings.ToLower(filename), strings.ToLower(pattern)) {
				return true
			}
		}
	}
	return false
}

// IsReserved reports whether name is a category folder name.
func (f *FileFilter) IsReserved(name string) bool {
	_, ok := f.reserved[name]
	return ok
}

// Patterns returns a copy of the ignore patterns.
func (f *FileFilter) Patterns() []string {
	result := make([]string, len(f.patterns))
	copy(result, f.patterns)
	return result
}
