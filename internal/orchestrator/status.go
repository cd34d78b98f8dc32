package orchestrator

import (
	"fmt"
	"path/filepath"
	"sort"

	"dropsort/internal/scanner"
	"dropsort/internal/watcher"
)

// StatusResult describes the files currently sitting in the watched directory
// and where a session would put them. Nothing is moved.
type StatusResult struct {
	Directory  string
	ByCategory map[string][]string // category -> file names, sorted
	Ignored    []string            // names the watcher would skip
	Total      int                 // files that would be organized
	Locked     bool                // a session currently holds the directory lock
}

// Status scans the top level of the watched directory and classifies each file
// the way a session started with --organize-existing would.
func (o *Orchestrator) Status() (*StatusResult, error) {
	dir := o.config.WatchDirectory

	files, err := scanner.Scan(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	filter := watcher.NewFileFilter(o.config.IgnorePatterns, o.extMap.Names())
	result := &StatusResult{
		Directory:  dir,
		ByCategory: make(map[string][]string),
		Locked:     lockHeld(dir),
	}

	for _, file := range files {
		if filter.ShouldIgnore(file.FullPath) {
			result.Ignored = append(result.Ignored, file.Name)
			continue
		}
		category := o.extMap.Classify(file.FullPath)
		result.ByCategory[category] = append(result.ByCategory[category], file.Name)
		result.Total++
	}

	return result, nil
}

// Categories returns the category names in the result, sorted.
func (r *StatusResult) Categories() []string {
	names := make([]string, 0, len(r.ByCategory))
	for name := range r.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Destination returns the folder a category maps to.
func (r *StatusResult) Destination(category string) string {
	return filepath.Join(r.Directory, category)
}
