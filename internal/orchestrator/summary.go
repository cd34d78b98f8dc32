package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"dropsort/internal/organizer"
	"dropsort/internal/watcher"
)

// Summary contains statistics from a watch session.
type Summary struct {
	mu sync.Mutex

	Organized      int            // Files moved into a category folder
	Failed         int            // Files that could not be moved
	Skipped        int            // Creations ignored by the filter
	Abandoned      int            // Files still settling at shutdown
	Renamed        int            // Moves that needed a " (N)" suffix
	NotifierErrors int            // Transient notification errors
	Bytes          int64          // Total size of moved files
	ByCategory     map[string]int // Moves per category
	Duration       time.Duration
}

func newSummary() *Summary {
	return &Summary{ByCategory: make(map[string]int)}
}

// recordMove adds a successful move. Called concurrently from the handler.
func (s *Summary) recordMove(result *organizer.MoveResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Bytes += result.Size
	s.ByCategory[result.Category]++
	if result.Renamed {
		s.Renamed++
	}
}

// applyWatch copies the watcher's counters into the summary.
func (s *Summary) applyWatch(ws *watcher.WatchSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Organized = ws.FilesOrganized
	s.Failed = ws.FilesFailed
	s.Skipped = ws.FilesSkipped
	s.Abandoned = ws.FilesAbandoned
	s.NotifierErrors = ws.NotifierErrors
	s.Duration = ws.Duration
}

// HasErrors returns true if any file failed to move.
func (s *Summary) HasErrors() bool {
	return s.Failed > 0
}

// PrintSummary returns a one-line description of the session.
func (s *Summary) PrintSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := fmt.Sprintf("organized %d files (%s), %d failed, %d skipped, %d abandoned in %s",
		s.Organized, humanize.Bytes(uint64(s.Bytes)), s.Failed, s.Skipped, s.Abandoned,
		s.Duration.Round(time.Second))
	if len(s.ByCategory) == 0 {
		return line
	}

	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, s.ByCategory[name])
	}
	return line + " [" + strings.Join(parts, " ") + "]"
}
