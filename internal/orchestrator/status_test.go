package orchestrator

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"dropsort/internal/logging"
	"dropsort/internal/organizer"
	"dropsort/internal/watcher"
)

func TestStatus_GroupsPendingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "invoice.pdf", "README", "movie.mkv.part", ".hidden.txt"} {
		writeFile(t, filepath.Join(dir, name), "x", 0644)
	}
	writeFile(t, filepath.Join(dir, "Images", "old.png"), "x", 0644)

	o, err := NewWithConfig(testConfig(t), Options{WatchDir: dir, Logger: logging.NewNop()})
	if err != nil {
		t.Fatal(err)
	}

	status, err := o.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	want := map[string][]string{
		"Images": {"a.jpg", "b.png"},
		"PDF":    {"invoice.pdf"},
		"Others": {"README"},
	}
	if !reflect.DeepEqual(status.ByCategory, want) {
		t.Errorf("ByCategory = %v, want %v", status.ByCategory, want)
	}
	if status.Total != 4 {
		t.Errorf("Total = %d, want 4", status.Total)
	}
	if !reflect.DeepEqual(status.Ignored, []string{".hidden.txt", "movie.mkv.part"}) {
		t.Errorf("Ignored = %v", status.Ignored)
	}
	if status.Locked {
		t.Error("no session is running")
	}
	if got := status.Categories(); !reflect.DeepEqual(got, []string{"Images", "Others", "PDF"}) {
		t.Errorf("Categories = %v", got)
	}
	if got := status.Destination("PDF"); got != filepath.Join(dir, "PDF") {
		t.Errorf("Destination = %q", got)
	}

	// Status must not move anything.
	if !exists(filepath.Join(dir, "a.jpg")) {
		t.Error("Status moved a file")
	}
}

func TestSummary_PrintSummary(t *testing.T) {
	s := newSummary()
	s.recordMove(&organizer.MoveResult{Category: "Images", Size: 1500})
	s.recordMove(&organizer.MoveResult{Category: "PDF", Size: 500, Renamed: true})
	s.applyWatch(&watcher.WatchSummary{
		FilesOrganized: 2,
		FilesFailed:    1,
		FilesSkipped:   3,
		Duration:       61 * time.Second,
	})

	got := s.PrintSummary()
	want := "organized 2 files (2.0 kB), 1 failed, 3 skipped, 0 abandoned in 1m1s [Images=1 PDF=1]"
	if got != want {
		t.Errorf("PrintSummary() = %q, want %q", got, want)
	}
	if !s.HasErrors() || s.Renamed != 1 || s.Bytes != 2000 {
		t.Errorf("summary = %+v", s)
	}

	empty := newSummary()
	if got := empty.PrintSummary(); got != "organized 0 files (0 B), 0 failed, 0 skipped, 0 abandoned in 0s" {
		t.Errorf("empty PrintSummary() = %q", got)
	}
}
