package audit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"dropsort/internal/organizer"
)

func openTestJournal(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "journal.jsonl")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, path
}

func readAll(t *testing.T, path string) *ReadResult {
	t.Helper()
	result, err := ReadEvents(path)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	return result
}

func TestJournal_SessionLifecycle(t *testing.T) {
	j, path := openTestJournal(t)

	id, err := j.StartSession("1.2.3", "/home/u/Downloads")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := uuid.Parse(string(id)); err != nil {
		t.Errorf("session id %q is not a UUID: %v", id, err)
	}
	if j.CurrentSession() != id {
		t.Errorf("CurrentSession = %q, want %q", j.CurrentSession(), id)
	}

	move := &organizer.MoveResult{
		SourcePath:      "/home/u/Downloads/report.pdf",
		DestinationPath: "/home/u/Downloads/PDF/report (1).pdf",
		Category:        "PDF",
		Size:            2048,
		Mode:            0640,
		Renamed:         true,
		OriginalName:    "report.pdf",
	}
	if err := j.RecordMove(move); err != nil {
		t.Fatalf("RecordMove: %v", err)
	}
	moveErr := &organizer.MoveError{Type: organizer.CreateFailed, Path: "/home/u/Downloads/Images", Err: os.ErrExist}
	if err := j.RecordError("/home/u/Downloads/a.png", moveErr); err != nil {
		t.Fatalf("RecordError: %v", err)
	}
	if err := j.EndSession(SessionSummary{Organized: 1, Failed: 1, Duration: 1500 * time.Millisecond}); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if j.CurrentSession() != "" {
		t.Error("session should be cleared after EndSession")
	}

	result := readAll(t, path)
	if len(result.CorruptLines) != 0 {
		t.Errorf("unexpected corrupt lines %v", result.CorruptLines)
	}
	events := result.Events
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	wantTypes := []EventType{EventSessionStart, EventMove, EventError, EventSessionEnd}
	for i, e := range events {
		if e.EventType != wantTypes[i] {
			t.Errorf("event %d type = %s, want %s", i, e.EventType, wantTypes[i])
		}
		if e.SessionID != id {
			t.Errorf("event %d session = %q, want %q", i, e.SessionID, id)
		}
	}

	start := events[0]
	if start.Metadata["appVersion"] != "1.2.3" || start.Metadata["watchDirectory"] != "/home/u/Downloads" {
		t.Errorf("SESSION_START metadata = %v", start.Metadata)
	}

	mv := events[1]
	if mv.DestinationPath != move.DestinationPath || mv.Category != "PDF" {
		t.Errorf("MOVE event = %+v", mv)
	}
	if mv.ReasonCode != ReasonCollisionRenamed || mv.Metadata["originalName"] != "report.pdf" {
		t.Errorf("MOVE reason/metadata = %s %v", mv.ReasonCode, mv.Metadata)
	}
	if mv.Metadata["size"] != "2048" || mv.Metadata["mode"] != "0640" {
		t.Errorf("MOVE size/mode = %v", mv.Metadata)
	}

	er := events[2]
	if er.Status != StatusFailure || er.ErrorDetails == nil || er.ErrorDetails.ErrorType != "CREATE_FAILED" || er.ErrorDetails.Operation != "mkdir" {
		t.Errorf("ERROR event = %+v details=%+v", er, er.ErrorDetails)
	}

	end := events[3]
	if end.Status != StatusFailure {
		t.Errorf("SESSION_END with failures should be FAILURE, got %s", end.Status)
	}
	if end.Metadata["organized"] != "1" || end.Metadata["failed"] != "1" || end.Metadata["durationMs"] != "1500" {
		t.Errorf("SESSION_END metadata = %v", end.Metadata)
	}
}

func TestJournal_PermissionFailureReason(t *testing.T) {
	j, path := openTestJournal(t)
	if _, err := j.StartSession("dev", "/d"); err != nil {
		t.Fatal(err)
	}

	err := j.RecordMove(&organizer.MoveResult{
		SourcePath:      "/d/x.sh",
		DestinationPath: "/d/Others/x.sh",
		Category:        "Others",
		Mode:            0755,
		PermissionErr:   errors.New("operation not permitted"),
	})
	if err != nil {
		t.Fatalf("RecordMove: %v", err)
	}

	events := readAll(t, path).Events
	mv := events[len(events)-1]
	if mv.Status != StatusSuccess || mv.ReasonCode != ReasonPermissionsNotPreserved {
		t.Errorf("MOVE = %s/%s", mv.Status, mv.ReasonCode)
	}
	if mv.ErrorDetails == nil || mv.ErrorDetails.Operation != "chmod" {
		t.Errorf("expected chmod error details, got %+v", mv.ErrorDetails)
	}
}

func TestJournal_RecordWithoutSession(t *testing.T) {
	j, _ := openTestJournal(t)

	if err := j.RecordMove(&organizer.MoveResult{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("RecordMove err = %v, want ErrNoSession", err)
	}
	if err := j.RecordError("/x", errors.New("boom")); !errors.Is(err, ErrNoSession) {
		t.Errorf("RecordError err = %v, want ErrNoSession", err)
	}
	if err := j.EndSession(SessionSummary{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("EndSession err = %v, want ErrNoSession", err)
	}
}

func TestJournal_UnknownErrorType(t *testing.T) {
	j, path := openTestJournal(t)
	if _, err := j.StartSession("dev", "/d"); err != nil {
		t.Fatal(err)
	}
	if err := j.RecordError("/d/a", fmt.Errorf("wrapped: %w", errors.New("disk full"))); err != nil {
		t.Fatal(err)
	}

	events := readAll(t, path).Events
	details := events[1].ErrorDetails
	if details.ErrorType != "UNKNOWN" || details.Operation != "move" || details.ErrorMessage != "wrapped: disk full" {
		t.Errorf("ErrorDetails = %+v", details)
	}
}

func TestJournal_AppendsAcrossOpens(t *testing.T) {
	j, path := openTestJournal(t)
	first, _ := j.StartSession("dev", "/d")
	j.EndSession(SessionSummary{})
	j.Close()

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	second, _ := j2.StartSession("dev", "/d")
	j2.EndSession(SessionSummary{})

	if first == second {
		t.Error("session IDs must differ")
	}
	sessions := Sessions(readAll(t, path).Events)
	if len(sessions) != 2 || sessions[0].SessionID != first || sessions[1].SessionID != second {
		t.Errorf("Sessions = %+v", sessions)
	}
}

func TestOpen_RepairsTruncatedRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	partial := `{"timestamp":"2024-01-01T00:00:00Z","sessionId":"abc","eventType":"MO`
	if err := os.WriteFile(path, []byte(partial), 0644); err != nil {
		t.Fatal(err)
	}

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j.StartSession("dev", "/d"); err != nil {
		t.Fatal(err)
	}
	j.Close()

	result := readAll(t, path)
	if len(result.CorruptLines) != 1 || result.CorruptLines[0] != 1 {
		t.Errorf("CorruptLines = %v, want [1]", result.CorruptLines)
	}
	if len(result.Events) != 1 || result.Events[0].EventType != EventSessionStart {
		t.Errorf("Events = %+v", result.Events)
	}
}

func TestOpen_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(filepath.Join(blocker, "journal.jsonl")); err == nil {
		t.Error("expected error when parent is a regular file")
	}
}

func TestJournal_OneLinePerEvent(t *testing.T) {
	j, path := openTestJournal(t)
	j.StartSession("dev", "/d")
	for i := 0; i < 5; i++ {
		j.RecordMove(&organizer.MoveResult{SourcePath: fmt.Sprintf("/d/%d.txt", i), DestinationPath: "/d/Documents/x.txt"})
	}
	j.EndSession(SessionSummary{Organized: 5})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 7 {
		t.Errorf("expected 7 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Error("journal must end with a newline")
	}
}
