package audit

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"dropsort/internal/organizer"
)

// ErrNoSession is returned when an event is recorded outside a session.
var ErrNoSession = errors.New("no active session: call StartSession first")

// Journal appends events to a JSON Lines file. Each record is flushed and
// synced before the call returns. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	file    *os.File
	writer  *bufio.Writer
	path    string
	session *SessionID
	now     func() time.Time
}

// Open opens the journal at path for appending, creating it and its parent
// directory if needed. A journal whose last record was cut short is
// terminated with a newline so new records start on their own line.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{
		file:   file,
		writer: bufio.NewWriter(file),
		path:   path,
		now:    func() time.Time { return time.Now().UTC() },
	}

	if err := j.repairTail(); err != nil {
		file.Close()
		return nil, err
	}

	return j, nil
}

// repairTail appends a newline if the file does not end with one.
func (j *Journal) repairTail() error {
	info, err := j.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat journal: %w", err)
	}
	if info.Size() == 0 {
		return nil
	}

	last := make([]byte, 1)
	if _, err := j.file.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return fmt.Errorf("failed to read journal tail: %w", err)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := j.file.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to terminate truncated record: %w", err)
	}
	return nil
}

// NewSessionID generates a new UUID v4 session identifier.
func NewSessionID() (SessionID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate UUID: %w", err)
	}
	return SessionID(id.String()), nil
}

// StartSession begins a session and writes the SESSION_START event.
func (j *Journal) StartSession(appVersion, watchDir string) (SessionID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id, err := NewSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	hostname, _ := os.Hostname()
	event := Event{
		Timestamp: j.now(),
		SessionID: id,
		EventType: EventSessionStart,
		Status:    StatusSuccess,
		Metadata: map[string]string{
			"appVersion":     appVersion,
			"watchDirectory": watchDir,
			"hostname":       hostname,
			"pid":            strconv.Itoa(os.Getpid()),
		},
	}

	if err := j.writeEventLocked(event); err != nil {
		return "", fmt.Errorf("failed to write SESSION_START event: %w", err)
	}

	j.session = &id
	return id, nil
}

// EndSession writes the SESSION_END event with the session totals.
// The status is FAILURE if any file failed to move.
func (j *Journal) EndSession(summary SessionSummary) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session == nil {
		return ErrNoSession
	}

	status := StatusSuccess
	if summary.Failed > 0 {
		status = StatusFailure
	}

	event := Event{
		Timestamp: j.now(),
		SessionID: *j.session,
		EventType: EventSessionEnd,
		Status:    status,
		Metadata: map[string]string{
			"organized":  strconv.Itoa(summary.Organized),
			"failed":     strconv.Itoa(summary.Failed),
			"skipped":    strconv.Itoa(summary.Skipped),
			"abandoned":  strconv.Itoa(summary.Abandoned),
			"durationMs": strconv.FormatInt(summary.Duration.Milliseconds(), 10),
		},
	}

	if err := j.writeEventLocked(event); err != nil {
		return fmt.Errorf("failed to write SESSION_END event: %w", err)
	}

	j.session = nil
	return nil
}

// RecordMove records a MOVE event for a completed move.
func (j *Journal) RecordMove(result *organizer.MoveResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session == nil {
		return ErrNoSession
	}

	event := Event{
		Timestamp:       j.now(),
		SessionID:       *j.session,
		EventType:       EventMove,
		Status:          StatusSuccess,
		SourcePath:      result.SourcePath,
		DestinationPath: result.DestinationPath,
		Category:        result.Category,
		Metadata: map[string]string{
			"size": strconv.FormatInt(result.Size, 10),
			"mode": fmt.Sprintf("%#o", uint32(result.Mode.Perm())),
		},
	}

	switch {
	case result.PermissionErr != nil:
		event.ReasonCode = ReasonPermissionsNotPreserved
		event.ErrorDetails = &ErrorDetails{
			ErrorType:    "CHMOD_FAILED",
			ErrorMessage: result.PermissionErr.Error(),
			Operation:    "chmod",
		}
	case result.Renamed:
		event.ReasonCode = ReasonCollisionRenamed
	}
	if result.Renamed {
		event.Metadata["originalName"] = result.OriginalName
	}

	return j.writeEventLocked(event)
}

// RecordError records an ERROR event for a file that could not be moved.
func (j *Journal) RecordError(source string, err error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session == nil {
		return ErrNoSession
	}

	details := &ErrorDetails{
		ErrorType:    "UNKNOWN",
		ErrorMessage: err.Error(),
		Operation:    "move",
	}
	var moveErr *organizer.MoveError
	if errors.As(err, &moveErr) {
		details.ErrorType = string(moveErr.Type)
		if moveErr.Type == organizer.CreateFailed {
			details.Operation = "mkdir"
		}
	}

	event := Event{
		Timestamp:    j.now(),
		SessionID:    *j.session,
		EventType:    EventError,
		Status:       StatusFailure,
		SourcePath:   source,
		ErrorDetails: details,
	}

	return j.writeEventLocked(event)
}

// writeEventLocked writes one JSON line and syncs it to disk.
func (j *Journal) writeEventLocked(event Event) error {
	data, err := event.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := j.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := j.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event to disk: %w", err)
	}

	return nil
}

// Close flushes any buffered data and closes the journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush on close: %w", err)
	}
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}

// CurrentSession returns the active session ID, or "" if none.
func (j *Journal) CurrentSession() SessionID {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.session == nil {
		return ""
	}
	return *j.session
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}
