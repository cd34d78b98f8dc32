package audit

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"
)

// ReadResult holds the events parsed from a journal file.
type ReadResult struct {
	Events       []Event
	CorruptLines []int // 1-based line numbers that could not be parsed
}

// SessionInfo summarizes one session found in the journal.
type SessionInfo struct {
	SessionID      SessionID
	Start          time.Time
	End            *time.Time // nil if the session never wrote SESSION_END
	WatchDirectory string
	Moves          int
	Errors         int
}

// ReadEvents parses every record in the journal at path. Lines that are not
// valid JSON (a record cut short by a crash) are reported, not fatal.
func ReadEvents(path string) (*ReadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer file.Close()

	result := &ReadResult{}
	scanner := bufio.NewScanner(file)

	const maxScanTokenSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := event.UnmarshalJSON(line); err != nil {
			result.CorruptLines = append(result.CorruptLines, lineNum)
			continue
		}
		result.Events = append(result.Events, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal: %w", err)
	}

	return result, nil
}

// Sessions groups events by session in the order sessions started.
func Sessions(events []Event) []SessionInfo {
	var order []SessionID
	byID := make(map[SessionID]*SessionInfo)

	for _, e := range events {
		if e.SessionID == "" {
			continue
		}
		info, ok := byID[e.SessionID]
		if !ok {
			info = &SessionInfo{SessionID: e.SessionID, Start: e.Timestamp}
			byID[e.SessionID] = info
			order = append(order, e.SessionID)
		}

		switch e.EventType {
		case EventSessionStart:
			info.Start = e.Timestamp
			info.WatchDirectory = e.Metadata["watchDirectory"]
		case EventSessionEnd:
			end := e.Timestamp
			info.End = &end
		case EventMove:
			info.Moves++
		case EventError:
			info.Errors++
		}
	}

	sessions := make([]SessionInfo, 0, len(order))
	for _, id := range order {
		sessions = append(sessions, *byID[id])
	}
	return sessions
}

// Status describes how the session ended.
func (s SessionInfo) Status() string {
	if s.End == nil {
		return "interrupted"
	}
	return "completed"
}

// Duration returns the session length, or 0 for an interrupted session.
func (s SessionInfo) Duration() time.Duration {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// String returns a one-line description of the session.
func (s SessionInfo) String() string {
	return string(s.SessionID) + " " + s.Start.Format(TimestampFormat) + " " + s.Status() +
		" moves=" + strconv.Itoa(s.Moves) + " errors=" + strconv.Itoa(s.Errors)
}
