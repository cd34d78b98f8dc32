// Package audit provides the append-only move journal for dropsort.
// Every watch session writes a SESSION_START record, one record per move or
// failure, and a SESSION_END record with the session totals.
package audit

import "time"

// SessionID identifies one watch session (UUID v4).
type SessionID string

// EventType represents the type of journal event.
type EventType string

const (
	EventSessionStart EventType = "SESSION_START"
	EventSessionEnd   EventType = "SESSION_END"

	EventMove  EventType = "MOVE"
	EventError EventType = "ERROR"
)

// OperationStatus represents the outcome of an operation.
type OperationStatus string

const (
	StatusSuccess OperationStatus = "SUCCESS"
	StatusFailure OperationStatus = "FAILURE"
)

// ReasonCode qualifies a successful move.
type ReasonCode string

const (
	// ReasonCollisionRenamed means the destination name was taken and a " (N)" suffix was used.
	ReasonCollisionRenamed ReasonCode = "COLLISION_RENAMED"
	// ReasonPermissionsNotPreserved means the file moved but its mode could not be reapplied.
	ReasonPermissionsNotPreserved ReasonCode = "PERMISSIONS_NOT_PRESERVED"
)

// ErrorDetails contains detailed information about an error.
type ErrorDetails struct {
	ErrorType    string `json:"errorType"`
	ErrorMessage string `json:"errorMessage"`
	Operation    string `json:"operation"`
}

// Event represents a single journal record.
type Event struct {
	Timestamp       time.Time         `json:"timestamp"`                 // RFC 3339
	SessionID       SessionID         `json:"sessionId"`                 // Session identifier
	EventType       EventType         `json:"eventType"`                 // Type of event
	Status          OperationStatus   `json:"status"`                    // Operation outcome
	SourcePath      string            `json:"sourcePath,omitempty"`      // Original file path
	DestinationPath string            `json:"destinationPath,omitempty"` // Target file path
	Category        string            `json:"category,omitempty"`        // Category folder
	ReasonCode      ReasonCode        `json:"reasonCode,omitempty"`      // Qualifier for moves
	ErrorDetails    *ErrorDetails     `json:"errorDetails,omitempty"`    // Error information
	Metadata        map[string]string `json:"metadata,omitempty"`        // Additional metadata
}

// SessionSummary contains the totals written with SESSION_END.
type SessionSummary struct {
	Organized int
	Failed    int
	Skipped   int
	Abandoned int
	Duration  time.Duration
}
