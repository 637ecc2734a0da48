// Package session describes the local record of a tracked time entry.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const CurrentSchema = "v1"

// Session is what tickr remembers about the entry being timed. EntryID is
// zero when the session was started without reaching the backend.
type Session struct {
	Schema      string    `json:"schema,omitempty"`
	ID          string    `json:"id"`
	EntryID     int64     `json:"entryId,omitempty"`
	Description string    `json:"description"`
	ProjectID   *int64    `json:"projectId,omitempty"`
	ProjectName string    `json:"projectName,omitempty"`
	StartedAt   Timestamp `json:"startedAt"`
	StoppedAt   Timestamp `json:"stoppedAt,omitempty"`
	Seconds     int64     `json:"seconds,omitempty"`
}

// New creates a session with a fresh local id.
func New(description string, projectID *int64, startedAt time.Time) *Session {
	return &Session{
		Schema:      CurrentSchema,
		ID:          NewID(),
		Description: strings.TrimSpace(description),
		ProjectID:   projectID,
		StartedAt:   Timestamp{Time: startedAt},
	}
}

// NewID returns a dash-free random identifier, safe to embed in store keys.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Offline reports whether the backend never acknowledged this session.
func (s *Session) Offline() bool {
	return s.EntryID == 0
}

// Project returns the display name of the session project.
func (s *Session) Project() string {
	if strings.TrimSpace(s.ProjectName) != "" {
		return s.ProjectName
	}
	return "No project"
}

// Complete marks the session finished with the given total.
func (s *Session) Complete(stoppedAt time.Time, seconds int64) {
	s.StoppedAt = Timestamp{Time: stoppedAt}
	s.Seconds = seconds
}

// Completed reports whether the session has been stopped.
func (s *Session) Completed() bool {
	return !s.StoppedAt.IsZero()
}
