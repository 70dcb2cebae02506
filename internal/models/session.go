package models

import (
	"fmt"
	"time"
)

// SessionKind names the phase a session ran.
type SessionKind string

const (
	SearchSession SessionKind = "search"
	BuildSession  SessionKind = "build"
	RetrySession  SessionKind = "retry"
)

// SessionStatus is the lifecycle state of a session row.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// Session records one search, build or retry invocation for history reporting.
type Session struct {
	id            string
	kind          SessionKind
	playlistID    string
	destinationID string
	status        SessionStatus
	processed     int
	succeeded     int
	failed        int
	quotaUsed     int
	errorMsg      string
	startedAt     time.Time
	finishedAt    *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewSession creates a running session for playlistID.
func NewSession(kind SessionKind, playlistID string) *Session {
	now := time.Now()
	return &Session{
		kind:       kind,
		playlistID: playlistID,
		status:     SessionRunning,
		startedAt:  now,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (s *Session) ID() string { return s.id }
func (s *Session) Kind() SessionKind { return s.kind }
func (s *Session) PlaylistID() string { return s.playlistID }
func (s *Session) DestinationID() string { return s.destinationID }
func (s *Session) Status() SessionStatus { return s.status }
func (s *Session) Processed() int { return s.processed }
func (s *Session) Succeeded() int { return s.succeeded }
func (s *Session) Failed() int { return s.failed }
func (s *Session) QuotaUsed() int { return s.quotaUsed }
func (s *Session) ErrorMessage() string { return s.errorMsg }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) FinishedAt() *time.Time { return s.finishedAt }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }
func (s *Session) SetID(id string) { s.id = id }
func (s *Session) SetStatus(st SessionStatus) { s.status = st }
func (s *Session) SetStartedAt(t time.Time) { s.startedAt = t }
func (s *Session) SetFinishedAt(t *time.Time) { s.finishedAt = t }
func (s *Session) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *Session) SetUpdatedAt(t time.Time) { s.updatedAt = t }
func (s *Session) SetErrorMessage(m string) { s.errorMsg = m }
func (s *Session) SetDestinationID(id string) { s.destinationID = id }

// SetCounts stores the outcome counters of the run.
func (s *Session) SetCounts(processed, succeeded, failed, quota int) {
	s.processed = processed
	s.succeeded = succeeded
	s.failed = failed
	s.quotaUsed = quota
}

// Finish marks the session completed, or failed when err is non-nil.
func (s *Session) Finish(err error) {
	now := time.Now()
	s.finishedAt = &now
	s.updatedAt = now
	if err != nil {
		s.status = SessionFailed
		s.errorMsg = err.Error()
		return
	}
	s.status = SessionCompleted
}

// Validate checks required fields.
func (s *Session) Validate() error {
	if s.playlistID == "" {
		return fmt.Errorf("playlist id is required")
	}
	switch s.kind {
	case SearchSession, BuildSession, RetrySession:
	default:
		return fmt.Errorf("invalid session kind %q", s.kind)
	}
	switch s.status {
	case SessionRunning, SessionCompleted, SessionFailed:
	default:
		return fmt.Errorf("invalid session status %q", s.status)
	}
	if s.processed < 0 || s.succeeded < 0 || s.failed < 0 || s.quotaUsed < 0 {
		return fmt.Errorf("counters must not be negative")
	}
	return nil
}
