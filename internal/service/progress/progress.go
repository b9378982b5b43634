package progress

import (
	"context"
	"time"
)

// Status of a session
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// ItemState records the outcome of one item within a session
type ItemState struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Session tracks the progress of one bulk operation
type Session struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Operation string      `json:"operation"`
	Status    Status      `json:"status"`
	Total     int         `json:"total"`
	Processed int         `json:"processed"`
	Items     []ItemState `json:"items"`
	Error     string      `json:"error,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Done reports whether the session has finished
func (s *Session) Done() bool {
	return s.Status != StatusRunning
}

// Store keeps session state between requests. Finished sessions are removed
// once their retention TTL expires.
type Store interface {
	Start(ctx context.Context, id, userID, operation string, total int) (*Session, error)
	// Update appends an item outcome to a running session
	Update(ctx context.Context, id string, item ItemState) (*Session, error)
	// Finish marks the session complete, or failed when cause is non-nil
	Finish(ctx context.Context, id string, cause error) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
}

func newSession(id, userID, operation string, total int, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		Operation: operation,
		Status:    StatusRunning,
		Total:     total,
		Items:     []ItemState{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) apply(item ItemState, now time.Time) {
	s.Items = append(s.Items, item)
	s.Processed++
	s.UpdatedAt = now
}

func (s *Session) finish(cause error, now time.Time) {
	s.Status = StatusComplete
	if cause != nil {
		s.Status = StatusFailed
		s.Error = cause.Error()
	}
	s.UpdatedAt = now
}
