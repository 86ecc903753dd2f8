// Package storage defines persistence for interview sessions, their reports
// and job-fit scores.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/jobfit"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrReportExists = errors.New("report already exists")
)

// SessionRecord is a stored session with its owner.
type SessionRecord struct {
	ID        string
	UserID    string
	Title     string
	Snapshot  *interview.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Done reports whether the stored session reached its terminal state.
func (r *SessionRecord) Done() bool {
	return r.Snapshot != nil && r.Snapshot.Report != nil
}

// Store persists sessions and reports. Reports are write-once.
type Store interface {
	SaveSession(ctx context.Context, rec *SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]*SessionRecord, error)

	SaveReport(ctx context.Context, sessionID string, report *interview.Report) error
	GetReport(ctx context.Context, sessionID string) (*interview.Report, error)

	jobfit.Backend

	Close() error
}
