package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/storage"
)

type scoreKey struct {
	fingerprint string
	jobID       string
}

// Store keeps everything in process memory. Snapshots are treated as
// immutable once saved.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]storage.SessionRecord
	reports  map[string]interview.Report
	scores   map[scoreKey]int
}

func New() *Store {
	return &Store{
		sessions: make(map[string]storage.SessionRecord),
		reports:  make(map[string]interview.Report),
		scores:   make(map[scoreKey]int),
	}
}

func (s *Store) SaveSession(_ context.Context, rec *storage.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("session record without id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rec
	if existing, ok := s.sessions[rec.ID]; ok {
		copied.CreatedAt = existing.CreatedAt
	}
	s.sessions[rec.ID] = copied
	return nil
}

func (s *Store) GetSession(_ context.Context, id string) (*storage.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return &rec, nil
}

// ListSessions returns the user's sessions, most recently updated first.
func (s *Store) ListSessions(_ context.Context, userID string, limit int) ([]*storage.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.SessionRecord
	for _, rec := range s.sessions {
		if rec.UserID == userID {
			result = append(result, &rec)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) SaveReport(_ context.Context, sessionID string, report *interview.Report) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[sessionID]; exists {
		return fmt.Errorf("session %s: %w", sessionID, storage.ErrReportExists)
	}
	s.reports[sessionID] = *report
	return nil
}

func (s *Store) GetReport(_ context.Context, sessionID string) (*interview.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[sessionID]
	if !ok {
		return nil, fmt.Errorf("report for session %s: %w", sessionID, storage.ErrNotFound)
	}
	return &report, nil
}

func (s *Store) LoadScore(_ context.Context, fingerprint, jobID string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.scores[scoreKey{fingerprint, jobID}]
	return score, ok, nil
}

func (s *Store) SaveScore(_ context.Context, fingerprint, jobID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scores[scoreKey{fingerprint, jobID}] = score
	return nil
}

func (s *Store) Close() error { return nil }

var _ storage.Store = (*Store)(nil)
