package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/storage"

	"github.com/mattn/go-sqlite3"
)

// Store handles all database operations. Snapshots and reports are stored as
// JSON documents.
type Store struct {
	conn *sql.DB
}

// New opens the database at path and creates the tables.
func New(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// sqlite serializes writers anyway; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err = createTables(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{conn: db}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS interview_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			snapshot TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS interview_sessions_user ON interview_sessions (user_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS interview_reports (
			session_id TEXT PRIMARY KEY,
			report TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS job_fit_scores (
			fingerprint TEXT NOT NULL,
			job_id TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (fingerprint, job_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func status(rec *storage.SessionRecord) string {
	if rec.Done() {
		return "completed"
	}
	return "active"
}

func (s *Store) SaveSession(ctx context.Context, rec *storage.SessionRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("session record without id")
	}

	snapshot, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO interview_sessions (id, user_id, title, status, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, rec.ID, rec.UserID, rec.Title, status(rec), string(snapshot), rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli())
	return err
}

const sessionColumns = `id, user_id, title, snapshot, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*storage.SessionRecord, error) {
	var (
		rec                  storage.SessionRecord
		snapshot             string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &snapshot, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(snapshot), &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot of session %s: %w", rec.ID, err)
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	rec.UpdatedAt = time.UnixMilli(updatedAt)

	return &rec, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*storage.SessionRecord, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM interview_sessions WHERE id = ?`, id)

	rec, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
	}
	return rec, err
}

// ListSessions returns the user's sessions, most recently updated first.
func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]*storage.SessionRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM interview_sessions
		WHERE user_id = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*storage.SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *Store) SaveReport(ctx context.Context, sessionID string, report *interview.Report) error {
	if report == nil {
		return fmt.Errorf("report is required")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	_, err = s.conn.ExecContext(ctx,
		"INSERT INTO interview_reports (session_id, report, created_at) VALUES (?, ?, ?)",
		sessionID, string(data), time.Now().UnixMilli(),
	)

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("session %s: %w", sessionID, storage.ErrReportExists)
	}
	return err
}

func (s *Store) GetReport(ctx context.Context, sessionID string) (*interview.Report, error) {
	var data string
	err := s.conn.QueryRowContext(ctx,
		"SELECT report FROM interview_reports WHERE session_id = ?", sessionID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report for session %s: %w", sessionID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	var report interview.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("decode report of session %s: %w", sessionID, err)
	}
	return &report, nil
}

// LoadScore implements jobfit.Backend.
func (s *Store) LoadScore(ctx context.Context, fingerprint, jobID string) (int, bool, error) {
	var score int
	err := s.conn.QueryRowContext(ctx,
		"SELECT score FROM job_fit_scores WHERE fingerprint = ? AND job_id = ?", fingerprint, jobID,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

// SaveScore implements jobfit.Backend. A score, once stored, is kept.
func (s *Store) SaveScore(ctx context.Context, fingerprint, jobID string, score int) error {
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO job_fit_scores (fingerprint, job_id, score, created_at) VALUES (?, ?, ?, ?)",
		fingerprint, jobID, score, time.Now().UnixMilli(),
	)
	return err
}

var _ storage.Store = (*Store)(nil)
