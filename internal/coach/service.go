// Package coach exposes interview sessions, reports, STAR views and job-fit
// scores to callers, persisting state through a storage.Store.
package coach

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/jobfit"
	"github.com/spigell/star-interviewer/internal/logger"
	"github.com/spigell/star-interviewer/internal/star"
	"github.com/spigell/star-interviewer/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StartInput struct {
	UserID string `validate:"required,max=200"`
	Title  string `validate:"max=200"`
	// Experience is optional source text shown to the oracle judge on every turn.
	Experience string `validate:"max=20000"`
}

type StartResult struct {
	SessionID string          `json:"sessionId"`
	Reply     interview.Reply `json:"reply"`
}

type SubmitInput struct {
	SessionID string `validate:"required"`
	Text      string `validate:"required"`
}

// Assessment is a job-fit result with its explanation.
type Assessment struct {
	JobID    string `json:"jobId"`
	Label    string `json:"label"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
	Reason   string `json:"reason"`
}

type entry struct {
	mu      sync.Mutex
	session *interview.Session
	userID  string
	title   string
	created time.Time
}

type Service struct {
	orchestrator *interview.Orchestrator
	store        storage.Store
	scorer       jobfit.Scorer
	cache        *jobfit.Cache
	validate     *validator.Validate
	logger       *zap.Logger
	newID        func() string

	mu       sync.Mutex
	sessions map[string]*entry
}

// New wires a service. scorer defaults to jobfit.LocalScorer; job-fit scores
// are cached through the store.
func New(orchestrator *interview.Orchestrator, store storage.Store, scorer jobfit.Scorer, log *zap.Logger) *Service {
	if scorer == nil {
		scorer = jobfit.LocalScorer{}
	}
	log = logger.WithFields(log)

	return &Service{
		orchestrator: orchestrator,
		store:        store,
		scorer:       scorer,
		cache:        jobfit.NewCache(store, log),
		validate:     validator.New(),
		logger:       log,
		newID:        uuid.NewString,
		sessions:     make(map[string]*entry),
	}
}

func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", interview.ErrValidation, err)
	}
	return nil
}

// Start opens a session and returns its first question.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	session, reply := s.orchestrator.Start(s.newID(), in.Experience)
	e := &entry{session: session, userID: in.UserID, title: in.Title, created: session.UpdatedAt()}

	if err := s.persist(ctx, e); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[session.ID()] = e
	s.mu.Unlock()

	return &StartResult{SessionID: session.ID(), Reply: reply}, nil
}

// Submit feeds an answer to the session. Submissions to the same session are
// serialized.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (interview.Reply, error) {
	if err := s.check(in); err != nil {
		return interview.Reply{}, err
	}

	e, err := s.load(ctx, in.SessionID)
	if err != nil {
		return interview.Reply{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.session.Snapshot()

	reply, err := s.orchestrator.Submit(ctx, e.session, in.Text)
	if err != nil {
		return interview.Reply{}, err
	}

	if err := s.persist(ctx, e); err != nil {
		s.rollback(e, before)
		return interview.Reply{}, err
	}

	if report := e.session.Report(); report != nil {
		// The completed snapshot is already stored; Report retries the write.
		if err := s.saveReport(ctx, e.session.ID(), report); err != nil {
			s.logger.Warn("report not saved",
				zap.String(logger.FieldSession, e.session.ID()),
				zap.Error(err),
			)
		}
	}

	return reply, nil
}

// rollback puts the live session back to its state before a submission
// whose result could not be stored.
func (s *Service) rollback(e *entry, before *interview.Snapshot) {
	restored, err := interview.Restore(before, s.orchestrator.Scoring())
	if err != nil {
		s.mu.Lock()
		delete(s.sessions, before.ID)
		s.mu.Unlock()
		return
	}
	e.session = restored
}

func (s *Service) saveReport(ctx context.Context, id string, report *interview.Report) error {
	err := s.store.SaveReport(ctx, id, report)
	if err != nil && !errors.Is(err, storage.ErrReportExists) {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Session returns a live or restored session. Callers must not submit to it
// directly.
func (s *Service) Session(ctx context.Context, id string) (*interview.Session, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.session, nil
}

// Sessions lists a user's stored sessions, newest first.
func (s *Service) Sessions(ctx context.Context, userID string, limit int) ([]*storage.SessionRecord, error) {
	return s.store.ListSessions(ctx, userID, limit)
}

// Report returns the terminal report of a completed session.
func (s *Service) Report(ctx context.Context, id string) (*interview.Report, error) {
	report, err := s.store.GetReport(ctx, id)
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	report = e.session.Report()
	e.mu.Unlock()

	if report == nil {
		return nil, fmt.Errorf("%w: session %s is not completed", interview.ErrSessionState, id)
	}

	if err := s.saveReport(ctx, id, report); err != nil {
		s.logger.Warn("report not saved", zap.String(logger.FieldSession, id), zap.Error(err))
	}
	return report, nil
}

// Star returns the STAR view of a session's report summary.
func (s *Service) Star(ctx context.Context, id string) (star.Sections, error) {
	report, err := s.Report(ctx, id)
	if err != nil {
		return star.Sections{}, err
	}
	return star.Parse(report.Summary), nil
}

// ParseStar returns the STAR view of arbitrary narrative text.
func (s *Service) ParseStar(text string) star.Sections {
	return star.Parse(text)
}

// JobFit scores a completed session against a catalog job id or a free-form
// role label. The score is stable until the session's answers change.
func (s *Service) JobFit(ctx context.Context, id, job string) (*Assessment, error) {
	target, err := jobfit.Resolve(job)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interview.ErrValidation, err)
	}

	report, err := s.Report(ctx, id)
	if err != nil {
		return nil, err
	}

	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	narrative := e.session.Narrative()
	sections := e.session.Sections()
	e.mu.Unlock()

	fingerprint := jobfit.Fingerprint(narrative)
	score, err := s.cache.GetOrCompute(ctx, fingerprint, target.ID, func(ctx context.Context) (int, error) {
		return s.scorer.Score(ctx, jobfit.Request{
			Narrative:   narrative,
			Fingerprint: fingerprint,
			Job:         target,
			Sections:    sections,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("score job fit: %w", err)
	}

	s.logger.Info("job fit scored",
		zap.String(logger.FieldSession, id),
		zap.String("job_id", target.ID),
		zap.Int("score", score),
	)

	return &Assessment{
		JobID:    target.ID,
		Label:    target.Label,
		Score:    score,
		Feedback: jobfit.MatchFeedback(score, target.Label),
		Reason: jobfit.MatchReason(score, target, jobfit.Signals{
			Summary:          report.Summary,
			SpecificityScore: report.SpecificityScore,
			ImpactScore:      report.ImpactScore,
		}),
	}, nil
}

func (s *Service) load(ctx context.Context, id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		return e, nil
	}

	rec, err := s.store.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown session %s", interview.ErrSessionState, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	session, err := interview.Restore(rec.Snapshot, s.orchestrator.Scoring())
	if err != nil {
		return nil, err
	}

	e := &entry{session: session, userID: rec.UserID, title: rec.Title, created: rec.CreatedAt}
	s.sessions[id] = e

	return e, nil
}

func (s *Service) persist(ctx context.Context, e *entry) error {
	err := s.store.SaveSession(ctx, &storage.SessionRecord{
		ID:        e.session.ID(),
		UserID:    e.userID,
		Title:     e.title,
		Snapshot:  e.session.Snapshot(),
		CreatedAt: e.created,
		UpdatedAt: e.session.UpdatedAt(),
	})
	if err != nil {
		return fmt.Errorf("save session %s: %w", e.session.ID(), err)
	}
	return nil
}
