package coach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/jobfit"
	"github.com/spigell/star-interviewer/internal/storage"
	"github.com/spigell/star-interviewer/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var completeAnswers = []string{
	"서울의 물류 스타트업에서 데이터 팀으로 근무했습니다",
	"데이터 분석 파트의 리드로 지표 설계를 책임졌습니다",
	"2022년 3월부터 약 8개월 동안 진행했습니다",
	"출고 지연이 잦아 고객 불만이 커지는 문제가 있었습니다",
	"출고 데이터를 분석하고 자동 배차 시스템을 도입했습니다",
	"출고 지연율이 30% 감소하고 고객 문의가 절반으로 줄었습니다",
}

func newTestService(t *testing.T, store *memory.Store, scorer jobfit.Scorer) *Service {
	t.Helper()
	orch := interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop())
	return New(orch, store, scorer, zap.NewNop())
}

func completeSession(t *testing.T, svc *Service) string {
	t.Helper()
	ctx := context.Background()

	started, err := svc.Start(ctx, StartInput{UserID: "user-1", Title: "출고 자동화"})
	require.NoError(t, err)

	var reply interview.Reply
	for _, answer := range completeAnswers {
		reply, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: answer})
		require.NoError(t, err)
	}
	require.Equal(t, interview.ReplyDone, reply.Type)

	return started.SessionID
}

func TestServiceFullInterview(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestService(t, store, nil)
	svc.newID = func() string { return "iv-full" }
	ctx := context.Background()

	started, err := svc.Start(ctx, StartInput{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "iv-full", started.SessionID)
	assert.Equal(t, interview.ReplyQuestion, started.Reply.Type)
	assert.Equal(t, 0, started.Reply.Progress)
	assert.Equal(t, string(interview.CategoryCompany), started.Reply.NextStep)

	expectedProgress := []int{17, 33, 50, 67, 83, 100}
	for i, answer := range completeAnswers {
		reply, err := svc.Submit(ctx, SubmitInput{SessionID: "iv-full", Text: answer})
		require.NoError(t, err)
		assert.Equal(t, expectedProgress[i], reply.Progress, "answer %d", i)
	}

	report, err := svc.Report(ctx, "iv-full")
	require.NoError(t, err)
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, interview.LevelHigh, report.Level)

	sections, err := svc.Star(ctx, "iv-full")
	require.NoError(t, err)
	assert.Equal(t, completeAnswers[0], sections.Situation)
	assert.Equal(t, completeAnswers[3], sections.Task)
	assert.Equal(t, completeAnswers[4], sections.Action)
	assert.Equal(t, completeAnswers[5], sections.Result)

	stored, err := store.GetSession(ctx, "iv-full")
	require.NoError(t, err)
	assert.True(t, stored.Done())

	_, err = svc.Submit(ctx, SubmitInput{SessionID: "iv-full", Text: "추가 답변"})
	assert.ErrorIs(t, err, interview.ErrSessionState)
}

func TestServiceErrors(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, memory.New(), nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, StartInput{})
	assert.ErrorIs(t, err, interview.ErrValidation)

	_, err = svc.Submit(ctx, SubmitInput{SessionID: "iv-unknown", Text: "답변"})
	assert.ErrorIs(t, err, interview.ErrSessionState)
	assert.False(t, interview.IsRetryable(err))

	started, err := svc.Start(ctx, StartInput{UserID: "user-1"})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: ""})
	assert.ErrorIs(t, err, interview.ErrValidation)

	_, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: "   "})
	assert.ErrorIs(t, err, interview.ErrValidation)

	_, err = svc.Report(ctx, started.SessionID)
	assert.ErrorIs(t, err, interview.ErrSessionState)

	_, err = svc.Report(ctx, "iv-unknown")
	assert.ErrorIs(t, err, interview.ErrSessionState)

	_, err = svc.JobFit(ctx, started.SessionID, "pm")
	assert.ErrorIs(t, err, interview.ErrSessionState)

	_, err = svc.JobFit(ctx, started.SessionID, "  ")
	assert.ErrorIs(t, err, interview.ErrValidation)
}

func TestServiceResumesFromStore(t *testing.T) {
	t.Parallel()

	store := memory.New()
	ctx := context.Background()

	first := newTestService(t, store, nil)
	started, err := first.Start(ctx, StartInput{UserID: "user-1"})
	require.NoError(t, err)
	for _, answer := range completeAnswers[:3] {
		_, err := first.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: answer})
		require.NoError(t, err)
	}

	second := newTestService(t, store, nil)
	session, err := second.Session(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Index())
	assert.Equal(t, completeAnswers[1], session.Answer(interview.CategoryRole))

	var reply interview.Reply
	for _, answer := range completeAnswers[3:] {
		reply, err = second.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: answer})
		require.NoError(t, err)
	}
	assert.Equal(t, interview.ReplyDone, reply.Type)

	list, err := second.Sessions(ctx, "user-1", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Done())
}

type countingScorer struct {
	calls atomic.Int32
	inner jobfit.Scorer
}

func (c *countingScorer) Score(ctx context.Context, req jobfit.Request) (int, error) {
	c.calls.Add(1)
	return c.inner.Score(ctx, req)
}

func TestServiceJobFitIsStable(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	scorer := &countingScorer{inner: jobfit.LocalScorer{}}
	orch := interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop())
	svc := New(orch, memory.New(), scorer, zap.New(core))
	ctx := context.Background()

	id := completeSession(t, svc)

	first, err := svc.JobFit(ctx, id, "operations")
	require.NoError(t, err)
	second, err := svc.JobFit(ctx, id, "operations")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), scorer.calls.Load())
	assert.Equal(t, "operations", first.JobID)
	assert.Equal(t, "운영 관리", first.Label)
	assert.GreaterOrEqual(t, first.Score, 70)
	assert.LessOrEqual(t, first.Score, 95)
	assert.Equal(t, jobfit.MatchFeedback(first.Score, "운영 관리"), first.Feedback)
	assert.NotEmpty(t, first.Reason)

	session, err := svc.Session(ctx, id)
	require.NoError(t, err)
	expected, err := jobfit.LocalScorer{}.Score(ctx, jobfit.Request{Narrative: session.Narrative(), Job: jobfit.DefaultJobs[2]})
	require.NoError(t, err)
	assert.Equal(t, expected, first.Score)

	custom, err := svc.JobFit(ctx, id, "Data Analyst")
	require.NoError(t, err)
	assert.Equal(t, jobfit.CustomJobID("Data Analyst"), custom.JobID)
	assert.Equal(t, int32(2), scorer.calls.Load())

	assert.Equal(t, 3, observed.FilterMessage("job fit scored").Len())
}

func TestServiceParseStar(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, memory.New(), nil)
	sections := svc.ParseStar("S(상황): A\nT(과제): B\nA(행동): C\nR(결과): D")
	assert.Equal(t, "A", sections.Situation)
	assert.Equal(t, "D", sections.Result)
}

var errDiskFull = errors.New("disk full")

// flakyStore fails the next N session or report writes.
type flakyStore struct {
	*memory.Store
	failSessions atomic.Int32
	failReports  atomic.Int32
}

func (f *flakyStore) SaveSession(ctx context.Context, rec *storage.SessionRecord) error {
	if f.failSessions.Add(-1) >= 0 {
		return errDiskFull
	}
	return f.Store.SaveSession(ctx, rec)
}

func (f *flakyStore) SaveReport(ctx context.Context, sessionID string, report *interview.Report) error {
	if f.failReports.Add(-1) >= 0 {
		return errDiskFull
	}
	return f.Store.SaveReport(ctx, sessionID, report)
}

func TestServiceSubmitRollsBackOnSaveFailure(t *testing.T) {
	t.Parallel()

	store := &flakyStore{Store: memory.New()}
	orch := interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop())
	svc := New(orch, store, nil, zap.NewNop())
	ctx := context.Background()

	started, err := svc.Start(ctx, StartInput{UserID: "user-1"})
	require.NoError(t, err)

	store.failSessions.Store(1)
	_, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: completeAnswers[0]})
	require.ErrorIs(t, err, errDiskFull)

	session, err := svc.Session(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, session.Index())
	assert.Equal(t, 0, session.Progress())
	assert.Empty(t, session.Answer(interview.CategoryCompany))

	rec, err := store.GetSession(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Snapshot.Index)

	reply, err := svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: completeAnswers[0]})
	require.NoError(t, err)
	assert.Equal(t, string(interview.CategoryRole), reply.NextStep)

	session, err = svc.Session(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, session.Index())
	assert.Equal(t, completeAnswers[0], session.Answer(interview.CategoryCompany))
}

func TestServiceSubmitRollsBackFinalAnswer(t *testing.T) {
	t.Parallel()

	store := &flakyStore{Store: memory.New()}
	orch := interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop())
	svc := New(orch, store, nil, zap.NewNop())
	ctx := context.Background()

	started, err := svc.Start(ctx, StartInput{UserID: "user-1"})
	require.NoError(t, err)
	for _, answer := range completeAnswers[:5] {
		_, err := svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: answer})
		require.NoError(t, err)
	}

	store.failSessions.Store(1)
	_, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: completeAnswers[5]})
	require.ErrorIs(t, err, errDiskFull)

	session, err := svc.Session(ctx, started.SessionID)
	require.NoError(t, err)
	assert.False(t, session.Done())
	assert.Nil(t, session.Report())

	_, err = svc.Report(ctx, started.SessionID)
	assert.ErrorIs(t, err, interview.ErrSessionState)

	reply, err := svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: completeAnswers[5]})
	require.NoError(t, err)
	assert.Equal(t, interview.ReplyDone, reply.Type)
}

func TestServiceReportSurvivesSaveFailure(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	store := &flakyStore{Store: memory.New()}
	orch := interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop())
	svc := New(orch, store, nil, zap.New(core))
	ctx := context.Background()

	started, err := svc.Start(ctx, StartInput{UserID: "user-1"})
	require.NoError(t, err)

	store.failReports.Store(1)
	var reply interview.Reply
	for _, answer := range completeAnswers {
		reply, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: answer})
		require.NoError(t, err)
	}
	assert.Equal(t, interview.ReplyDone, reply.Type)
	assert.Equal(t, 1, observed.FilterMessage("report not saved").Len())

	_, err = store.GetReport(ctx, started.SessionID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	report, err := svc.Report(ctx, started.SessionID)
	require.NoError(t, err)
	require.NotNil(t, report)
	session, err := svc.Session(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.Report(), report)

	stored, err := store.GetReport(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, stored.Summary)

	// A fresh service recovers the report from the stored snapshot as well.
	other := &flakyStore{Store: memory.New()}
	rec, err := store.GetSession(ctx, started.SessionID)
	require.NoError(t, err)
	require.NoError(t, other.Store.SaveSession(ctx, rec))
	fresh := New(interview.NewOrchestrator(nil, nil, interview.DefaultScoring(), zap.NewNop()), other, nil, zap.NewNop())
	recovered, err := fresh.Report(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, report.Summary, recovered.Summary)

	_, err = svc.Submit(ctx, SubmitInput{SessionID: started.SessionID, Text: "추가 답변"})
	assert.ErrorIs(t, err, interview.ErrSessionState)
}

func TestServiceStartKeepsExperience(t *testing.T) {
	t.Parallel()

	store := memory.New()
	svc := newTestService(t, store, nil)
	ctx := context.Background()

	started, err := svc.Start(ctx, StartInput{UserID: "user-1", Experience: "  물류 스타트업에서 배차 자동화를 이끌었습니다  "})
	require.NoError(t, err)

	session, err := svc.Session(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "물류 스타트업에서 배차 자동화를 이끌었습니다", session.Experience())

	rec, err := store.GetSession(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "물류 스타트업에서 배차 자동화를 이끌었습니다", rec.Snapshot.Experience)

	_, err = svc.Start(ctx, StartInput{UserID: "user-1", Experience: strings.Repeat("경", 20000)})
	require.NoError(t, err)

	_, err = svc.Start(ctx, StartInput{UserID: "user-1", Experience: strings.Repeat("경", 20001)})
	assert.ErrorIs(t, err, interview.ErrValidation)
}

type recordingScorer struct {
	mu       sync.Mutex
	requests []jobfit.Request
}

func (r *recordingScorer) Score(ctx context.Context, req jobfit.Request) (int, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	r.mu.Unlock()
	return jobfit.LocalScorer{}.Score(ctx, req)
}

func TestServiceJobFitPassesSessionSections(t *testing.T) {
	t.Parallel()

	scorer := &recordingScorer{}
	svc := newTestService(t, memory.New(), scorer)
	ctx := context.Background()

	id := completeSession(t, svc)
	_, err := svc.JobFit(ctx, id, "operations")
	require.NoError(t, err)

	require.Len(t, scorer.requests, 1)
	sections := scorer.requests[0].Sections
	assert.Equal(t, strings.Join(completeAnswers[:3], " "), sections.Situation)
	assert.Equal(t, completeAnswers[3], sections.Task)
	assert.Equal(t, completeAnswers[4], sections.Action)
	assert.Equal(t, completeAnswers[5], sections.Result)
}
