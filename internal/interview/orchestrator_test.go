package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var sufficientAnswers = map[Category]string{
	CategoryCompany:  "서울의 물류 스타트업에서 데이터 팀으로 근무했습니다",
	CategoryRole:     "데이터 분석 파트의 리드로 지표 설계를 책임졌습니다",
	CategoryDuration: "2022년 3월부터 약 8개월 동안 진행했습니다",
	CategoryProblem:  "출고 지연이 잦아 고객 불만이 커지는 문제가 있었습니다",
	CategoryAction:   "출고 데이터를 분석하고 자동 배차 시스템을 도입했습니다",
	CategoryResult:   "출고 지연율이 30% 감소하고 고객 문의가 절반으로 줄었습니다",
}

func newTestOrchestrator(judge Judge) *Orchestrator {
	return NewOrchestrator(judge, nil, DefaultScoring(), zap.NewNop())
}

func TestStart(t *testing.T) {
	t.Parallel()

	s, reply := newTestOrchestrator(nil).Start("iv-start", "")

	assert.Equal(t, ReplyQuestion, reply.Type)
	assert.Equal(t, 0, reply.Progress)
	assert.Equal(t, "company", reply.NextStep)
	assert.True(t, strings.HasSuffix(reply.Message, "먼저, 어디서 일했나요?"))

	assert.Equal(t, "iv-start", s.ID())
	assert.Equal(t, 0, s.Index())
	assert.True(t, s.asked.Has("어디서 일했나요?"))
	assert.Len(t, s.Transcript(), 1)
	for _, c := range Categories {
		assert.Equal(t, "", s.Answer(c))
		assert.Equal(t, 0, s.FollowUps(c))
		assert.Equal(t, 50, s.Evaluation(c).Score)
	}
}

type recordingJudge struct {
	*HeuristicJudge
	turns []Turn
}

func (j *recordingJudge) Evaluate(ctx context.Context, turn Turn) (Evaluation, error) {
	j.turns = append(j.turns, turn)
	return j.HeuristicJudge.Evaluate(ctx, turn)
}

func TestSubmitPassesExperienceToJudge(t *testing.T) {
	t.Parallel()

	judge := &recordingJudge{HeuristicJudge: NewHeuristicJudge(DefaultScoring(), DefaultQuestionBank())}
	orch := newTestOrchestrator(judge)
	s, _ := orch.Start("iv-experience", "출고 자동화 프로젝트 회고")

	_, err := orch.Submit(context.Background(), s, sufficientAnswers[CategoryCompany])
	require.NoError(t, err)

	require.Len(t, judge.turns, 1)
	assert.Equal(t, "출고 자동화 프로젝트 회고", judge.turns[0].Experience)
	assert.Equal(t, CategoryCompany, judge.turns[0].Category)
}

func TestSubmitHappyPath(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(nil)
	s, _ := orch.Start("iv-happy", "")

	wantProgress := []int{17, 33, 50, 67, 83, 100}
	wantStep := []string{"role", "duration", "problem", "action", "result", "done"}

	for i, c := range Categories {
		reply, err := orch.Submit(context.Background(), s, sufficientAnswers[c])
		require.NoError(t, err)
		assert.Equal(t, wantProgress[i], reply.Progress, c)
		assert.Equal(t, wantStep[i], reply.NextStep, c)
		assert.Equal(t, 100, s.Evaluation(c).Score, c)
	}

	require.True(t, s.Done())
	report := s.Report()
	require.NotNil(t, report)
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, LevelHigh, report.Level)
	assert.Equal(t, 100, s.Progress())
	assert.Equal(t, "", s.Question())
	assert.Contains(t, s.Narrative(), "result: 출고 지연율이 30% 감소")
}

func TestSubmitFollowUpBudget(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(nil)
	s, _ := orch.Start("iv-budget", "")
	ctx := context.Background()

	for _, c := range Categories[:5] {
		_, err := orch.Submit(ctx, s, sufficientAnswers[c])
		require.NoError(t, err)
	}

	reply, err := orch.Submit(ctx, s, "열심히 했습니다")
	require.NoError(t, err)
	assert.Equal(t, ReplyQuestion, reply.Type)
	assert.Equal(t, "", reply.NextStep)
	assert.Equal(t, 83, reply.Progress)
	assert.Equal(t, "성과를 숫자로 표현해 주실 수 있나요? (예: 처리시간 30% 단축, 매출 15% 증가)", reply.Message)

	reply, err = orch.Submit(ctx, s, "열심히 했습니다")
	require.NoError(t, err)
	assert.Equal(t, "정량 근거를 한 가지 이상 제시해 주세요. (%, 시간, 비용, 건수 등)", reply.Message)
	assert.Equal(t, 2, s.FollowUps(CategoryResult))

	reply, err = orch.Submit(ctx, s, "열심히 했습니다")
	require.NoError(t, err)
	assert.Equal(t, ReplyDone, reply.Type)
	assert.Equal(t, 100, reply.Progress)
	assert.Equal(t, StepDone, reply.NextStep)

	assert.Equal(t, "열심히 했습니다 열심히 했습니다 열심히 했습니다", s.Answer(CategoryResult))
	assert.Equal(t, 2, s.FollowUps(CategoryResult))

	eval := s.Evaluation(CategoryResult)
	assert.Equal(t, 83, eval.Score)
	assert.False(t, eval.IsSufficient)

	report := s.Report()
	require.NotNil(t, report)
	assert.Equal(t, 97, report.Score)
	assert.Equal(t, 77, report.ImpactScore)
	assert.Equal(t, []string{DefaultQuestionBank().Reflection}, report.RecommendedQuestions)
}

func TestSubmitRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace", text: " \n\t "},
		{name: "too long", text: strings.Repeat("가", 5001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orch := newTestOrchestrator(nil)
			s, _ := orch.Start("iv-invalid", "")

			_, err := orch.Submit(context.Background(), s, tt.text)
			require.ErrorIs(t, err, ErrValidation)
			assert.False(t, IsRetryable(err))
			assert.Equal(t, 0, s.Index())
			assert.Equal(t, "", s.Answer(CategoryCompany))
			assert.Len(t, s.Transcript(), 1)
		})
	}
}

func TestSubmitAcceptsMaxLength(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(nil)
	s, _ := orch.Start("iv-max", "")

	reply, err := orch.Submit(context.Background(), s, strings.Repeat("가", 5000))
	require.NoError(t, err)
	assert.Equal(t, "role", reply.NextStep)
}

func TestSubmitOnTerminalSession(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(nil)
	s, _ := orch.Start("iv-terminal", "")
	for _, c := range Categories {
		_, err := orch.Submit(context.Background(), s, sufficientAnswers[c])
		require.NoError(t, err)
	}
	report := s.Report()

	_, err := orch.Submit(context.Background(), s, "하나 더")
	require.ErrorIs(t, err, ErrSessionState)
	assert.Same(t, report, s.Report())

	_, err = orch.Submit(context.Background(), nil, "text")
	require.ErrorIs(t, err, ErrSessionState)
}

func TestSubmitMergesAnswers(t *testing.T) {
	t.Parallel()

	orch := newTestOrchestrator(nil)
	s, _ := orch.Start("iv-merge", "")

	reply, err := orch.Submit(context.Background(), s, "  네이버  ")
	require.NoError(t, err)
	assert.Equal(t, "어떤 산업군에 속한 기업이었나요?", reply.Message)

	_, err = orch.Submit(context.Background(), s, "검색 광고 조직이었고 규모는 약 300명이었습니다")
	require.NoError(t, err)

	assert.Equal(t, "네이버 검색 광고 조직이었고 규모는 약 300명이었습니다", s.Answer(CategoryCompany))
	assert.Equal(t, 1, s.Index())
}

type failingJudge struct {
	*HeuristicJudge
	err error
}

func (j failingJudge) Evaluate(context.Context, Turn) (Evaluation, error) {
	return Evaluation{}, j.err
}

func TestSubmitJudgeFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	judge := failingJudge{
		HeuristicJudge: NewHeuristicJudge(DefaultScoring(), DefaultQuestionBank()),
		err:            fmt.Errorf("%w: upstream unavailable", ErrOracle),
	}
	orch := newTestOrchestrator(judge)
	s, _ := orch.Start("iv-oracle", "")
	before := s.Snapshot()

	_, err := orch.Submit(context.Background(), s, sufficientAnswers[CategoryCompany])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOracle))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, before, s.Snapshot())
}

// echoJudge proposes a fixed follow-up regardless of the asked set.
type echoJudge struct {
	*HeuristicJudge
	question string
}

func (j echoJudge) SelectFollowUp(context.Context, Category, Evaluation, QuestionSet) (string, error) {
	return j.question, nil
}

func TestSubmitUsesAlternateWhenPrimaryWasAsked(t *testing.T) {
	t.Parallel()

	bank := DefaultQuestionBank()
	judge := echoJudge{
		HeuristicJudge: NewHeuristicJudge(DefaultScoring(), bank),
		question:       bank.Category(CategoryRole).Primary,
	}
	orch := newTestOrchestrator(judge)
	s, _ := orch.Start("iv-alternate", "")

	_, err := orch.Submit(context.Background(), s, "네이버")
	require.NoError(t, err)

	reply, err := orch.Submit(context.Background(), s, sufficientAnswers[CategoryCompany])
	require.NoError(t, err)
	assert.Equal(t, "role", reply.NextStep)
	assert.Equal(t, bank.Transition+bank.Category(CategoryRole).Alternates[0], reply.Message)
}

func TestSubmitLogsCompletion(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	orch := NewOrchestrator(nil, nil, DefaultScoring(), zap.New(core))
	s, _ := orch.Start("iv-logs", "")

	for _, c := range Categories {
		_, err := orch.Submit(context.Background(), s, sufficientAnswers[c])
		require.NoError(t, err)
	}

	assert.Equal(t, 1, logs.FilterMessage("interview started").Len())
	assert.Equal(t, 5, logs.FilterMessage("category advanced").Len())

	completed := logs.FilterMessage("interview completed").All()
	require.Len(t, completed, 1)
	fields := completed[0].ContextMap()
	assert.Equal(t, "iv-logs", fields["session_id"])
	assert.Equal(t, "result", fields["category"])
	assert.Equal(t, int64(100), fields["score"])
	assert.Equal(t, "high", fields["level"])
}
