package interview

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Evaluation is the latest judgement of one category's merged answer.
type Evaluation struct {
	Score         int      `json:"score"`
	IsSufficient  bool     `json:"isSufficient"`
	MissingPoints []string `json:"missingPoints"`
	// Hint is a follow-up question proposed by an oracle-backed judge.
	Hint string `json:"hint,omitempty"`
}

// Missing point messages. The follow-up selector keys on the 수치/역할/기간 substrings.
const (
	MissingTooShort = "설명이 짧아 맥락 파악이 어렵습니다"
	MissingRole     = "본인의 역할/책임이 명확하지 않습니다"
	MissingDuration = "근무/수행 기간 정보가 부족합니다"
	MissingProblem  = "해결하려던 문제 정의가 불명확합니다"
	MissingAction   = "실제 행동(Action) 설명이 부족합니다"
	MissingMetric   = "성과를 보여주는 수치/근거가 부족합니다"
	MissingAnswer   = "답변이 입력되지 않았습니다"
)

var (
	digitPattern    = regexp.MustCompile(`\d`)
	rolePattern     = regexp.MustCompile(`(?i)(역할|책임|담당|주도|리드|role|responsib|lead|drove|drive)`)
	durationPattern = regexp.MustCompile(`(?i)(년|월|주|기간|\d|year|month|week|period)`)
	problemPattern  = regexp.MustCompile(`(?i)(문제|과제|이슈|어려움|목표|problem|issue|goal|challenge|difficult)`)
	actionPattern   = regexp.MustCompile(`(?i)(실행|개선|도입|협업|시도|분석|implement|execut|improv|introduc|adopt|collaborat|analy)`)
	outcomePattern  = regexp.MustCompile(`(?i)(성과|증가|감소|향상|개선|달성|increas|decreas|improv|achiev)`)
)

// Judge is the capability set shared by the heuristic evaluator and the
// oracle-backed one: score an answer, then pick a follow-up when it falls short.
type Judge interface {
	Evaluate(ctx context.Context, turn Turn) (Evaluation, error)
	SelectFollowUp(ctx context.Context, category Category, eval Evaluation, asked QuestionSet) (string, error)
}

// Turn is what a judge sees for the current category.
type Turn struct {
	Category   Category
	Answer     string
	Transcript []Message
	// Experience is the session's source text, empty when none was given.
	Experience string
}

// Evaluator scores answers with lexical heuristics. It never fails.
type Evaluator struct {
	scoring Scoring
}

func NewEvaluator(scoring Scoring) *Evaluator {
	return &Evaluator{scoring: scoring}
}

// Evaluate scores merged answer text for a category. Missing points keep the
// check order, length first, so MissingPoints[0] is the most salient gap.
func (e *Evaluator) Evaluate(category Category, merged string) Evaluation {
	normalized := strings.TrimSpace(merged)
	length := utf8.RuneCountInString(normalized)
	missing := make([]string, 0, 2)

	if length < e.scoring.MinLength {
		missing = append(missing, MissingTooShort)
	}

	switch category {
	case CategoryRole:
		if !rolePattern.MatchString(normalized) {
			missing = append(missing, MissingRole)
		}
	case CategoryDuration:
		if !durationPattern.MatchString(normalized) {
			missing = append(missing, MissingDuration)
		}
	case CategoryProblem:
		if !problemPattern.MatchString(normalized) {
			missing = append(missing, MissingProblem)
		}
	case CategoryAction:
		if !actionPattern.MatchString(normalized) {
			missing = append(missing, MissingAction)
		}
	case CategoryResult:
		if !digitPattern.MatchString(normalized) && !outcomePattern.MatchString(normalized) {
			missing = append(missing, MissingMetric)
		}
	}

	score := max(e.scoring.Floor, 100-e.scoring.Penalty*len(missing))
	sufficient := len(missing) == 0 || (len(missing) == 1 && length >= e.scoring.LenientLength)

	return Evaluation{
		Score:         score,
		IsSufficient:  sufficient,
		MissingPoints: missing,
	}
}

// pendingEvaluation stands in for categories that were never answered.
func pendingEvaluation() Evaluation {
	return Evaluation{Score: 50, IsSufficient: false, MissingPoints: []string{MissingAnswer}}
}

// HeuristicJudge adapts Evaluator and Selector to the Judge interface.
type HeuristicJudge struct {
	evaluator *Evaluator
	selector  *Selector
}

func NewHeuristicJudge(scoring Scoring, bank *QuestionBank) *HeuristicJudge {
	return &HeuristicJudge{
		evaluator: NewEvaluator(scoring),
		selector:  NewSelector(bank),
	}
}

func (j *HeuristicJudge) Evaluate(_ context.Context, turn Turn) (Evaluation, error) {
	return j.evaluator.Evaluate(turn.Category, turn.Answer), nil
}

func (j *HeuristicJudge) SelectFollowUp(_ context.Context, category Category, eval Evaluation, asked QuestionSet) (string, error) {
	return j.selector.Select(category, eval.MissingPoints, asked), nil
}
