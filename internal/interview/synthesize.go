package interview

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

type Level string

const (
	LevelHigh Level = "high"
	LevelMid  Level = "mid"
	LevelLow  Level = "low"
)

// Report is the terminal artifact of a session. It is built once and never mutated.
type Report struct {
	Summary              string   `json:"summary"`
	Feedback             []string `json:"feedback"`
	Score                int      `json:"score"`
	Level                Level    `json:"level"`
	RecommendedQuestions []string `json:"recommendedQuestions"`
	SpecificityScore     int      `json:"specificityScore"`
	ImpactScore          int      `json:"impactScore"`
}

const maxRecommended = 4

var (
	resultEvidencePattern = regexp.MustCompile(`(?i)(증가|감소|향상|개선|달성|\d|increas|decreas|improv|achiev)`)
	strongMetricPattern   = regexp.MustCompile(`(?i)(\d+%|\d+\s*(명|건|원|만원|억원|배|일|주|월)|증가|감소|향상|개선|절감|달성|increas|decreas|improv|achiev)`)
)

// Summary line labels and placeholders for missing answers.
var summaryLines = []struct {
	label       string
	category    Category
	placeholder string
}{
	{"S(상황)", CategoryCompany, "상황 설명 없음"},
	{"T(과제)", CategoryProblem, "과제 설명 없음"},
	{"A(행동)", CategoryAction, "행동 설명 없음"},
	{"R(결과)", CategoryResult, "결과 설명 없음"},
}

// Synthesizer aggregates per-category evaluations into a Report.
type Synthesizer struct {
	bank    *QuestionBank
	scoring Scoring
}

func NewSynthesizer(bank *QuestionBank, scoring Scoring) *Synthesizer {
	return &Synthesizer{bank: bank, scoring: scoring}
}

// Synthesize builds the report. Categories without an evaluation count as
// unanswered.
func (s *Synthesizer) Synthesize(answers map[Category]string, evaluations map[Category]Evaluation) Report {
	eval := func(c Category) Evaluation {
		if e, ok := evaluations[c]; ok {
			return e
		}
		return pendingEvaluation()
	}

	total := 0
	var strong, weak []Category
	for _, c := range Categories {
		score := eval(c).Score
		total += score
		if score >= s.scoring.StrongStep && len(strong) < 2 {
			strong = append(strong, c)
		}
		if score < s.scoring.WeakStep {
			weak = append(weak, c)
		}
	}
	score := roundScore(float64(total) / float64(len(Categories)))

	specificity := roundScore(float64(
		eval(CategoryRole).Score+eval(CategoryDuration).Score+eval(CategoryProblem).Score+eval(CategoryAction).Score,
	) / 4)

	result := answers[CategoryResult]
	impact := eval(CategoryResult).Score
	if strongMetricPattern.MatchString(result) {
		impact += s.scoring.MetricBonus
	} else {
		impact -= s.scoring.MetricPenalty
	}

	return Report{
		Summary:              s.summary(answers),
		Feedback:             s.feedback(strong, weak, result, eval),
		Score:                score,
		Level:                s.level(score),
		RecommendedQuestions: s.recommended(weak),
		SpecificityScore:     clampScore(specificity),
		ImpactScore:          clampScore(impact),
	}
}

func (s *Synthesizer) summary(answers map[Category]string) string {
	lines := make([]string, 0, len(summaryLines))
	for _, line := range summaryLines {
		text := strings.TrimSpace(answers[line.category])
		if text == "" {
			text = line.placeholder
		}
		lines = append(lines, fmt.Sprintf("%s: %s", line.label, text))
	}
	return strings.Join(lines, "\n")
}

func (s *Synthesizer) level(score int) Level {
	switch {
	case score >= s.scoring.HighLevel:
		return LevelHigh
	case score >= s.scoring.MidLevel:
		return LevelMid
	default:
		return LevelLow
	}
}

func (s *Synthesizer) feedback(strong, weak []Category, result string, eval func(Category) Evaluation) []string {
	out := make([]string, 0, 4)

	if len(strong) > 0 {
		titles := make([]string, 0, len(strong))
		for _, c := range strong {
			titles = append(titles, s.bank.Title(c))
		}
		out = append(out, fmt.Sprintf("강점: %s 항목이 구체적이고 설득력 있게 전달되었습니다.", strings.Join(titles, ", ")))
	} else {
		out = append(out, "강점: 인터뷰 전반에서 핵심 경험을 구조적으로 전달하려는 흐름이 좋았습니다.")
	}

	if resultEvidencePattern.MatchString(result) {
		out = append(out, "강점: 결과를 근거(수치/성과) 중심으로 설명해 신뢰도를 높였습니다.")
	} else {
		out = append(out, "개선점: 결과는 가능한 한 수치(%, 시간, 비용 등)로 표현하면 설득력이 크게 올라갑니다.")
	}

	for _, c := range weak[:min(2, len(weak))] {
		first := "핵심 정보 보완이 필요합니다"
		if points := eval(c).MissingPoints; len(points) > 0 {
			first = points[0]
		}
		out = append(out, fmt.Sprintf("개선점: %s 답변에서 \"%s\" 부분을 보완해 보세요.", s.bank.Title(c), first))
	}

	return out
}

func (s *Synthesizer) recommended(weak []Category) []string {
	seen := make(QuestionSet)
	out := make([]string, 0, maxRecommended)
	add := func(q string) {
		if len(out) < maxRecommended && !seen.Has(q) {
			seen.Add(q)
			out = append(out, q)
		}
	}

	for _, c := range weak {
		for _, q := range s.bank.Category(c).Recommended {
			add(q)
		}
	}
	add(s.bank.Reflection)

	return out
}

func roundScore(v float64) int {
	return int(math.Round(v))
}

func clampScore(n int) int {
	return max(0, min(100, n))
}
