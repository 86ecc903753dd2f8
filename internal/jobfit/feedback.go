package jobfit

import (
	"fmt"
	"regexp"
	"strings"
)

var metricPattern = regexp.MustCompile(`(\d+%|\d+\s*(명|건|원|만원|억원|배|일|주|월)|증가|감소|향상|개선|절감|달성)`)

// MatchFeedback is the one-line verdict shown next to a score.
func MatchFeedback(score int, label string) string {
	switch {
	case score >= 80:
		return fmt.Sprintf("%s 직무에 매우 적합한 경험입니다.", label)
	case score >= 60:
		return fmt.Sprintf("%s 직무에 적합한 경험입니다.", label)
	case score >= 40:
		return fmt.Sprintf("일부 연관성이 있으며, %s 직무에 맞춰 더 개선할 수 있습니다.", label)
	default:
		return fmt.Sprintf("%s 직무와 연관성이 낮습니다. 경험을 더 구체화하거나 다른 경험을 선택해 보세요.", label)
	}
}

// Signals are the interview-side inputs used to explain a score.
type Signals struct {
	Summary          string
	SpecificityScore int
	ImpactScore      int
}

// MatchedKeywords returns the job keywords present in text, case-insensitively.
func MatchedKeywords(job Job, text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, k := range job.Keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			out = append(out, k)
		}
	}
	return out
}

// MatchReason explains why a score landed in its band.
func MatchReason(score int, job Job, sig Signals) string {
	role := job.Label
	if role == "" {
		role = "선택한 직무"
	}
	matched := MatchedKeywords(job, sig.Summary)

	switch {
	case score < 60:
		switch {
		case sig.SpecificityScore < 70:
			return fmt.Sprintf("%s 기준에서 답변 구체성이 낮아 점수가 낮게 반영되었습니다.", role)
		case sig.ImpactScore < 70:
			return fmt.Sprintf("%s 기준에서 수치/성과 근거가 부족해 점수가 낮게 반영되었습니다.", role)
		case len(matched) == 0:
			return fmt.Sprintf("%s 핵심 키워드와 인터뷰 경험 연결성이 약해 점수가 낮게 반영되었습니다.", role)
		default:
			return fmt.Sprintf("%s 키워드 일부는 맞지만 핵심 근거(구체성/성과)가 부족해 점수가 낮게 반영되었습니다.", role)
		}
	case score < 80:
		switch {
		case !metricPattern.MatchString(sig.Summary):
			return fmt.Sprintf("%s와 연관성은 있으나 인터뷰에서 정량 성과 근거가 약해 중간 점수로 반영되었습니다.", role)
		case len(matched) <= 1:
			return fmt.Sprintf("%s와 기본 연관성은 있으나 직무 키워드 반영이 제한적이라 점수가 보수적으로 반영되었습니다.", role)
		default:
			return fmt.Sprintf("%s와 기본 연관성은 있으나, 직무 키워드와 정량 성과를 더 보강하면 점수가 올라갑니다.", role)
		}
	}

	keywords := ""
	if len(matched) > 0 {
		keywords = strings.Join(matched[:min(2, len(matched))], ", ") + " "
	}
	return fmt.Sprintf("%s 핵심 키워드 %s및 인터뷰 성과 근거가 함께 확인되어 높게 평가되었습니다.", role, keywords)
}
