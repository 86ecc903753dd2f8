package jobfit

import (
	"fmt"
	"strings"
)

// Job is a target role a narrative can be matched against.
type Job struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
	Custom   bool     `json:"custom,omitempty" yaml:"-"`
}

const customPrefix = "custom-"

// DefaultJobs is the built-in catalog.
var DefaultJobs = []Job{
	{ID: "marketing", Label: "콘텐츠 마케팅", Keywords: []string{"콘텐츠", "캠페인", "전환", "도달", "브랜딩", "성과"}},
	{ID: "pm", Label: "프로덕트 매니저", Keywords: []string{"우선순위", "요구사항", "지표", "실험", "로드맵", "협업"}},
	{ID: "operations", Label: "운영 관리", Keywords: []string{"프로세스", "표준화", "운영", "효율", "절감", "개선"}},
	{ID: "cs", Label: "고객 성공 매니저", Keywords: []string{"고객", "만족", "문의", "응대", "재방문", "문제해결"}},
}

// Lookup finds a catalog job by id.
func Lookup(id string) (Job, bool) {
	id = strings.TrimSpace(id)
	for _, job := range DefaultJobs {
		if job.ID == id {
			return job, true
		}
	}
	return Job{}, false
}

// CustomJobID derives a stable id for a free-form role label.
func CustomJobID(label string) string {
	return fmt.Sprintf("%s%d", customPrefix, rollingHash(strings.ToLower(strings.TrimSpace(label))))
}

// CustomJob builds a keyword-less job for a free-form role label.
func CustomJob(label string) (Job, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Job{}, fmt.Errorf("job label must not be empty")
	}
	return Job{ID: CustomJobID(label), Label: label, Custom: true}, nil
}

// Resolve returns the catalog job with the given id, or treats the input as a
// custom role label.
func Resolve(idOrLabel string) (Job, error) {
	if job, ok := Lookup(idOrLabel); ok {
		return job, nil
	}
	return CustomJob(idOrLabel)
}
