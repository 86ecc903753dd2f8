package gemini

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/spigell/star-interviewer/internal/ai"
	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/jobfit"
	"github.com/spigell/star-interviewer/internal/logger"
	"github.com/spigell/star-interviewer/internal/star"
	"github.com/spigell/star-interviewer/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompts/job_match.md
var jobMatchPrompt string

// JobMatcher is a jobfit.Scorer backed by Gemini.
type JobMatcher struct {
	generator ai.Generator
	maxLogLen int
	logger    *zap.Logger
}

func NewJobMatcher(generator ai.Generator, maxLogLength int, log *zap.Logger) *JobMatcher {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &JobMatcher{
		generator: generator,
		maxLogLen: maxLogLength,
		logger:    logger.WithCommonFields(log, Provider, generator.Model()),
	}
}

func (m *JobMatcher) Score(ctx context.Context, req jobfit.Request) (int, error) {
	if strings.TrimSpace(req.Narrative) == "" {
		return 0, fmt.Errorf("%w: narrative must not be empty", interview.ErrValidation)
	}

	sections := req.Sections
	if sections.IsZero() {
		sections = star.Parse(req.Narrative)
	}

	message := buildJobMatchMessage(sections, req.Job)

	raw, err := m.generator.GenerateContent(ctx, jobMatchPrompt, message)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", interview.ErrOracle, err)
	}

	match, err := ai.ParseJobMatch(raw)
	if err != nil {
		m.logger.Debug("unparsable job match response",
			zap.String("job_id", req.Job.ID),
			zap.String("response_preview", utils.TruncateForLog(raw, m.maxLogLen)),
		)
		return 0, fmt.Errorf("%w: %w", interview.ErrOracle, err)
	}

	m.logger.Debug("gemini job match",
		zap.String("job_id", req.Job.ID),
		zap.Int("score", match.Score()),
		zap.Strings("keywords", match.Keywords),
	)

	return match.Score(), nil
}

func buildJobMatchMessage(sections star.Sections, job jobfit.Job) string {
	var b strings.Builder

	b.WriteString("구조화된 경험:\n")
	fmt.Fprintf(&b, "- 상황: %s\n", sections.Situation)
	fmt.Fprintf(&b, "- 과제: %s\n", sections.Task)
	fmt.Fprintf(&b, "- 행동: %s\n", sections.Action)
	fmt.Fprintf(&b, "- 성과: %s\n", sections.Result)

	b.WriteString("\n목표:\n")
	fmt.Fprintf(&b, "- 직무: %s\n", job.Label)
	if len(job.Keywords) > 0 {
		fmt.Fprintf(&b, "- 직무 키워드: %s\n", strings.Join(job.Keywords, ", "))
	}

	return strings.TrimSpace(b.String())
}
