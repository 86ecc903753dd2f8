package gemini

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/star-interviewer/internal/ai"
	"github.com/spigell/star-interviewer/internal/interview"
	"github.com/spigell/star-interviewer/internal/logger"
	"github.com/spigell/star-interviewer/internal/utils"

	"go.uber.org/zap"
)

//go:embed prompts/interviewer.md
var interviewerPrompt string

const defaultMaxLogLength = 200

// Interviewer is an interview.Judge that asks Gemini whether the current
// category is sufficient and what to ask next. Scores and missing points stay
// heuristic so reports are comparable across judges.
type Interviewer struct {
	generator ai.Generator
	heuristic *interview.HeuristicJudge
	maxLogLen int
	logger    *zap.Logger
}

func NewInterviewer(generator ai.Generator, scoring interview.Scoring, bank *interview.QuestionBank, maxLogLength int, log *zap.Logger) *Interviewer {
	if bank == nil {
		bank = interview.DefaultQuestionBank()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Interviewer{
		generator: generator,
		heuristic: interview.NewHeuristicJudge(scoring, bank),
		maxLogLen: maxLogLength,
		logger:    logger.WithCommonFields(log, Provider, generator.Model()),
	}
}

func (i *Interviewer) Evaluate(ctx context.Context, turn interview.Turn) (interview.Evaluation, error) {
	eval, err := i.heuristic.Evaluate(ctx, turn)
	if err != nil {
		return interview.Evaluation{}, err
	}

	message := buildStepMessage(turn)

	i.logger.Debug("gemini interviewer request",
		zap.String(logger.FieldCategory, string(turn.Category)),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", utils.TruncateForLog(message, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, interviewerPrompt, message)
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("%w: %w", interview.ErrOracle, err)
	}

	i.logger.Debug("gemini interviewer response",
		zap.String(logger.FieldCategory, string(turn.Category)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	env, err := ai.ParseEnvelope(raw)
	if err != nil {
		return interview.Evaluation{}, fmt.Errorf("%w: %w", interview.ErrOracle, err)
	}

	eval.IsSufficient = env.Advances()
	if !eval.IsSufficient {
		eval.Hint = env.Message
	}

	return eval, nil
}

// SelectFollowUp prefers the oracle's question and falls back to the bank
// when it was already asked.
func (i *Interviewer) SelectFollowUp(ctx context.Context, category interview.Category, eval interview.Evaluation, asked interview.QuestionSet) (string, error) {
	if hint := strings.TrimSpace(eval.Hint); hint != "" && !asked.Has(hint) {
		return hint, nil
	}
	return i.heuristic.SelectFollowUp(ctx, category, eval, asked)
}

func buildStepMessage(turn interview.Turn) string {
	var b strings.Builder

	if experience := strings.TrimSpace(turn.Experience); experience != "" {
		fmt.Fprintf(&b, "원문 경험(텍스트):\n%s\n\n", experience)
	}

	b.WriteString("현재 대화 로그:\n")
	for _, m := range turn.Transcript {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(m.Role)), m.Text)
	}

	fmt.Fprintf(&b, "\n현재 항목 누적 답변:\n%s\n\n", turn.Answer)

	steps := make([]string, 0, len(interview.Categories))
	for _, c := range interview.Categories {
		steps = append(steps, string(c))
	}
	fmt.Fprintf(&b, "[STEP:%s] 항목 순서: %s. 이 항목만 평가하라.", turn.Category, strings.Join(steps, " → "))

	return b.String()
}
