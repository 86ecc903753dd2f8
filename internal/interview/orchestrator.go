package interview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/star-interviewer/internal/logger"

	"go.uber.org/zap"
)

type ReplyType string

const (
	ReplyQuestion ReplyType = "question"
	ReplyDone     ReplyType = "done"
)

// Reply is the envelope returned for every submission. NextStep is empty
// while the same category is being followed up.
type Reply struct {
	Type     ReplyType `json:"type"`
	Progress int       `json:"progress"`
	Message  string    `json:"message"`
	NextStep string    `json:"nextStep,omitempty"`
}

// Orchestrator drives sessions through the six categories.
type Orchestrator struct {
	judge       Judge
	bank        *QuestionBank
	scoring     Scoring
	synthesizer *Synthesizer
	logger      *zap.Logger
	now         func() time.Time
}

func NewOrchestrator(judge Judge, bank *QuestionBank, scoring Scoring, log *zap.Logger) *Orchestrator {
	if bank == nil {
		bank = DefaultQuestionBank()
	}
	if judge == nil {
		judge = NewHeuristicJudge(scoring, bank)
	}

	return &Orchestrator{
		judge:       judge,
		bank:        bank,
		scoring:     scoring,
		synthesizer: NewSynthesizer(bank, scoring),
		logger:      logger.WithFields(log),
		now:         time.Now,
	}
}

// Scoring returns the constants the orchestrator was built with.
func (o *Orchestrator) Scoring() Scoring { return o.scoring }

// Start creates a session and emits the first category's primary question.
// experience is optional source text the oracle judge sees on every turn.
func (o *Orchestrator) Start(id, experience string) (*Session, Reply) {
	s := newSession(id, o.now())
	s.experience = strings.TrimSpace(experience)

	first := o.bank.Category(Categories[0]).Primary
	s.asked.Add(first)
	s.question = first

	message := o.bank.Greeting + first
	s.say(RoleAI, message)

	o.logger.Info("interview started", logger.SessionFields(id, Categories[0])...)

	return s, Reply{
		Type:     ReplyQuestion,
		Progress: 0,
		Message:  message,
		NextStep: string(Categories[0]),
	}
}

// Submit merges text into the current category's answer and either asks a
// follow-up for the same category or advances. Judge failures leave the
// session untouched so the caller can retry.
func (o *Orchestrator) Submit(ctx context.Context, s *Session, text string) (Reply, error) {
	if s == nil {
		return Reply{}, fmt.Errorf("%w: session is required", ErrSessionState)
	}
	category, ok := s.Current()
	if !ok {
		return Reply{}, fmt.Errorf("%w: session %s is already completed", ErrSessionState, s.id)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, fmt.Errorf("%w: answer must not be empty", ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > o.scoring.MaxAnswerLength {
		return Reply{}, fmt.Errorf("%w: answer is %d characters, limit is %d", ErrValidation, n, o.scoring.MaxAnswerLength)
	}

	log := o.logger.With(logger.SessionFields(s.id, category)...)

	merged := text
	if prior := strings.TrimSpace(s.answers[category]); prior != "" {
		merged = prior + " " + text
	}

	transcript := append(slices.Clone(s.transcript), Message{Role: RoleUser, Text: text})
	eval, err := o.judge.Evaluate(ctx, Turn{
		Category:   category,
		Answer:     merged,
		Transcript: transcript,
		Experience: s.experience,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("evaluate %s: %w", category, err)
	}

	log.Debug("answer evaluated",
		zap.Int("score", eval.Score),
		zap.Bool("sufficient", eval.IsSufficient),
		zap.Int("missing", len(eval.MissingPoints)),
	)

	if !eval.IsSufficient && s.followUps[category] < o.scoring.MaxFollowUps {
		question, err := o.judge.SelectFollowUp(ctx, category, eval, s.asked)
		if err != nil {
			return Reply{}, fmt.Errorf("select follow-up for %s: %w", category, err)
		}

		o.commit(s, category, merged, eval, text)
		s.followUps[category]++
		s.asked.Add(question)
		s.question = question
		s.say(RoleAI, question)

		log.Info("follow-up asked", zap.Int("follow_ups", s.followUps[category]))

		return Reply{Type: ReplyQuestion, Progress: s.progress, Message: question}, nil
	}

	o.commit(s, category, merged, eval, text)
	s.index++

	if s.Done() {
		report := o.synthesizer.Synthesize(s.answers, s.evaluations)
		s.report = &report
		s.progress = 100
		s.question = ""
		s.say(RoleAI, o.bank.Completion)

		log.Info("interview completed",
			zap.Int("score", report.Score),
			zap.String("level", string(report.Level)),
		)

		return Reply{Type: ReplyDone, Progress: 100, Message: o.bank.Completion, NextStep: StepDone}, nil
	}

	next := Categories[s.index]
	question := o.nextQuestion(s, next)
	s.asked.Add(question)
	s.question = question
	s.progress = expectedProgress(s.index)

	message := o.bank.Transition + question
	s.say(RoleAI, message)

	log.Info("category advanced",
		zap.String("next", string(next)),
		zap.Int("progress", s.progress),
	)

	return Reply{Type: ReplyQuestion, Progress: s.progress, Message: message, NextStep: string(next)}, nil
}

func (o *Orchestrator) commit(s *Session, c Category, merged string, eval Evaluation, text string) {
	s.answers[c] = merged
	s.evaluations[c] = eval
	s.say(RoleUser, text)
	s.updatedAt = o.now()
}

// nextQuestion prefers the primary question and falls back to the first
// unasked alternate phrasing.
func (o *Orchestrator) nextQuestion(s *Session, c Category) string {
	prompt := o.bank.Category(c)
	if !s.asked.Has(prompt.Primary) {
		return prompt.Primary
	}
	for _, alt := range prompt.Alternates {
		if !s.asked.Has(alt) {
			return alt
		}
	}
	return prompt.Primary
}
