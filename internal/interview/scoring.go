package interview

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Scoring holds the empirically chosen constants used by the evaluator,
// the orchestrator and the synthesizer. They are configurable so deployments can
// tune them without touching the heuristics.
type Scoring struct {
	// MinLength is the rune count under which an answer is "too short".
	MinLength int `mapstructure:"min-length" validate:"gte=0"`
	// LenientLength lets a single missing point pass when the answer is at least this long.
	LenientLength int `mapstructure:"lenient-length" validate:"gte=0"`
	// Penalty is subtracted from 100 per missing point.
	Penalty int `mapstructure:"penalty" validate:"gte=0,lte=100"`
	// Floor is the lowest score an evaluation can produce.
	Floor int `mapstructure:"floor" validate:"gte=0,lte=100"`
	// MaxFollowUps caps follow-up questions per category.
	MaxFollowUps int `mapstructure:"max-follow-ups" validate:"gte=0"`

	HighLevel  int `mapstructure:"high-level" validate:"gte=0,lte=100"`
	MidLevel   int `mapstructure:"mid-level" validate:"gte=0,lte=100,ltefield=HighLevel"`
	StrongStep int `mapstructure:"strong-step" validate:"gte=0,lte=100"`
	WeakStep   int `mapstructure:"weak-step" validate:"gte=0,lte=100"`

	// MetricBonus and MetricPenalty adjust the impact score depending on
	// whether the result answer carries a strong metric.
	MetricBonus   int `mapstructure:"metric-bonus" validate:"gte=0"`
	MetricPenalty int `mapstructure:"metric-penalty" validate:"gte=0"`

	// MaxAnswerLength bounds a single submitted text, in runes.
	MaxAnswerLength int `mapstructure:"max-answer-length" validate:"gt=0"`
}

// DefaultScoring returns the values the heuristics were tuned with.
func DefaultScoring() Scoring {
	return Scoring{
		MinLength:       18,
		LenientLength:   35,
		Penalty:         17,
		Floor:           45,
		MaxFollowUps:    2,
		HighLevel:       85,
		MidLevel:        70,
		StrongStep:      85,
		WeakStep:        80,
		MetricBonus:     8,
		MetricPenalty:   6,
		MaxAnswerLength: 5000,
	}
}

// Validate checks the ranges declared in the struct tags.
func (s Scoring) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("%w: scoring: %v", ErrValidation, err)
	}
	return nil
}
