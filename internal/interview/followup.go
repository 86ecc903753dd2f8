package interview

import "strings"

// QuestionSet tracks questions already asked in a session. It only grows.
type QuestionSet map[string]struct{}

func (s QuestionSet) Has(q string) bool {
	_, ok := s[strings.TrimSpace(q)]
	return ok
}

func (s QuestionSet) Add(q string) {
	if q = strings.TrimSpace(q); q != "" {
		s[q] = struct{}{}
	}
}

// List returns the asked questions in no particular order.
func (s QuestionSet) List() []string {
	out := make([]string, 0, len(s))
	for q := range s {
		out = append(out, q)
	}
	return out
}

// Selector picks a clarifying question that was not asked before.
// It never mutates the asked set; the caller records the returned question.
type Selector struct {
	bank *QuestionBank
}

func NewSelector(bank *QuestionBank) *Selector {
	return &Selector{bank: bank}
}

// Select returns the first unasked candidate: trigger prompts for missing
// numbers, roles and durations first, then the category follow-ups, then the
// universal fallback. When all were asked it returns the category closing line.
func (s *Selector) Select(category Category, missingPoints []string, asked QuestionSet) string {
	for _, candidate := range s.candidates(category, missingPoints) {
		if !asked.Has(candidate) {
			return candidate
		}
	}
	return s.bank.ClosingFor(category)
}

func (s *Selector) candidates(category Category, missingPoints []string) []string {
	var out []string
	for _, trigger := range s.bank.Triggers {
		if mentions(missingPoints, trigger.Marker) {
			out = append(out, trigger.Questions...)
		}
	}
	if prompt := s.bank.Category(category); prompt != nil {
		out = append(out, prompt.FollowUps...)
	}
	return append(out, s.bank.Fallback)
}

func mentions(points []string, marker string) bool {
	for _, p := range points {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}
