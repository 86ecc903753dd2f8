package interview

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/spigell/star-interviewer/internal/star"
)

type Role string

const (
	RoleAI   Role = "ai"
	RoleUser Role = "user"
)

// Message is one line of the interview transcript.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Session is the per-interview state. It is not safe for concurrent use;
// callers serialize submissions per session.
type Session struct {
	id          string
	experience  string
	index       int
	answers     map[Category]string
	followUps   map[Category]int
	evaluations map[Category]Evaluation
	asked       QuestionSet
	transcript  []Message
	progress    int
	question    string
	report      *Report
	createdAt   time.Time
	updatedAt   time.Time
}

func newSession(id string, now time.Time) *Session {
	s := &Session{
		id:          id,
		answers:     make(map[Category]string, len(Categories)),
		followUps:   make(map[Category]int, len(Categories)),
		evaluations: make(map[Category]Evaluation, len(Categories)),
		asked:       make(QuestionSet),
		createdAt:   now,
		updatedAt:   now,
	}
	for _, c := range Categories {
		s.answers[c] = ""
		s.followUps[c] = 0
		s.evaluations[c] = pendingEvaluation()
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Experience is the free-form experience text the session was started with.
func (s *Session) Experience() string { return s.experience }

// Done reports whether every category was collected.
func (s *Session) Done() bool { return s.index >= len(Categories) }

// Current returns the category awaiting input.
func (s *Session) Current() (Category, bool) {
	if s.Done() {
		return "", false
	}
	return Categories[s.index], true
}

func (s *Session) Index() int { return s.index }
func (s *Session) Progress() int { return s.progress }
func (s *Session) Question() string { return s.question }
func (s *Session) Report() *Report { return s.report }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }

func (s *Session) Answer(c Category) string { return s.answers[c] }
func (s *Session) FollowUps(c Category) int { return s.followUps[c] }
func (s *Session) Evaluation(c Category) Evaluation { return s.evaluations[c] }

func (s *Session) Transcript() []Message { return slices.Clone(s.transcript) }

// Narrative joins the collected answers in category order.
// It is the input of the job-fit fingerprint.
func (s *Session) Narrative() string {
	var b strings.Builder
	for _, c := range Categories {
		answer := strings.TrimSpace(s.answers[c])
		if answer == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(c))
		b.WriteString(": ")
		b.WriteString(answer)
	}
	return b.String()
}

// Sections maps the collected answers onto STAR: company, role and duration
// describe the situation, problem is the task.
func (s *Session) Sections() star.Sections {
	var situation []string
	for _, c := range []Category{CategoryCompany, CategoryRole, CategoryDuration} {
		if answer := strings.TrimSpace(s.answers[c]); answer != "" {
			situation = append(situation, answer)
		}
	}

	return star.Sections{
		Situation: strings.Join(situation, " "),
		Task:      strings.TrimSpace(s.answers[CategoryProblem]),
		Action:    strings.TrimSpace(s.answers[CategoryAction]),
		Result:    strings.TrimSpace(s.answers[CategoryResult]),
	}
}

func (s *Session) say(role Role, text string) {
	s.transcript = append(s.transcript, Message{Role: role, Text: text})
}

// Snapshot is the serializable form of a session.
type Snapshot struct {
	ID          string                  `json:"id"`
	Experience  string                  `json:"experience,omitempty"`
	Index       int                     `json:"currentCategoryIndex"`
	Answers     map[Category]string     `json:"answers"`
	FollowUps   map[Category]int        `json:"followUpCounts"`
	Evaluations map[Category]Evaluation `json:"evaluations"`
	Asked       []string                `json:"askedQuestions"`
	Transcript  []Message               `json:"transcript"`
	Progress    int                     `json:"progress"`
	Question    string                  `json:"question"`
	Report      *Report                 `json:"report,omitempty"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func (s *Session) Snapshot() *Snapshot {
	asked := s.asked.List()
	slices.Sort(asked)

	return &Snapshot{
		ID:          s.id,
		Experience:  s.experience,
		Index:       s.index,
		Answers:     maps.Clone(s.answers),
		FollowUps:   maps.Clone(s.followUps),
		Evaluations: maps.Clone(s.evaluations),
		Asked:       asked,
		Transcript:  slices.Clone(s.transcript),
		Progress:    s.progress,
		Question:    s.question,
		Report:      s.report,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
}

// Restore rebuilds a session from a snapshot, rejecting states that break
// the session invariants.
func Restore(snap *Snapshot, scoring Scoring) (*Session, error) {
	if snap == nil || strings.TrimSpace(snap.ID) == "" {
		return nil, fmt.Errorf("%w: snapshot without id", ErrSessionState)
	}
	if snap.Index < 0 || snap.Index > len(Categories) {
		return nil, fmt.Errorf("%w: category index %d out of range", ErrSessionState, snap.Index)
	}

	if snap.Report != nil && snap.Index < len(Categories) {
		return nil, fmt.Errorf("%w: session %s has a report before completion", ErrSessionState, snap.ID)
	}
	if want := expectedProgress(snap.Index); snap.Progress != want {
		return nil, fmt.Errorf("%w: progress %d does not match category index %d", ErrSessionState, snap.Progress, snap.Index)
	}

	s := newSession(snap.ID, snap.CreatedAt)
	s.experience = snap.Experience
	s.index = snap.Index
	s.progress = snap.Progress
	s.question = snap.Question
	s.report = snap.Report
	s.updatedAt = snap.UpdatedAt
	s.transcript = slices.Clone(snap.Transcript)

	for c, answer := range snap.Answers {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q in answers", ErrSessionState, c)
		}
		s.answers[c] = answer
	}
	for c, n := range snap.FollowUps {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q in follow-ups", ErrSessionState, c)
		}
		if n < 0 || n > scoring.MaxFollowUps {
			return nil, fmt.Errorf("%w: follow-up count %d for %q exceeds budget", ErrSessionState, n, c)
		}
		s.followUps[c] = n
	}
	for c, eval := range snap.Evaluations {
		if !c.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q in evaluations", ErrSessionState, c)
		}
		s.evaluations[c] = eval
	}
	for _, q := range snap.Asked {
		s.asked.Add(q)
	}

	if s.Done() && s.report == nil {
		return nil, fmt.Errorf("%w: completed session %s has no report", ErrSessionState, snap.ID)
	}

	return s, nil
}

// expectedProgress is the displayed progress for a category index.
// Completion is an explicit 100.
func expectedProgress(index int) int {
	if index >= len(Categories) {
		return 100
	}
	return int(math.Round(100 * float64(index) / float64(len(Categories))))
}
