package interview

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultQuestions []byte

// QuestionBank is every user-facing sentence the interview can emit.
type QuestionBank struct {
	Greeting   string           `yaml:"greeting"`
	Transition string           `yaml:"transition"`
	Completion string           `yaml:"completion"`
	Fallback   string           `yaml:"fallback"`
	Closing    string           `yaml:"closing"`
	Reflection string           `yaml:"reflection"`
	Triggers   []Trigger        `yaml:"triggers"`
	Categories []CategoryPrompt `yaml:"categories"`

	byKey map[Category]*CategoryPrompt
}

// Trigger injects evidence prompts when a missing point contains Marker.
type Trigger struct {
	Marker    string   `yaml:"marker"`
	Questions []string `yaml:"questions"`
}

// CategoryPrompt groups the questions of one category.
type CategoryPrompt struct {
	Key         Category `yaml:"key"`
	Title       string   `yaml:"title"`
	Primary     string   `yaml:"primary"`
	Alternates  []string `yaml:"alternates"`
	FollowUps   []string `yaml:"follow_ups"`
	Recommended []string `yaml:"recommended"`
}

// DefaultQuestionBank returns the embedded Korean question bank.
func DefaultQuestionBank() *QuestionBank {
	bank, err := ParseQuestionBank(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank is invalid: %v", err))
	}
	return bank
}

// LoadQuestionBank reads a question bank from a YAML file.
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank %s: %w", path, err)
	}
	return ParseQuestionBank(data)
}

// ParseQuestionBank decodes and validates a YAML question bank.
func ParseQuestionBank(data []byte) (*QuestionBank, error) {
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if err := bank.validate(); err != nil {
		return nil, fmt.Errorf("validate question bank: %w", err)
	}
	return &bank, nil
}

func (b *QuestionBank) validate() error {
	if len(b.Categories) != len(Categories) {
		return fmt.Errorf("expected %d categories, got %d", len(Categories), len(b.Categories))
	}

	b.byKey = make(map[Category]*CategoryPrompt, len(b.Categories))
	for i := range b.Categories {
		prompt := &b.Categories[i]
		if prompt.Key != Categories[i] {
			return fmt.Errorf("category %d must be %q, got %q", i, Categories[i], prompt.Key)
		}
		if strings.TrimSpace(prompt.Primary) == "" {
			return fmt.Errorf("category %q has no primary question", prompt.Key)
		}
		if strings.TrimSpace(prompt.Title) == "" {
			prompt.Title = string(prompt.Key)
		}
		b.byKey[prompt.Key] = prompt
	}

	if strings.TrimSpace(b.Fallback) == "" {
		return fmt.Errorf("fallback question is required")
	}
	if !strings.Contains(b.Closing, "%s") {
		return fmt.Errorf("closing template must contain %%s")
	}

	return nil
}

// Category returns the prompts for c. The bank is validated, so every category exists.
func (b *QuestionBank) Category(c Category) *CategoryPrompt {
	return b.byKey[c]
}

// Title is the display name used in feedback lines.
func (b *QuestionBank) Title(c Category) string {
	if p := b.Category(c); p != nil {
		return p.Title
	}
	return string(c)
}

// ClosingFor is the last-resort follow-up once every candidate was asked.
func (b *QuestionBank) ClosingFor(c Category) string {
	return fmt.Sprintf(b.Closing, b.Title(c))
}
