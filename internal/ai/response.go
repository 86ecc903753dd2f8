package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	//go:embed schemas/envelope.json
	envelopeSchemaJSON string
	//go:embed schemas/job_match.json
	jobMatchSchemaJSON string

	envelopeSchema = mustSchema(envelopeSchemaJSON)
	jobMatchSchema = mustSchema(jobMatchSchemaJSON)
)

func mustSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("compile response schema: %v", err))
	}
	return schema
}

// Envelope is the interviewer reply: a question for the same step, or the
// next step once the current one is sufficient.
type Envelope struct {
	Type     string  `json:"type"`
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	NextStep string  `json:"nextStep,omitempty"`
}

// Advances reports whether the oracle judged the current step sufficient.
func (e Envelope) Advances() bool {
	return e.NextStep != "" || e.Type == "done"
}

// JobMatch is the job optimization reply.
type JobMatch struct {
	Keywords           []string `json:"keywords"`
	OptimizedParagraph string   `json:"optimized_paragraph"`
	MatchScore         float64  `json:"match_score"`
	Feedback           []string `json:"feedback"`
}

// Score rounds the match score into 0..100.
func (m JobMatch) Score() int {
	return max(0, min(100, int(math.Round(m.MatchScore))))
}

// ParseEnvelope validates and decodes an interviewer reply.
func ParseEnvelope(raw string) (*Envelope, error) {
	var env Envelope
	if err := decode(envelopeSchema, raw, &env); err != nil {
		return nil, err
	}
	env.Message = strings.TrimSpace(env.Message)
	return &env, nil
}

// ParseJobMatch validates and decodes a job optimization reply.
func ParseJobMatch(raw string) (*JobMatch, error) {
	var match JobMatch
	if err := decode(jobMatchSchema, raw, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

func decode(schema *gojsonschema.Schema, raw string, out any) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			problems = append(problems, field+": "+desc.Description())
		}
		return fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(problems, "; "))
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// ExtractJSON strips markdown code fences that models wrap JSON in.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
