// Package ai holds the provider-neutral contract for the generative oracle
// and the parsing of its JSON replies.
package ai

import (
	"context"
	"errors"
)

// Generator sends a system instruction and a user payload to a model and
// returns its raw text reply.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// ErrMalformedResponse marks replies that are not the JSON document requested.
var ErrMalformedResponse = errors.New("malformed oracle response")
