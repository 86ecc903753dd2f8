package interview

import "errors"

var (
	// ErrValidation marks malformed or empty input rejected before the state machine.
	ErrValidation = errors.New("validation error")
	// ErrSessionState marks a submit on a terminal, missing or unknown session.
	ErrSessionState = errors.New("session state error")
	// ErrOracle marks a failure of the generative collaborator. Only the oracle-backed
	// judge returns it; the heuristic path never does.
	ErrOracle = errors.New("oracle error")
)

// IsRetryable reports whether the caller may retry the same request unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOracle)
}
