package ai

import "errors"

var (
	// ErrOracleTimeout indicates an oracle call did not complete in its time budget.
	// It is not retried automatically.
	ErrOracleTimeout = errors.New("oracle call timed out")

	// ErrMalformedOutput indicates an oracle reply could not be parsed by any
	// extraction strategy.
	ErrMalformedOutput = errors.New("malformed oracle output")

	// ErrEmptyResponse indicates the backend returned no choices.
	ErrEmptyResponse = errors.New("oracle returned no choices")

	// ErrInvalidConfig prefixes configuration validation failures.
	ErrInvalidConfig = errors.New("ai config")
)
