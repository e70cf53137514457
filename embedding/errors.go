package embedding

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmptyAbstract marks a document that has no text to embed.
	ErrEmptyAbstract = errors.New("document has no abstract")

	// ErrEmptyVector is returned when the embedder produces no values.
	ErrEmptyVector = errors.New("embedder returned an empty vector")
)
