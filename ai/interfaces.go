package ai

import "context"

// Embedder turns search queries and paper abstracts into vectors in the
// same space. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery embeds a free-text search query.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedAbstract embeds a document abstract for storage. Some models
	// embed queries and documents differently, so the two are kept apart.
	// An empty vector with a nil error means the backend returned nothing.
	EmbedAbstract(ctx context.Context, abstract string) ([]float32, error)
}

// Oracle sends a prompt to a large language model and returns its reply.
// Implementations must be thread-safe for concurrent use.
//
// The oracle is treated as unreliable: replies may ignore formatting
// instructions, arrive late, or not at all. Callers bound the wait with ctx
// and run raw replies through package extract.
type Oracle interface {
	// Invoke issues one generation call. When schema is non-nil the backend
	// is asked for a JSON reply matching it; Reply.Structured reports whether
	// the backend actually enforced the schema.
	// Temperature and seed come from the provider configuration and are
	// passed through unchanged; Invoke never retries with other parameters.
	Invoke(ctx context.Context, prompt string, schema *Schema) (*Reply, error)
}

// Reply is the text returned by an Oracle.
type Reply struct {
	// Text is the raw model output.
	Text string

	// Structured is true when the backend enforced the requested schema,
	// so Text can be decoded directly without extraction heuristics.
	Structured bool
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and Oracle instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Oracle returns the text generation service.
	// The returned Oracle is safe for concurrent use.
	Oracle() Oracle

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
