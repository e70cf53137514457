package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// DefaultDimensions is the vector size produced by the default behavior.
const DefaultDimensions = 384

// MockEmbedder is a test double for ai.Embedder.
// Queries and abstracts share DeterministicVector by default, so a query
// equal to an abstract lands on the same vector.
type MockEmbedder struct {
	// EmbedQueryFunc is called by EmbedQuery if set.
	EmbedQueryFunc func(ctx context.Context, query string) ([]float32, error)

	// EmbedAbstractFunc is called by EmbedAbstract if set.
	EmbedAbstractFunc func(ctx context.Context, abstract string) ([]float32, error)

	mu        sync.Mutex
	callCount int
	texts     []string
}

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedQuery generates a deterministic embedding for a query.
func (m *MockEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	m.record(query)

	if m.EmbedQueryFunc != nil {
		return m.EmbedQueryFunc(ctx, query)
	}
	return deterministic(ctx, query)
}

// EmbedAbstract generates a deterministic embedding for an abstract.
func (m *MockEmbedder) EmbedAbstract(ctx context.Context, abstract string) ([]float32, error) {
	m.record(abstract)

	if m.EmbedAbstractFunc != nil {
		return m.EmbedAbstractFunc(ctx, abstract)
	}
	return deterministic(ctx, abstract)
}

func deterministic(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DeterministicVector(text, DefaultDimensions), nil
}

func (m *MockEmbedder) record(texts ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.texts = append(m.texts, texts...)
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns every text the embedder has been asked to embed, in order.
func (m *MockEmbedder) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears the call count and custom behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.EmbedQueryFunc = nil
	m.EmbedAbstractFunc = nil
}

// DeterministicVector creates a unit-length embedding vector from text.
// The same text always produces the same vector.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares > 0 {
		norm := float32(1.0 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
