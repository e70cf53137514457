package mock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/poiesic/litscreen/ai"
)

// ErrNoResponses is returned when a MockOracle runs out of queued responses
// and has no InvokeFunc.
var ErrNoResponses = errors.New("mock oracle: no responses queued")

// Call records a single Invoke.
type Call struct {
	Prompt string
	Schema *ai.Schema
}

// MockOracle is a test double for ai.Oracle.
//
// Behavior, in priority order: InvokeFunc if set, otherwise the next entry of
// Responses. Delay is applied first and honors context cancellation.
type MockOracle struct {
	// InvokeFunc is called by Invoke if set.
	InvokeFunc func(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error)

	// Delay simulates a slow model.
	Delay time.Duration

	// Structured marks queued replies as schema-enforced.
	Structured bool

	mu        sync.Mutex
	responses []string
	calls     []Call
}

// NewMockOracle creates a mock oracle that replies with responses in order.
func NewMockOracle(responses ...string) *MockOracle {
	return &MockOracle{responses: responses}
}

// WithInvokeFunc sets custom behavior and returns the oracle for chaining.
func (m *MockOracle) WithInvokeFunc(fn func(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error)) *MockOracle {
	m.InvokeFunc = fn
	return m
}

// WithDelay sets the simulated latency and returns the oracle for chaining.
func (m *MockOracle) WithDelay(d time.Duration) *MockOracle {
	m.Delay = d
	return m
}

// Enqueue appends replies to the response queue.
func (m *MockOracle) Enqueue(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
}

// Invoke returns the next scripted reply.
func (m *MockOracle) Invoke(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Schema: schema})
	m.mu.Unlock()

	if m.Delay > 0 {
		timer := time.NewTimer(m.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if m.InvokeFunc != nil {
		return m.InvokeFunc(ctx, prompt, schema)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil, ErrNoResponses
	}
	text := m.responses[0]
	m.responses = m.responses[1:]
	return &ai.Reply{Text: text, Structured: m.Structured && schema != nil}, nil
}

// CallCount returns the number of times Invoke was called.
func (m *MockOracle) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded invocations.
func (m *MockOracle) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Prompts returns the prompts of all recorded invocations.
func (m *MockOracle) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	prompts := make([]string, len(m.calls))
	for i, c := range m.calls {
		prompts[i] = c.Prompt
	}
	return prompts
}

// Reset clears recorded calls, queued responses and custom behavior.
func (m *MockOracle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.responses = nil
	m.InvokeFunc = nil
	m.Delay = 0
}
