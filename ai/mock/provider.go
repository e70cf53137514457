// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/litscreen/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder and oracle instances.
type MockProvider struct {
	embedder *MockEmbedder
	oracle   *MockOracle
	closed   bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockEmbedder()/GetMockOracle() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		oracle:   NewMockOracle(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, oracle *MockOracle) ai.AIProvider {
	if embedder == nil {
		embedder = NewMockEmbedder()
	}
	if oracle == nil {
		oracle = NewMockOracle()
	}
	return &MockProvider{
		embedder: embedder,
		oracle:   oracle,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Oracle returns the mock oracle.
func (p *MockProvider) Oracle() ai.Oracle {
	return p.oracle
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
// This allows tests to check call counts and inject custom behavior.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockOracle returns the underlying mock oracle for test assertions.
// This allows tests to queue replies and inspect prompts.
func (p *MockProvider) GetMockOracle() *MockOracle {
	return p.oracle
}
