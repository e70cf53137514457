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


package ai

import (
	"fmt"
	"slices"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the inference API flavour.
	// Default: BackendOllama
	Backend Backend

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434" for Ollama,
	// "http://localhost:11434/v1" for an OpenAI-compatible server
	EmbeddingHost string

	// OracleHost is the base URL for the text generation service API.
	OracleHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// OracleModel is the model identifier used for refinement, classification
	// and pattern mining.
	// Example: "deepseek-r1:14b", "gpt-4o-mini"
	OracleModel string

	// Temperature is passed through to every oracle call.
	// Default: 0.2
	Temperature float64

	// Seed is passed through to every oracle call.
	// Default: 42
	Seed int

	// MaxTokens caps generated tokens per call. Zero leaves the backend default.
	MaxTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the inference backend.
func WithBackend(backend Backend) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithOracleHost sets the generation service host URL.
func WithOracleHost(host string) ConfigOption {
	return func(c *Config) {
		c.OracleHost = host
	}
}

// WithHost sets both embedding and oracle hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.OracleHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithOracleModel sets the generation model identifier.
func WithOracleModel(model string) ConfigOption {
	return func(c *Config) {
		c.OracleModel = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// WithSeed sets the sampling seed.
func WithSeed(seed int) ConfigOption {
	return func(c *Config) {
		c.Seed = seed
	}
}

// WithMaxTokens caps generated tokens per call.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama server.
// By default, both embedding and oracle use the same host.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434"
	return &Config{
		Backend:        BackendOllama,
		EmbeddingHost:  defaultHost,
		OracleHost:     defaultHost,
		EmbeddingModel: "embeddinggemma",
		OracleModel:    "deepseek-r1:14b",
		Temperature:    0.2,
		Seed:           42,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithBackend(BackendOpenAI),
//       WithHost("http://localhost:11434/v1"),
//       WithOracleModel("qwen2.5:7b"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// OpenAI-compatible APIs need the /v1 suffix; Ollama's native client must not have it.
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.Backend, c.EmbeddingHost)
	c.OracleHost = normalizeHost(c.Backend, c.OracleHost)
}

func normalizeHost(backend Backend, host string) string {
	if host == "" {
		return host
	}
	// Remove trailing slash if present before checking the suffix
	host = strings.TrimSuffix(host, "/")
	switch backend {
	case BackendOpenAI:
		if !strings.HasSuffix(host, "/v1") {
			host += "/v1"
		}
	case BackendOllama:
		host = strings.TrimSuffix(host, "/v1")
	}
	return host
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("%w: unknown Backend %q", ErrInvalidConfig, c.Backend)
	}

	c.Normalize()

	if c.EmbeddingHost == "" {
		return fmt.Errorf("%w: EmbeddingHost is required", ErrInvalidConfig)
	}
	if c.OracleHost == "" {
		return fmt.Errorf("%w: OracleHost is required", ErrInvalidConfig)
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: EmbeddingModel is required", ErrInvalidConfig)
	}
	if c.OracleModel == "" {
		return fmt.Errorf("%w: OracleModel is required", ErrInvalidConfig)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: Temperature must be between 0 and 2", ErrInvalidConfig)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: MaxTokens cannot be negative", ErrInvalidConfig)
	}
	return nil
}
