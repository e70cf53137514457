// Package ollama provides AI service implementations using Ollama's native API.
//
// Oracle calls that carry an ai.Schema run in Ollama's JSON mode. Ollama
// guarantees syntactically valid JSON but not the schema's shape, so replies
// are returned unstructured and callers run them through package extract.
package ollama

import (
	"log/slog"

	"github.com/poiesic/litscreen/ai"
)

// Provider implements ai.AIProvider using a local or remote Ollama server.
type Provider struct {
	embedder *Embedder
	oracle   *Oracle
	logger   *slog.Logger
}

// NewProvider creates a new Ollama-backed provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	oracle, err := newOracle(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		embedder: embedder,
		oracle:   oracle,
		logger:   slog.Default().With("component", "ollama-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Oracle returns the text generation service.
func (p *Provider) Oracle() ai.Oracle {
	return p.oracle
}

// Close is a no-op; the HTTP clients need no cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing Ollama provider")
	return nil
}
