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


// Package litscreen wires the screening components to a Badger corpus and an
// AI provider.
//
// A Workspace owns the storage backend and, unless one is injected, the AI
// provider. Components are created on demand through its New* methods and
// pick up the workspace configuration as their defaults.
package litscreen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/ai/ollama"
	"github.com/poiesic/litscreen/ai/openai"
	"github.com/poiesic/litscreen/classify"
	"github.com/poiesic/litscreen/config"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/embedding"
	"github.com/poiesic/litscreen/extract"
	"github.com/poiesic/litscreen/refine"
	"github.com/poiesic/litscreen/search"
	"github.com/poiesic/litscreen/storage"
	"github.com/poiesic/litscreen/storage/badger"
)

type Workspace struct {
	backend   *badger.Backend
	documents storage.DocumentRepository
	results   storage.ResultRepository
	provider  ai.AIProvider
	config    *config.Config
	logger    *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	config   *config.Config
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
	logger   *slog.Logger
}

// WithConfig supplies a loaded configuration. Without it config.Default is used.
func WithConfig(cfg *config.Config) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.config = cfg
	}
}

// WithAIConfig overrides the ai section of the configuration.
func WithAIConfig(cfg *ai.Config) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider injects an AI provider. The workspace does not close it.
func WithProvider(provider ai.AIProvider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// InMemory keeps the corpus in memory; the path is ignored.
func InMemory() WorkspaceOption {
	return func(o *workspaceOptions) {
		o.inMemory = true
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.logger = logger
	}
}

// NewProvider builds the AI provider for cfg.Backend.
func NewProvider(cfg *ai.Config) (ai.AIProvider, error) {
	switch cfg.Backend {
	case ai.BackendOllama:
		return ollama.NewProvider(cfg)
	case ai.BackendOpenAI:
		return openai.NewProvider(cfg)
	}
	return nil, fmt.Errorf("%w: unknown Backend %q", ai.ErrInvalidConfig, cfg.Backend)
}

// OpenWorkspace opens the corpus at path, or at the configured database path
// when path is empty.
func OpenWorkspace(path string, opts ...WorkspaceOption) (*Workspace, error) {
	options := &workspaceOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.config == nil {
		options.config = config.Default()
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	if path == "" {
		path = options.config.Database.Path
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	results, err := badger.NewResultRepository(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	ws := &Workspace{
		backend:   backend,
		documents: documents,
		results:   results,
		config:    options.config,
		logger:    options.logger,
	}

	if options.provider != nil {
		ws.provider = options.provider
		return ws, nil
	}

	aiConfig := options.aiConfig
	if aiConfig == nil {
		aiConfig = options.config.AIConfig()
	}
	provider, err := NewProvider(aiConfig)
	if err != nil {
		results.Close()
		documents.Close()
		backend.Close()
		return nil, err
	}
	ws.provider = &ownedProvider{AIProvider: provider}
	return ws, nil
}

// ownedProvider marks a provider the workspace created and must close.
type ownedProvider struct {
	ai.AIProvider
}

func (ws *Workspace) Close() error {
	if owned, ok := ws.provider.(*ownedProvider); ok {
		if err := owned.Close(); err != nil {
			ws.logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := ws.results.Close(); err != nil {
		ws.logger.Error("error closing result repository", "err", err)
		return err
	}
	if err := ws.documents.Close(); err != nil {
		ws.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := ws.backend.Close(); err != nil {
		ws.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (ws *Workspace) Documents() storage.DocumentRepository {
	return ws.documents
}

func (ws *Workspace) Results() storage.ResultRepository {
	return ws.results
}

func (ws *Workspace) Config() *config.Config {
	return ws.config
}

func (ws *Workspace) extractor() *extract.Extractor {
	opts := []extract.Option{extract.WithLogger(ws.logger)}
	if ws.config.Classify.Repair {
		opts = append(opts, extract.WithRepair())
	}
	return extract.New(opts...)
}

// NewRefiner creates a refiner using the configured template and timeout.
// opts are applied after the configured defaults.
func (ws *Workspace) NewRefiner(opts ...refine.Option) (*refine.Refiner, error) {
	template, err := refine.ParseTemplate(ws.config.Refine.Template)
	if err != nil {
		return nil, err
	}
	defaults := []refine.Option{
		refine.WithTemplate(template),
		refine.WithTimeout(ws.config.Refine.Timeout),
		refine.WithExtractor(ws.extractor()),
		refine.WithLogger(ws.logger.With("component", "refiner")),
	}
	return refine.NewRefiner(ws.provider.Oracle(), append(defaults, opts...)...), nil
}

// Examples returns refinement examples built from the corpus documents that
// carry a consensus label.
func (ws *Workspace) Examples(ctx context.Context) ([]refine.Example, error) {
	docs, err := ws.documents.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	labelled := make([]*core.DocumentRecord, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Level1Consensus) != "" || strings.TrimSpace(doc.Level2Consensus) != "" {
			labelled = append(labelled, doc)
		}
	}
	return refine.ExamplesFromDocuments(labelled), nil
}

// NewSearcher creates a searcher over the corpus with the configured limit.
func (ws *Workspace) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	refiner, err := ws.NewRefiner()
	if err != nil {
		return nil, err
	}
	defaults := []search.Option{
		search.WithEmbedder(ws.provider.Embedder()),
		search.WithLimit(ws.config.Search.Limit),
		search.WithLogger(ws.logger.With("component", "searcher")),
	}
	return search.NewSearcher(ws.documents, refiner, append(defaults, opts...)...)
}

// NewLifecycle creates an embedding lifecycle with the configured settings.
func (ws *Workspace) NewLifecycle(opts ...embedding.Option) *embedding.Lifecycle {
	defaults := []embedding.Option{
		embedding.WithConfig(ws.config.EmbeddingConfig()),
		embedding.WithLogger(ws.logger.With("component", "embedding")),
	}
	return embedding.NewLifecycle(ws.documents, ws.provider.Embedder(), append(defaults, opts...)...)
}

// NewClassifier creates a classifier with the configured limits and criteria.
func (ws *Workspace) NewClassifier(opts ...classify.Option) *classify.Classifier {
	defaults := []classify.Option{
		classify.WithConfig(ws.config.ClassifyConfig()),
		classify.WithExtractor(ws.extractor()),
		classify.WithLogger(ws.logger.With("component", "classifier")),
	}
	return classify.NewClassifier(ws.provider.Oracle(), append(defaults, opts...)...)
}

// NewAggregator creates a pattern aggregator.
func (ws *Workspace) NewAggregator(opts ...classify.AggregatorOption) *classify.Aggregator {
	defaults := []classify.AggregatorOption{
		classify.WithAggregatorSubject(ws.config.Classify.Criteria.Subject),
		classify.WithAggregatorExtractor(ws.extractor()),
		classify.WithAggregatorLogger(ws.logger.With("component", "aggregator")),
	}
	return classify.NewAggregator(ws.provider.Oracle(), append(defaults, opts...)...)
}

// Classify classifies inputs and saves the records it produced, including
// those produced before a cancellation.
func (ws *Workspace) Classify(ctx context.Context, inputs []classify.Input, mode core.ClassificationMode, progress classify.ProgressFunc) ([]*core.ClassificationRecord, error) {
	records, err := ws.NewClassifier().ClassifyAll(ctx, inputs, mode, progress)
	if len(records) > 0 {
		// the batch context may already be cancelled
		if saveErr := ws.results.SaveClassifications(context.WithoutCancel(ctx), records...); saveErr != nil {
			return records, saveErr
		}
	}
	return records, err
}

// MinePatterns aggregates every saved classification and saves the resulting
// pattern set, failed or not.
func (ws *Workspace) MinePatterns(ctx context.Context) (*core.PatternSet, error) {
	exclusion, err := ws.results.ListClassifications(ctx, core.ModeExclusion)
	if err != nil {
		return nil, err
	}
	inclusion, err := ws.results.ListClassifications(ctx, core.ModeInclusion)
	if err != nil {
		return nil, err
	}

	set := ws.NewAggregator().Aggregate(ctx, exclusion, inclusion)
	if err := ws.results.SavePatternSet(ctx, set); err != nil {
		return set, err
	}
	return set, nil
}
