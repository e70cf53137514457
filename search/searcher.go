package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/storage"
)

// Mode selects a ranking path.
type Mode string

const (
	Lexical  Mode = "lexical"
	Semantic Mode = "semantic"
)

// ParseMode converts a mode name into a Mode.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case Lexical, Semantic:
		return Mode(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Refiner turns a topic into a refined query.
type Refiner interface {
	Refine(ctx context.Context, topic string) (*core.RefinementResult, error)
}

// Outcome is the result of one search.
type Outcome struct {
	Refinement *core.RefinementResult
	Terms      Terms
	Results    []*core.SearchResult

	// Count is the number of matching documents before truncation.
	Count int
}

// Searcher runs refined searches over the document corpus.
type Searcher struct {
	documents storage.DocumentRepository
	refiner   Refiner
	embedder  ai.Embedder
	limit     int
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEmbedder enables semantic search.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(s *Searcher) error {
		s.embedder = embedder
		return nil
	}
}

// WithLimit sets how many results a search keeps.
func WithLimit(limit int) Option {
	return func(s *Searcher) error {
		if limit <= 0 {
			return fmt.Errorf("invalid search limit %d", limit)
		}
		s.limit = limit
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(documents storage.DocumentRepository, refiner Refiner, opts ...Option) (*Searcher, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if refiner == nil {
		return nil, ErrRefinerRequired
	}

	s := &Searcher{
		documents: documents,
		refiner:   refiner,
		limit:     DefaultLimit,
		logger:    slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search refines topic and ranks the corpus with mode.
func (s *Searcher) Search(ctx context.Context, topic string, mode Mode) (*Outcome, error) {
	return s.SearchWithMonitor(ctx, topic, mode, nil)
}

// SearchWithMonitor is Search with progress callbacks.
// A refinement failure (including ai.ErrOracleTimeout) aborts the search.
func (s *Searcher) SearchWithMonitor(ctx context.Context, topic string, mode Mode, monitor SearchMonitor) (*Outcome, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if mode != Lexical && mode != Semantic {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if mode == Semantic && s.embedder == nil {
		return nil, ErrEmbedderRequired
	}

	monitor.Start(topic, mode)

	refinement, err := s.refiner.Refine(ctx, topic)
	if err != nil {
		s.logger.Error("error refining topic", "err", err)
		return nil, err
	}
	monitor.AfterRefinement(refinement)

	outcome, err := s.rank(ctx, refinement.RefinedQuery, mode, monitor)
	if err != nil {
		return nil, err
	}
	outcome.Refinement = refinement
	monitor.Finish(outcome.Results)
	return outcome, nil
}

// SearchQuery ranks the corpus against an already refined query.
func (s *Searcher) SearchQuery(ctx context.Context, query string, mode Mode) (*Outcome, error) {
	if mode == Semantic && s.embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if mode != Lexical && mode != Semantic {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return s.rank(ctx, query, mode, &noopMonitor{})
}

func (s *Searcher) rank(ctx context.Context, query string, mode Mode, monitor SearchMonitor) (*Outcome, error) {
	outcome := &Outcome{}

	var vector []float32
	switch mode {
	case Lexical:
		outcome.Terms = ExtractTerms(query)
		monitor.AfterTermExtraction(outcome.Terms)
		if outcome.Terms.Empty() {
			outcome.Results = []*core.SearchResult{}
			return outcome, nil
		}
	case Semantic:
		var err error
		vector, err = s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			s.logger.Error("error generating embedding for query", "err", err)
			return nil, err
		}
		monitor.AfterQueryEmbedding(len(vector))
	}

	var docs []*core.DocumentRecord
	var err error
	if mode == Semantic {
		docs, err = s.documents.ListDocumentsByStatus(ctx, core.EmbeddingCompleted)
	} else {
		docs, err = s.documents.ListDocuments(ctx)
	}
	if err != nil {
		s.logger.Error("error loading corpus", "err", err)
		return nil, err
	}
	monitor.AfterCorpusLoad(len(docs))

	var all []*core.SearchResult
	if mode == Semantic {
		all = scoreSemantic(vector, docs)
	} else {
		all = scoreLexical(docs, outcome.Terms)
	}

	outcome.Count = len(all)
	outcome.Results = truncate(all, s.limit)
	s.logger.Debug("ranked corpus", "mode", mode, "corpus", len(docs), "matches", outcome.Count, "returned", len(outcome.Results))
	return outcome, nil
}
