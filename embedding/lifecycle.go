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


package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/storage"
	"golang.org/x/time/rate"
)

// Config holds configuration for an embedding run.
type Config struct {
	// Workers is the number of documents embedded concurrently.
	// 1 processes documents one at a time in corpus order.
	Workers int

	// Normalize stores unit-length vectors.
	Normalize bool

	// RateLimit caps embedder calls per second. Zero disables pacing.
	RateLimit float64

	// ReportInterval is how often to report progress (number of documents)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for a conflicting update
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:        1,
		Normalize:      true,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
	}
}

// Stats summarizes one ProcessPending run.
type Stats struct {
	// Processed counts documents moved to completed.
	Processed int

	// Failed counts documents moved to failed.
	Failed int
}

// Total returns the number of documents settled by the run.
func (s Stats) Total() int {
	return s.Processed + s.Failed
}

// Lifecycle moves documents through pending -> completed | failed.
//
// Only pending documents are candidates, so a run never re-embeds a settled
// document; Reset and ResetFailed put documents back in the queue. Runs on
// the same corpus must not overlap.
type Lifecycle struct {
	documents storage.DocumentRepository
	embedder  ai.Embedder
	config    *Config
	limiter   *rate.Limiter
	progress  io.Writer
	observer  func(done, total int)
	logger    *slog.Logger
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(l *Lifecycle) {
		if config != nil {
			l.config = config
		}
	}
}

// WithProgress writes progress lines to w.
func WithProgress(w io.Writer) Option {
	return func(l *Lifecycle) {
		l.progress = w
	}
}

// WithObserver calls fn after each settled document. Calls never overlap.
func WithObserver(fn func(done, total int)) Option {
	return func(l *Lifecycle) {
		l.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLifecycle creates a Lifecycle over documents using embedder.
func NewLifecycle(documents storage.DocumentRepository, embedder ai.Embedder, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		documents: documents,
		embedder:  embedder,
		config:    DefaultConfig(),
		logger:    slog.Default().With("component", "embedding"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.config.Workers < 1 {
		l.config.Workers = 1
	}
	if l.config.MaxRetries < 1 {
		l.config.MaxRetries = 1
	}
	if l.config.RateLimit > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(l.config.RateLimit), 1)
	}
	return l
}

// ProcessPending embeds every pending document.
//
// A document with an empty abstract, or whose embedding call fails or
// returns no values, is marked failed without affecting the others. Storage
// failures and context cancellation stop the run; the returned Stats cover
// the documents settled before that.
func (l *Lifecycle) ProcessPending(ctx context.Context) (Stats, error) {
	pending, err := l.documents.ListDocumentsByStatus(ctx, core.EmbeddingPending)
	if err != nil {
		return Stats{}, fmt.Errorf("listing pending documents: %w", err)
	}
	if len(pending) == 0 {
		l.logger.Debug("no pending documents")
		return Stats{}, nil
	}

	l.logger.Info("embedding pending documents", "count", len(pending), "workers", l.config.Workers)

	tracker := NewProgressTracker(l.progress, len(pending), l.config.ReportInterval)
	tracker.Start()

	run := &runState{total: len(pending), tracker: tracker, observer: l.observer}
	if l.config.Workers == 1 {
		for _, doc := range pending {
			if err := ctx.Err(); err != nil {
				run.fail(err)
				break
			}
			if err := l.settle(ctx, doc, run); err != nil {
				run.fail(err)
				break
			}
		}
	} else {
		if err := l.processParallel(ctx, pending, run); err != nil {
			run.fail(err)
		}
	}

	if l.progress != nil {
		tracker.Finish()
	}

	stats, runErr := run.result()
	l.logger.Info("embedding run finished", "processed", stats.Processed, "failed", stats.Failed, "elapsed", tracker.Elapsed().Round(time.Millisecond))
	return stats, runErr
}

func (l *Lifecycle) processParallel(ctx context.Context, docs []*core.DocumentRecord, run *runState) error {
	pool, err := ants.NewPool(l.config.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := l.settle(ctx, doc, run); err != nil {
				run.fail(err)
				cancel()
			}
		})
		if submitErr != nil {
			wg.Done()
			return submitErr
		}
	}
	wg.Wait()
	return ctx.Err()
}

// settle embeds one document and stores the outcome. A non-nil error is
// fatal to the run.
func (l *Lifecycle) settle(ctx context.Context, doc *core.DocumentRecord, run *runState) error {
	vector, embedErr := l.embed(ctx, doc)
	if embedErr != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	status := core.EmbeddingCompleted
	if embedErr != nil {
		status = core.EmbeddingFailed
		vector = nil
		l.logger.Warn("embedding failed", "id", doc.Id, "title", doc.Title, "err", embedErr)
	}

	err := RetryWithBackoff(ctx, func() error {
		_, err := l.documents.UpdateEmbedding(ctx, doc.Id, vector, status)
		return err
	}, l.config.MaxRetries, l.config.RetryDelay, func(err error) bool {
		return errors.Is(err, storage.ErrConflict)
	})
	switch {
	case err == nil:
		run.record(status == core.EmbeddingCompleted)
		return nil
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, storage.ErrNotFound):
		// Settled or deleted elsewhere since the candidate list was read.
		l.logger.Warn("document no longer pending", "id", doc.Id, "err", err)
		return nil
	default:
		return fmt.Errorf("storing embedding for document %d: %w", doc.Id, err)
	}
}

func (l *Lifecycle) embed(ctx context.Context, doc *core.DocumentRecord) ([]float32, error) {
	text := strings.TrimSpace(doc.Abstract)
	if text == "" {
		return nil, ErrEmptyAbstract
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	vector, err := l.embedder.EmbedAbstract(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}
	if l.config.Normalize {
		vector = NormalizeVector(vector)
	}
	return vector, nil
}

// Reset moves the given documents back to pending and clears their
// vectors. Pending documents are left alone. Returns the number reset.
// Unknown IDs fail the whole call with storage.ErrNotFound before anything
// is written.
func (l *Lifecycle) Reset(ctx context.Context, ids ...core.ID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	docs, err := l.documents.GetDocuments(ctx, ids...)
	if err != nil {
		return 0, err
	}

	found := make(map[core.ID]*core.DocumentRecord, len(docs))
	for _, doc := range docs {
		found[doc.Id] = doc
	}
	var missing []string
	seen := make(map[core.ID]bool, len(ids))
	settled := make([]core.ID, 0, len(docs))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		doc, ok := found[id]
		switch {
		case !ok:
			missing = append(missing, fmt.Sprint(uint64(id)))
		case doc.EmbeddingStatus != core.EmbeddingPending:
			settled = append(settled, id)
		}
	}
	if len(missing) > 0 {
		return 0, fmt.Errorf("documents %s: %w", strings.Join(missing, ", "), storage.ErrNotFound)
	}
	return l.reset(ctx, len(ids), settled)
}

func (l *Lifecycle) reset(ctx context.Context, requested int, ids []core.ID) (int, error) {
	if len(ids) == 0 {
		l.logger.Debug("nothing to reset", "requested", requested)
		return 0, nil
	}
	n, err := l.documents.ResetEmbeddings(ctx, ids...)
	if err != nil {
		return 0, err
	}
	l.logger.Info("reset embeddings", "requested", requested, "reset", n)
	return n, nil
}

// ResetFailed moves every failed document back to pending.
func (l *Lifecycle) ResetFailed(ctx context.Context) (int, error) {
	return l.resetWhere(ctx, func(d *core.DocumentRecord) bool {
		return d.EmbeddingStatus == core.EmbeddingFailed
	})
}

// ResetAll moves every settled document back to pending, for example after
// switching embedding models.
func (l *Lifecycle) ResetAll(ctx context.Context) (int, error) {
	return l.resetWhere(ctx, func(d *core.DocumentRecord) bool {
		return d.EmbeddingStatus != core.EmbeddingPending
	})
}

func (l *Lifecycle) resetWhere(ctx context.Context, keep func(*core.DocumentRecord) bool) (int, error) {
	docs, err := l.documents.ListDocuments(ctx)
	if err != nil {
		return 0, err
	}
	ids := make([]core.ID, 0, len(docs))
	for _, doc := range docs {
		if keep(doc) {
			ids = append(ids, doc.Id)
		}
	}
	return l.reset(ctx, len(ids), ids)
}

// runState collects results from sequential or pooled workers.
type runState struct {
	mu       sync.Mutex
	stats    Stats
	err      error
	total    int
	tracker  *ProgressTracker
	observer func(done, total int)
}

func (r *runState) record(completed bool) {
	r.mu.Lock()
	if completed {
		r.stats.Processed++
	} else {
		r.stats.Failed++
	}
	if r.observer != nil {
		r.observer(r.stats.Total(), r.total)
	}
	r.mu.Unlock()

	r.tracker.Record(completed)
}

func (r *runState) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

func (r *runState) result() (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats, r.err
}
