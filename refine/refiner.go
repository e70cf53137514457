// Package refine turns a free-text research topic into a structured search
// query with a single oracle call.
//
// The call is bounded by a timeout (60 seconds by default). When it expires
// the in-flight request is cancelled and Refine returns ai.ErrOracleTimeout
// without a result; it is never retried. Schema-enforced replies are decoded
// directly and everything else goes through package extract.
package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/extract"
)

// DefaultTimeout bounds a single refinement call.
const DefaultTimeout = 60 * time.Second

// Refiner refines research topics into search queries.
type Refiner struct {
	oracle    ai.Oracle
	extractor *extract.Extractor
	template  Template
	examples  []Example
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Refiner.
type Option func(*Refiner)

// WithTimeout sets the time budget for one refinement.
func WithTimeout(d time.Duration) Option {
	return func(r *Refiner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithTemplate selects the prompt variant.
func WithTemplate(t Template) Option {
	return func(r *Refiner) {
		r.template = t
	}
}

// WithExamples appends labelled papers to every prompt.
func WithExamples(examples ...Example) Option {
	return func(r *Refiner) {
		r.examples = append(r.examples, examples...)
	}
}

// WithExtractor replaces the default JSON extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(r *Refiner) {
		r.extractor = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refiner) {
		r.logger = logger
	}
}

// NewRefiner creates a Refiner backed by oracle.
func NewRefiner(oracle ai.Oracle, opts ...Option) *Refiner {
	r := &Refiner{
		oracle:   oracle,
		template: ZeroShot,
		timeout:  DefaultTimeout,
		logger:   slog.Default().With("component", "refiner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.extractor == nil {
		r.extractor = extract.New(extract.WithLogger(r.logger))
	}
	return r
}

type reply struct {
	reply *ai.Reply
	err   error
}

// Refine asks the oracle to refine topic.
func (r *Refiner) Refine(ctx context.Context, topic string) (*core.RefinementResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic", core.ErrEmptyInput)
	}

	prompt, err := BuildPrompt(r.template, topic, r.examples)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The oracle may not honor ctx promptly, so the wait is bounded here
	// and the goroutine finishes on its own into the buffered channel.
	done := make(chan reply, 1)
	start := time.Now()
	go func() {
		rep, err := r.oracle.Invoke(callCtx, prompt, ai.RefinementSchema)
		done <- reply{rep, err}
	}()

	var res reply
	select {
	case res = <-done:
	case <-callCtx.Done():
		cancel()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("refinement timed out", "timeout", r.timeout)
		return nil, fmt.Errorf("%w: after %s", ai.ErrOracleTimeout, r.timeout)
	}

	if res.err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %w", ai.ErrOracleTimeout, res.err)
		}
		return nil, res.err
	}
	if res.reply == nil {
		return nil, ai.ErrEmptyResponse
	}

	result, err := r.parse(res.reply)
	if err != nil {
		r.logger.Debug("unparseable refinement", "err", err, "response", res.reply.Text)
		return nil, err
	}
	if result.InitialQuery == "" {
		result.InitialQuery = topic
	}
	if result.KeyConcepts == nil {
		result.KeyConcepts = []string{}
	}

	r.logger.Debug("refined query", "topic_length", len(topic), "refined_query", result.RefinedQuery, "duration", time.Since(start))
	return result, nil
}

func (r *Refiner) parse(rep *ai.Reply) (*core.RefinementResult, error) {
	if rep.Structured {
		if result, ok := decodeRefinement([]byte(rep.Text)); ok {
			return result, nil
		}
	}

	extracted := r.extractor.Extract(rep.Text)
	if !extracted.OK() {
		return nil, fmt.Errorf("%w: %s", ai.ErrMalformedOutput, extracted.Failure.Error)
	}
	result, ok := decodeRefinement(extracted.JSON)
	if !ok {
		return nil, fmt.Errorf("%w: missing refined_query", ai.ErrMalformedOutput)
	}
	return result, nil
}

// decodeRefinement accepts both the {"result": {...}} envelope and a bare
// result object.
func decodeRefinement(data []byte) (*core.RefinementResult, bool) {
	var envelope struct {
		Result *core.RefinementResult `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Result != nil && valid(envelope.Result) {
		return envelope.Result, true
	}

	var bare core.RefinementResult
	if err := json.Unmarshal(data, &bare); err == nil && valid(&bare) {
		return &bare, true
	}
	return nil, false
}

func valid(r *core.RefinementResult) bool {
	r.RefinedQuery = strings.TrimSpace(r.RefinedQuery)
	return r.RefinedQuery != ""
}
