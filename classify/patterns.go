package classify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/extract"
)

// ErrMissingPatternLists is recorded when a reply parses as an object but
// carries neither pattern list.
var ErrMissingPatternLists = errors.New("missing pattern lists")

// Aggregator mines classification batches for recurring patterns.
type Aggregator struct {
	subject   string
	oracle    ai.Oracle
	extractor *extract.Extractor
	logger    *slog.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorExtractor replaces the default JSON extractor.
func WithAggregatorExtractor(e *extract.Extractor) AggregatorOption {
	return func(a *Aggregator) {
		a.extractor = e
	}
}

// WithAggregatorSubject sets the review topic named in the prompt.
// A blank subject keeps DefaultSubject.
func WithAggregatorSubject(subject string) AggregatorOption {
	return func(a *Aggregator) {
		a.subject = subjectOrDefault(subject)
	}
}

// WithAggregatorLogger sets the logger.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates an Aggregator backed by oracle.
func NewAggregator(oracle ai.Oracle, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		subject: DefaultSubject,
		oracle:  oracle,
		logger:  slog.Default().With("component", "aggregator"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.extractor == nil {
		a.extractor = extract.New(extract.WithLogger(a.logger))
	}
	return a
}

// Aggregate asks the oracle for the patterns behind the two batches.
//
// Both batches empty yields an empty set without an oracle call. A failed
// call or unparseable reply yields a set whose Failure carries the error and
// raw reply; Aggregate never returns nil.
func (a *Aggregator) Aggregate(ctx context.Context, exclusion, inclusion []*core.ClassificationRecord) *core.PatternSet {
	set := core.NewPatternSet()
	if len(exclusion) == 0 && len(inclusion) == 0 {
		a.logger.Debug("no classification results to aggregate")
		return set
	}

	reply, err := a.oracle.Invoke(ctx, buildPatternPrompt(a.subject, exclusion, inclusion), ai.PatternSetSchema)
	if err == nil && reply == nil {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		a.logger.Warn("pattern extraction call failed", "err", err)
		set.Failure = &core.ExtractionFailure{Error: err.Error()}
		return set
	}

	// Pointers tell an absent list from an empty one.
	var parsed struct {
		ExclusionPatterns *[]core.Pattern `json:"exclusion_patterns"`
		InclusionPatterns *[]core.Pattern `json:"inclusion_patterns"`
	}
	decoded := false
	if reply.Structured {
		decoded = json.Unmarshal([]byte(reply.Text), &parsed) == nil
	}
	if !decoded {
		extracted := a.extractor.Extract(reply.Text)
		if !extracted.OK() {
			set.Failure = extracted.Failure
			return set
		}
		if err := extracted.Decode(&parsed); err != nil {
			set.Failure = &core.ExtractionFailure{Error: err.Error(), RawResponse: reply.Text}
			return set
		}
	}
	if parsed.ExclusionPatterns == nil && parsed.InclusionPatterns == nil {
		a.logger.Warn("pattern reply has no pattern lists")
		set.Failure = &core.ExtractionFailure{Error: ErrMissingPatternLists.Error(), RawResponse: reply.Text}
		return set
	}

	set.ExclusionPatterns = appendPatterns(set.ExclusionPatterns, parsed.ExclusionPatterns)
	set.InclusionPatterns = appendPatterns(set.InclusionPatterns, parsed.InclusionPatterns)
	set.CreatedAt = time.Now().UTC()

	a.logger.Info("extracted patterns", "exclusion", len(set.ExclusionPatterns), "inclusion", len(set.InclusionPatterns))
	return set
}

func appendPatterns(dst []core.Pattern, src *[]core.Pattern) []core.Pattern {
	if src == nil {
		return dst
	}
	for _, p := range *src {
		dst = append(dst, withKeywords(p))
	}
	return dst
}

func withKeywords(p core.Pattern) core.Pattern {
	if p.Keywords == nil {
		p.Keywords = []string{}
	}
	return p
}
