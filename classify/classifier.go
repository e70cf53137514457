// Package classify judges documents against inclusion or exclusion criteria
// and mines batches of judgements for recurring patterns.
//
// Long documents are summarized by the oracle before classification; short
// ones are truncated to a fixed character budget. Every classified document
// yields exactly one result: when the oracle reply cannot be parsed the
// result falls back to the mode name with the raw reply as its reason.
package classify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/core"
	"github.com/poiesic/litscreen/extract"
	"golang.org/x/time/rate"
)

// EmptyInputClassification labels documents with no text.
const EmptyInputClassification = "ERROR: empty input"

// Config controls how much of a document reaches the oracle.
type Config struct {
	// WordLimit is the word count above which a document is summarized.
	WordLimit int

	// SummaryWindow is the number of leading characters sent for summary.
	SummaryWindow int

	// SummaryWords is the length the summary is asked to stay under.
	SummaryWords int

	// CharBudget is the number of leading characters classified directly.
	CharBudget int

	// Criteria are the per-mode criteria lists.
	Criteria Criteria

	// RateLimit caps oracle calls per second in ClassifyAll. Zero disables pacing.
	RateLimit float64
}

// DefaultConfig returns a Config with the default limits and criteria.
func DefaultConfig() *Config {
	return &Config{
		WordLimit:     1000,
		SummaryWindow: 8000,
		SummaryWords:  1500,
		CharBudget:    5000,
		Criteria:      DefaultCriteria(),
	}
}

// Classifier classifies document text with an oracle.
type Classifier struct {
	oracle    ai.Oracle
	extractor *extract.Extractor
	config    *Config
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(c *Classifier) {
		if config != nil {
			c.config = config
		}
	}
}

// WithCriteria replaces the criteria lists.
func WithCriteria(criteria Criteria) Option {
	return func(c *Classifier) {
		cfg := *c.config
		cfg.Criteria = criteria
		c.config = &cfg
	}
}

// WithExtractor replaces the default JSON extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(c *Classifier) {
		c.extractor = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClassifier creates a Classifier backed by oracle.
func NewClassifier(oracle ai.Oracle, opts ...Option) *Classifier {
	c := &Classifier{
		oracle: oracle,
		config: DefaultConfig(),
		logger: slog.Default().With("component", "classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.extractor == nil {
		c.extractor = extract.New(extract.WithLogger(c.logger))
	}
	if c.config.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(c.config.RateLimit), 1)
	}
	return c
}

// Classify judges text against the criteria for mode.
// It fails only for an invalid mode or a cancelled context; oracle and
// parsing failures produce a fallback result instead.
func (c *Classifier) Classify(ctx context.Context, text string, mode core.ClassificationMode) (*core.ClassificationResult, error) {
	result, _, err := c.classify(ctx, text, mode)
	return result, err
}

// ClassifyDocument classifies text and wraps the result in a record for file.
func (c *Classifier) ClassifyDocument(ctx context.Context, file, text string, mode core.ClassificationMode) (*core.ClassificationRecord, error) {
	result, summarized, err := c.classify(ctx, text, mode)
	if err != nil {
		return nil, err
	}
	return &core.ClassificationRecord{
		Id:           uuid.New(),
		File:         file,
		Mode:         mode,
		Result:       *result,
		Summarized:   summarized,
		ClassifiedAt: time.Now().UTC(),
	}, nil
}

func (c *Classifier) classify(ctx context.Context, text string, mode core.ClassificationMode) (*core.ClassificationResult, bool, error) {
	if err := core.ValidateMode(mode); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(text) == "" {
		return &core.ClassificationResult{
			Classification: EmptyInputClassification,
			Keywords:       []string{},
			Reason:         "document contains no text",
		}, false, nil
	}

	input, summarized, err := c.prepare(ctx, text)
	if err != nil {
		return nil, false, err
	}

	if err := c.wait(ctx); err != nil {
		return nil, false, err
	}
	prompt := buildClassificationPrompt(mode, c.config.Criteria, input)
	reply, err := c.oracle.Invoke(ctx, prompt, ai.ClassificationSchema)
	if err == nil && reply == nil {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.logger.Warn("classification call failed", "mode", mode, "err", err)
		return fallback(mode, "classification failed: "+err.Error()), summarized, nil
	}

	result, ok := c.parse(reply)
	if !ok {
		c.logger.Warn("unparseable classification, using fallback", "mode", mode)
		return fallback(mode, reply.Text), summarized, nil
	}
	return result, summarized, nil
}

// prepare returns the text to classify: a summary for long documents, the
// leading CharBudget characters otherwise.
func (c *Classifier) prepare(ctx context.Context, text string) (string, bool, error) {
	words := len(strings.Fields(text))
	if words <= c.config.WordLimit {
		return truncate(text, c.config.CharBudget), false, nil
	}

	if err := c.wait(ctx); err != nil {
		return "", false, err
	}
	prompt := buildSummaryPrompt(truncate(text, c.config.SummaryWindow), c.config.SummaryWords)
	reply, err := c.oracle.Invoke(ctx, prompt, nil)
	if err == nil && reply == nil {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		c.logger.Warn("summary failed, truncating instead", "words", words, "err", err)
		return truncate(text, c.config.CharBudget), false, nil
	}

	summary := extract.StripReasoning(reply.Text)
	if summary == "" {
		c.logger.Warn("empty summary, truncating instead", "words", words)
		return truncate(text, c.config.CharBudget), false, nil
	}
	c.logger.Debug("summarized document", "words", words, "summary_words", len(strings.Fields(summary)))
	return summary, true, nil
}

func (c *Classifier) parse(reply *ai.Reply) (*core.ClassificationResult, bool) {
	var result core.ClassificationResult
	if reply.Structured {
		if err := json.Unmarshal([]byte(reply.Text), &result); err == nil && result.Classification != "" {
			return normalize(&result), true
		}
	}

	extracted := c.extractor.Extract(reply.Text)
	if !extracted.OK() {
		return nil, false
	}
	result = core.ClassificationResult{}
	if err := extracted.Decode(&result); err != nil || strings.TrimSpace(result.Classification) == "" {
		return nil, false
	}
	return normalize(&result), true
}

func (c *Classifier) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func normalize(r *core.ClassificationResult) *core.ClassificationResult {
	r.Classification = strings.TrimSpace(r.Classification)
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	return r
}

func fallback(mode core.ClassificationMode, reason string) *core.ClassificationResult {
	return &core.ClassificationResult{
		Classification: string(mode),
		Keywords:       []string{},
		Reason:         reason,
	}
}

// truncate returns at most n leading characters of s, never splitting a rune.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

