package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/refine"
)

// ErrInvalidConfig is joined with every ValidationError LoadConfig returns.
var ErrInvalidConfig = errors.New("invalid configuration")

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate reports every problem with the configuration.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Database.Path == "" {
		errs = append(errs, ValidationError{Field: "database.path", Message: "database path is required"})
	}

	if !slices.Contains(ai.Backends, ai.Backend(c.AI.Backend)) {
		errs = append(errs, ValidationError{
			Field:   "ai.backend",
			Message: fmt.Sprintf("unknown backend %q", c.AI.Backend),
		})
	}
	errs = checkURL(errs, "ai.oracle_host", c.AI.OracleHost)
	errs = checkURL(errs, "ai.embedding_host", c.AI.EmbeddingHost)
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "ai.temperature", Message: "temperature must be between 0 and 2"})
	}
	if c.AI.MaxTokens < 0 {
		errs = append(errs, ValidationError{Field: "ai.max_tokens", Message: "max_tokens cannot be negative"})
	}

	if _, err := refine.ParseTemplate(c.Refine.Template); err != nil {
		errs = append(errs, ValidationError{Field: "refine.template", Message: err.Error()})
	}
	if c.Refine.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "refine.timeout", Message: "timeout cannot be negative"})
	}

	if c.Search.Limit < 1 {
		errs = append(errs, ValidationError{Field: "search.limit", Message: "limit must be positive"})
	}

	if c.Embedding.Workers < 1 {
		errs = append(errs, ValidationError{Field: "embedding.workers", Message: "workers must be positive"})
	}
	if c.Embedding.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "embedding.rate_limit", Message: "rate_limit cannot be negative"})
	}
	if c.Embedding.MaxRetries < 1 {
		errs = append(errs, ValidationError{Field: "embedding.max_retries", Message: "max_retries must be positive"})
	}

	if c.Classify.WordLimit < 1 || c.Classify.SummaryWindow < 1 || c.Classify.SummaryWords < 1 || c.Classify.CharBudget < 1 {
		errs = append(errs, ValidationError{Field: "classify", Message: "limits must be positive"})
	}
	if c.Classify.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "classify.rate_limit", Message: "rate_limit cannot be negative"})
	}

	return errs
}

func checkURL(errs []ValidationError, field, raw string) []ValidationError {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return append(errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL %q", raw)})
	}
	return errs
}
