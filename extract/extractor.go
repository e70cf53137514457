// Package extract recovers a JSON object from free-form model output.
//
// Models asked for JSON still wrap it in prose, markdown fences or reasoning
// blocks. An Extractor tries a fixed, ordered list of pure strategies and
// returns the first candidate that parses as a JSON object. When none does,
// the Result carries a core.ExtractionFailure holding the raw text; Extract
// itself never fails.
package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/litscreen/core"
)

// ErrNoJSON is recorded in a failure when no strategy produced an object.
var ErrNoJSON = errors.New("no JSON object found in response")

// Strategy proposes JSON candidates from raw text, best first.
type Strategy struct {
	Name       string
	Candidates func(text string) []string
}

var (
	thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)
	jsonFence  = regexp.MustCompile("(?s)```(?i:json)[ \\t]*\\r?\\n?(.*?)```")
	anyFence   = regexp.MustCompile("(?s)```[a-zA-Z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")
	strategies = []Strategy{
		{Name: "json-fence", Candidates: fenced(jsonFence)},
		{Name: "any-fence", Candidates: fenced(anyFence)},
		{Name: "balanced-braces", Candidates: scanObjects},
	}
)

// Result is the outcome of an extraction.
type Result struct {
	// JSON holds the extracted object when extraction succeeded.
	JSON json.RawMessage

	// Strategy names the strategy that produced JSON.
	Strategy string

	// Repaired is true when the object parsed only after repair.
	Repaired bool

	// Failure is set when no strategy succeeded.
	Failure *core.ExtractionFailure
}

// OK reports whether an object was extracted.
func (r *Result) OK() bool {
	return r.Failure == nil && len(r.JSON) > 0
}

// Decode unmarshals the extracted object into v.
func (r *Result) Decode(v any) error {
	if !r.OK() {
		if r.Failure != nil {
			return fmt.Errorf("%w: %s", ErrNoJSON, r.Failure.Error)
		}
		return ErrNoJSON
	}
	return json.Unmarshal(r.JSON, v)
}

// Extractor runs extraction strategies in order.
type Extractor struct {
	repair bool
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRepair retries each candidate after fixing unquoted keys and trailing
// commas.
func WithRepair() Option {
	return func(e *Extractor) {
		e.repair = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.Default().With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the first JSON object found in text.
func (e *Extractor) Extract(text string) *Result {
	cleaned := StripReasoning(text)

	for _, strategy := range strategies {
		for _, candidate := range strategy.Candidates(cleaned) {
			if obj, repaired, ok := e.parse(candidate); ok {
				e.logger.Debug("extracted json", "strategy", strategy.Name, "repaired", repaired)
				return &Result{JSON: obj, Strategy: strategy.Name, Repaired: repaired}
			}
		}
	}

	e.logger.Debug("no json object in response", "length", len(text))
	return &Result{Failure: &core.ExtractionFailure{
		Error:       ErrNoJSON.Error(),
		RawResponse: text,
	}}
}

// StripReasoning removes <think>...</think> blocks emitted by reasoning
// models and trims the result.
func StripReasoning(text string) string {
	cleaned := thinkBlock.ReplaceAllString(text, "")
	// Some servers strip the opening tag but keep the closing one.
	if i := strings.LastIndex(cleaned, "</think>"); i >= 0 {
		cleaned = cleaned[i+len("</think>"):]
	}
	return strings.TrimSpace(cleaned)
}

func (e *Extractor) parse(candidate string) (json.RawMessage, bool, bool) {
	if obj, ok := asObject(candidate); ok {
		return obj, false, true
	}
	if e.repair {
		if obj, ok := asObject(repairJSON(candidate)); ok {
			return obj, true, true
		}
	}
	return nil, false, false
}

// asObject parses s strictly and accepts it only if it is a JSON object.
func asObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	// Reject trailing garbage after the object.
	if dec.More() {
		return nil, false
	}
	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, false
	}
	return bytes.TrimSpace(raw), true
}

func fenced(re *regexp.Regexp) func(string) []string {
	return func(text string) []string {
		var blocks []string
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			blocks = append(blocks, strings.TrimSpace(m[1]))
		}
		return blocks
	}
}

// scanObjects returns every balanced top-level {...} span in text, left to
// right. Braces inside string literals are ignored.
func scanObjects(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				spans = append(spans, text[start:i+1])
				start = -1
			}
		}
	}
	return spans
}
