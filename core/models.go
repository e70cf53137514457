package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EmbeddingStatus tracks where a document is in the embedding lifecycle.
type EmbeddingStatus int

const (
	// EmbeddingPending marks a document awaiting an embedding.
	EmbeddingPending EmbeddingStatus = iota + 1
	// EmbeddingCompleted marks a document with a stored embedding.
	EmbeddingCompleted
	// EmbeddingFailed marks a document whose embedding could not be computed.
	EmbeddingFailed
)

var statusNames = map[EmbeddingStatus]string{
	EmbeddingPending:   "pending",
	EmbeddingCompleted: "completed",
	EmbeddingFailed:    "failed",
}

// String returns the lowercase status name.
func (s EmbeddingStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("EmbeddingStatus(%d)", int(s))
}

// ParseEmbeddingStatus converts a status name back into an EmbeddingStatus.
func ParseEmbeddingStatus(name string) (EmbeddingStatus, error) {
	for status, n := range statusNames {
		if n == name {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s EmbeddingStatus) MarshalText() ([]byte, error) {
	if err := ValidateStatus(s); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *EmbeddingStatus) UnmarshalText(text []byte) error {
	status, err := ParseEmbeddingStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// DocumentRecord is one candidate paper in the screening corpus.
// Ranking reads the metadata fields; the embedding lifecycle writes
// Embedding and EmbeddingStatus.
type DocumentRecord struct {
	Id                  ID              `json:"id"`
	Title               string          `json:"title"`
	Theme               string          `json:"theme,omitempty"`
	Source              string          `json:"source,omitempty"`
	PaperType           string          `json:"paper_type,omitempty"`
	CountryOrganisation string          `json:"country_organisation,omitempty"`
	Abstract            string          `json:"abstract,omitempty"`
	URL                 string          `json:"url,omitempty"`
	Level1Consensus     string          `json:"level_1_consensus,omitempty"`
	Level1Reason        string          `json:"level_1_reason,omitempty"`
	Level2Consensus     string          `json:"level_2_consensus,omitempty"`
	Level2Reason        string          `json:"level_2_reason,omitempty"`
	Embedding           []float32       `json:"embedding,omitempty"`
	EmbeddingStatus     EmbeddingStatus `json:"embedding_status"`
	InsertedAt          time.Time       `json:"inserted_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ContentKey is the text a document's content-derived ID is computed from.
func (d *DocumentRecord) ContentKey() string {
	return d.Title + "\x00" + d.Source + "\x00" + d.URL
}

// RefinementResult is a free-text topic turned into a structured search query.
// RefinedQuery is never empty on a returned result.
type RefinementResult struct {
	InitialQuery string   `json:"initial_query"`
	RefinedQuery string   `json:"refined_query"`
	KeyConcepts  []string `json:"key_concepts"`
	Reason       string   `json:"refinement_reason"`
}

// ClassificationMode selects which criteria list a document is judged against.
type ClassificationMode string

const (
	ModeInclusion ClassificationMode = "inclusion"
	ModeExclusion ClassificationMode = "exclusion"
)

// ClassificationResult is the oracle's judgement of one document.
type ClassificationResult struct {
	Classification string   `json:"classification"`
	Keywords       []string `json:"keywords"`
	Reason         string   `json:"reason"`
}

// ClassificationRecord is a persisted ClassificationResult for a named source file.
type ClassificationRecord struct {
	Id           uuid.UUID            `json:"id"`
	File         string               `json:"file"`
	Mode         ClassificationMode   `json:"mode"`
	Result       ClassificationResult `json:"result"`
	Summarized   bool                 `json:"summarized"`
	ClassifiedAt time.Time            `json:"classified_at"`
}

// Pattern is a recurring theme synthesized across many classification results.
type Pattern struct {
	Name     string   `json:"pattern"`
	Keywords []string `json:"keywords"`
	Evidence string   `json:"evidence"`
}

// ExtractionFailure records an oracle reply that could not be parsed.
type ExtractionFailure struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

// PatternSet holds the patterns mined from one batch of classifications.
// When the oracle reply could not be parsed, Failure is set and both
// pattern lists are empty.
type PatternSet struct {
	ExclusionPatterns []Pattern          `json:"exclusion_patterns"`
	InclusionPatterns []Pattern          `json:"inclusion_patterns"`
	Failure           *ExtractionFailure `json:"failure,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// NewPatternSet returns a PatternSet with empty, non-nil pattern lists.
func NewPatternSet() *PatternSet {
	return &PatternSet{
		ExclusionPatterns: []Pattern{},
		InclusionPatterns: []Pattern{},
		CreatedAt:         time.Now(),
	}
}

// SearchResult represents a ranked document with its relevance score.
type SearchResult struct {
	Document *DocumentRecord
	Score    float64
}
