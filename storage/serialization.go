package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/litscreen/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrTruncatedData, err)
	}
	return id, nil
}

// MarshalDocument serializes a document prefixed by its insertion sequence,
// so index keys can be rebuilt when the status changes.
func MarshalDocument(seq uint64, doc *core.DocumentRecord) ([]byte, error) {
	if err := core.ValidateStatus(doc.EmbeddingStatus); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	buf := make([]byte, varint.Uint64.Size(seq)+core.DocumentRecordMUS.Size(*doc))
	n := varint.Uint64.Marshal(seq, buf)
	core.DocumentRecordMUS.Marshal(*doc, buf[n:])
	return buf, nil
}

// UnmarshalDocument deserializes a value written by MarshalDocument.
func UnmarshalDocument(data []byte) (uint64, *core.DocumentRecord, error) {
	seq, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: sequence: %w", ErrSerializationFailed, err)
	}
	doc, _, err := core.DocumentRecordMUS.Unmarshal(data[n:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, err)
	}
	if err := core.ValidateStatus(doc.EmbeddingStatus); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return seq, &doc, nil
}

func MarshalClassification(record *core.ClassificationRecord) ([]byte, error) {
	buf := make([]byte, core.ClassificationRecordMUS.Size(*record))
	core.ClassificationRecordMUS.Marshal(*record, buf)
	return buf, nil
}

func UnmarshalClassification(data []byte) (*core.ClassificationRecord, error) {
	record, _, err := core.ClassificationRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &record, nil
}

func MarshalPatternSet(set *core.PatternSet) ([]byte, error) {
	buf := make([]byte, core.PatternSetMUS.Size(*set))
	core.PatternSetMUS.Marshal(*set, buf)
	return buf, nil
}

func UnmarshalPatternSet(data []byte) (*core.PatternSet, error) {
	set, _, err := core.PatternSetMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &set, nil
}
