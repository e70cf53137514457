package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/litscreen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"unterminated varint", []byte{0x80, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalID(tt.data)
			assert.ErrorIs(t, err, ErrTruncatedData)
		})
	}
}

func TestMarshalUnmarshalDocument(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	doc := &core.DocumentRecord{
		Id:                  core.IDFromContent("doc"),
		Title:               "Prostate Cancer Screening Guidelines 2020",
		Theme:               "Screening",
		Source:              "PubMed",
		PaperType:           "Guideline",
		CountryOrganisation: "USPSTF",
		Abstract:            "Recommendations for PSA-based screening.",
		Embedding:           []float32{0.1, 0.2, 0.3},
		EmbeddingStatus:     core.EmbeddingCompleted,
		InsertedAt:          now,
		UpdatedAt:           now,
	}

	data, err := MarshalDocument(7, doc)
	require.NoError(t, err)

	seq, decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), seq)
	assert.Equal(t, doc, decoded)
}

func TestMarshalUnmarshalDocument_Pending(t *testing.T) {
	doc := &core.DocumentRecord{
		Id:              core.IDFromContent("pending"),
		Title:           "Active surveillance outcomes",
		EmbeddingStatus: core.EmbeddingPending,
	}

	data, err := MarshalDocument(0, doc)
	require.NoError(t, err)

	seq, decoded, err := UnmarshalDocument(data)
	require.NoError(t, err)
	assert.Zero(t, seq)
	assert.Nil(t, decoded.Embedding)
	assert.True(t, decoded.InsertedAt.IsZero())
	assert.Equal(t, doc.Title, decoded.Title)
}

func TestMarshalDocument_InvalidStatus(t *testing.T) {
	_, err := MarshalDocument(1, &core.DocumentRecord{Title: "x", EmbeddingStatus: 9})
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestUnmarshalDocument_Invalid(t *testing.T) {
	_, _, err := UnmarshalDocument([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	// A valid sequence followed by a truncated record.
	_, _, err = UnmarshalDocument([]byte{0x01, 0x2a})
	assert.ErrorIs(t, err, ErrSerializationFailed)

	// A well-formed record carrying an unknown status.
	bad := core.DocumentRecord{Title: "x", EmbeddingStatus: 9}
	buf := make([]byte, 1+core.DocumentRecordMUS.Size(bad))
	buf[0] = 0x01
	core.DocumentRecordMUS.Marshal(bad, buf[1:])
	_, _, err = UnmarshalDocument(buf)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, core.ErrInvalidStatus)
}

func TestMarshalUnmarshalClassification(t *testing.T) {
	record := &core.ClassificationRecord{
		Id:   uuid.New(),
		File: "paper.txt",
		Mode: core.ModeExclusion,
		Result: core.ClassificationResult{
			Classification: "EXCLUDE",
			Keywords:       []string{"non-English"},
			Reason:         "Full text is in German.",
		},
		ClassifiedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	data, err := MarshalClassification(record)
	require.NoError(t, err)

	decoded, err := UnmarshalClassification(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestMarshalUnmarshalPatternSet(t *testing.T) {
	set := core.NewPatternSet()
	set.CreatedAt = set.CreatedAt.UTC().Truncate(time.Microsecond)
	set.InclusionPatterns = append(set.InclusionPatterns, core.Pattern{
		Name:     "Empirical evaluation",
		Keywords: []string{"evaluation", "cohort"},
		Evidence: "Three papers report cohort outcomes.",
	})

	data, err := MarshalPatternSet(set)
	require.NoError(t, err)

	decoded, err := UnmarshalPatternSet(data)
	require.NoError(t, err)
	assert.Equal(t, set, decoded)
}

func TestMarshalUnmarshalPatternSet_Failure(t *testing.T) {
	set := core.NewPatternSet()
	set.CreatedAt = set.CreatedAt.UTC().Truncate(time.Microsecond)
	set.Failure = &core.ExtractionFailure{
		Error:       "missing pattern lists",
		RawResponse: `{"foo": 1}`,
	}

	data, err := MarshalPatternSet(set)
	require.NoError(t, err)

	decoded, err := UnmarshalPatternSet(data)
	require.NoError(t, err)
	assert.Equal(t, set, decoded)
	assert.NotNil(t, decoded.ExclusionPatterns)
	assert.NotNil(t, decoded.InclusionPatterns)
}

func TestUnmarshalClassification_Truncated(t *testing.T) {
	record := &core.ClassificationRecord{
		Id:     uuid.New(),
		File:   "paper.txt",
		Mode:   core.ModeInclusion,
		Result: core.ClassificationResult{Classification: "INCLUDE", Keywords: []string{}},
	}
	data, err := MarshalClassification(record)
	require.NoError(t, err)

	_, err = UnmarshalClassification(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
