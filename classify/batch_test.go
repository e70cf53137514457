package classify

import (
	"context"
	"testing"

	"github.com/poiesic/litscreen/ai/mock"
	"github.com/poiesic/litscreen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAll(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply, "garbage")
	c := NewClassifier(oracle)

	inputs := []Input{
		{File: "a.txt", Text: "about PSA screening"},
		{File: "b.txt", Text: ""},
		{File: "c.txt", Text: "something else"},
	}

	var seen []string
	records, err := c.ClassifyAll(context.Background(), inputs, core.ModeInclusion, func(done, total int, record *core.ClassificationRecord) {
		assert.Equal(t, 3, total)
		assert.Equal(t, len(seen)+1, done)
		seen = append(seen, record.File)
	})
	require.NoError(t, err)

	require.Len(t, records, 3, "one record per input, pass or fail")
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, seen)
	assert.Equal(t, "INCLUDE: Research on prostate cancer screening methods", records[0].Result.Classification)
	assert.Equal(t, EmptyInputClassification, records[1].Result.Classification)
	assert.Equal(t, "inclusion", records[2].Result.Classification)
	assert.Equal(t, "garbage", records[2].Result.Reason)
	assert.Equal(t, 2, oracle.CallCount())
}

func TestClassifyAll_Cancelled(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply, includeReply)
	c := NewClassifier(oracle)

	ctx, cancel := context.WithCancel(context.Background())
	records, err := c.ClassifyAll(ctx, []Input{{File: "a", Text: "x"}, {File: "b", Text: "y"}}, core.ModeExclusion,
		func(done, total int, record *core.ClassificationRecord) { cancel() })

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, records, 1)
}

func TestClassifyAll_InvalidMode(t *testing.T) {
	_, err := NewClassifier(mock.NewMockOracle()).ClassifyAll(context.Background(), nil, "both", nil)
	assert.ErrorIs(t, err, core.ErrInvalidMode)
}
