package classify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/poiesic/litscreen/ai"
	"github.com/poiesic/litscreen/ai/mock"
	"github.com/poiesic/litscreen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const includeReply = `{"classification": "INCLUDE: Research on prostate cancer screening methods",
"keywords": ["PSA", "screening"], "reason": "Evaluates PSA screening uptake."}`

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestClassify_ShortTextIsTruncated(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply)
	c := NewClassifier(oracle)

	text := strings.Repeat("x", 6000) // one long word, under the word limit
	result, err := c.Classify(context.Background(), text, core.ModeInclusion)
	require.NoError(t, err)
	assert.Equal(t, "INCLUDE: Research on prostate cancer screening methods", result.Classification)
	assert.Equal(t, []string{"PSA", "screening"}, result.Keywords)

	calls := oracle.Calls()
	require.Len(t, calls, 1, "no summary call for short documents")
	assert.Same(t, ai.ClassificationSchema, calls[0].Schema)
	assert.Contains(t, calls[0].Prompt, strings.Repeat("x", 5000))
	assert.NotContains(t, calls[0].Prompt, strings.Repeat("x", 5001))
	assert.Contains(t, calls[0].Prompt, "Research on prostate cancer biomarkers")
}

func TestClassify_LongTextIsSummarized(t *testing.T) {
	oracle := mock.NewMockOracle("<think>ok</think>A short summary of the paper.", includeReply)
	c := NewClassifier(oracle)

	record, err := c.ClassifyDocument(context.Background(), "paper.txt", words(2000), core.ModeExclusion)
	require.NoError(t, err)
	assert.True(t, record.Summarized)
	assert.Equal(t, "paper.txt", record.File)
	assert.Equal(t, core.ModeExclusion, record.Mode)
	assert.NotEqual(t, uuid.Nil, record.Id)
	assert.False(t, record.ClassifiedAt.IsZero())

	calls := oracle.Calls()
	require.Len(t, calls, 2)
	assert.Nil(t, calls[0].Schema)
	assert.Contains(t, calls[0].Prompt, "under 1500 words")
	// summary window is 8000 characters: 1600 "word " units
	assert.Contains(t, calls[0].Prompt, words(1600))
	assert.NotContains(t, calls[0].Prompt, words(1601))
	assert.Contains(t, calls[1].Prompt, "A short summary of the paper.")
	assert.Contains(t, calls[1].Prompt, "EXCLUDED")
}

func TestClassify_ExactlyWordLimitIsNotSummarized(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply)
	record, err := NewClassifier(oracle).ClassifyDocument(context.Background(), "f", words(1000), core.ModeInclusion)
	require.NoError(t, err)
	assert.False(t, record.Summarized)
	assert.Equal(t, 1, oracle.CallCount())
}

func TestClassify_FailedSummaryFallsBackToTruncation(t *testing.T) {
	calls := 0
	oracle := mock.NewMockOracle().WithInvokeFunc(func(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error) {
		calls++
		if schema == nil {
			return nil, errors.New("context length exceeded")
		}
		return &ai.Reply{Text: includeReply}, nil
	})

	record, err := NewClassifier(oracle).ClassifyDocument(context.Background(), "f", words(2000), core.ModeInclusion)
	require.NoError(t, err)
	assert.False(t, record.Summarized)
	assert.Equal(t, 2, calls)
	assert.Contains(t, oracle.Prompts()[1], words(1000))
}

func TestClassify_EmptyInput(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply)
	result, err := NewClassifier(oracle).Classify(context.Background(), " \n\t ", core.ModeExclusion)
	require.NoError(t, err)
	assert.Equal(t, EmptyInputClassification, result.Classification)
	assert.Empty(t, result.Keywords)
	assert.NotNil(t, result.Keywords)
	assert.Zero(t, oracle.CallCount())
}

func TestClassify_Fallback(t *testing.T) {
	t.Run("unparseable reply", func(t *testing.T) {
		raw := "This document is about breast cancer so it should be excluded."
		result, err := NewClassifier(mock.NewMockOracle(raw)).Classify(context.Background(), "text", core.ModeExclusion)
		require.NoError(t, err)
		assert.Equal(t, "exclusion", result.Classification)
		assert.Equal(t, []string{}, result.Keywords)
		assert.Equal(t, raw, result.Reason)
	})

	t.Run("object without classification", func(t *testing.T) {
		raw := `{"keywords": ["a"]}`
		result, err := NewClassifier(mock.NewMockOracle(raw)).Classify(context.Background(), "text", core.ModeInclusion)
		require.NoError(t, err)
		assert.Equal(t, "inclusion", result.Classification)
		assert.Equal(t, raw, result.Reason)
	})

	t.Run("oracle error", func(t *testing.T) {
		oracle := mock.NewMockOracle().WithInvokeFunc(func(context.Context, string, *ai.Schema) (*ai.Reply, error) {
			return nil, errors.New("503")
		})
		result, err := NewClassifier(oracle).Classify(context.Background(), "text", core.ModeInclusion)
		require.NoError(t, err)
		assert.Equal(t, "inclusion", result.Classification)
		assert.Contains(t, result.Reason, "503")
	})
}

func TestClassify_NilReply(t *testing.T) {
	nilReply := func(context.Context, string, *ai.Schema) (*ai.Reply, error) { return nil, nil }

	t.Run("classification", func(t *testing.T) {
		oracle := mock.NewMockOracle().WithInvokeFunc(nilReply)
		var result *core.ClassificationResult
		var err error
		require.NotPanics(t, func() {
			result, err = NewClassifier(oracle).Classify(context.Background(), "text", core.ModeExclusion)
		})
		require.NoError(t, err)
		assert.Equal(t, "exclusion", result.Classification)
		assert.Contains(t, result.Reason, ai.ErrEmptyResponse.Error())
	})

	t.Run("summary falls back to truncation", func(t *testing.T) {
		calls := 0
		oracle := mock.NewMockOracle().WithInvokeFunc(func(ctx context.Context, prompt string, schema *ai.Schema) (*ai.Reply, error) {
			calls++
			if schema == nil {
				return nil, nil
			}
			return &ai.Reply{Text: includeReply}, nil
		})
		var record *core.ClassificationRecord
		var err error
		require.NotPanics(t, func() {
			record, err = NewClassifier(oracle).ClassifyDocument(context.Background(), "long.txt", words(2000), core.ModeInclusion)
		})
		require.NoError(t, err)
		assert.False(t, record.Summarized)
		assert.Equal(t, 2, calls)
		assert.Equal(t, "INCLUDE: Research on prostate cancer screening methods", record.Result.Classification)
	})
}

func TestClassify_CustomSubject(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply, includeReply)
	criteria := DefaultCriteria()
	criteria.Subject = "online learning"
	c := NewClassifier(oracle, WithCriteria(criteria))

	_, err := c.Classify(context.Background(), "text", core.ModeExclusion)
	require.NoError(t, err)
	_, err = c.Classify(context.Background(), "text", core.ModeInclusion)
	require.NoError(t, err)

	for _, prompt := range oracle.Prompts() {
		assert.Contains(t, prompt, "medical documents about online learning.")
		assert.NotContains(t, prompt, "documents about prostate cancer")
	}
}

func TestClassify_BlankSubjectUsesDefault(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply)
	_, err := NewClassifier(oracle, WithCriteria(Criteria{Exclusion: []string{"x"}})).
		Classify(context.Background(), "text", core.ModeExclusion)
	require.NoError(t, err)
	assert.Contains(t, oracle.Prompts()[0], "medical documents about prostate cancer.")
}

func TestClassify_ParsesWrappedReplies(t *testing.T) {
	reply := "<think>Let me check the criteria.</think>\n```json\n" + includeReply + "\n```"
	result, err := NewClassifier(mock.NewMockOracle(reply)).Classify(context.Background(), "text", core.ModeInclusion)
	require.NoError(t, err)
	assert.Equal(t, []string{"PSA", "screening"}, result.Keywords)
}

func TestClassify_StructuredReply(t *testing.T) {
	oracle := mock.NewMockOracle(`{"classification": "EXCLUDE", "keywords": null, "reason": "r"}`)
	oracle.Structured = true
	result, err := NewClassifier(oracle).Classify(context.Background(), "text", core.ModeInclusion)
	require.NoError(t, err)
	assert.Equal(t, "EXCLUDE", result.Classification)
	assert.Equal(t, []string{}, result.Keywords)
}

func TestClassify_InvalidMode(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply)
	_, err := NewClassifier(oracle).Classify(context.Background(), "text", core.ClassificationMode("maybe"))
	assert.ErrorIs(t, err, core.ErrInvalidMode)
	assert.Zero(t, oracle.CallCount())
}

func TestClassify_CustomCriteria(t *testing.T) {
	oracle := mock.NewMockOracle(includeReply)
	c := NewClassifier(oracle, WithCriteria(Criteria{
		Exclusion: []string{"Not about online learning"},
		Inclusion: []string{"Student engagement outcomes"},
	}))

	_, err := c.Classify(context.Background(), "text", core.ModeExclusion)
	require.NoError(t, err)
	prompt := oracle.Prompts()[0]
	assert.Contains(t, prompt, "Not about online learning")
	assert.NotContains(t, prompt, "Student engagement outcomes")
	assert.NotContains(t, prompt, DefaultExclusionCriteria[0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "héllo", truncate("héllo", 10))
	assert.Equal(t, "", truncate("", 3))

	s := truncate(strings.Repeat("é", 10), 3)
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, 3, utf8.RuneCountInString(s))
}
