package refine

import (
	"strings"
	"testing"

	"github.com/poiesic/litscreen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	tests := []struct {
		template Template
		shots    int
	}{
		{ZeroShot, 0},
		{OneShot, 1},
		{FewShot, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.template), func(t *testing.T) {
			prompt, err := BuildPrompt(tt.template, "AI {in} medicine", nil)
			require.NoError(t, err)
			assert.Contains(t, prompt, "Topic: AI {in} medicine")
			assert.Equal(t, tt.shots, strings.Count(prompt, "Example:"))
			assert.Contains(t, prompt, "refined_query")
			assert.NotContains(t, prompt, "{topic}")
		})
	}
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate("few-shot")
	require.NoError(t, err)
	assert.Equal(t, FewShot, tmpl)

	_, err = ParseTemplate("two-shot")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestExamplesFromDocuments(t *testing.T) {
	docs := []*core.DocumentRecord{
		{Title: "a", Level1Consensus: "Include", Level2Consensus: " include "},
		{Title: "b", Level1Consensus: "exclude", Level1Reason: "not a guideline", Level2Reason: "ignored"},
		{Title: "c", Level1Consensus: "include", Level2Consensus: "exclude", Level2Reason: "wrong outcome"},
	}

	examples := ExamplesFromDocuments(docs)
	require.Len(t, examples, 3)
	assert.True(t, examples[0].Include)
	assert.False(t, examples[1].Include)
	assert.Equal(t, "not a guideline", examples[1].Reason)
	assert.Equal(t, "wrong outcome", examples[2].Reason)
}
