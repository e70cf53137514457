package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     string
		strategy string
	}{
		{
			name:     "json fence",
			input:    "Here you go:\n```json\n{\"classification\": \"INCLUDE\"}\n```\nThanks",
			want:     `{"classification": "INCLUDE"}`,
			strategy: "json-fence",
		},
		{
			name:     "untagged fence",
			input:    "```\n{\"a\": 1}\n```",
			want:     `{"a": 1}`,
			strategy: "any-fence",
		},
		{
			name:     "prose around object",
			input:    `The answer is {"refined_query": "x", "key_concepts": ["a"]} as requested.`,
			want:     `{"refined_query": "x", "key_concepts": ["a"]}`,
			strategy: "balanced-braces",
		},
		{
			name:     "braces inside strings",
			input:    `noise {"reason": "uses {curly} braces", "n": 2} tail`,
			want:     `{"reason": "uses {curly} braces", "n": 2}`,
			strategy: "balanced-braces",
		},
		{
			name:     "first span invalid",
			input:    `set {x, y} then {"ok": true}`,
			want:     `{"ok": true}`,
			strategy: "balanced-braces",
		},
		{
			name:     "think block removed",
			input:    "<think>maybe {\"draft\": 1}</think>\n{\"final\": 2}",
			want:     `{"final": 2}`,
			strategy: "balanced-braces",
		},
		{
			name:     "dangling think close",
			input:    "reasoning {\"draft\": 1}</think>{\"final\": 2}",
			want:     `{"final": 2}`,
			strategy: "balanced-braces",
		},
		{
			name:     "fence with non-object falls through",
			input:    "```json\n[1, 2]\n```\n{\"a\": 1}",
			want:     `{"a": 1}`,
			strategy: "balanced-braces",
		},
	}

	e := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Extract(tt.input)
			require.True(t, res.OK(), "failure: %+v", res.Failure)
			assert.JSONEq(t, tt.want, string(res.JSON))
			assert.Equal(t, tt.strategy, res.Strategy)
			assert.False(t, res.Repaired)
		})
	}
}

func TestExtract_Failure(t *testing.T) {
	inputs := []string{
		"",
		"no json here",
		"[1, 2, 3]",
		`{"unterminated": `,
		`"just a string"`,
	}

	e := New()
	for _, input := range inputs {
		res := e.Extract(input)
		assert.False(t, res.OK(), "input %q", input)
		require.NotNil(t, res.Failure)
		assert.Equal(t, input, res.Failure.RawResponse)
		assert.Equal(t, ErrNoJSON.Error(), res.Failure.Error)

		var v map[string]any
		assert.ErrorIs(t, res.Decode(&v), ErrNoJSON)
	}
}

func TestExtract_Repair(t *testing.T) {
	input := "```json\n{classification: \"EXCLUDE\", keywords\": [\"survey\",], \"reason\": \"a, b}\",}\n```"

	res := New().Extract(input)
	assert.False(t, res.OK())

	res = New(WithRepair()).Extract(input)
	require.True(t, res.OK(), "failure: %+v", res.Failure)
	assert.True(t, res.Repaired)

	var got struct {
		Classification string   `json:"classification"`
		Keywords       []string `json:"keywords"`
		Reason         string   `json:"reason"`
	}
	require.NoError(t, res.Decode(&got))
	assert.Equal(t, "EXCLUDE", got.Classification)
	assert.Equal(t, []string{"survey"}, got.Keywords)
	assert.Equal(t, "a, b}", got.Reason)
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{a: 1}`, `{"a": 1}`},
		{`{"a": 1, b": 2}`, `{"a": 1, "b": 2}`},
		{`{"a": [1, 2,]}`, `{"a": [1, 2]}`},
		{`{"a": "x, y:"}`, `{"a": "x, y:"}`},
		{`{"a": true, "b": null}`, `{"a": true, "b": null}`},
		{`{"a": {inner_key: "v"},}`, `{"a": {"inner_key": "v"}}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repairJSON(tt.in), tt.in)
	}
}

func TestStripReasoning(t *testing.T) {
	assert.Equal(t, "answer", StripReasoning("<think>\nlong\nthoughts\n</think>\n answer "))
	assert.Equal(t, "answer", StripReasoning("thoughts</think>answer"))
	assert.Equal(t, "plain", StripReasoning("plain"))
}
