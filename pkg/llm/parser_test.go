package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_WrappedForms(t *testing.T) {
	record := map[string]any{"response_type": "normal", "quality": "good"}
	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	s := string(encoded)

	tests := []struct {
		name string
		text string
	}{
		{"r tag", "<r>" + s + "</r>"},
		{"result tag", "<result>" + s + "</result>"},
		{"fenced json", "```json\n" + s + "\n```"},
		{"fenced plain", "```\n" + s + "\n```"},
		{"embedded in prose", "Here is my analysis: " + s + " hope that helps"},
		{"bare", s},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.text)
			require.NoError(t, err)
			assert.Equal(t, record, got)
		})
	}
}

func TestExtractJSON_IdempotentOnCleanJSON(t *testing.T) {
	clean := `{"a": 1, "b": {"c": [1, 2]}}`

	first, err := ExtractJSON(clean)
	require.NoError(t, err)
	reencoded, err := json.Marshal(first)
	require.NoError(t, err)
	second, err := ExtractJSON(string(reencoded))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractJSON_TagPriorityOverFence(t *testing.T) {
	text := "<r>{\"from\": \"tag\"}</r>\n```json\n{\"from\": \"fence\"}\n```"

	got, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "tag", got["from"])
}

func TestExtractJSON_BalancedScanRespectsStrings(t *testing.T) {
	// the first } is inside a string literal and must not close the object
	text := `noise {"answer": "use } carefully", "n": 1} trailing {broken`

	got, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, "use } carefully", got["answer"])
}

func TestExtractJSON_EscapedQuotes(t *testing.T) {
	text := `prefix {"quote": "he said \"hello\" twice"} suffix`

	got, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, `he said "hello" twice`, got["quote"])
}

func TestExtractJSON_SkipsUnparseableBraceRuns(t *testing.T) {
	text := `{not json at all} but later {"ok": true} appears`

	got, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.Equal(t, true, got["ok"])
}

func TestExtractJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"no object", "just some prose"},
		{"unbalanced", `{"never": "closed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractJSON(tt.text)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, len(tt.text), parseErr.Length)
		})
	}
}

func TestExtractJSON_PreviewTruncated(t *testing.T) {
	long := "x"
	for len(long) < 400 {
		long += "x"
	}

	_, err := ExtractJSON(long)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Len(t, parseErr.Preview, 300)
	assert.Equal(t, len(long), parseErr.Length)
}

func TestExtractReasoning(t *testing.T) {
	text := "<reasoning>\nThe candidate dodged the question.\n</reasoning>\n<r>{}</r>"

	reasoning, ok := ExtractReasoning(text)
	require.True(t, ok)
	assert.Equal(t, "The candidate dodged the question.", reasoning)

	_, ok = ExtractReasoning("no tags here")
	assert.False(t, ok)
}
