package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
		{
			name:     "preamble before JSON object",
			input:    "Here is the audit:\n{\"candidate_name\": \"Ada\"}",
			expected: `{"candidate_name": "Ada"}`,
		},
		{
			name:     "trailing chatter",
			input:    "{\"summary\": \"ok\"}\nLet me know if you need more.",
			expected: `{"summary": "ok"}`,
		},
		{
			name:     "not JSON at all",
			input:    "  no structure here  ",
			expected: "no structure here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestBuildSchemaPrompt(t *testing.T) {
	prompt := BuildSchemaPrompt(CandidateReportSchema())

	assert.Contains(t, prompt, `"candidate_name": "string" (required)`)
	assert.Contains(t, prompt, `"relevance_score": integer (required)`)
	assert.Contains(t, prompt, `"key_findings": ["string"] (required)`)
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestFunctionCall_StringArg(t *testing.T) {
	call := FunctionCall{Name: "web_search", Args: map[string]any{"query": "  ada lovelace ", "n": 3}}

	assert.Equal(t, "ada lovelace", call.StringArg("query"))
	assert.Equal(t, "", call.StringArg("n"))
	assert.Equal(t, "", call.StringArg("missing"))
}

func TestMessage_IsEmpty(t *testing.T) {
	assert.True(t, Message{}.IsEmpty())
	assert.True(t, Message{Text: "  "}.IsEmpty())
	assert.False(t, Message{Text: "hi"}.IsEmpty())
	assert.False(t, Message{Responses: []FunctionResponse{{Name: "web_search"}}}.IsEmpty())
}
