// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser.
package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// PLAIN TEXT (NO MARKERS)
// =============================================================================

func TestParsePlainText(t *testing.T) {
	p := Parse("Just a plain answer with no reasoning.", false)

	assert.Empty(t, p.Reasoning)
	assert.Empty(t, p.Activities)
	assert.Equal(t, "Just a plain answer with no reasoning.", p.Body)
	assert.False(t, p.HasReasoning())
}

func TestParseEmptyInputLive(t *testing.T) {
	p := Parse("", true)

	assert.Empty(t, p.Reasoning)
	assert.Empty(t, p.Activities)
	assert.Empty(t, p.Body)
	// The caller renders an "awaiting first token" state, not the panel.
	assert.False(t, p.HasReasoning())
	assert.Equal(t, StatusThinking, p.StatusLabel)
}

// =============================================================================
// CITATION UNWRAPPING
// =============================================================================

func TestUnwrapCitations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare url in parens",
			in:   "Here (https://example.com/page) is a link.",
			want: "Here  https://example.com/page  is a link.",
		},
		{
			name: "markdown link in parens",
			in:   "See ([docs](https://example.com/docs)) for more.",
			want: "See  [docs](https://example.com/docs)  for more.",
		},
		{
			name: "markdown link target is preserved",
			in:   "See [docs](https://example.com/docs) for more.",
			want: "See [docs](https://example.com/docs) for more.",
		},
		{
			name: "ordinary parenthetical untouched",
			in:   "This (an aside) stays.",
			want: "This (an aside) stays.",
		},
		{
			name: "unclosed paren untouched",
			in:   "dangling (https://example.com/page",
			want: "dangling (https://example.com/page",
		},
		{
			name: "url with trailing words not unwrapped",
			in:   "mixed (https://example.com and more) text",
			want: "mixed (https://example.com and more) text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapCitations(tt.in))
		})
	}
}

// =============================================================================
// REASONING SPANS
// =============================================================================

func TestParseBalancedReasoningSpan(t *testing.T) {
	p := Parse("<think>check the docs first</think>The answer is 42.", false)

	assert.Equal(t, "check the docs first", p.Reasoning)
	assert.Equal(t, "The answer is 42.", p.Body)
	assert.NotContains(t, p.Body, "check the docs")
	assert.True(t, p.HasReasoning())
}

func TestParseMultipleReasoningSpans(t *testing.T) {
	p := Parse("<think>first</think>part one <think>second</think>part two", false)

	assert.Equal(t, "first\n\nsecond", p.Reasoning)
	assert.Equal(t, "part one part two", p.Body)
}

func TestParseUnterminatedReasoningSpan(t *testing.T) {
	// The normal shape of a live, still-thinking stream. Must not fail.
	p := Parse("<think>still working through the problem", true)

	assert.Equal(t, "still working through the problem", p.Reasoning)
	assert.Empty(t, p.Body)
	assert.Equal(t, StatusThinking, p.StatusLabel)
}

// =============================================================================
// LEAKED TOOL CALLS
// =============================================================================

func TestParseLeakedToolCall(t *testing.T) {
	in := "Before.\n<|tool_call|> {\"name\": \"search\"}\n\nAfter."
	p := Parse(in, false)

	assert.Equal(t, "<|tool_call|> {\"name\": \"search\"}", p.Reasoning)
	assert.Equal(t, "Before.\nAfter.", p.Body)
	assert.NotContains(t, p.Body, ToolCallMarker)
}

func TestParseLeakedToolCallAtEndOfText(t *testing.T) {
	// No terminating blank line: capture runs to end of text.
	p := Parse("Answer text.\n<|tool_call|> {\"partial\": tru", true)

	assert.Contains(t, p.Reasoning, ToolCallMarker)
	assert.Equal(t, "Answer text.", p.Body)
}

func TestParseLeakAppendsAfterReasoning(t *testing.T) {
	in := "<think>plan</think>body <|tool_call|> leak\n\nrest"
	p := Parse(in, false)

	assert.Equal(t, "plan\n\n<|tool_call|> leak", p.Reasoning)
	assert.Equal(t, "body rest", p.Body)
}

// =============================================================================
// IDEMPOTENCE
// =============================================================================

func TestParseIdempotentOnCleanBody(t *testing.T) {
	inputs := []string{
		"Here (https://example.com/page) is a link.",
		"<think>hidden</think>Visible with [docs](https://example.com/d).",
		"plain text, (an aside), nothing special",
	}

	for _, in := range inputs {
		once := Parse(in, false).Body
		twice := Parse(once, false).Body
		assert.Equal(t, once, twice, "input %q", in)
	}
}

// =============================================================================
// MONOTONIC GROWTH OVER A LIVE STREAM
// =============================================================================

func TestParsePrefixMonotonicityQueries(t *testing.T) {
	// Query markers only match once their closing quote has arrived, so a
	// byte-by-byte replay must only ever grow the activity list.
	full := `<think>searching "query": "capital of France" then ` +
		`"query": "population of Paris" done</think>Paris.`

	var prev []Activity
	for i := 0; i <= len(full); i++ {
		p := Parse(full[:i], true)
		require.GreaterOrEqual(t, len(p.Activities), len(prev),
			"activity list shrank at prefix length %d", i)
		for j := range prev {
			require.Equal(t, prev[j], p.Activities[j],
				"activity %d changed at prefix length %d", j, i)
		}
		prev = p.Activities
	}
}

func TestParseChunkReplayMatchesFullParse(t *testing.T) {
	// Reassembling the stream chunk by chunk ends at the same render model
	// as parsing the complete text once.
	chunks := []string{
		"<think>looking this up ",
		`"query": "capital of France"`,
		" now reading ",
		`"url": "https://en.wikipedia.org/Paris"`,
		" done</think>",
		"Paris.",
	}

	var acc string
	var last Parsed
	for _, c := range chunks {
		acc += c
		last = Parse(acc, true)
	}

	assert.Equal(t, Parse(acc, true), last)
	require.Len(t, last.Activities, 2)
	assert.Equal(t, Activity{Kind: ActivityQuery, Value: "capital of France"}, last.Activities[0])
	assert.Equal(t, Activity{Kind: ActivityURL, Value: "https://en.wikipedia.org/Paris"}, last.Activities[1])
}
