// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser.
package parse

import (
	"strings"
)

// =============================================================================
// PROTOCOL MARKERS
// =============================================================================

// Reasoning span delimiters. These are internal protocol between the stream
// demultiplexer and this parser; they are never shown to the user.
const (
	ReasoningOpen  = "<think>"
	ReasoningClose = "</think>"
)

// ToolCallMarker is the out-of-band token some gateway builds leak into the
// visible channel when internal tool-call syntax escapes the reasoning
// filter. Everything from the marker through the next blank line (or end of
// text) is treated as leaked internal syntax.
const ToolCallMarker = "<|tool_call|>"

// =============================================================================
// PARSED MESSAGE
// =============================================================================

// ActivityKind classifies a detected model activity.
type ActivityKind string

const (
	// ActivityQuery is a search query issued during reasoning.
	ActivityQuery ActivityKind = "query"
	// ActivityURL is a URL the model visited during reasoning.
	ActivityURL ActivityKind = "url"
)

// Activity is one detected search or browse action.
type Activity struct {
	Kind  ActivityKind
	Value string
}

// Parsed is the render model derived from one accumulated message.
// It is recomputed from scratch on every call to Parse.
type Parsed struct {
	// Reasoning is the concatenation of all reasoning spans and leaked
	// tool-call fragments, trimmed. Empty when the message contains neither.
	Reasoning string

	// Body is the visible answer text: reasoning spans and leaked tool-call
	// fragments removed, citation parentheses unwrapped, trimmed.
	Body string

	// Activities are the detected actions in insertion order, de-duplicated
	// globally by exact value (first occurrence wins).
	Activities []Activity

	// StatusLabel is a human-facing description of what the model is doing.
	StatusLabel string
}

// HasReasoning reports whether the reasoning/activity UI should be shown at
// all. A model that never reasons renders with zero structural overhead.
func (p Parsed) HasReasoning() bool {
	return p.Reasoning != "" || len(p.Activities) > 0
}

// LastActivity returns the most recently detected activity, or false when
// none were found.
func (p Parsed) LastActivity() (Activity, bool) {
	if len(p.Activities) == 0 {
		return Activity{}, false
	}
	return p.Activities[len(p.Activities)-1], true
}

// =============================================================================
// PARSE PIPELINE
// =============================================================================

// Parse separates accumulated message text into reasoning, activities and
// visible body, and derives a status label. live indicates the stream has
// not terminated yet; it affects only the label, never extraction.
//
// The pipeline order is fixed: citation unwrapping, reasoning-span
// extraction, leaked tool-call capture, activity extraction, status
// derivation. Later steps operate on the output of earlier ones.
func Parse(text string, live bool) Parsed {
	text = UnwrapCitations(text)

	body, reasoning := splitReasoning(text)

	body, leaks := stripLeakedToolCalls(body)
	if len(leaks) > 0 {
		parts := make([]string, 0, len(leaks)+1)
		if reasoning != "" {
			parts = append(parts, reasoning)
		}
		parts = append(parts, leaks...)
		reasoning = strings.Join(parts, "\n\n")
	}

	activities := extractActivities(reasoning)

	return Parsed{
		Reasoning:   reasoning,
		Body:        strings.TrimSpace(body),
		Activities:  activities,
		StatusLabel: statusLabel(activities, live),
	}
}

// =============================================================================
// CITATION UNWRAPPING
// =============================================================================

// UnwrapCitations strips visually redundant parentheses around bare URLs and
// markdown links, replacing each paren with a space so surrounding spacing
// is preserved:
//
//	Here (https://example.com/page) is a link.
//	Here  https://example.com/page  is a link.
//
// Parentheses that are part of a markdown link target ("](url)") are left
// alone, which also makes the pass stable under repetition.
func UnwrapCitations(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '(' {
			b.WriteByte(s[i])
			i++
			continue
		}

		// A paren directly after ']' is a markdown link target, not a citation.
		if i > 0 && s[i-1] == ']' {
			b.WriteByte(s[i])
			i++
			continue
		}

		n, ok := citationLen(s[i+1:])
		if !ok || i+1+n >= len(s) || s[i+1+n] != ')' {
			b.WriteByte(s[i])
			i++
			continue
		}

		b.WriteByte(' ')
		b.WriteString(s[i+1 : i+1+n])
		b.WriteByte(' ')
		i += n + 2
	}

	return b.String()
}

// citationLen reports the length of a bare URL or complete markdown link at
// the start of s, and whether one is present. A bare URL runs until
// whitespace, '(' or ')'.
func citationLen(s string) (int, bool) {
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		n := 0
		for n < len(s) && !isURLStop(s[n]) {
			n++
		}
		return n, n > 0
	}

	if len(s) > 0 && s[0] == '[' {
		mid := strings.Index(s, "](")
		if mid < 0 {
			return 0, false
		}
		end := strings.IndexByte(s[mid+2:], ')')
		if end < 0 {
			return 0, false
		}
		return mid + 2 + end + 1, true
	}

	return 0, false
}

func isURLStop(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')':
		return true
	}
	return false
}

// =============================================================================
// REASONING SPAN EXTRACTION
// =============================================================================

// splitReasoning removes all <think>...</think> spans from s and returns the
// remaining body plus the concatenated span contents (trimmed, separated by
// a blank line, in order of appearance).
//
// An unterminated opening marker captures through end of text. That is the
// expected shape of a live, still-thinking stream and must not fail.
func splitReasoning(s string) (string, string) {
	var body strings.Builder
	var spans []string

	for {
		start := strings.Index(s, ReasoningOpen)
		if start < 0 {
			body.WriteString(s)
			break
		}

		body.WriteString(s[:start])
		rest := s[start+len(ReasoningOpen):]

		end := strings.Index(rest, ReasoningClose)
		if end < 0 {
			if t := strings.TrimSpace(rest); t != "" {
				spans = append(spans, t)
			}
			break
		}

		if t := strings.TrimSpace(rest[:end]); t != "" {
			spans = append(spans, t)
		}
		s = rest[end+len(ReasoningClose):]
	}

	return body.String(), strings.Join(spans, "\n\n")
}

// =============================================================================
// LEAKED TOOL-CALL CAPTURE
// =============================================================================

// stripLeakedToolCalls removes every leaked tool-call span from the body and
// returns the captured fragments verbatim (trimmed). A span runs from the
// marker through the next blank line, or to end of text.
func stripLeakedToolCalls(s string) (string, []string) {
	var body strings.Builder
	var leaks []string

	for {
		start := strings.Index(s, ToolCallMarker)
		if start < 0 {
			body.WriteString(s)
			break
		}

		body.WriteString(s[:start])
		rest := s[start:]

		end := strings.Index(rest, "\n\n")
		if end < 0 {
			if t := strings.TrimSpace(rest); t != "" {
				leaks = append(leaks, t)
			}
			break
		}

		if t := strings.TrimSpace(rest[:end]); t != "" {
			leaks = append(leaks, t)
		}
		s = rest[end+len("\n\n"):]
	}

	return body.String(), leaks
}
