// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser.
package parse

import (
	"net/url"
	"strings"
)

// minBareURLLen filters out URL fragments that are too short to be a real
// destination (a bare scheme, a truncated host mid-stream).
const minBareURLLen = 12

// =============================================================================
// ACTIVITY EXTRACTION
// =============================================================================

// extractActivities scans the reasoning buffer (never the visible body) for
// structured "query" and "url" markers as they appear inside serialized
// tool-call arguments. Matching is textual because the surrounding JSON may
// be incomplete mid-stream.
//
// When no structured url marker is present, a fallback scan records bare
// URL-looking tokens instead. The two URL strategies are mutually exclusive
// and structured takes precedence. Structured query markers alone do NOT
// suppress the fallback; that asymmetry is intentional and covered by tests.
func extractActivities(reasoning string) []Activity {
	if reasoning == "" {
		return nil
	}

	var activities []Activity
	seen := make(map[string]bool)
	structuredURL := false

	for i := 0; i < len(reasoning); {
		kind, value, n, ok := matchMarker(reasoning[i:])
		if !ok {
			i++
			continue
		}
		i += n

		if kind == ActivityURL {
			structuredURL = true
		}
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		activities = append(activities, Activity{Kind: kind, Value: value})
	}

	if !structuredURL {
		for _, u := range bareURLs(reasoning) {
			if seen[u] {
				continue
			}
			seen[u] = true
			activities = append(activities, Activity{Kind: ActivityURL, Value: u})
		}
	}

	return activities
}

// markerKeys maps the literal key text to the activity kind it produces.
var markerKeys = []struct {
	key  string
	kind ActivityKind
}{
	{`"query"`, ActivityQuery},
	{`"url"`, ActivityURL},
}

// matchMarker tries to match a structured `"key": "value"` pair at the start
// of s. It returns the kind, the decoded value and the number of bytes
// consumed. A key whose value is missing or still unterminated (the stream
// may cut off anywhere) does not match.
func matchMarker(s string) (ActivityKind, string, int, bool) {
	for _, mk := range markerKeys {
		if !strings.HasPrefix(s, mk.key) {
			continue
		}

		i := len(mk.key)
		i = skipSpaces(s, i)
		if i >= len(s) || s[i] != ':' {
			continue
		}
		i = skipSpaces(s, i+1)
		if i >= len(s) || s[i] != '"' {
			continue
		}
		i++

		value, end, ok := readQuoted(s, i)
		if !ok {
			continue
		}
		return mk.kind, value, end, true
	}
	return "", "", 0, false
}

// readQuoted reads a double-quoted string body starting at i (just past the
// opening quote). Returns the unescaped value and the index just past the
// closing quote. Fails when the closing quote is missing (truncated stream).
func readQuoted(s string, i int) (string, int, bool) {
	var b strings.Builder
	for ; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), i + 1, true
		case '\n':
			// A raw newline inside the value means this is not a marker.
			return "", 0, false
		default:
			b.WriteByte(s[i])
		}
	}
	return "", 0, false
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// =============================================================================
// BARE URL FALLBACK
// =============================================================================

// bareURLs returns URL-looking tokens from the reasoning text, in order.
// Loopback addresses and very short fragments are skipped. De-duplication is
// the caller's job.
func bareURLs(s string) []string {
	var urls []string
	for _, field := range strings.Fields(s) {
		u := trimURLPunct(field)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		if len(u) < minBareURLLen {
			continue
		}
		if isLoopback(u) {
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

// trimURLPunct strips the punctuation that typically surrounds a URL pasted
// into prose.
func trimURLPunct(s string) string {
	s = strings.TrimLeft(s, `("'<[`)
	s = strings.TrimRight(s, `)"'>].,;:!?`)
	return s
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
