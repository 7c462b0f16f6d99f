// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser.
package parse

import (
	"strings"
	"unicode/utf8"
)

// maxAnchorRunes is the longest author-supplied anchor text we display
// as-is. Longer anchors (usually a pasted URL) are replaced by a cleaned
// form of the link target so they don't dominate the line.
const maxAnchorRunes = 40

// =============================================================================
// LINK DISPLAY CLEANING
// =============================================================================

// CleanLinkText decides what to display for a link in the visible body.
// Anchor text that is itself URL-like, or longer than maxAnchorRunes, is
// replaced with a cleaned form of the target URL; intentional anchor text is
// preserved unchanged. The link target itself is never modified.
func CleanLinkText(text, href string) string {
	if isURLLike(text) || utf8.RuneCountInString(text) > maxAnchorRunes {
		return cleanURL(href)
	}
	return text
}

// RewriteLinkText applies CleanLinkText to the anchor of every markdown
// link in body. Link targets are left untouched.
func RewriteLinkText(body string) string {
	var b strings.Builder
	b.Grow(len(body))

	for i := 0; i < len(body); {
		if body[i] != '[' {
			b.WriteByte(body[i])
			i++
			continue
		}

		mid := strings.Index(body[i:], "](")
		if mid < 0 {
			b.WriteString(body[i:])
			break
		}
		end := strings.IndexByte(body[i+mid+2:], ')')
		if end < 0 {
			b.WriteString(body[i:])
			break
		}

		text := body[i+1 : i+mid]
		href := body[i+mid+2 : i+mid+2+end]

		// Anchors spanning lines or targets with spaces are not links.
		if strings.Contains(text, "\n") || strings.ContainsAny(href, " \n") {
			b.WriteByte(body[i])
			i++
			continue
		}

		b.WriteByte('[')
		b.WriteString(CleanLinkText(text, href))
		b.WriteString("](")
		b.WriteString(href)
		b.WriteByte(')')
		i += mid + 2 + end + 1
	}

	return b.String()
}

func isURLLike(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// cleanURL strips protocol, leading "www." and a trailing slash for display.
func cleanURL(href string) string {
	s := strings.TrimPrefix(href, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return href
	}
	return s
}
