// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reverie-tui/internal/parse"
	"github.com/jeranaias/reverie-tui/internal/ui/styles"
	"github.com/jeranaias/reverie-tui/internal/util"
)

// maxActivityWidth bounds a single activity line in the panel.
const maxActivityWidth = 60

// =============================================================================
// REASONING PANEL COMPONENT
// =============================================================================

// ReasoningPanel renders the reasoning section of an assistant message: a
// status line, the activity trail, and (when expanded) the dimmed reasoning
// text itself.
type ReasoningPanel struct {
	Parsed   parse.Parsed
	Live     bool
	Expanded bool
	Width    int
	theme    *styles.Theme
}

// NewReasoningPanel creates a panel for one parsed message.
func NewReasoningPanel(p parse.Parsed, live bool, theme *styles.Theme) *ReasoningPanel {
	return &ReasoningPanel{
		Parsed: p,
		Live:   live,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth sets the panel width.
func (r *ReasoningPanel) SetWidth(width int) {
	r.Width = width
}

// View renders the panel. Returns "" when the message has no reasoning and
// no activities, live or not; the panel never shows as an empty frame.
func (r *ReasoningPanel) View() string {
	if !r.Parsed.HasReasoning() {
		return ""
	}

	var lines []string
	lines = append(lines, r.theme.ReasoningStatus.Render(r.Parsed.StatusLabel))

	for _, act := range r.Parsed.Activities {
		lines = append(lines, r.theme.ReasoningActivity.Render(r.renderActivity(act)))
	}

	if r.Expanded && r.Parsed.Reasoning != "" {
		wrapWidth := r.Width - 8
		if wrapWidth < 20 {
			wrapWidth = 20
		}
		text := wordWrap(r.Parsed.Reasoning, wrapWidth)
		lines = append(lines, r.theme.ReasoningText.Render(text))
	}

	return r.theme.ReasoningPanel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderActivity formats one activity line.
func (r *ReasoningPanel) renderActivity(act parse.Activity) string {
	switch act.Kind {
	case parse.ActivityQuery:
		return "search: " + util.TruncateWidth(act.Value, maxActivityWidth)
	case parse.ActivityURL:
		host := parse.Host(act.Value)
		if host == "" {
			host = act.Value
		}
		return "read: " + util.TruncateWidth(host, maxActivityWidth)
	default:
		return util.TruncateWidth(act.Value, maxActivityWidth)
	}
}

// wordWrap wraps text to fit within the specified display width.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for lineIdx, line := range strings.Split(text, "\n") {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if util.StringWidth(currentLine)+1+util.StringWidth(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
	}

	return result.String()
}
