// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reverie-tui/internal/model"
	"github.com/jeranaias/reverie-tui/internal/parse"
	"github.com/jeranaias/reverie-tui/internal/ui/styles"
	"github.com/jeranaias/reverie-tui/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders a single message. Assistant content goes through the
// parser first: the raw stream text (reasoning delimiters included) is never
// shown directly.
type MessageBubble struct {
	Message         *model.Message
	Width           int
	ShowTimestamp   bool
	ShowStats       bool
	ShowReasoning   bool
	Streaming       bool
	theme           *styles.Theme
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg *model.Message, theme *styles.Theme) *MessageBubble {
	if msg == nil {
		msg = &model.Message{Role: model.RoleSystem}
	}
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		ShowStats:     true,
		Streaming:     msg.IsStreaming,
		theme:         theme,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUserBubble()
	case model.RoleAssistant:
		return b.renderAssistantBubble()
	default:
		return b.renderSystemBubble()
	}
}

// ==========================================================================
// USER BUBBLE - Blue tones, right-aligned
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.GetDisplayContent()
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-8)

	bubble := b.theme.UserBubble.
		Width(contentWidth).
		UnsetMarginLeft().
		Render(wrapped)

	header := b.renderHeader("you")

	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}
	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	return lipgloss.JoinVertical(lipgloss.Right,
		marginStyle.Render(header),
		marginStyle.Render(bubble))
}

// ==========================================================================
// ASSISTANT BUBBLE - Purple tones, left-aligned, parsed content
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	parsed := parse.Parse(b.Message.GetDisplayContent(), b.Streaming)

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	var sections []string
	sections = append(sections, b.renderHeader("reverie"))

	// Reasoning panel sits above the answer, but only once there is actual
	// reasoning or activity to show. Before the first token the spinner
	// covers the waiting state; a model that never reasons renders like a
	// plain text responder.
	if parsed.HasReasoning() {
		panel := NewReasoningPanel(parsed, b.Streaming, b.theme)
		panel.Expanded = b.ShowReasoning
		panel.SetWidth(b.Width)
		if v := panel.View(); v != "" {
			sections = append(sections, v)
		}
	}

	body := parsed.Body
	if b.Streaming && body != "" {
		body += b.renderStreamingCursor()
	}

	if body != "" {
		rendered := RenderMarkdown(body, maxContentWidth)
		contentWidth := minInt(maxLineWidth(rendered)+4, b.Width-8)
		if contentWidth < 20 {
			contentWidth = 20
		}
		bubble := b.theme.AssistantBubble.
			Width(contentWidth).
			Render(rendered)
		sections = append(sections, bubble)
	}

	// Surface cancellation and failure on the message itself.
	if b.Message.Cancelled {
		sections = append(sections, b.theme.HeaderMeta.Render("(stopped)"))
	} else if b.Message.Err != nil {
		sections = append(sections, b.theme.ErrorTitle.Render("generation failed: ")+
			b.theme.ErrorMessage.Render(b.Message.Err.Error()))
	}

	if b.ShowStats && !b.Streaming {
		if stats := b.Message.FormatStats(); stats != "" {
			sections = append(sections, b.theme.StatsBar.PaddingLeft(2).Render(stats))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// ==========================================================================
// SYSTEM BUBBLE - Amber tones, centered
// ==========================================================================

func (b *MessageBubble) renderSystemBubble() string {
	content := b.Message.GetDisplayContent()
	if content == "" {
		return ""
	}

	maxContentWidth := b.Width - 20
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-16)

	bubble := b.theme.SystemBubble.
		Width(contentWidth).
		Render(wrapped)

	centerStyle := lipgloss.NewStyle().
		Width(b.Width).
		Align(lipgloss.Center)

	return centerStyle.Render(bubble)
}

// ==========================================================================
// HELPER METHODS
// ==========================================================================

// renderHeader renders the role indicator plus optional timestamp.
func (b *MessageBubble) renderHeader(role string) string {
	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)

	header := roleStyle.Render(role)
	if b.ShowTimestamp {
		if ts := b.renderTimestamp(); ts != "" {
			header += " " + ts
		}
	}
	return header
}

// renderTimestamp renders a dimmed timestamp.
func (b *MessageBubble) renderTimestamp() string {
	ts := b.Message.Timestamp
	if ts.IsZero() {
		return ""
	}

	now := time.Now()
	var formatted string
	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		formatted = ts.Format("3:04 PM")
	} else {
		formatted = ts.Format("Jan 2, 3:04 PM")
	}

	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render(formatted)
}

// renderStreamingCursor renders the streaming cursor.
func (b *MessageBubble) renderStreamingCursor() string {
	return lipgloss.NewStyle().
		Foreground(styles.Purple).
		Blink(true).
		Render("_")
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// maxLineWidth returns the display width of the widest line.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		if w := util.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders a conversation's messages in order.
type MessageList struct {
	Messages       []*model.Message
	Width          int
	ShowTimestamps bool
	ShowStats      bool
	ShowReasoning  bool
	theme          *styles.Theme
}

// NewMessageList creates a new MessageList.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:          80,
		ShowTimestamps: true,
		ShowStats:      true,
		theme:          theme,
	}
}

// SetMessages sets the messages to display.
func (ml *MessageList) SetMessages(messages []*model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width.
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// View renders all messages.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0)
		return emptyStyle.Render("No messages yet. Start a conversation!")
	}

	var bubbles []string
	for _, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.SetWidth(ml.Width)
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.ShowStats = ml.ShowStats
		bubble.ShowReasoning = ml.ShowReasoning
		bubbles = append(bubbles, bubble.View())
	}

	return strings.Join(bubbles, "\n")
}
