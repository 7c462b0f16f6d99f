// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reverie-tui/internal/gateway"
	"github.com/jeranaias/reverie-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BOX COMPONENT
// =============================================================================

// ErrorBox renders a failure with a title and an actionable tip derived from
// the error kind.
type ErrorBox struct {
	Err   error
	Width int
	theme *styles.Theme
}

// NewErrorBox creates a new ErrorBox.
func NewErrorBox(err error, theme *styles.Theme) *ErrorBox {
	return &ErrorBox{
		Err:   err,
		Width: 80,
		theme: theme,
	}
}

// SetWidth sets the box width.
func (e *ErrorBox) SetWidth(width int) {
	e.Width = width
}

// View renders the error box. Returns "" for nil errors.
func (e *ErrorBox) View() string {
	if e.Err == nil {
		return ""
	}

	title, tip := describeError(e.Err)

	maxWidth := e.Width - 8
	if maxWidth < 30 {
		maxWidth = 30
	}

	lines := []string{
		e.theme.ErrorTitle.Render(title),
		e.theme.ErrorMessage.Render(wordWrap(e.Err.Error(), maxWidth)),
	}
	if tip != "" {
		lines = append(lines, "", e.theme.ErrorTip.Render(tip))
	}

	return e.theme.ErrorBox.
		MaxWidth(e.Width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// describeError maps gateway errors to a title and a tip for the user.
func describeError(err error) (title, tip string) {
	switch {
	case gateway.IsAuthError(err):
		return "Authentication failed",
			"Check your API key: set REVERIE_API_KEY or edit ~/.reverie/config.toml"
	case errors.Is(err, gateway.ErrRateLimited):
		tip = "Too many requests. Wait a moment and try again."
		var rlErr *gateway.RateLimitError
		if errors.As(err, &rlErr) && rlErr.RetryAfter > 0 {
			tip = fmt.Sprintf("Too many requests. Retry in %s.", rlErr.RetryAfter)
		}
		return "Rate limited", tip
	case errors.Is(err, gateway.ErrInsufficientCredits):
		return "Insufficient credits",
			"Your account balance is exhausted. Top up to continue."
	case errors.Is(err, gateway.ErrModelNotFound):
		return "Model not found",
			"Check the model name in your config (gateway.model)."
	case errors.Is(err, gateway.ErrNotConfigured):
		return "Not configured",
			"Set your API key: export REVERIE_API_KEY=... and restart."
	default:
		var streamErr *gateway.StreamError
		if errors.As(err, &streamErr) {
			return "Stream interrupted",
				"The connection dropped mid-response. Partial content was kept."
		}
		return "Request failed", "Check your network connection and try again."
	}
}
