// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reverie-tui/internal/ui/styles"
	"github.com/jeranaias/reverie-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortcut is one key hint in the status bar.
type shortcut struct {
	key  string
	desc string
}

// StatusBar renders the bottom status bar: state, model name, and key hints.
type StatusBar struct {
	Status    Status
	ModelName string
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth sets the bar width.
func (sb *StatusBar) SetWidth(width int) {
	sb.Width = width
}

// View renders the status bar.
func (sb *StatusBar) View() string {
	left := sb.Status.String()
	if sb.ModelName != "" {
		left += "  " + sb.ModelName
	}

	shortcuts := []shortcut{
		{"enter", "send"},
		{"ctrl+r", "reasoning"},
		{"ctrl+l", "clear"},
		{"ctrl+c", "quit"},
	}
	if sb.Status == StatusStreaming {
		shortcuts = append([]shortcut{{"esc", "stop"}}, shortcuts...)
	}

	var hints []string
	for _, sc := range shortcuts {
		hints = append(hints,
			sb.theme.ShortcutKey.Render(sc.key)+" "+sb.theme.ShortcutDesc.Render(sc.desc))
	}
	right := strings.Join(hints, "  ")

	// Pad the left segment so the hints sit flush right, with at least one
	// column between the two.
	leftWidth := sb.Width - lipgloss.Width(right) - 2
	if leftWidth < util.StringWidth(left)+1 {
		leftWidth = util.StringWidth(left) + 1
	}

	return sb.theme.StatusBar.
		Width(sb.Width).
		Render(util.PadRight(left, leftWidth) + right)
}
