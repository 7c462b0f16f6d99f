// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/reverie-tui/internal/ui/components"
)

// Layout constants: input area (3 lines + border), status bar, header.
const (
	headerHeight = 1
	inputHeight  = 4
	statusHeight = 1
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting reverie..."
	}

	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
	}

	if m.spinner.IsActive() {
		sections = append(sections, m.spinner.View())
	}

	if m.lastErr != nil {
		box := components.NewErrorBox(m.lastErr, m.theme)
		box.SetWidth(m.width)
		sections = append(sections, box.View())
	}

	sections = append(sections,
		m.theme.InputContainer.Width(m.width-2).Render(m.input.View()),
		m.statusBar.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the one-line application header.
func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("reverie")
	meta := m.theme.HeaderMeta.Render(m.modelName)
	return m.theme.Header.Width(m.width).Render(title + "  " + meta)
}

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes component dimensions for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	viewportHeight := height - headerHeight - inputHeight - statusHeight - 1
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = viewportHeight
	}

	m.input.SetWidth(width - 4)
	m.statusBar.SetWidth(width)
}

// refreshViewport re-renders the conversation into the viewport and keeps
// the latest content visible.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	wasAtBottom := m.viewport.AtBottom()

	ml := components.NewMessageList(m.theme)
	ml.SetWidth(m.viewport.Width)
	ml.SetMessages(m.conversation.Messages)
	ml.ShowTimestamps = m.showTimestamps
	ml.ShowStats = m.showStats
	ml.ShowReasoning = m.showReasoning
	m.viewport.SetContent(ml.View())

	// Follow the stream unless the user scrolled away.
	if wasAtBottom || m.state == StateStreaming {
		m.viewport.GotoBottom()
	}
}
