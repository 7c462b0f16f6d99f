// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reverie-tui/internal/debug"
	"github.com/jeranaias/reverie-tui/internal/gateway"
	"github.com/jeranaias/reverie-tui/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamStartMsg:
		m.state = StateStreaming
		m.lastErr = nil
		m.statusBar.Status = components.StatusStreaming
		cmds = append(cmds, m.spinner.Start(), streamTickCmd())
		return m, tea.Batch(cmds...)

	case StreamTokenMsg:
		if msg.MessageID == m.currentID {
			if msg.IsFirst {
				m.spinner.Stop()
			}
			m.buffer.Write(msg.Token)
		}
		return m, nil

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if content, ok := m.buffer.Flush(); ok {
			m.conversation.AppendToLast(content)
			m.refreshViewport()
		}
		return m, streamTickCmd()

	case StreamCompleteMsg:
		return m.handleStreamComplete(msg)

	case ConfigReloadedMsg:
		m.applyConfig(msg.Config)
		m.refreshViewport()
		return m, nil

	case DismissErrorMsg:
		m.lastErr = nil
		if m.state == StateError {
			m.state = StateReady
			m.statusBar.Status = components.StatusReady
		}
		return m, nil
	}

	// Delegate remaining messages to the child components.
	var cmd tea.Cmd
	if c := m.spinner.Update(msg); c != nil {
		cmds = append(cmds, c)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.state == StateStreaming {
			// The bridge observes the context cancellation and sends the
			// terminal StreamCompleteMsg; state settles there.
			m.Cancel()
			return m, nil
		}
		if m.lastErr != nil {
			return m.Update(DismissErrorMsg{})
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()

	case key.Matches(msg, m.keys.ToggleReasoning):
		m.showReasoning = !m.showReasoning
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if m.state != StateStreaming {
			m.conversation.Clear()
			m.lastErr = nil
			m.state = StateReady
			m.statusBar.Status = components.StatusReady
			m.refreshViewport()
		}
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput sends the typed message and kicks off a generation.
func (m Model) submitInput() (Model, tea.Cmd) {
	if m.state == StateStreaming {
		return m, nil
	}

	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	m.input.Reset()
	m.lastErr = nil

	m.conversation.AddUserMessage(content)
	history := m.conversation.ToChatMessages()

	assistant := m.conversation.AddAssistantMessage()
	m.currentID = assistant.ID
	m.buffer.Reset()
	m.refreshViewport()

	req := StreamRequestMsg{
		MessageID: assistant.ID,
		Messages:  history,
	}
	return m, func() tea.Msg { return req }
}

// =============================================================================
// STREAM COMPLETION
// =============================================================================

func (m Model) handleStreamComplete(msg StreamCompleteMsg) (Model, tea.Cmd) {
	if msg.MessageID != m.currentID {
		return m, nil
	}

	if content, ok := m.buffer.ForceFlush(); ok {
		m.conversation.AppendToLast(content)
	}

	if cur := m.currentMessage(); cur != nil {
		cur.Cancelled = msg.Cancelled
		if msg.Err != nil && !msg.Cancelled {
			cur.Err = msg.Err
		}
		debug.Logf("chat: stream %s done (cancelled=%v err=%v): %q",
			msg.MessageID, msg.Cancelled, msg.Err, cur.Preview(80))
	}
	m.conversation.FinalizeLast(msg.Stats)

	m.spinner.Stop()
	m.currentID = ""

	switch {
	case msg.Err != nil && !msg.Cancelled && !gateway.IsCancellation(msg.Err):
		m.lastErr = msg.Err
		m.state = StateError
		m.statusBar.Status = components.StatusError
	default:
		m.state = StateReady
		m.statusBar.Status = components.StatusReady
	}

	m.refreshViewport()
	return m, nil
}
