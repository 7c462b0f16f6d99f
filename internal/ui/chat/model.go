// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/reverie-tui/internal/config"
	"github.com/jeranaias/reverie-tui/internal/model"
	"github.com/jeranaias/reverie-tui/internal/ui/components"
	"github.com/jeranaias/reverie-tui/internal/ui/styles"
)

// maxInputChars bounds a single user message.
const maxInputChars = 8000

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the chat view's high-level state.
type State int

const (
	StateReady State = iota
	StateStreaming
	StateError
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view. The mutable pieces that
// outlive Update copies (cancel manager, streaming buffer, conversation)
// are held as pointers.
type Model struct {
	state        State
	conversation *model.Conversation
	currentID    string

	input     textarea.Model
	viewport  viewport.Model
	spinner   components.Spinner
	statusBar *components.StatusBar
	theme     *styles.Theme
	keys      KeyMap

	buffer    *StreamingBuffer
	cancelMgr *cancelManager

	showReasoning  bool
	showStats      bool
	showTimestamps bool
	modelName      string

	lastErr error

	width  int
	height int
	ready  bool
}

// New creates the chat model from the loaded configuration.
func New(cfg *config.Config, theme *styles.Theme) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask anything..."
	ta.CharLimit = maxInputChars
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sb := components.NewStatusBar(theme)
	sb.ModelName = cfg.Gateway.Model

	return Model{
		state:          StateReady,
		conversation:   model.NewConversation(),
		input:          ta,
		spinner:        components.NewSpinner(theme),
		statusBar:      sb,
		theme:          theme,
		keys:           DefaultKeyMap(),
		buffer:         NewStreamingBuffer(),
		cancelMgr:      newCancelManager(),
		showReasoning:  cfg.UI.ShowReasoning,
		showStats:      cfg.UI.ShowStats,
		showTimestamps: !cfg.UI.CompactMode,
		modelName:      cfg.Gateway.Model,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// State returns the current chat state.
func (m Model) State() State {
	return m.state
}

// Conversation exposes the conversation, e.g. for the stream bridge to
// build request history.
func (m Model) Conversation() *model.Conversation {
	return m.conversation
}

// SetCancelFunc registers the cancel function for the active stream. The
// manager is shared across Update copies, so the Esc handler always reaches
// the live context.
func (m Model) SetCancelFunc(fn context.CancelFunc) {
	m.cancelMgr.set(fn)
}

// Cancel stops the active stream, if any.
func (m Model) Cancel() {
	m.cancelMgr.cancel()
}

// applyConfig picks up hot-reloaded settings.
func (m *Model) applyConfig(cfg *config.Config) {
	m.showReasoning = cfg.UI.ShowReasoning
	m.showStats = cfg.UI.ShowStats
	m.showTimestamps = !cfg.UI.CompactMode
	m.modelName = cfg.Gateway.Model
	m.statusBar.ModelName = cfg.Gateway.Model
}

// currentMessage returns the message being streamed into, or nil.
func (m *Model) currentMessage() *model.Message {
	if m.currentID == "" {
		return nil
	}
	last := m.conversation.Last()
	if last != nil && last.ID == m.currentID {
		return last
	}
	return nil
}
