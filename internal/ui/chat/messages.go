// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view component for the TUI.
//
// This file defines all Bubble Tea message types used by the chat interface.
// The streaming messages form the contract with the stream bridge in main:
// StreamRequestMsg goes out, StreamStartMsg / StreamTokenMsg /
// StreamCompleteMsg come back via Program.Send.
package chat

import (
	"time"

	"github.com/jeranaias/reverie-tui/internal/config"
	"github.com/jeranaias/reverie-tui/internal/gateway"
	"github.com/jeranaias/reverie-tui/internal/model"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamRequestMsg asks the app model to start a generation against the
// gateway for the given conversation history.
type StreamRequestMsg struct {
	MessageID string
	Messages  []gateway.ChatMessage
}

// StreamStartMsg signals that streaming has begun.
type StreamStartMsg struct {
	MessageID string
	StartTime time.Time
}

// StreamTokenMsg delivers new text from the stream. Token carries the exact
// bytes of the unified logical stream, reasoning delimiters included.
type StreamTokenMsg struct {
	MessageID string
	Token     string
	IsFirst   bool
}

// StreamCompleteMsg signals that streaming has finished, normally or not.
// Cancelled marks a user stop; Err is set for transport failures. Both may
// follow partial content, which is always kept.
type StreamCompleteMsg struct {
	MessageID string
	Stats     *model.Statistics
	Cancelled bool
	Err       error
}

// StreamTickMsg drives the frame-rate-capped flush of buffered tokens.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONFIGURATION MESSAGES
// =============================================================================

// ConfigReloadedMsg delivers a hot-reloaded configuration.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// ERROR MESSAGES
// =============================================================================

// DismissErrorMsg clears the current error display.
type DismissErrorMsg struct{}
