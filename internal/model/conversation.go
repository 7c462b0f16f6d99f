// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/reverie-tui/internal/gateway"
)

// MaxMessages caps the in-memory history. Older turns are pruned in pairs
// so the history never starts with an orphaned assistant reply.
const MaxMessages = 200

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message history of one chat session.
type Conversation struct {
	ID        string     `json:"id"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// =============================================================================
// CONVERSATION METHODS
// =============================================================================

// AddMessage appends a message and prunes history beyond MaxMessages.
func (c *Conversation) AddMessage(m *Message) {
	c.Messages = append(c.Messages, m)
	c.UpdatedAt = time.Now()

	if len(c.Messages) > MaxMessages {
		// Drop the two oldest turns together.
		drop := len(c.Messages) - MaxMessages
		if drop%2 != 0 {
			drop++
		}
		c.Messages = c.Messages[drop:]
	}
}

// AddUserMessage appends a user message and returns it.
func (c *Conversation) AddUserMessage(content string) *Message {
	m := NewUserMessage(content)
	c.AddMessage(m)
	return m
}

// AddAssistantMessage appends a new streaming assistant message and
// returns it.
func (c *Conversation) AddAssistantMessage() *Message {
	m := NewAssistantMessage()
	c.AddMessage(m)
	return m
}

// Last returns the most recent message, or nil if empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// AppendToLast appends streamed text to the last message if it is an
// assistant message still streaming.
func (c *Conversation) AppendToLast(text string) {
	last := c.Last()
	if last != nil && last.Role == RoleAssistant && last.IsStreaming {
		last.AppendText(text)
		c.UpdatedAt = time.Now()
	}
}

// FinalizeLast completes the streaming state of the last message.
func (c *Conversation) FinalizeLast(stats *Statistics) {
	last := c.Last()
	if last != nil && last.IsStreaming {
		last.FinalizeStream(stats)
		c.UpdatedAt = time.Now()
	}
}

// Clear removes all messages.
func (c *Conversation) Clear() {
	c.Messages = nil
	c.UpdatedAt = time.Now()
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// ToChatMessages converts the history into the gateway's request format.
// Streaming, empty, and system display messages are skipped.
func (c *Conversation) ToChatMessages() []gateway.ChatMessage {
	out := make([]gateway.ChatMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.IsStreaming || m.IsEmpty() || m.Role == RoleSystem {
			continue
		}
		out = append(out, gateway.ChatMessage{
			Role:    m.Role.String(),
			Content: m.Content,
		})
	}
	return out
}
