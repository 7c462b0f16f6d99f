// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the client for the hosted Reverie model
// gateway.
package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/reverie-tui/internal/debug"
	"github.com/jeranaias/reverie-tui/internal/stream"
)

// MaxEventSize is the maximum allowed size of a single SSE event (64KB).
const MaxEventSize = 64 * 1024

// =============================================================================
// STREAM CHUNK
// =============================================================================

// StreamChunk is one decoded event from the gateway's streaming response.
// Reasoning-capable models interleave reasoning deltas with content deltas
// on the same choice.
type StreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			Reasoning string `json:"reasoning"`
			Role      string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// GetContent returns the answer delta of the first choice.
func (c *StreamChunk) GetContent() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// GetReasoning returns the reasoning delta of the first choice.
func (c *StreamChunk) GetReasoning() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Reasoning
	}
	return ""
}

// IsDone reports whether the stream has finished.
func (c *StreamChunk) IsDone() bool {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason != ""
	}
	return false
}

// DeltaEvent implements stream.EventAdapter, plugging gateway chunks
// directly into the demultiplexer.
func (c *StreamChunk) DeltaEvent() stream.DeltaEvent {
	return stream.DeltaEvent{
		Reasoning: c.GetReasoning(),
		Answer:    c.GetContent(),
		Done:      c.IsDone(),
	}
}

// StreamCallback is called for each received chunk.
type StreamCallback func(chunk StreamChunk)

// StreamError is a transport failure that occurred after some content was
// already received. The partial content is preserved so the caller can keep
// what the user already saw.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream. Records split across
// delivery boundaries are buffered until a full event is available.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates an SSE reader over r.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent reads the next SSE event, returning the event type and data.
// Returns io.EOF when the stream ends. Oversized events are rejected rather
// than buffered without bound.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte
	var size int

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Flush a final unterminated event before EOF.
				if len(dataLines) > 0 {
					return eventType, bytes.Join(dataLines, []byte("\n")), nil
				}
				return "", nil, io.EOF
			}
			return "", nil, err
		}

		size += len(line)
		if size > MaxEventSize {
			return "", nil, fmt.Errorf("SSE event too large: %d bytes", size)
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line terminates the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("event:")) {
			eventType = string(bytes.TrimSpace(line[6:]))
		} else if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// id:, retry: and comment lines are ignored.
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream performs a streaming chat completion, invoking callback for
// each decoded chunk. Returns nil on normal termination, context.Canceled
// when the caller cancelled, and a transport error otherwise. Malformed
// events are skipped; a single bad record never aborts the response.
func (c *Client) ChatStream(ctx context.Context, messages []ChatMessage, callback StreamCallback) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   true,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.setHeaders(req)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	resp, err := sharedStreamingClient.Do(req)
	if err != nil {
		// The transport wraps context cancellation; surface it plainly.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			return c.handleRateLimit(resp)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.handleErrorResponse(resp.StatusCode, body)
	}

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads and decodes the SSE stream until [DONE], EOF, a
// finish_reason, or cancellation. A transport failure after content has
// already been delivered is wrapped in a StreamError so the caller knows the
// partial content the user saw is worth keeping.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)
	var partial strings.Builder

	fail := func(err error) error {
		if partial.Len() == 0 {
			return err
		}
		return &StreamError{Partial: partial.String(), Err: err}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fail(err)
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed records and keep going.
			debug.Logf("gateway: skipping malformed stream record: %v", err)
			continue
		}

		callback(chunk)
		partial.WriteString(chunk.GetReasoning())
		partial.WriteString(chunk.GetContent())

		if chunk.IsDone() {
			return nil
		}
	}
}

// ChatStreamChan performs a streaming chat and delivers chunks on a
// channel. Both channels are closed when the stream ends; a terminal error,
// if any, arrives on the error channel first.
func (c *Client) ChatStreamChan(ctx context.Context, messages []ChatMessage) (<-chan StreamChunk, <-chan error) {
	chunkChan := make(chan StreamChunk, 64)
	errChan := make(chan error, 1)

	go func() {
		defer close(chunkChan)
		defer close(errChan)

		err := c.ChatStream(ctx, messages, func(chunk StreamChunk) {
			select {
			case chunkChan <- chunk:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errChan <- err
		}
	}()

	return chunkChan, errChan
}

// =============================================================================
// RATE LIMIT HANDLING
// =============================================================================

// RateLimitError carries the server's requested backoff.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %v", e.RetryAfter)
	}
	return "rate limited"
}

// Is allows RateLimitError to match ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// handleRateLimit parses Retry-After from a 429 response.
func (c *Client) handleRateLimit(resp *http.Response) error {
	retryAfter := resp.Header.Get("Retry-After")
	if retryAfter == "" {
		return ErrRateLimited
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Duration(seconds) * time.Second}
	}
	if t, err := http.ParseTime(retryAfter); err == nil {
		return &RateLimitError{RetryAfter: time.Until(t)}
	}
	return ErrRateLimited
}
