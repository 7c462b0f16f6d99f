// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the client for the hosted Reverie model
// gateway.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkJSON builds one SSE data line with the given deltas.
func chunkJSON(reasoning, content, finish string) string {
	return fmt.Sprintf(
		`data: {"id":"gen-1","model":"reverie-large","choices":[{"delta":{"reasoning":%q,"content":%q},"finish_reason":%q}]}`+"\n\n",
		reasoning, content, finish)
}

func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, body)
	}))
}

// =============================================================================
// SSE READER
// =============================================================================

func TestSSEReaderBasicEvents(t *testing.T) {
	input := "data: one\n\ndata: two\n\n"
	r := NewSSEReader(strings.NewReader(input))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	_, data, err = r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	_, _, err = r.ReadEvent()
	assert.Equal(t, io.EOF, err)
}

func TestSSEReaderCRLFAndComments(t *testing.T) {
	input := ": keepalive\r\nid: 42\r\ndata: payload\r\n\r\n"
	r := NewSSEReader(strings.NewReader(input))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestSSEReaderMultiLineData(t *testing.T) {
	input := "data: first\ndata: second\n\n"
	r := NewSSEReader(strings.NewReader(input))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", string(data))
}

func TestSSEReaderUnterminatedFinalEvent(t *testing.T) {
	// Stream cut off before the blank line: the buffered data is still
	// delivered before EOF.
	r := NewSSEReader(strings.NewReader("data: tail"))

	_, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "tail", string(data))
}

func TestSSEReaderEventType(t *testing.T) {
	r := NewSSEReader(strings.NewReader("event: done\ndata: x\n\n"))

	typ, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "done", typ)
	assert.Equal(t, "x", string(data))
}

// =============================================================================
// CHAT STREAM
// =============================================================================

func TestChatStreamDeltas(t *testing.T) {
	body := chunkJSON("thinking ", "", "") +
		chunkJSON("hard", "", "") +
		chunkJSON("", "Answer ", "") +
		chunkJSON("", "text", "") +
		"data: [DONE]\n\n"
	srv := sseServer(t, body)
	defer srv.Close()

	var reasoning, content strings.Builder
	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")},
		func(c StreamChunk) {
			reasoning.WriteString(c.GetReasoning())
			content.WriteString(c.GetContent())
		})

	require.NoError(t, err)
	assert.Equal(t, "thinking hard", reasoning.String())
	assert.Equal(t, "Answer text", content.String())
}

func TestChatStreamSkipsMalformedRecords(t *testing.T) {
	body := chunkJSON("", "good ", "") +
		"data: {not json at all\n\n" +
		chunkJSON("", "still good", "") +
		"data: [DONE]\n\n"
	srv := sseServer(t, body)
	defer srv.Close()

	var content strings.Builder
	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")},
		func(c StreamChunk) { content.WriteString(c.GetContent()) })

	require.NoError(t, err)
	assert.Equal(t, "good still good", content.String())
}

func TestChatStreamStopsOnFinishReason(t *testing.T) {
	body := chunkJSON("", "done", "stop") +
		chunkJSON("", "never delivered", "")
	srv := sseServer(t, body)
	defer srv.Close()

	var content strings.Builder
	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")},
		func(c StreamChunk) { content.WriteString(c.GetContent()) })

	require.NoError(t, err)
	assert.Equal(t, "done", content.String())
}

func TestChatStreamCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, chunkJSON("", "partial", ""))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	go func() {
		got <- newTestClient(srv.URL).ChatStream(ctx,
			[]ChatMessage{NewUserMessage("q")},
			func(c StreamChunk) {
				if c.GetContent() != "" {
					cancel()
				}
			})
	}()

	select {
	case err := <-got:
		assert.True(t, IsCancellation(err), "want cancellation, got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

func TestChatStreamAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"key expired"}}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")}, func(StreamChunk) {})

	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.False(t, IsCancellation(err))
}

func TestChatStreamRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")}, func(StreamChunk) {})

	require.ErrorIs(t, err, ErrRateLimited)
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
}

func TestChatStreamMidStreamFailureKeepsPartial(t *testing.T) {
	// The server delivers one chunk, then the connection dies before the
	// stream terminates. The error must carry the content already shown.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, chunkJSON("", "partial answer", ""))
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	var seen strings.Builder
	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")},
		func(c StreamChunk) { seen.WriteString(c.GetContent()) })

	require.Error(t, err)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	assert.Equal(t, "partial answer", streamErr.Partial)
	assert.Equal(t, "partial answer", seen.String())
	assert.Error(t, errors.Unwrap(streamErr))
}

func TestChatStreamEarlyFailureIsNotWrapped(t *testing.T) {
	// A failure before any content arrives stays a plain transport error;
	// there is nothing partial worth preserving.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).ChatStream(context.Background(),
		[]ChatMessage{NewUserMessage("q")}, func(StreamChunk) {})

	require.Error(t, err)
	var streamErr *StreamError
	assert.False(t, errors.As(err, &streamErr))
}

func TestChatStreamChan(t *testing.T) {
	body := chunkJSON("", "a", "") + chunkJSON("", "b", "") + "data: [DONE]\n\n"
	srv := sseServer(t, body)
	defer srv.Close()

	chunks, errs := newTestClient(srv.URL).ChatStreamChan(context.Background(),
		[]ChatMessage{NewUserMessage("q")})

	var content strings.Builder
	for c := range chunks {
		content.WriteString(c.GetContent())
	}
	assert.Equal(t, "ab", content.String())
	assert.NoError(t, <-errs)
}

// =============================================================================
// DELTA EVENT ADAPTER
// =============================================================================

func TestStreamChunkDeltaEvent(t *testing.T) {
	var c StreamChunk
	payload := `{"id":"gen-1","choices":[{"delta":{"reasoning":"r","content":"a"},"finish_reason":"stop"}]}`
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	ev := c.DeltaEvent()
	assert.Equal(t, "r", ev.Reasoning)
	assert.Equal(t, "a", ev.Answer)
	assert.True(t, ev.Done)
}

func TestStreamChunkEmpty(t *testing.T) {
	var c StreamChunk
	assert.Empty(t, c.GetContent())
	assert.Empty(t, c.GetReasoning())
	assert.False(t, c.IsDone())
}
