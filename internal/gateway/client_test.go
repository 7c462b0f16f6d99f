// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the client for the hosted Reverie model
// gateway.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	c := NewClientWithBaseURL("test-key", serverURL)
	// Tests should not sleep on the request budget.
	c.SetRequestsPerMinute(60000)
	return c
}

func TestClientNotConfigured(t *testing.T) {
	c := NewClient("")

	_, err := c.Chat(context.Background(), []ChatMessage{NewUserMessage("hi")})
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = c.ChatStream(context.Background(), nil, func(StreamChunk) {})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"gen-1","model":"reverie-large","choices":[{"message":{"role":"assistant","content":"Hello!"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	resp, err := newTestClient(srv.URL).Chat(context.Background(),
		[]ChatMessage{NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.GetContent())
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"auth failed", http.StatusUnauthorized, `{"error":{"code":"invalid_key","message":"bad key"}}`, ErrAuthFailed},
		{"auth failed unparseable body", http.StatusUnauthorized, "nope", ErrAuthFailed},
		{"insufficient credits", http.StatusPaymentRequired, `{"error":{"message":"empty"}}`, ErrInsufficientCredits},
		{"model not found", http.StatusNotFound, `{"error":{"message":"no such model"}}`, ErrModelNotFound},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Chat(context.Background(),
				[]ChatMessage{NewUserMessage("hi")})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClientServerErrorKeepsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"backend exploded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(),
		[]ChatMessage{NewUserMessage("hi")})
	require.Error(t, err)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
	assert.Contains(t, gwErr.Message, "backend exploded")
}

func TestIsCancellation(t *testing.T) {
	assert.True(t, IsCancellation(context.Canceled))
	assert.False(t, IsCancellation(context.DeadlineExceeded))
	assert.False(t, IsCancellation(ErrAuthFailed))
	assert.False(t, IsCancellation(nil))
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, IsAuthError(ErrAuthFailed))
	assert.False(t, IsAuthError(ErrRateLimited))

	srvErr := &Error{Status: 500, Message: "x"}
	assert.False(t, IsAuthError(srvErr))
}

func TestRateLimitErrorMatchesSentinel(t *testing.T) {
	err := &RateLimitError{RetryAfter: 5 * time.Second}
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "retry after")
}

func TestSetModelIgnoresEmpty(t *testing.T) {
	c := NewClient("k")
	c.SetModel("reverie-mini")
	assert.Equal(t, "reverie-mini", c.Model())
	c.SetModel("")
	assert.Equal(t, "reverie-mini", c.Model())
}
