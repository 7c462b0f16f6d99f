// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the client for the hosted Reverie model
// gateway.
package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CONFIGURATION CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the base URL of the hosted gateway.
	DefaultBaseURL = "https://gateway.reverie.chat/v1"

	// DefaultModel is used when the caller does not pick one.
	DefaultModel = "reverie-large"

	// DefaultTimeout bounds non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerMinute is the client-side request budget. The
	// gateway enforces its own limits; staying under them avoids burning a
	// generation attempt on a 429.
	DefaultRequestsPerMinute = 30

	// MaxResponseSize caps non-streaming response bodies.
	MaxResponseSize = 10 * 1024 * 1024
)

var (
	// sharedHTTPClient serves non-streaming requests with connection
	// pooling. TLS 1.2 minimum.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient has no client timeout; streaming lifetime is
	// controlled through the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("gateway API key not configured")

	// ErrAuthFailed indicates an invalid or expired API key. The UI prompts
	// for re-entry when it sees this.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInsufficientCredits indicates the account balance is exhausted.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// Error represents an error response from the gateway.
type Error struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("gateway error (HTTP %d): %s", e.Status, e.Message)
}

// IsCancellation reports whether err is caller cancellation rather than a
// transport failure. Cancellation is not an error condition for the UI.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsAuthError reports whether err means the API key was rejected.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// apiErrorResponse is the gateway's error body shape.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatMessage is a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", or "system"
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest is the request body for the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse is a non-streaming completion response.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the hosted gateway. Safe for use from a single goroutine;
// the TUI owns one Client and issues at most one generation at a time.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// NewClient creates a client with the default endpoint and request budget.
func NewClient(apiKey string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		limiter: rate.NewLimiter(rate.Limit(DefaultRequestsPerMinute)/60.0, 1),
	}
}

// NewClientWithBaseURL creates a client against a non-default endpoint
// (staging, self-hosted gateway).
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	if baseURL != "" {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
	return c
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SetAPIKey replaces the API key, e.g. after the user re-enters it.
func (c *Client) SetAPIKey(key string) {
	c.apiKey = key
}

// SetModel changes the model used for subsequent requests.
func (c *Client) SetModel(model string) {
	if model != "" {
		c.model = model
	}
}

// Model returns the currently selected model.
func (c *Client) Model() string {
	return c.model
}

// SetRequestsPerMinute adjusts the client-side rate limit.
func (c *Client) SetRequestsPerMinute(rpm int) {
	if rpm > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rpm)/60.0, 1)
	}
}

// setHeaders applies the common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "reverie-tui")
}

// =============================================================================
// NON-STREAMING CHAT
// =============================================================================

// Chat performs a blocking, non-streaming completion request.
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := ChatRequest{
		Model:    c.model,
		Messages: messages,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

// handleErrorResponse converts HTTP error responses to Go errors, keeping
// the gateway's message when it sent one.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		gwErr := &Error{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}

		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, gwErr.Message)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", ErrInsufficientCredits, gwErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, gwErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, gwErr.Message)
		default:
			return gwErr
		}
	}

	// Unparseable error body.
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusPaymentRequired:
		return ErrInsufficientCredits
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &Error{
			Message: strings.TrimSpace(string(body)),
			Status:  statusCode,
		}
	}
}
