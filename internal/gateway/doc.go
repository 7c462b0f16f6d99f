// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway implements the client for the hosted Reverie model
// gateway.
//
// The gateway speaks an OpenAI-compatible REST API with Server-Sent Events
// for streaming. Each streaming event may carry a reasoning delta, an
// answer delta, or the termination sentinel; the client exposes them as
// StreamChunk values that plug into the stream package's demultiplexer.
//
// Transport failures, authentication failures and rate limits are mapped to
// sentinel errors so callers can react without string matching. Caller
// cancellation is reported as context.Canceled and is not an error
// condition for UI purposes; IsCancellation tells the two apart.
package gateway
