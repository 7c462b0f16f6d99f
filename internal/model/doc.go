// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and
// messages.
//
// A Message owns the accumulated text of one assistant response. During
// streaming the accumulation buffer is appended to by the stream bridge and
// read (never mutated) by the parser on each render pass; at most one
// stream writes to a message at a time.
package model
