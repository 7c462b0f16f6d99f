// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser for assistant
// messages.
//
// The gateway stream is flattened into a single accumulated string in which
// reasoning spans are wrapped in <think>...</think> delimiters (see the
// stream package). Parse re-derives the full render model from that string
// on every update: hidden reasoning text, detected search/browse activities,
// the visible answer body, and a human-readable status label.
//
// Parse is a pure function. It keeps no state between calls, tolerates
// partial input (an unterminated reasoning span is the normal shape of a
// live stream), and is safe to re-run on every token. Re-parsing a longer
// prefix of the same stream only ever grows the activity list; it never
// reorders or removes entries the UI already showed.
//
// All matching is done with explicit forward scans rather than regular
// expressions so behavior on truncated, still-growing input is well defined.
package parse
