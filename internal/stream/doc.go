// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream flattens a provider token stream into one logical text
// stream.
//
// Gateways deliver reasoning tokens and answer tokens on separate fields of
// each streaming event. The Demux re-emits them as a single sequence in
// which reasoning spans are wrapped in the parse package's <think>...
// </think> delimiters, so the accumulated message is a plain string that
// downstream rendering can reparse uniformly.
//
// The only state carried across events is whether a reasoning span is open.
// Finish closes a dangling span on end-of-stream, cancellation or transport
// abort, so a truncated reasoning span is always well formed for the
// parser.
package stream
