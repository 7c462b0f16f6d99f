// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream flattens a provider token stream into one logical text
// stream.
package stream

import (
	"github.com/jeranaias/reverie-tui/internal/parse"
)

// =============================================================================
// LOGICAL TOKENS
// =============================================================================

// Kind tags a logical token.
type Kind int

const (
	// KindAnswer is visible answer text.
	KindAnswer Kind = iota
	// KindReasoning is hidden reasoning text.
	KindReasoning
	// KindReasoningOpen and KindReasoningClose are the span delimiters
	// injected around reasoning text.
	KindReasoningOpen
	KindReasoningClose
)

// Token is one fragment of the unified logical stream. Text always carries
// the exact bytes to append to the accumulation buffer, markers included,
// so callers can treat the whole sequence as a single string.
type Token struct {
	Kind Kind
	Text string
}

// =============================================================================
// DELTA EVENTS
// =============================================================================

// DeltaEvent is the provider-agnostic view of one streaming event: at most
// a reasoning delta, an answer delta, and a done flag. Events with neither
// delta are legal and produce no tokens.
type DeltaEvent struct {
	Reasoning string
	Answer    string
	Done      bool
}

// EventAdapter converts a provider-specific streaming payload into a
// DeltaEvent. Alternate gateways plug in here without touching the Demux or
// the parser.
type EventAdapter interface {
	DeltaEvent() DeltaEvent
}

// =============================================================================
// DEMULTIPLEXER
// =============================================================================

// Demux re-emits provider events as logical tokens with reasoning spans
// delimited. The zero value is ready to use. Not safe for concurrent use;
// one Demux serves exactly one response stream.
type Demux struct {
	inReasoning bool
}

// Process converts one event into zero or more logical tokens, injecting
// open/close delimiters at reasoning/answer transitions.
func (d *Demux) Process(ev DeltaEvent) []Token {
	var toks []Token

	if ev.Reasoning != "" {
		if !d.inReasoning {
			toks = append(toks, Token{Kind: KindReasoningOpen, Text: parse.ReasoningOpen})
			d.inReasoning = true
		}
		toks = append(toks, Token{Kind: KindReasoning, Text: ev.Reasoning})
	}

	if ev.Answer != "" {
		if d.inReasoning {
			toks = append(toks, Token{Kind: KindReasoningClose, Text: parse.ReasoningClose})
			d.inReasoning = false
		}
		toks = append(toks, Token{Kind: KindAnswer, Text: ev.Answer})
	}

	if ev.Done {
		toks = append(toks, d.Finish()...)
	}

	return toks
}

// ProcessEvent adapts and processes a provider payload.
func (d *Demux) ProcessEvent(a EventAdapter) []Token {
	return d.Process(a.DeltaEvent())
}

// Finish closes an open reasoning span. It must be called on every way a
// stream can end, including cancellation and transport errors, so the
// accumulated text is never left with an unmatched delimiter. Safe to call
// more than once.
func (d *Demux) Finish() []Token {
	if !d.inReasoning {
		return nil
	}
	d.inReasoning = false
	return []Token{{Kind: KindReasoningClose, Text: parse.ReasoningClose}}
}

// Flatten concatenates token texts. Convenience for appending a Process
// result to an accumulation buffer in one call.
func Flatten(toks []Token) string {
	switch len(toks) {
	case 0:
		return ""
	case 1:
		return toks[0].Text
	}
	n := 0
	for _, t := range toks {
		n += len(t.Text)
	}
	buf := make([]byte, 0, n)
	for _, t := range toks {
		buf = append(buf, t.Text...)
	}
	return string(buf)
}
