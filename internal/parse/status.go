// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser.
package parse

import (
	"fmt"
	"net/url"
	"strings"
)

// Status labels for streams with no detected activity.
const (
	// StatusThinking is shown while a live stream has produced no activity.
	StatusThinking = "Thinking..."
	// StatusDone is shown once the stream has terminated.
	StatusDone = "Finished thinking"
)

// statusLabel derives the human-facing activity description. Completed
// streams get a static label. Live streams describe the most recently
// detected activity, falling back to a generic label when there is none.
func statusLabel(activities []Activity, live bool) string {
	if !live {
		return StatusDone
	}
	if len(activities) == 0 {
		return StatusThinking
	}

	last := activities[len(activities)-1]
	switch last.Kind {
	case ActivityQuery:
		return fmt.Sprintf("Searching for %q", last.Value)
	case ActivityURL:
		if host := Host(last.Value); host != "" {
			return "Reading " + host
		}
		// Malformed URL: show the raw value rather than nothing.
		return "Reading " + last.Value
	}
	return StatusThinking
}

// Host returns the host of a URL with any leading "www." stripped, or ""
// when the value does not parse as a URL with a host.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
