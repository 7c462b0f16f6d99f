// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parse implements the incremental content parser.
package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusLabelCompleted(t *testing.T) {
	p := Parse(reasoned(`"query": "anything"`)+"Answer.", false)
	assert.Equal(t, StatusDone, p.StatusLabel)
}

func TestStatusLabelLiveNoActivity(t *testing.T) {
	p := Parse(reasoned("mulling it over"), true)
	assert.Equal(t, StatusThinking, p.StatusLabel)
}

func TestStatusLabelLiveQuery(t *testing.T) {
	p := Parse(reasoned(`"query": "capital of France"`), true)
	assert.Equal(t, `Searching for "capital of France"`, p.StatusLabel)
}

func TestStatusLabelLiveURLHost(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain host", "https://en.wikipedia.org/Paris", "Reading en.wikipedia.org"},
		{"www stripped", "https://www.example.com/page", "Reading example.com"},
		{"port stripped", "https://example.com:8443/page", "Reading example.com"},
		{"malformed falls back to value", "not-a-url", "Reading not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := reasoned(`"url": "` + tt.url + `"`)
			assert.Equal(t, tt.want, Parse(in, true).StatusLabel)
		})
	}
}

func TestStatusLabelDescribesMostRecentActivity(t *testing.T) {
	in := reasoned(`"url": "https://example.com/a" then "query": "follow up"`)
	p := Parse(in, true)
	assert.Equal(t, `Searching for "follow up"`, p.StatusLabel)
}

func TestHost(t *testing.T) {
	assert.Equal(t, "example.com", Host("https://www.example.com/x"))
	assert.Equal(t, "example.com", Host("https://example.com:443/"))
	assert.Equal(t, "", Host("just words"))
	assert.Equal(t, "", Host(""))
}
