// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the reverie TUI.
package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/reverie-tui/internal/parse"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// markdownCache holds one glamour renderer per wrap width. Renderer
// construction loads style assets, so reuse matters on every frame.
var markdownCache = struct {
	sync.Mutex
	renderers map[int]*glamour.TermRenderer
}{renderers: make(map[int]*glamour.TermRenderer)}

// rendererFor returns a shared renderer for the given wrap width.
func rendererFor(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}

	markdownCache.Lock()
	defer markdownCache.Unlock()

	if r, ok := markdownCache.renderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	markdownCache.renderers[width] = r
	return r
}

// RenderMarkdown renders markdown content for terminal display. Noisy link
// anchors are cleaned before rendering so a pasted URL never overflows its
// line. If the renderer is unavailable, code fences are still highlighted
// on a plain-text path.
func RenderMarkdown(content string, width int) string {
	content = parse.RewriteLinkText(content)

	r := rendererFor(width)
	if r == nil {
		return ParseCodeBlocks(content, width)
	}

	rendered, err := r.Render(content)
	if err != nil {
		return ParseCodeBlocks(content, width)
	}
	return strings.TrimRight(rendered, "\n")
}
