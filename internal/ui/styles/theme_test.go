// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThemeInitializesStyles(t *testing.T) {
	th := NewTheme()
	// Spot-check a few styles carry their intended attributes.
	assert.True(t, th.HeaderTitle.GetBold())
	assert.True(t, th.InputPlaceholder.GetItalic())
	assert.True(t, th.Link.GetUnderline())
	assert.Equal(t, 2, th.UserBubble.GetPaddingLeft())
}

func TestLayoutModes(t *testing.T) {
	th := NewTheme()

	th.SetSize(40, 24)
	assert.Equal(t, LayoutNarrow, th.GetLayoutMode())

	th.SetSize(80, 24)
	assert.Equal(t, LayoutMedium, th.GetLayoutMode())

	th.SetSize(140, 40)
	assert.Equal(t, LayoutWide, th.GetLayoutMode())
	assert.Equal(t, 140, th.Width)
	assert.Equal(t, 40, th.Height)
}
