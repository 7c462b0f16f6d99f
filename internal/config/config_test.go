// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "reverie-large", cfg.Gateway.Model)
	assert.Equal(t, 30, cfg.Gateway.RequestsPerMinute)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "reverie-large", cfg.Gateway.Model)
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[gateway]
api_key = "sk-test"
model = "reverie-mini"

[ui]
theme = "light"
show_stats = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.Gateway.APIKey)
	assert.Equal(t, "reverie-mini", cfg.Gateway.Model)
	assert.Equal(t, "light", cfg.UI.Theme)
	// Unset fields fall back to defaults.
	assert.Equal(t, 30, cfg.Gateway.RequestsPerMinute)
}

func TestLoadFixesInsecurePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[gateway]`+"\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REVERIE_API_KEY", "env-key")
	t.Setenv("REVERIE_MODEL", "reverie-mini")
	t.Setenv("REVERIE_RPM", "120")

	cfg := Default()
	cfg.Gateway.APIKey = "file-key"
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "env-key", cfg.Gateway.APIKey)
	assert.Equal(t, "reverie-mini", cfg.Gateway.Model)
	assert.Equal(t, 120, cfg.Gateway.RequestsPerMinute)
}

func TestEnvOverrideDebug(t *testing.T) {
	t.Setenv("REVERIE_DEBUG", "1")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.True(t, cfg.Debug)

	t.Setenv("REVERIE_DEBUG", "maybe")
	cfg = Default()
	cfg.ApplyEnvOverrides()
	assert.False(t, cfg.Debug)
}

func TestDebugFlagRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("debug = true\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
}

func TestEnvOverrideBadRPMIgnored(t *testing.T) {
	t.Setenv("REVERIE_RPM", "lots")
	cfg := Default()
	cfg.ApplyEnvOverrides()
	assert.Equal(t, 30, cfg.Gateway.RequestsPerMinute)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad base URL", func(c *Config) { c.Gateway.BaseURL = "not a url" }, "gateway.base_url"},
		{"ftp base URL", func(c *Config) { c.Gateway.BaseURL = "ftp://example.com" }, "gateway.base_url"},
		{"negative rpm", func(c *Config) { c.Gateway.RequestsPerMinute = -1 }, "gateway.requests_per_minute"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Gateway.APIKey = "sk-roundtrip"
	cfg.UI.CompactMode = true
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-roundtrip", loaded.Gateway.APIKey)
	assert.True(t, loaded.UI.CompactMode)
}
