// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for reverie.
//
// Configuration lives in TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.reverie/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/reverie-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete reverie configuration.
type Config struct {
	// General settings
	Version string `toml:"version"`
	// Debug routes diagnostics to a log file under the config directory.
	// Never to stdout; the terminal belongs to the TUI.
	Debug bool `toml:"debug"`

	// Gateway (hosted model) configuration
	Gateway GatewayConfig `toml:"gateway"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// GatewayConfig contains the hosted gateway configuration.
type GatewayConfig struct {
	// APIKey is the gateway API key
	APIKey string `toml:"api_key"`
	// BaseURL overrides the default gateway endpoint (staging, self-hosted)
	BaseURL string `toml:"base_url"`
	// Model is the default model to request
	Model string `toml:"model"`
	// RequestsPerMinute is the client-side request budget (0 = default)
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// ShowStats displays generation statistics under assistant messages
	ShowStats bool `toml:"show_stats"`
	// ShowReasoning expands the reasoning panel by default
	ShowReasoning bool `toml:"show_reasoning"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Gateway: GatewayConfig{
			APIKey:            "",
			BaseURL:           "",
			Model:             "reverie-large",
			RequestsPerMinute: 30,
		},

		UI: UIConfig{
			Theme:         "dark",
			ShowStats:     true,
			ShowReasoning: false,
			CompactMode:   false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the reverie configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".reverie"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// The file holds an API key, so it must be owner read/write only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := loadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadTOML loads configuration from a TOML file.
func loadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems; warn and continue.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Gateway.Model == "" {
		c.Gateway.Model = defaults.Gateway.Model
	}
	if c.Gateway.RequestsPerMinute == 0 {
		c.Gateway.RequestsPerMinute = defaults.Gateway.RequestsPerMinute
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies REVERIE_* environment variables over the loaded
// configuration. The environment always wins over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("REVERIE_API_KEY"); v != "" {
		c.Gateway.APIKey = v
	}
	if v := os.Getenv("REVERIE_BASE_URL"); v != "" {
		c.Gateway.BaseURL = v
	}
	if v := os.Getenv("REVERIE_MODEL"); v != "" {
		c.Gateway.Model = v
	}
	if v := os.Getenv("REVERIE_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("REVERIE_RPM"); v != "" {
		if rpm, err := strconv.Atoi(v); err == nil && rpm > 0 {
			c.Gateway.RequestsPerMinute = rpm
		}
	}
	if v := os.Getenv("REVERIE_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Debug = debug
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Gateway.BaseURL != "" {
		u, err := url.Parse(c.Gateway.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "gateway.base_url",
				Message: fmt.Sprintf("must be a valid http(s) URL, got %q", c.Gateway.BaseURL),
			})
		}
	}

	if c.Gateway.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "gateway.requests_per_minute",
			Message: "must not be negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("must be one of dark, light, auto; got %q", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file. The write is atomic and
// the file is created with 0600 permissions (it holds an API key).
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# reverie configuration file")
	fmt.Fprintln(&buf, "# Generated by reverie - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
