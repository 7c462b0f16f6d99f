// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package debug provides the optional debug log.
//
// When enabled (config `debug = true` or REVERIE_DEBUG=1), diagnostics are
// appended to a file under the config directory. Nothing is ever written to
// stdout or stderr: the terminal belongs to the TUI.
package debug

import (
	"fmt"
	"log"
	"os"
	"sync"
)

var (
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
)

// Enable routes debug output to the file at path, appending. Enabling again
// replaces the previous destination.
func Enable(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = f
	logger = log.New(f, "", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// Enabled reports whether the debug log is active.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logger != nil
}

// Logf writes one line to the debug log. A no-op when disabled, so callers
// never need to guard their log sites.
func Logf(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return
	}
	logger.Printf(format, args...)
}

// Close disables the debug log and closes the file. Safe to call when the
// log was never enabled.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}
