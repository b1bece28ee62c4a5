// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
)

// DefaultDir returns the platform's config directory:
// <CommonAppData>/P2PRD on Windows (%ProgramData%, falling back to
// the documented default if unset), and /etc/p2prd on POSIX platforms
// used for local development and the test suite.
func DefaultDir() string {
	if dir := os.Getenv("P2PRD_CONFIG_DIR"); dir != "" {
		return dir
	}
	return defaultDir()
}

// DefaultPath returns the full path to config.json under DefaultDir.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.json")
}
