// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package config

import (
	"fmt"
	"os"
)

// hardenDir restricts the config directory to owner-only access, the
// POSIX analogue of the Windows ACL (SYSTEM + Administrators) the
// spec requires.
func hardenDir(path string) error {
	if err := os.Chmod(path, 0700); err != nil {
		return fmt.Errorf("config: restricting directory permissions: %w", err)
	}
	return nil
}
