// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package input

import "log/slog"

// noopBackend is the fallback for non-Windows platforms, matching the
// reference agent's "injection not supported on %s" dispatch branch
// rather than shelling out to a desktop-specific tool — the production
// target for this host is Windows.
type noopBackend struct{}

// NewBackend returns the non-Windows no-op input backend.
func NewBackend() Backend {
	return noopBackend{}
}

func (noopBackend) MoveCursor(x, y int) error {
	slog.Default().Debug("input injection unsupported on this platform, dropping MoveCursor", "x", x, "y", y)
	return nil
}

func (noopBackend) SetButton(button Button, pressed bool) error {
	slog.Default().Debug("input injection unsupported on this platform, dropping SetButton", "button", button, "pressed", pressed)
	return nil
}

func (noopBackend) Scroll(vertical, horizontal int) error {
	slog.Default().Debug("input injection unsupported on this platform, dropping Scroll", "vertical", vertical, "horizontal", horizontal)
	return nil
}

func (noopBackend) SendKey(scancode int, extended, down bool) error {
	slog.Default().Debug("input injection unsupported on this platform, dropping SendKey", "scancode", scancode)
	return nil
}

func (noopBackend) SecureAttention() error {
	slog.Default().Debug("input injection unsupported on this platform, dropping SecureAttention")
	return nil
}
