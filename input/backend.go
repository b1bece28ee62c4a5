// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package input

// Backend is the native input-injection primitive, isolated behind an
// interface per Design Note §9 so tests can supply an in-memory fake
// and non-Windows builds can supply a no-op.
type Backend interface {
	// MoveCursor sets the cursor to the given physical pixel position.
	MoveCursor(x, y int) error

	// SetButton presses or releases button.
	SetButton(button Button, pressed bool) error

	// Scroll applies vertical and horizontal wheel movement in the
	// native wheel unit (notches already multiplied by 120).
	Scroll(vertical, horizontal int) error

	// SendKey injects a single scancode-based key transition.
	SendKey(scancode int, extended, down bool) error

	// SecureAttention issues the platform secure-attention primitive
	// (ctrl+alt+del on Windows).
	SecureAttention() error
}
