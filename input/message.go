// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package input

// Message is the decoded body of a wire "input" message (spec.md §6).
// Mouse, Keyboard, and Special are independent and may appear together
// in a single message.
type Message struct {
	Mouse    *Mouse    `json:"mouse,omitempty"`
	Keyboard *Keyboard `json:"keyboard,omitempty"`
	Special  string    `json:"special,omitempty"`
}

// Mouse carries normalized pointer position, tri-state button changes,
// and wheel deltas in notches.
type Mouse struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`

	Left    *bool `json:"left,omitempty"`
	Right   *bool `json:"right,omitempty"`
	Middle  *bool `json:"middle,omitempty"`
	X1      *bool `json:"x1,omitempty"`
	X2      *bool `json:"x2,omitempty"`

	WheelVertical   float64 `json:"wheel_vertical,omitempty"`
	WheelHorizontal float64 `json:"wheel_horizontal,omitempty"`
}

// Keyboard carries a hardware scancode rather than a virtual key, so
// injection is layout-independent.
type Keyboard struct {
	Scancode int  `json:"scancode"`
	Extended bool `json:"extended"`
	Down     bool `json:"down"`
}

// Button identifies a mouse button for Backend.SetButton.
type Button int

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	ButtonX1
	ButtonX2
)
