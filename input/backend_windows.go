// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package input

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	procSendInput    = user32.NewProc("SendInput")
	procSetCursorPos = user32.NewProc("SetCursorPos")
)

const (
	inputMouse    = 0
	inputKeyboard = 1

	mouseEventMoveAbs = 0x8000 // MOUSEEVENTF_ABSOLUTE, unused: we use SetCursorPos instead
	mouseEventLeftDown = 0x0002
	mouseEventLeftUp   = 0x0004
	mouseEventRightDown = 0x0008
	mouseEventRightUp   = 0x0010
	mouseEventMiddleDown = 0x0020
	mouseEventMiddleUp   = 0x0040
	mouseEventXDown      = 0x0080
	mouseEventXUp        = 0x0100
	mouseEventWheel      = 0x0800
	mouseEventHWheel     = 0x1000

	xButton1 = 0x0001
	xButton2 = 0x0002

	keyEventExtendedKey = 0x0001
	keyEventKeyUp       = 0x0002
	keyEventScancode    = 0x0008

	vkDelete = 0x2E
	vkMenu   = 0x12 // Alt
	vkControl = 0x11
)

// mouseInputEvent mirrors Win32's INPUT struct for the mouse union
// member, padded to INPUT's full 40-byte size on amd64 so SendInput's
// cbSize validation (which checks against sizeof(INPUT), not the
// member in use) accepts it.
type mouseInputEvent struct {
	inputType   uint32
	_           uint32
	dx          int32
	dy          int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uint64
}

// keybdInputEvent mirrors Win32's INPUT struct for the keyboard union
// member, with trailing padding to match mouseInputEvent's size.
type keybdInputEvent struct {
	inputType   uint32
	_           uint32
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uint64
	_           uint64
}

func sendMouseInput(event mouseInputEvent) error {
	event.inputType = inputMouse
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&event)), unsafe.Sizeof(event))
	if ret == 0 {
		return fmt.Errorf("input: SendInput(mouse): %w", err)
	}
	return nil
}

func sendKeybdInput(event keybdInputEvent) error {
	event.inputType = inputKeyboard
	ret, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&event)), unsafe.Sizeof(event))
	if ret == 0 {
		return fmt.Errorf("input: SendInput(keyboard): %w", err)
	}
	return nil
}

// sendInputBackend drives Win32's SendInput and SetCursorPos directly,
// the same direct-DLL-binding technique desktop.Switcher uses for
// OpenInputDesktop/SetThreadDesktop.
type sendInputBackend struct{}

// NewBackend returns the Windows SendInput-backed input backend.
func NewBackend() Backend {
	return sendInputBackend{}
}

func (sendInputBackend) MoveCursor(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if ret == 0 {
		return fmt.Errorf("input: SetCursorPos: %w", err)
	}
	return nil
}

func (sendInputBackend) SetButton(button Button, pressed bool) error {
	event := mouseInputEvent{}
	switch button {
	case ButtonLeft:
		event.dwFlags = flagFor(pressed, mouseEventLeftDown, mouseEventLeftUp)
	case ButtonRight:
		event.dwFlags = flagFor(pressed, mouseEventRightDown, mouseEventRightUp)
	case ButtonMiddle:
		event.dwFlags = flagFor(pressed, mouseEventMiddleDown, mouseEventMiddleUp)
	case ButtonX1:
		event.dwFlags = flagFor(pressed, mouseEventXDown, mouseEventXUp)
		event.mouseData = xButton1
	case ButtonX2:
		event.dwFlags = flagFor(pressed, mouseEventXDown, mouseEventXUp)
		event.mouseData = xButton2
	default:
		return fmt.Errorf("input: unrecognized button %d", button)
	}
	return sendMouseInput(event)
}

func flagFor(pressed bool, down, up uint32) uint32 {
	if pressed {
		return down
	}
	return up
}

func (sendInputBackend) Scroll(vertical, horizontal int) error {
	if vertical != 0 {
		if err := sendMouseInput(mouseInputEvent{mouseData: uint32(int32(vertical)), dwFlags: mouseEventWheel}); err != nil {
			return err
		}
	}
	if horizontal != 0 {
		if err := sendMouseInput(mouseInputEvent{mouseData: uint32(int32(horizontal)), dwFlags: mouseEventHWheel}); err != nil {
			return err
		}
	}
	return nil
}

func (sendInputBackend) SendKey(scancode int, extended, down bool) error {
	var flags uint32 = keyEventScancode
	if extended {
		flags |= keyEventExtendedKey
	}
	if down {
		// no KEYEVENTF_KEYUP bit: this is a key-down.
	} else {
		flags |= keyEventKeyUp
	}
	return sendKeybdInput(keybdInputEvent{wScan: uint16(scancode), dwFlags: flags})
}

func (sendInputBackend) SecureAttention() error {
	// There is no programmatic SendInput path to the secure-attention
	// sequence — ctrl+alt+del is intercepted by the Secure Attention
	// Sequence (SAS) filter before SendInput's injected events reach
	// it, by design. SendSAS (sas.dll) is the documented primitive for
	// a process running as a credential provider/supervisor; outside
	// that context Windows does not expose one.
	return fmt.Errorf("input: secure attention sequence requires a SendSAS-capable host process")
}
