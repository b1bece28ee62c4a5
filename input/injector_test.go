// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package input

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/p2prd/host/monitor"
)

type fakeSwitcher struct {
	failNext bool
	entered  int
}

func (f *fakeSwitcher) Enter() (func(), error) {
	if f.failNext {
		return nil, errors.New("desktop: enter failed")
	}
	f.entered++
	return func() {}, nil
}

type fakeBackend struct {
	movedX, movedY int
	buttons        map[Button]bool
	scrollV        int
	scrollH        int
	keys           []keyEvent
	secureAttn     int
	failSecureAttn bool
}

type keyEvent struct {
	scancode int
	extended bool
	down     bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{buttons: make(map[Button]bool)}
}

func (f *fakeBackend) MoveCursor(x, y int) error {
	f.movedX, f.movedY = x, y
	return nil
}

func (f *fakeBackend) SetButton(button Button, pressed bool) error {
	f.buttons[button] = pressed
	return nil
}

func (f *fakeBackend) Scroll(vertical, horizontal int) error {
	f.scrollV, f.scrollH = vertical, horizontal
	return nil
}

func (f *fakeBackend) SendKey(scancode int, extended, down bool) error {
	f.keys = append(f.keys, keyEvent{scancode, extended, down})
	return nil
}

func (f *fakeBackend) SecureAttention() error {
	f.secureAttn++
	if f.failSecureAttn {
		return errors.New("sas unavailable")
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *monitor.Registry {
	t.Helper()
	reg, err := monitor.New()
	if err != nil {
		t.Fatalf("monitor.New: %v", err)
	}
	return reg
}

func boolPtr(b bool) *bool { return &b }

func TestInjector_MouseMapsNormalizedCoordinatesToBounds(t *testing.T) {
	backend := newFakeBackend()
	inj := New(&fakeSwitcher{}, testRegistry(t), backend, discardLogger())

	err := inj.Handle(Message{Mouse: &Mouse{X: 0.5, Y: 0.5}}, "display-1")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if backend.movedX != 960 || backend.movedY != 540 {
		t.Fatalf("MoveCursor = (%d,%d), want (960,540) for the center of a 1920x1080 display", backend.movedX, backend.movedY)
	}
}

func TestInjector_MouseClampsOutOfRangeCoordinates(t *testing.T) {
	backend := newFakeBackend()
	inj := New(&fakeSwitcher{}, testRegistry(t), backend, discardLogger())

	if err := inj.Handle(Message{Mouse: &Mouse{X: -5, Y: 5}}, "display-1"); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if backend.movedX != 0 || backend.movedY != 1080 {
		t.Fatalf("MoveCursor = (%d,%d), want clamped (0,1080)", backend.movedX, backend.movedY)
	}
}

func TestInjector_ButtonsAreTriState(t *testing.T) {
	backend := newFakeBackend()
	inj := New(&fakeSwitcher{}, testRegistry(t), backend, discardLogger())

	err := inj.Handle(Message{Mouse: &Mouse{Left: boolPtr(true)}}, "display-1")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if pressed, ok := backend.buttons[ButtonLeft]; !ok || !pressed {
		t.Fatalf("ButtonLeft = %v, %v; want true, true", pressed, ok)
	}
	if _, ok := backend.buttons[ButtonRight]; ok {
		t.Fatal("ButtonRight must be untouched when its tri-state is nil")
	}
}

func TestInjector_WheelMultipliesByNativeUnit(t *testing.T) {
	backend := newFakeBackend()
	inj := New(&fakeSwitcher{}, testRegistry(t), backend, discardLogger())

	err := inj.Handle(Message{Mouse: &Mouse{WheelVertical: 1.5, WheelHorizontal: -1}}, "display-1")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if backend.scrollV != 180 || backend.scrollH != -120 {
		t.Fatalf("Scroll = (%d,%d), want (180,-120)", backend.scrollV, backend.scrollH)
	}
}

func TestInjector_KeyboardUsesScancodeNotVirtualKey(t *testing.T) {
	backend := newFakeBackend()
	inj := New(&fakeSwitcher{}, testRegistry(t), backend, discardLogger())

	err := inj.Handle(Message{Keyboard: &Keyboard{Scancode: 0x1e, Extended: false, Down: true}}, "display-1")
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(backend.keys) != 1 || backend.keys[0].scancode != 0x1e || !backend.keys[0].down {
		t.Fatalf("keys = %+v, want one down event with scancode 0x1e", backend.keys)
	}
}

func TestInjector_SecureAttentionFailureIsNonFatal(t *testing.T) {
	backend := newFakeBackend()
	backend.failSecureAttn = true
	inj := New(&fakeSwitcher{}, testRegistry(t), backend, discardLogger())

	err := inj.Handle(Message{Special: "ctrl_alt_del"}, "display-1")
	if err != nil {
		t.Fatalf("Handle must not return an error for a logged, non-fatal special-action failure: %v", err)
	}
	if backend.secureAttn != 1 {
		t.Fatalf("secureAttn = %d, want 1", backend.secureAttn)
	}
}

func TestInjector_SwitcherFailurePropagates(t *testing.T) {
	backend := newFakeBackend()
	inj := New(&fakeSwitcher{failNext: true}, testRegistry(t), backend, discardLogger())

	if err := inj.Handle(Message{Mouse: &Mouse{}}, "display-1"); err == nil {
		t.Fatal("expected Handle to propagate a desktop switch failure")
	}
	if backend.movedX != 0 || backend.movedY != 0 {
		t.Fatal("backend must not be touched when the desktop switch itself fails")
	}
}
