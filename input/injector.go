// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package input

import (
	"fmt"
	"log/slog"

	"github.com/p2prd/host/desktop"
	"github.com/p2prd/host/monitor"
)

// Injector implements handle(input_message, active_monitor_id) from
// spec.md §4.5.
type Injector struct {
	switcher desktop.Switcher
	registry *monitor.Registry
	backend  Backend
	logger   *slog.Logger
}

// New builds an Injector.
func New(switcher desktop.Switcher, registry *monitor.Registry, backend Backend, logger *slog.Logger) *Injector {
	return &Injector{
		switcher: switcher,
		registry: registry,
		backend:  backend,
		logger:   logger,
	}
}

// Handle scopes the call onto the active input desktop and dispatches
// msg's mouse, keyboard, and special-action payloads in turn.
func (inj *Injector) Handle(msg Message, monitorID string) error {
	restore, err := inj.switcher.Enter()
	if err != nil {
		return fmt.Errorf("input: entering input desktop: %w", err)
	}
	defer restore()

	if msg.Mouse != nil {
		if err := inj.handleMouse(*msg.Mouse, monitorID); err != nil {
			return fmt.Errorf("input: handling mouse: %w", err)
		}
	}
	if msg.Keyboard != nil {
		if err := inj.backend.SendKey(msg.Keyboard.Scancode, msg.Keyboard.Extended, msg.Keyboard.Down); err != nil {
			return fmt.Errorf("input: handling keyboard: %w", err)
		}
	}
	if msg.Special != "" {
		inj.handleSpecial(msg.Special)
	}

	return nil
}

func (inj *Injector) handleMouse(m Mouse, monitorID string) error {
	bounds, scale := inj.registry.Bounds(monitorID)

	x := clamp01(m.X)
	y := clamp01(m.Y)
	px := int(float64(bounds.Left)*scale + x*float64(bounds.Width)*scale)
	py := int(float64(bounds.Top)*scale + y*float64(bounds.Height)*scale)

	if err := inj.backend.MoveCursor(px, py); err != nil {
		return fmt.Errorf("moving cursor: %w", err)
	}

	for button, state := range map[Button]*bool{
		ButtonLeft:   m.Left,
		ButtonRight:  m.Right,
		ButtonMiddle: m.Middle,
		ButtonX1:     m.X1,
		ButtonX2:     m.X2,
	} {
		if state == nil {
			continue
		}
		if err := inj.backend.SetButton(button, *state); err != nil {
			return fmt.Errorf("setting button %d: %w", button, err)
		}
	}

	if m.WheelVertical != 0 || m.WheelHorizontal != 0 {
		const nativeWheelUnit = 120
		vertical := int(m.WheelVertical * nativeWheelUnit)
		horizontal := int(m.WheelHorizontal * nativeWheelUnit)
		if err := inj.backend.Scroll(vertical, horizontal); err != nil {
			return fmt.Errorf("scrolling: %w", err)
		}
	}

	return nil
}

// handleSpecial dispatches a named special action. Failures are
// logged non-fatally per spec.md §4.5.
func (inj *Injector) handleSpecial(action string) {
	switch action {
	case "ctrl_alt_del":
		if err := inj.backend.SecureAttention(); err != nil {
			inj.logger.Warn("secure attention sequence failed", "error", err)
		}
	default:
		inj.logger.Debug("unrecognized special input action", "action", action)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
