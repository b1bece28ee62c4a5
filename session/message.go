// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"github.com/p2prd/host/input"
	"github.com/p2prd/host/monitor"
)

// Message types recognized on the signaling socket and the WebRTC
// control channel, per spec.md §6. Both transports carry the same
// wire format; Orchestrator does not care which one a message arrived
// on.
const (
	TypeOperatorHello       = "operator_hello"
	TypeHostHello           = "host_hello"
	TypeMonitorListRequest  = "monitor_list_request"
	TypeMonitorList         = "monitor_list"
	TypeMonitorSwitch       = "monitor_switch"
	TypeMonitorSwitchResult = "monitor_switch_result"
	TypeAuth                = "auth"
	TypeAuthResult          = "auth_result"
	TypeInput               = "input"
	TypeHostBusy            = "host_busy"
	TypeICEState            = "ice_state"
	TypeSDPOffer            = "sdp_offer"
	TypeSDPAnswer           = "sdp_answer"
	TypeICECandidate        = "ice_candidate"
	TypeFrame               = "frame"
)

// AuthStatus values for auth_result.
const (
	AuthStatusOK      = "ok"
	AuthStatusInvalid = "invalid"
	AuthStatusLocked  = "locked"
)

// Message is the single flat envelope every wire message is decoded
// into and encoded from. Only the fields relevant to Type are
// populated; the rest serialize as omitted by the omitempty tags.
type Message struct {
	Type string `json:"type"`

	SessionID string `json:"session_id,omitempty"`
	HostID    string `json:"host_id,omitempty"`

	Monitors        []monitor.Descriptor `json:"monitors,omitempty"`
	ActiveMonitorID string               `json:"active_monitor_id,omitempty"`

	ID string `json:"id,omitempty"`

	Password string `json:"password,omitempty"`

	Status       string `json:"status,omitempty"`
	RetryAfterMs int64  `json:"retry_after_ms,omitempty"`

	Mouse    *input.Mouse    `json:"mouse,omitempty"`
	Keyboard *input.Keyboard `json:"keyboard,omitempty"`
	Special  string          `json:"special,omitempty"`

	Reason string `json:"reason,omitempty"`

	State string `json:"state,omitempty"`

	SDP     string `json:"sdp,omitempty"`
	SDPType string `json:"sdp_type,omitempty"`

	Candidate     string  `json:"candidate,omitempty"`
	SDPMid        *string `json:"sdp_mid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdp_mline_index,omitempty"`

	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
	Data   string `json:"data,omitempty"`
}
