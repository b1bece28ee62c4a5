// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package webrtccore

import "github.com/pion/webrtc/v4"

// EventKind discriminates the asynchronous events named in spec.md
// §4.6.
type EventKind int

const (
	EventOfferReady EventKind = iota
	EventLocalICECandidateReady
	EventICEStateChanged
	EventControlChannelOpened
	EventControlChannelClosed
	EventFramesChannelOpened
	EventFramesChannelClosed
	EventControlMessageReceived
)

func (k EventKind) String() string {
	switch k {
	case EventOfferReady:
		return "offer_ready"
	case EventLocalICECandidateReady:
		return "local_ice_candidate_ready"
	case EventICEStateChanged:
		return "ice_state_changed"
	case EventControlChannelOpened:
		return "control_channel_opened"
	case EventControlChannelClosed:
		return "control_channel_closed"
	case EventFramesChannelOpened:
		return "frames_channel_opened"
	case EventFramesChannelClosed:
		return "frames_channel_closed"
	case EventControlMessageReceived:
		return "control_message_received"
	default:
		return "unknown"
	}
}

// Event is the single typed value a Connection emits for every
// asynchronous occurrence. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	SDP          string                  // EventOfferReady
	Candidate    *webrtc.ICECandidateInit // EventLocalICECandidateReady
	ICEState     webrtc.ICEConnectionState // EventICEStateChanged
	ControlBytes []byte                  // EventControlMessageReceived
}
