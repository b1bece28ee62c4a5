// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// Package webrtccore wraps one pion/webrtc PeerConnection per session:
// a video track advertising VP8 and two data channels labeled exactly
// "control" and "frames", with trickle ICE.
//
// Unlike the teacher transport package's vanilla-ICE "gather then
// publish" flow, this host trickles candidates as pion discovers
// them — spec.md §4.6 requires candidates to be surfaced incrementally
// via add_remote_candidate/local-ice-candidate-ready rather than
// waiting for GatheringCompletePromise.
//
// [Connection] emits [Event] values on a channel rather than invoking
// caller-supplied callbacks, so the session.Orchestrator consumes
// WebRTC state from its own single-goroutine main loop instead of
// wiring per-event delegate subscriptions that would otherwise form a
// cycle between the orchestrator and this package (Design Note §9,
// "event-driven object graph").
package webrtccore
