// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package webrtccore

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/p2prd/host/encode"
	"github.com/p2prd/host/frame"
)

const (
	controlChannelLabel = "control"
	framesChannelLabel  = "frames"
)

// Connection wraps one pion PeerConnection: a VP8 video track and the
// "control"/"frames" data channels named in spec.md §4.6. All state
// transitions are surfaced as [Event] values on the channel returned
// by Events; there are no caller-supplied callbacks.
type Connection struct {
	logger *slog.Logger
	events chan Event

	mu      sync.Mutex
	pc      *webrtc.PeerConnection
	control *webrtc.DataChannel
	frames  *webrtc.DataChannel
	track   *webrtc.TrackLocalStaticRTP
	adapter *encode.Adapter
}

// New returns a Connection with no active PeerConnection. Call
// StartOffer to create one.
func New(logger *slog.Logger) *Connection {
	return &Connection{
		logger: logger,
		events: make(chan Event, 64),
	}
}

// Events returns the channel Connection publishes asynchronous
// occurrences on. Callers should drain it continuously; while its
// buffer is full, new events are dropped with a warning.
func (c *Connection) Events() <-chan Event {
	return c.events
}

// StartOffer resets any prior connection, builds a fresh
// PeerConnection using iceServers, attaches a VP8 video track and the
// control/frames data channels, and emits sdp_offer once the local
// description is set. ICE candidates trickle in afterward as
// EventLocalICECandidateReady.
func (c *Connection) StartOffer(iceServers []webrtc.ICEServer) error {
	c.Reset()

	settingEngine := webrtc.SettingEngine{}
	settingEngine.DetachDataChannels()
	settingEngine.SetIncludeLoopbackCandidate(true)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return fmt.Errorf("webrtccore: creating PeerConnection: %w", err)
	}

	c.mu.Lock()
	c.pc = pc
	c.mu.Unlock()

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		c.logger.Info("ICE state change", "state", state.String())
		c.emit(Event{Kind: EventICEStateChanged, ICEState: state})
	})

	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return // end-of-candidates
		}
		init := candidate.ToJSON()
		c.emit(Event{Kind: EventLocalICECandidateReady, Candidate: &init})
	})

	if err := c.attachVideoTrack(pc); err != nil {
		return err
	}

	control, err := pc.CreateDataChannel(controlChannelLabel, nil)
	if err != nil {
		return fmt.Errorf("webrtccore: creating control data channel: %w", err)
	}
	c.wireDataChannel(control, EventControlChannelOpened, EventControlChannelClosed, true)

	frames, err := pc.CreateDataChannel(framesChannelLabel, nil)
	if err != nil {
		return fmt.Errorf("webrtccore: creating frames data channel: %w", err)
	}
	c.wireDataChannel(frames, EventFramesChannelOpened, EventFramesChannelClosed, false)

	c.mu.Lock()
	c.control = control
	c.frames = frames
	c.mu.Unlock()

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("webrtccore: creating SDP offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("webrtccore: setting local description: %w", err)
	}

	c.emit(Event{Kind: EventOfferReady, SDP: pc.LocalDescription().SDP})
	return nil
}

// attachVideoTrack creates the VP8 video track, adds it to pc, and
// wires the encode.Adapter that fragments outgoing frames.
func (c *Connection) attachVideoTrack(pc *webrtc.PeerConnection) error {
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8},
		"video", "p2prd",
	)
	if err != nil {
		return fmt.Errorf("webrtccore: creating video track: %w", err)
	}

	sender, err := pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("webrtccore: adding video track: %w", err)
	}

	// Drain RTCP so the sender's internal buffers do not grow unbounded;
	// this host does not act on receiver reports.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	ssrc := ssrcFromSender(sender)
	c.mu.Lock()
	c.track = track
	c.adapter = encode.NewAdapter(encode.NewStubEncoder(), ssrc)
	c.mu.Unlock()

	return nil
}

// ssrcFromSender returns the negotiated SSRC, or a random value if
// pion has not yet assigned one, per spec.md §4.4 ("SSRC = track SSRC
// or random").
func ssrcFromSender(sender *webrtc.RTPSender) uint32 {
	params := sender.GetParameters()
	if len(params.Encodings) > 0 && params.Encodings[0].SSRC != 0 {
		return uint32(params.Encodings[0].SSRC)
	}
	var buf [4]byte
	_, _ = rand.Read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

// wireDataChannel registers open/close handlers and, for the control
// channel, a message handler that emits EventControlMessageReceived.
func (c *Connection) wireDataChannel(dc *webrtc.DataChannel, openEvent, closeEvent EventKind, isControl bool) {
	dc.OnOpen(func() {
		c.logger.Debug("data channel opened", "label", dc.Label())
		c.emit(Event{Kind: openEvent})
	})
	dc.OnClose(func() {
		c.logger.Debug("data channel closed", "label", dc.Label())
		c.emit(Event{Kind: closeEvent})
	})
	if isControl {
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			c.emit(Event{Kind: EventControlMessageReceived, ControlBytes: msg.Data})
		})
	}
}

// AcceptAnswer sets the remote description from an SDP answer. A
// no-op (with a warning) if there is no active connection.
func (c *Connection) AcceptAnswer(sdp string) error {
	c.mu.Lock()
	pc := c.pc
	c.mu.Unlock()

	if pc == nil {
		c.logger.Warn("accept_answer received with no active connection")
		return nil
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}
	if err := pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("webrtccore: setting remote description: %w", err)
	}
	return nil
}

// AddRemoteCandidate appends an ICE candidate to the active
// connection. A no-op (with a warning) if there is no active
// connection.
func (c *Connection) AddRemoteCandidate(candidate string, sdpMid *string, sdpMLineIndex *uint16) error {
	c.mu.Lock()
	pc := c.pc
	c.mu.Unlock()

	if pc == nil {
		c.logger.Warn("add_remote_candidate received with no active connection")
		return nil
	}

	init := webrtc.ICECandidateInit{
		Candidate:     candidate,
		SDPMid:        sdpMid,
		SDPMLineIndex: sdpMLineIndex,
	}
	if err := pc.AddICECandidate(init); err != nil {
		return fmt.Errorf("webrtccore: adding ICE candidate: %w", err)
	}
	return nil
}

// TrySendControl sends message over the control channel if it is
// open, returning whether it did.
func (c *Connection) TrySendControl(message []byte) bool {
	c.mu.Lock()
	control := c.control
	c.mu.Unlock()

	if control == nil || control.ReadyState() != webrtc.DataChannelStateOpen {
		return false
	}
	if err := control.Send(message); err != nil {
		c.logger.Warn("sending control message failed", "error", err)
		return false
	}
	return true
}

// TrySendFrame sends a binary envelope over the frames channel if it
// is open, returning whether it did.
func (c *Connection) TrySendFrame(header frame.Header, payload []byte) bool {
	c.mu.Lock()
	frames := c.frames
	c.mu.Unlock()

	if frames == nil || frames.ReadyState() != webrtc.DataChannelStateOpen {
		return false
	}

	envelope, err := frame.Encode(header, payload)
	if err != nil {
		c.logger.Warn("encoding frame envelope failed", "error", err)
		return false
	}
	if err := frames.Send(envelope); err != nil {
		c.logger.Warn("sending frame envelope failed", "error", err)
		return false
	}
	return true
}

// TrySendVideo encodes img and pushes the resulting RTP packets to the
// video track, returning whether it did: false when there is no track
// or encoder, or when encoding or writing a packet fails.
func (c *Connection) TrySendVideo(img image.Image) bool {
	c.mu.Lock()
	track := c.track
	adapter := c.adapter
	c.mu.Unlock()

	if track == nil || adapter == nil {
		return false
	}

	packets, _, err := adapter.EncodeFrame(img)
	if err != nil {
		c.logger.Warn("encoding video frame failed", "error", err)
		return false
	}
	for _, packet := range packets {
		if err := track.WriteRTP(packet); err != nil {
			c.logger.Warn("writing RTP packet failed", "error", err)
			return false
		}
	}
	return true
}

// Reset closes and discards the connection and all derived state.
func (c *Connection) Reset() {
	c.mu.Lock()
	pc := c.pc
	c.pc = nil
	c.control = nil
	c.frames = nil
	c.track = nil
	c.adapter = nil
	c.mu.Unlock()

	if pc != nil {
		if err := pc.Close(); err != nil {
			c.logger.Warn("closing PeerConnection failed", "error", err)
		}
	}
}

func (c *Connection) emit(event Event) {
	select {
	case c.events <- event:
	default:
		c.logger.Warn("event channel full, dropping event", "kind", event.Kind.String())
	}
}
