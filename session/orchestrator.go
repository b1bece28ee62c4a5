// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"log/slog"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/p2prd/host/capture"
	"github.com/p2prd/host/clock"
	"github.com/p2prd/host/config"
	"github.com/p2prd/host/credential"
	"github.com/p2prd/host/frame"
	"github.com/p2prd/host/input"
	"github.com/p2prd/host/lockout"
	"github.com/p2prd/host/monitor"
	"github.com/p2prd/host/secret"
	"github.com/p2prd/host/webrtccore"
)

// State is one of the three states in the orchestrator's lease state
// machine, per spec.md §4.1.
type State int

const (
	NoSession State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case NoSession:
		return "no_session"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Lease is the single operator admission record. At most one exists
// at a time.
type Lease struct {
	SessionID     string
	Authenticated bool
	MonitorID     string
}

// ChannelKind discriminates the two WebRTC data channels for
// on_channel_open/on_channel_close.
type ChannelKind int

const (
	ChannelControl ChannelKind = iota
	ChannelFrames
)

// reofferDebounce bounds how often on_ice_state_change is allowed to
// initiate a fresh offer, per spec.md §4.1 and the re-offer-debounce
// testable property in §8.
const reofferDebounce = 5 * time.Second

// frameInterval targets the VP8 Encoder Adapter's 30 fps, matching
// encode.FrameRate.
const frameInterval = time.Second / 30

// Capturer is the subset of capture.Pipeline the orchestrator needs to
// drive the frame loop; satisfied by *capture.Pipeline in production
// and a fake in tests.
type Capturer interface {
	Capture(monitorID string) (capture.Frame, error)
}

// Orchestrator is the host's top-level state machine. It has no
// network code of its own: transports call On* to feed it events, and
// it calls back through the small seams passed to New for outbound
// traffic.
type Orchestrator struct {
	logger   *slog.Logger
	clk      clock.Clock
	lockout  *lockout.Engine
	store    *config.Store
	monitors *monitor.Registry
	injector *input.Injector
	conn     *webrtccore.Connection
	capturer Capturer

	sendSignaling func([]byte) error

	mu            sync.Mutex
	state         State
	lease         *Lease
	lastReofferAt time.Time
	iceServers    []webrtc.ICEServer
	frameLoopStop func()
}

// New returns an Orchestrator in state NoSession. sendSignaling is
// the seam used whenever the WebRTC control channel is not open;
// iceServers seeds every start_offer call.
func New(
	logger *slog.Logger,
	clk clock.Clock,
	lockoutEngine *lockout.Engine,
	store *config.Store,
	monitors *monitor.Registry,
	injector *input.Injector,
	conn *webrtccore.Connection,
	capturer Capturer,
	iceServers []webrtc.ICEServer,
	sendSignaling func([]byte) error,
) *Orchestrator {
	return &Orchestrator{
		logger:        logger,
		clk:           clk,
		lockout:       lockoutEngine,
		store:         store,
		monitors:      monitors,
		injector:      injector,
		conn:          conn,
		capturer:      capturer,
		iceServers:    iceServers,
		sendSignaling: sendSignaling,
	}
}

// SetICEServers replaces the ICE configuration used by future
// StartOffer calls. It does not renegotiate an in-progress connection;
// the next re-offer (ICE failure, or a fresh operator_hello) picks up
// the new list.
func (o *Orchestrator) SetICEServers(iceServers []webrtc.ICEServer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.iceServers = iceServers
}

// Run consumes conn.Events() until ctx is canceled, translating each
// event into the corresponding On* call or outbound message. Callers
// run this in its own goroutine.
func (o *Orchestrator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-o.conn.Events():
			if !ok {
				return
			}
			o.handleConnectionEvent(event)
		}
	}
}

func (o *Orchestrator) handleConnectionEvent(event webrtccore.Event) {
	switch event.Kind {
	case webrtccore.EventOfferReady:
		o.sendOutbound(Message{Type: TypeSDPOffer, SDP: event.SDP, SDPType: "offer"})
	case webrtccore.EventLocalICECandidateReady:
		o.sendOutbound(Message{
			Type:          TypeICECandidate,
			Candidate:     event.Candidate.Candidate,
			SDPMid:        event.Candidate.SDPMid,
			SDPMLineIndex: event.Candidate.SDPMLineIndex,
		})
	case webrtccore.EventICEStateChanged:
		o.OnICEStateChange(event.ICEState)
	case webrtccore.EventControlChannelOpened:
		o.OnChannelOpen(ChannelControl)
	case webrtccore.EventControlChannelClosed:
		o.OnChannelClose(ChannelControl)
	case webrtccore.EventFramesChannelOpened:
		o.OnChannelOpen(ChannelFrames)
	case webrtccore.EventFramesChannelClosed:
		o.OnChannelClose(ChannelFrames)
	case webrtccore.EventControlMessageReceived:
		o.OnControlChannelMessage(event.ControlBytes)
	}
}

// OnSignalingMessage handles one complete message received on the
// signaling WebSocket.
func (o *Orchestrator) OnSignalingMessage(raw []byte) {
	o.dispatch(raw)
}

// OnControlChannelMessage handles one complete message received on
// the WebRTC control data channel. The wire format and dispatch are
// identical regardless of which transport delivered the message.
func (o *Orchestrator) OnControlChannelMessage(raw []byte) {
	o.dispatch(raw)
}

func (o *Orchestrator) dispatch(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		o.logger.Warn("malformed signaling message", "error", err)
		return
	}

	switch msg.Type {
	case TypeOperatorHello:
		o.handleOperatorHello(msg)
	case TypeAuth:
		o.handleAuth(msg)
	case TypeMonitorSwitch:
		o.handleMonitorSwitch(msg)
	case TypeMonitorListRequest:
		o.handleMonitorListRequest()
	case TypeInput:
		o.handleInput(msg)
	case TypeSDPAnswer:
		o.handleSDPAnswer(msg)
	case TypeICECandidate:
		o.handleICECandidate(msg)
	default:
		o.logger.Debug("ignoring unrecognized signaling message type", "type", msg.Type)
	}
}

func (o *Orchestrator) handleOperatorHello(msg Message) {
	o.mu.Lock()
	if o.lease != nil && o.lease.SessionID != msg.SessionID {
		o.mu.Unlock()
		o.sendOutbound(Message{Type: TypeHostBusy, Reason: "active_session"})
		return
	}
	o.lease = &Lease{SessionID: msg.SessionID, MonitorID: o.monitors.ActiveID()}
	o.state = Unauthenticated
	iceServers := o.iceServers
	o.mu.Unlock()

	snapshot := o.store.Snapshot()
	descriptors, activeID := o.monitors.List()

	o.sendOutbound(Message{Type: TypeHostHello, HostID: snapshot.HostID, Monitors: descriptors, ActiveMonitorID: activeID})
	o.sendOutbound(Message{Type: TypeMonitorList, Monitors: descriptors, ActiveMonitorID: activeID})

	if err := o.conn.StartOffer(iceServers); err != nil {
		o.logger.Warn("start_offer failed for new lease", "error", err)
	}
}

func (o *Orchestrator) handleAuth(msg Message) {
	o.mu.Lock()
	if o.state != Unauthenticated || o.lease == nil {
		o.mu.Unlock()
		o.logger.Debug("dropping auth received outside unauthenticated state")
		return
	}
	o.mu.Unlock()

	if locked, retryAfter := o.lockout.IsLocked(); locked {
		o.sendOutbound(Message{Type: TypeAuthResult, Status: AuthStatusLocked, RetryAfterMs: retryAfter.Milliseconds()})
		return
	}

	snapshot := o.store.Snapshot()
	if o.verifyPassword(snapshot.PasswordHash, msg.Password) {
		if err := o.lockout.RegisterSuccess(); err != nil {
			o.logger.Warn("registering auth success failed", "error", err)
		}

		o.mu.Lock()
		o.lease.Authenticated = true
		o.state = Authenticated
		o.mu.Unlock()

		o.sendOutbound(Message{Type: TypeAuthResult, Status: AuthStatusOK})
		o.startFrameLoop()
		return
	}

	if err := o.lockout.RegisterFailure(); err != nil {
		o.logger.Warn("registering auth failure failed", "error", err)
	}
	o.sendOutbound(Message{Type: TypeAuthResult, Status: AuthStatusInvalid})
}

// verifyPassword holds the operator-supplied plaintext in a locked
// secret.Buffer for the span of the hash comparison, rather than
// passing the string decoded off the wire around indefinitely. An
// empty password never needs buffering: credential.Verify already
// treats an empty hash (no password configured) as unmatchable.
func (o *Orchestrator) verifyPassword(hash, password string) bool {
	if password == "" {
		return credential.Verify(hash, "")
	}

	buffer, err := secret.NewFromBytes([]byte(password))
	if err != nil {
		o.logger.Warn("buffering auth password failed", "error", err)
		return false
	}
	defer buffer.Close()

	return credential.Verify(hash, buffer.String())
}

func (o *Orchestrator) handleMonitorSwitch(msg Message) {
	if !o.requireAuthenticated("monitor_switch") {
		return
	}
	active := o.monitors.Switch(msg.ID)

	o.mu.Lock()
	o.lease.MonitorID = active
	o.mu.Unlock()

	o.sendOutbound(Message{Type: TypeMonitorSwitchResult, ActiveMonitorID: active})
}

func (o *Orchestrator) handleMonitorListRequest() {
	if !o.requireAuthenticated("monitor_list_request") {
		return
	}
	descriptors, activeID := o.monitors.List()
	o.sendOutbound(Message{Type: TypeMonitorList, Monitors: descriptors, ActiveMonitorID: activeID})
}

func (o *Orchestrator) handleInput(msg Message) {
	if !o.requireAuthenticated("input") {
		return
	}

	o.mu.Lock()
	monitorID := o.lease.MonitorID
	o.mu.Unlock()

	payload := input.Message{Mouse: msg.Mouse, Keyboard: msg.Keyboard, Special: msg.Special}
	if err := o.injector.Handle(payload, monitorID); err != nil {
		o.logger.Warn("input injection failed", "error", err)
	}
}

func (o *Orchestrator) handleSDPAnswer(msg Message) {
	if err := o.conn.AcceptAnswer(msg.SDP); err != nil {
		o.logger.Warn("accept_answer failed", "error", err)
	}
}

func (o *Orchestrator) handleICECandidate(msg Message) {
	if err := o.conn.AddRemoteCandidate(msg.Candidate, msg.SDPMid, msg.SDPMLineIndex); err != nil {
		o.logger.Warn("add_remote_candidate failed", "error", err)
	}
}

// requireAuthenticated reports whether the orchestrator is in
// Authenticated state, logging and returning false otherwise. Per
// spec.md §4.1, input (and by the same rule monitor_switch and
// monitor_list_request) received while not Authenticated is dropped.
func (o *Orchestrator) requireAuthenticated(what string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Authenticated {
		o.logger.Debug("dropping message received outside authenticated state", "type", what, "state", o.state.String())
		return false
	}
	return true
}

// OnICEStateChange reacts to a WebRTC ICE connection state change. A
// lease present and failed/disconnected/closed, outside the re-offer
// debounce window, triggers a fresh offer without dropping the lease.
func (o *Orchestrator) OnICEStateChange(state webrtc.ICEConnectionState) {
	o.sendOutbound(Message{Type: TypeICEState, State: state.String()})

	o.mu.Lock()
	lease := o.lease
	if lease == nil || !isRecoverableICEState(state) {
		o.mu.Unlock()
		return
	}

	now := o.clk.Now()
	if !o.lastReofferAt.IsZero() && now.Sub(o.lastReofferAt) < reofferDebounce {
		o.mu.Unlock()
		return
	}
	o.lastReofferAt = now
	iceServers := o.iceServers
	o.mu.Unlock()

	if err := o.conn.StartOffer(iceServers); err != nil {
		o.logger.Warn("re-offer failed", "error", err)
	}
}

func isRecoverableICEState(state webrtc.ICEConnectionState) bool {
	switch state {
	case webrtc.ICEConnectionStateFailed, webrtc.ICEConnectionStateDisconnected, webrtc.ICEConnectionStateClosed:
		return true
	default:
		return false
	}
}

// OnChannelOpen and OnChannelClose record data channel transitions
// for logging. Transport selection itself is stateless — TrySendControl
// and TrySendFrame already check channel readiness on every call.
func (o *Orchestrator) OnChannelOpen(kind ChannelKind) {
	o.logger.Debug("data channel opened", "kind", kind)
}

func (o *Orchestrator) OnChannelClose(kind ChannelKind) {
	o.logger.Debug("data channel closed", "kind", kind)
}

// OnSignalingDrop releases the lease, stops the frame loop, and resets
// WebRTC. Reconnection itself is the Resolver's responsibility.
func (o *Orchestrator) OnSignalingDrop() {
	o.mu.Lock()
	o.lease = nil
	o.state = NoSession
	o.mu.Unlock()

	o.stopFrameLoop()
	o.conn.Reset()
}

// sendOutbound selects a transport per spec.md §4.1: the WebRTC
// control channel if open, else the signaling WebSocket.
func (o *Orchestrator) sendOutbound(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		o.logger.Error("marshaling outbound message failed", "type", msg.Type, "error", err)
		return
	}

	if o.conn.TrySendControl(payload) {
		return
	}
	if err := o.sendSignaling(payload); err != nil {
		o.logger.Warn("sending outbound message over signaling failed", "type", msg.Type, "error", err)
	}
}

// startFrameLoop launches the capture-to-transport loop for the
// current lease's monitor at frameInterval, if one is not already
// running. The loop runs until stopFrameLoop is called, which
// OnSignalingDrop does when it releases the lease.
func (o *Orchestrator) startFrameLoop() {
	o.mu.Lock()
	if o.frameLoopStop != nil {
		o.mu.Unlock()
		return
	}
	monitorID := o.lease.MonitorID
	done := make(chan struct{})
	o.frameLoopStop = func() { close(done) }
	o.mu.Unlock()

	go o.runFrameLoop(monitorID, done)
}

// stopFrameLoop halts a running frame loop, if any.
func (o *Orchestrator) stopFrameLoop() {
	o.mu.Lock()
	stop := o.frameLoopStop
	o.frameLoopStop = nil
	o.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// runFrameLoop ticks the capture pipeline at frameInterval and pushes
// each resulting still image through the three-tier transport
// fallback: the VP8 video track, then a binary envelope over the
// frames channel, then a base64-encoded still image over whichever
// transport sendOutbound selects.
func (o *Orchestrator) runFrameLoop(monitorID string, done <-chan struct{}) {
	ticker := o.clk.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			captured, err := o.capturer.Capture(monitorID)
			if err != nil {
				o.logger.Warn("frame capture failed", "monitor_id", monitorID, "error", err)
				continue
			}
			o.sendFrame(captured)
		}
	}
}

func (o *Orchestrator) sendFrame(captured capture.Frame) {
	if o.conn.TrySendVideo(captured.Image) {
		return
	}

	bounds := captured.Image.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	var buf bytes.Buffer
	if err := png.Encode(&buf, captured.Image); err != nil {
		o.logger.Warn("encoding fallback still frame failed", "error", err)
		return
	}
	payload := buf.Bytes()

	header := frame.Header{Width: width, Height: height, Format: "image/png"}
	if o.conn.TrySendFrame(header, payload) {
		return
	}

	o.sendOutbound(Message{
		Type:   TypeFrame,
		Width:  width,
		Height: height,
		Format: header.Format,
		Data:   base64.StdEncoding.EncodeToString(payload),
	})
}
