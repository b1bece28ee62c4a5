// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/p2prd/host/capture"
	"github.com/p2prd/host/clock"
	"github.com/p2prd/host/config"
	"github.com/p2prd/host/credential"
	"github.com/p2prd/host/desktop"
	"github.com/p2prd/host/input"
	"github.com/p2prd/host/lockout"
	"github.com/p2prd/host/monitor"
	"github.com/p2prd/host/webrtccore"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLoopbackOperator builds a plain pion PeerConnection standing in
// for the operator side, using only host (loopback) candidates so the
// test needs no real network access, mirroring webrtccore's own
// offer/answer test harness.
func newLoopbackOperator(t *testing.T) *webrtc.PeerConnection {
	t.Helper()
	settingEngine := webrtc.SettingEngine{}
	settingEngine.SetIncludeLoopbackCandidate(true)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))

	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatalf("creating operator PeerConnection: %v", err)
	}
	return pc
}

// fakeCapturer returns a fixed-size solid image on every call, letting
// tests drive the frame loop without a real capture backend.
type fakeCapturer struct {
	calls atomic.Int32
}

func (f *fakeCapturer) Capture(string) (capture.Frame, error) {
	f.calls.Add(1)
	return capture.Frame{Image: image.NewRGBA(image.Rect(0, 0, 4, 4))}, nil
}

// outboxSignaling collects every payload handed to it, standing in for
// the signaling WebSocket seam.
type outboxSignaling struct {
	mu     sync.Mutex
	sent   [][]byte
	onSend func([]byte)
}

func (o *outboxSignaling) send(payload []byte) error {
	o.mu.Lock()
	o.sent = append(o.sent, payload)
	hook := o.onSend
	o.mu.Unlock()
	if hook != nil {
		hook(payload)
	}
	return nil
}

func (o *outboxSignaling) messagesOfType(typ string) []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Message
	for _, raw := range o.sent {
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == typ {
			out = append(out, msg)
		}
	}
	return out
}

func newTestOrchestrator(t *testing.T, password string) (*Orchestrator, *config.Store, *outboxSignaling, *clock.FakeClock) {
	t.Helper()

	storePath := filepath.Join(t.TempDir(), "config.json")
	store, err := config.Open(storePath)
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}

	hash, err := credential.Hash(password)
	if err != nil {
		t.Fatalf("credential.Hash: %v", err)
	}
	if err := store.Mutate(func(cfg config.Config) config.Config {
		cfg.PasswordHash = hash
		return cfg
	}); err != nil {
		t.Fatalf("store.Mutate: %v", err)
	}

	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	lockoutEngine := lockout.New(store, fake)

	monitors, err := monitor.New()
	if err != nil {
		t.Fatalf("monitor.New: %v", err)
	}

	injector := input.New(desktop.New(), monitors, input.NewBackend(), discardLogger())
	conn := webrtccore.New(discardLogger())
	outbox := &outboxSignaling{}

	o := New(discardLogger(), fake, lockoutEngine, store, monitors, injector, conn, &fakeCapturer{}, nil, outbox.send)
	return o, store, outbox, fake
}

// TestOrchestrator_HappyPathAdmitsOperatorOverRealWebRTC exercises
// operator_hello through auth against a real two-PeerConnection
// WebRTC flow (mirroring webrtccore's own offer/answer test), and
// confirms an authenticated input message reaches the Input Injector.
func TestOrchestrator_HappyPathAdmitsOperatorOverRealWebRTC(t *testing.T) {
	o, _, outbox, _ := newTestOrchestrator(t, "correct-password")

	operator := newLoopbackOperator(t)
	defer operator.Close()

	controlOpen := make(chan *webrtc.DataChannel, 1)
	operator.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() == "control" {
			dc.OnOpen(func() { controlOpen <- dc })
		}
	})
	operator.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		init := candidate.ToJSON()
		o.OnSignalingMessage(mustMarshal(t, Message{
			Type:          TypeICECandidate,
			Candidate:     init.Candidate,
			SDPMid:        init.SDPMid,
			SDPMLineIndex: init.SDPMLineIndex,
		}))
	})
	outbox.onSend = func(payload []byte) {
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return
		}
		if msg.Type != TypeICECandidate {
			return
		}
		_ = operator.AddICECandidate(webrtc.ICECandidateInit{
			Candidate:     msg.Candidate,
			SDPMid:        msg.SDPMid,
			SDPMLineIndex: msg.SDPMLineIndex,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-1"}))

	offerMsgs := outbox.messagesOfType(TypeSDPOffer)
	deadline := time.Now().Add(5 * time.Second)
	for len(offerMsgs) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		offerMsgs = outbox.messagesOfType(TypeSDPOffer)
	}
	if len(offerMsgs) == 0 {
		t.Fatal("timed out waiting for an sdp_offer on the signaling seam")
	}

	if err := operator.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offerMsgs[0].SDP}); err != nil {
		t.Fatalf("operator SetRemoteDescription: %v", err)
	}
	answer, err := operator.CreateAnswer(nil)
	if err != nil {
		t.Fatalf("operator CreateAnswer: %v", err)
	}
	if err := operator.SetLocalDescription(answer); err != nil {
		t.Fatalf("operator SetLocalDescription: %v", err)
	}

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeSDPAnswer, SDP: operator.LocalDescription().SDP}))

	var dc *webrtc.DataChannel
	select {
	case dc = <-controlOpen:
	case <-time.After(10 * time.Second):
		t.Fatal("control channel never opened on the operator side")
	}

	// Once the control channel is open, sendOutbound prefers it over
	// the signaling seam (spec.md §4.1), so auth_result and the
	// monitor_list reply both arrive here rather than on outbox.
	controlMessages := make(chan []byte, 8)
	dc.OnMessage(func(msg webrtc.DataChannelMessage) { controlMessages <- msg.Data })

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeAuth, Password: "correct-password"}))

	var authResult Message
	deadline = time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case raw := <-controlMessages:
			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("unmarshaling control-channel message: %v", err)
			}
			if msg.Type == TypeAuthResult {
				authResult = msg
			}
		case <-time.After(10 * time.Millisecond):
		}
		if authResult.Type == TypeAuthResult {
			break
		}
	}
	if authResult.Type != TypeAuthResult || authResult.Status != AuthStatusOK {
		t.Fatalf("auth_result = %+v, want exactly one ok", authResult)
	}

	if err := dc.SendText(string(mustMarshal(t, Message{Type: TypeMonitorListRequest}))); err != nil {
		t.Fatalf("operator sending monitor_list_request over control channel: %v", err)
	}

	select {
	case raw := <-controlMessages:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshaling control-channel reply: %v", err)
		}
		if msg.Type != TypeMonitorList {
			t.Fatalf("control-channel reply type = %q, want %q", msg.Type, TypeMonitorList)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for monitor_list over the control channel")
	}
}

func TestOrchestrator_OperatorHelloFromSecondSessionIsBusy(t *testing.T) {
	o, _, outbox, _ := newTestOrchestrator(t, "pw")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-a"}))
	waitForMessages(t, outbox, TypeHostHello, 1)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-b"}))
	waitForMessages(t, outbox, TypeHostBusy, 1)
}

func TestOrchestrator_AuthLockoutAfterFiveFailures(t *testing.T) {
	o, _, outbox, _ := newTestOrchestrator(t, "correct-password")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-1"}))
	waitForMessages(t, outbox, TypeHostHello, 1)

	for i := 1; i <= 4; i++ {
		o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeAuth, Password: "wrong"}))
		waitForMessages(t, outbox, TypeAuthResult, i)
	}
	results := outbox.messagesOfType(TypeAuthResult)
	for i, res := range results {
		if res.Status != AuthStatusInvalid {
			t.Fatalf("attempt %d status = %q, want invalid", i+1, res.Status)
		}
	}

	// Fifth failure trips the lockout.
	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeAuth, Password: "wrong"}))
	waitForMessages(t, outbox, TypeAuthResult, 5)

	// A subsequent attempt, even with the correct password, is refused.
	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeAuth, Password: "correct-password"}))
	waitForMessages(t, outbox, TypeAuthResult, 6)

	results = outbox.messagesOfType(TypeAuthResult)
	locked := results[5]
	if locked.Status != AuthStatusLocked {
		t.Fatalf("sixth auth_result status = %q, want locked", locked.Status)
	}
	wantRetryAfter := lockout.Window.Milliseconds()
	if locked.RetryAfterMs <= 0 || locked.RetryAfterMs > wantRetryAfter {
		t.Fatalf("retry_after_ms = %d, want in (0, %d]", locked.RetryAfterMs, wantRetryAfter)
	}
}

func TestOrchestrator_InputDroppedWhileUnauthenticated(t *testing.T) {
	o, _, outbox, _ := newTestOrchestrator(t, "pw")
	capturer := o.capturer.(*fakeCapturer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-1"}))
	waitForMessages(t, outbox, TypeHostHello, 1)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeInput, Mouse: &input.Mouse{X: 0.5, Y: 0.5}}))
	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeMonitorSwitch, ID: "display-1"}))
	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeMonitorListRequest}))

	time.Sleep(20 * time.Millisecond)

	if len(outbox.messagesOfType(TypeMonitorSwitchResult)) != 0 {
		t.Fatal("monitor_switch_result must not be sent while unauthenticated")
	}
	if len(outbox.messagesOfType(TypeMonitorList)) != 1 {
		t.Fatal("only the hello-time monitor_list should have been sent while unauthenticated")
	}
	if capturer.calls.Load() != 0 {
		t.Fatal("frame loop must not start before authentication")
	}
}

func TestOrchestrator_ICEReofferDebouncedWithinFiveSeconds(t *testing.T) {
	o, _, outbox, fake := newTestOrchestrator(t, "pw")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-1"}))
	waitForMessages(t, outbox, TypeSDPOffer, 1)

	o.OnICEStateChange(webrtc.ICEConnectionStateFailed)
	waitForMessages(t, outbox, TypeSDPOffer, 2)

	fake.Advance(time.Second)
	o.OnICEStateChange(webrtc.ICEConnectionStateFailed)
	time.Sleep(20 * time.Millisecond)
	if len(outbox.messagesOfType(TypeSDPOffer)) != 2 {
		t.Fatal("a second failed state within the debounce window must not trigger another re-offer")
	}

	fake.Advance(5 * time.Second)
	o.OnICEStateChange(webrtc.ICEConnectionStateFailed)
	waitForMessages(t, outbox, TypeSDPOffer, 3)
}

func TestOrchestrator_SignalingDropReleasesLease(t *testing.T) {
	o, _, outbox, _ := newTestOrchestrator(t, "correct-password")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go o.Run(ctx)

	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-1"}))
	waitForMessages(t, outbox, TypeHostHello, 1)
	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeAuth, Password: "correct-password"}))
	waitForMessages(t, outbox, TypeAuthResult, 1)

	o.OnSignalingDrop()

	o.mu.Lock()
	state := o.state
	lease := o.lease
	o.mu.Unlock()

	if state != NoSession || lease != nil {
		t.Fatalf("state = %v, lease = %+v; want NoSession and no lease after a signaling drop", state, lease)
	}

	// A fresh operator_hello for a different session must now be
	// admitted rather than refused as busy.
	o.OnSignalingMessage(mustMarshal(t, Message{Type: TypeOperatorHello, SessionID: "session-2"}))
	waitForMessages(t, outbox, TypeHostHello, 2)
	if len(outbox.messagesOfType(TypeHostBusy)) != 0 {
		t.Fatal("host_busy must not fire for a new lease after the prior one was released")
	}
}

func mustMarshal(t *testing.T, msg Message) []byte {
	t.Helper()
	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshaling %+v: %v", msg, err)
	}
	return raw
}

func waitForMessages(t *testing.T, outbox *outboxSignaling, typ string, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(outbox.messagesOfType(typ)) >= want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d message(s) of type %q", want, typ)
}
