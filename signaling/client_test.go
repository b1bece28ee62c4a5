// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// echoServer starts an httptest server that upgrades every request to
// a WebSocket and echoes back every text message it receives.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(messageType, data); err != nil {
				return
			}
		}
	}))
	return server
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestClient_ConnectSendAndReceive(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	received := make(chan []byte, 1)
	client := New(discardLogger(), func(message []byte) {
		received <- message
	}, nil)
	defer client.Close()

	ctx := t.Context()
	if err := client.Connect(ctx, wsURL(server.URL)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := client.Send([]byte(`{"type":"operator_hello","session_id":"S1"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != `{"type":"operator_hello","session_id":"S1"}` {
			t.Fatalf("received %q, want the echoed message", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the echoed message")
	}
}

func TestClient_ConnectReplacesPriorSocket(t *testing.T) {
	server := echoServer(t)
	defer server.Close()

	var disconnects sync.WaitGroup
	disconnects.Add(1)
	client := New(discardLogger(), func([]byte) {}, func(err error) {
		disconnects.Done()
	})
	defer client.Close()

	ctx := t.Context()
	if err := client.Connect(ctx, wsURL(server.URL)); err != nil {
		t.Fatalf("first Connect: %v", err)
	}
	if err := client.Connect(ctx, wsURL(server.URL)); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	done := make(chan struct{})
	go func() {
		disconnects.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("replacing the socket never fired a single disconnect notification for the superseded connection")
	}

	if err := client.Send([]byte("still alive")); err != nil {
		t.Fatalf("Send over the replacement socket: %v", err)
	}
}

func TestClient_SendWithNoConnectionErrors(t *testing.T) {
	client := New(discardLogger(), func([]byte) {}, nil)
	if err := client.Send([]byte("hello")); err == nil {
		t.Fatal("expected an error sending with no active connection")
	}
}

func TestClient_RemoteCloseFiresDisconnect(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer server.Close()

	disconnected := make(chan error, 1)
	client := New(discardLogger(), func([]byte) {}, func(err error) {
		disconnected <- err
	})
	defer client.Close()

	if err := client.Connect(t.Context(), wsURL(server.URL)); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	select {
	case err := <-disconnected:
		if err == nil {
			t.Fatal("expected a non-nil error for a remote close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the disconnect notification")
	}
}
