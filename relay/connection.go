// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection read/write tuning, grounded on the retrieved NexusC2
// hub/client.go pump pattern: a bounded read size, pong-based
// liveness, and a dedicated writer goroutine so writes are never
// interleaved (spec.md §5's "one send mutex" rule).
const (
	maxMessageSize = 64 * 1024
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBuffer     = 32
)

// role discriminates the two relay connection kinds.
type role int

const (
	roleHost role = iota
	roleOperator
)

func (r role) String() string {
	if r == roleHost {
		return "host"
	}
	return "operator"
}

// hostIDProbe extracts host_id from a forwarded message without
// depending on the session package's wire format, keeping relay
// decoupled from the host's message catalogue.
type hostIDProbe struct {
	HostID string `json:"host_id"`
}

// connection wraps one relay WebSocket peer: a host or an operator.
// All writes go through send, guaranteeing they are never interleaved
// on the wire.
type connection struct {
	logger *slog.Logger
	ws     *websocket.Conn
	role   role
	hostID string // known immediately for operators; learned for hosts

	send      chan []byte
	closeOnce sync.Once
}

func newConnection(logger *slog.Logger, ws *websocket.Conn, r role, hostID string) *connection {
	return &connection{
		logger: logger,
		ws:     ws,
		role:   r,
		hostID: hostID,
		send:   make(chan []byte, sendBuffer),
	}
}

// writePump serializes every write to the underlying socket: queued
// application messages, then periodic pings. Returns once send is
// closed or a write fails, closing the socket on its way out.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.ws.SetWriteDeadline(time.Now().Add(writeWait))
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("relay write failed", "role", c.role, "error", err)
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames until the connection closes or errors, handing
// each complete text message to onMessage. gorilla's ReadMessage
// already reassembles fragmented frames into one complete message,
// satisfying spec.md §4.7's reassembly requirement.
func (c *connection) readPump(onMessage func(*connection, []byte)) {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		onMessage(c, message)
	}
}

// trySend queues message for delivery, dropping it if the send buffer
// is full rather than blocking the hub's forwarding path.
func (c *connection) trySend(message []byte) bool {
	select {
	case c.send <- message:
		return true
	default:
		c.logger.Warn("relay connection send buffer full, dropping message", "role", c.role)
		return false
	}
}

// close stops the writer pump, which in turn closes the socket and
// unblocks the reader pump's ReadMessage call. Safe to call more than
// once and from any goroutine.
func (c *connection) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// extractHostID best-effort parses message for a host_id field,
// returning "" if absent or the message is not a JSON object.
func extractHostID(message []byte) string {
	var probe hostIDProbe
	if err := json.Unmarshal(message, &probe); err != nil {
		return ""
	}
	return probe.HostID
}
