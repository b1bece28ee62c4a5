// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Handler is invoked once per complete text message received on the
// connection, in the order frames arrived.
type Handler func(message []byte)

// DisconnectFunc is invoked when the connection is lost, whether by a
// graceful remote close, a read error, or Close being called locally.
// err is nil only for a local Close.
type DisconnectFunc func(err error)

// Client maintains at most one outbound WebSocket to the relay.
// Connect replaces any prior socket. There is one send mutex so text
// frames are never interleaved, and a single-consumer read loop per
// connection.
type Client struct {
	logger       *slog.Logger
	handler      Handler
	onDisconnect DisconnectFunc

	mu     sync.Mutex
	conn   *websocket.Conn
	sendMu sync.Mutex
	epoch  uint64 // incremented on every Connect; stale read loops exit quietly
}

// New returns a Client with no active connection. handler is called
// from the read loop's goroutine for every complete message;
// onDisconnect is called exactly once per connection when it drops.
func New(logger *slog.Logger, handler Handler, onDisconnect DisconnectFunc) *Client {
	return &Client{logger: logger, handler: handler, onDisconnect: onDisconnect}
}

// Connect closes any existing connection and dials uri, starting a
// fresh read loop. It returns once the WebSocket handshake completes;
// message delivery happens asynchronously via handler.
func (c *Client) Connect(ctx context.Context, uri string) error {
	c.mu.Lock()
	prior := c.conn
	c.conn = nil
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()

	if prior != nil {
		_ = prior.Close()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, uri, nil)
	if err != nil {
		return fmt.Errorf("signaling: dialing %s: %w", uri, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn, epoch)
	c.logger.Info("signaling connected", "uri", uri)
	return nil
}

// Send writes message as a single WebSocket text frame. Returns an
// error if there is no active connection.
func (c *Client) Send(message []byte) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("signaling: not connected")
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return fmt.Errorf("signaling: writing message: %w", err)
	}
	return nil
}

// Close closes the active connection, if any, and fires onDisconnect
// with a nil error. The superseded read loop exits quietly without
// firing a second notification.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.epoch++
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	if c.onDisconnect != nil {
		c.onDisconnect(nil)
	}
	return err
}

// readLoop reassembles and dispatches complete text messages until
// the connection errors or closes, then fires onDisconnect exactly
// once. gorilla/websocket's ReadMessage already reassembles
// continuation frames into one complete message.
func (c *Client) readLoop(conn *websocket.Conn, epoch uint64) {
	var disconnectErr error
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			disconnectErr = err
			break
		}
		if messageType != websocket.TextMessage {
			c.logger.Debug("ignoring non-text signaling frame", "type", messageType)
			continue
		}
		c.handler(data)
	}

	c.mu.Lock()
	stale := c.epoch != epoch
	if !stale {
		c.conn = nil
	}
	c.mu.Unlock()

	if stale {
		// Connect or Close already superseded this connection and will
		// have its own disconnect notification path, if any.
		return
	}

	c.logger.Warn("signaling disconnected", "error", disconnectErr)
	if c.onDisconnect != nil {
		c.onDisconnect(disconnectErr)
	}
}
