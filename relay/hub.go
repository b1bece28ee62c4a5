// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"log/slog"
	"sync"
)

// hub implements the pairing and fan-out rules from spec.md §4.8: one
// host connection and any number of operator connections share a
// host id; messages from the host fan out to every operator under
// that id, messages from an operator go only to that id's host.
type hub struct {
	logger *slog.Logger

	mu        sync.Mutex
	hosts     map[string]*connection
	operators map[string]map[*connection]struct{}
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		logger:    logger,
		hosts:     make(map[string]*connection),
		operators: make(map[string]map[*connection]struct{}),
	}
}

// registerOperator pairs conn under hostID immediately, per spec.md
// §4.8 ("Operator role: registered immediately using the query
// parameter").
func (h *hub) registerOperator(hostID string, conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.operators[hostID]
	if !ok {
		set = make(map[*connection]struct{})
		h.operators[hostID] = set
	}
	set[conn] = struct{}{}
}

// registerHost installs conn as the host for hostID if no host is
// currently registered under it, matching spec.md §4.8's "idempotent
// per session" rule for the first message that reveals host_id. It
// reports whether conn is now (or already was) the registered host.
func (h *hub) registerHost(hostID string, conn *connection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	existing, ok := h.hosts[hostID]
	if ok {
		return existing == conn
	}
	h.hosts[hostID] = conn
	return true
}

// forwardFromOperator fans message to the single host connection
// registered under hostID, dropping it silently if none is
// registered yet.
func (h *hub) forwardFromOperator(hostID string, message []byte) {
	h.mu.Lock()
	host, ok := h.hosts[hostID]
	h.mu.Unlock()

	if !ok {
		h.logger.Debug("dropping operator message with no registered host", "host_id", hostID)
		return
	}
	host.trySend(message)
}

// forwardFromHost fans message to every operator registered under
// hostID.
func (h *hub) forwardFromHost(hostID string, message []byte) {
	h.mu.Lock()
	set := h.operators[hostID]
	targets := make([]*connection, 0, len(set))
	for conn := range set {
		targets = append(targets, conn)
	}
	h.mu.Unlock()

	for _, conn := range targets {
		conn.trySend(message)
	}
}

// unregister removes conn from whichever map it belongs to. A host
// connection is removed only if it is still the registered host under
// its own hostID (it may have already been superseded, though the
// relay never does that itself today — registerHost always keeps the
// first host).
func (h *hub) unregister(conn *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch conn.role {
	case roleHost:
		if existing, ok := h.hosts[conn.hostID]; ok && existing == conn {
			delete(h.hosts, conn.hostID)
		}
	case roleOperator:
		if set, ok := h.operators[conn.hostID]; ok {
			delete(set, conn)
			if len(set) == 0 {
				delete(h.operators, conn.hostID)
			}
		}
	}
}
