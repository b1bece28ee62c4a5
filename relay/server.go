// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/p2prd/host/clock"
)

// upgrader accepts connections from any origin: the relay pairs
// browser-hosted operators with native hosts and has no notion of a
// single trusted origin, matching spec.md §4.8.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type welcomeMessage struct {
	Type string `json:"type"`
	Role string `json:"role"`
}

// Server is the relay's HTTP surface: a single /ws endpoint pairing
// hosts and operators, and a /health probe.
type Server struct {
	logger  *slog.Logger
	hub     *hub
	limiter *rateLimiter
	mux     *http.ServeMux
}

// New returns a Server ready to be used as an http.Handler.
func New(logger *slog.Logger, clk clock.Clock) *Server {
	s := &Server{
		logger:  logger,
		hub:     newHub(logger),
		limiter: newRateLimiter(clk),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleWebSocket implements spec.md §4.8: /ws?role=host|operator and,
// for operators, &hostId=<uuid>. Accepts are rate-limited per remote
// IP before the handshake is attempted.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(remoteIP(r)) {
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	roleParam := r.URL.Query().Get("role")
	var connRole role
	switch roleParam {
	case "host":
		connRole = roleHost
	case "operator":
		connRole = roleOperator
	default:
		http.Error(w, `role must be "host" or "operator"`, http.StatusBadRequest)
		return
	}

	hostID := r.URL.Query().Get("hostId")
	if connRole == roleOperator {
		if hostID == "" {
			http.Error(w, "hostId is required for role=operator", http.StatusBadRequest)
			return
		}
		if _, err := uuid.Parse(hostID); err != nil {
			http.Error(w, "hostId must be a uuid", http.StatusBadRequest)
			return
		}
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("relay upgrade failed", "error", err)
		return
	}

	conn := newConnection(s.logger, ws, connRole, hostID)
	if connRole == roleOperator {
		s.hub.registerOperator(hostID, conn)
	}

	s.logger.Info("relay connection accepted", "role", connRole, "host_id", hostID, "remote", remoteIP(r))

	go conn.writePump()
	s.sendWelcome(conn)
	s.readLoop(conn)
}

func (s *Server) sendWelcome(conn *connection) {
	payload, err := json.Marshal(welcomeMessage{Type: "welcome", Role: conn.role.String()})
	if err != nil {
		return
	}
	conn.trySend(payload)
}

// readLoop dispatches every message conn receives, establishing host
// pairing on the first message that reveals host_id, then runs until
// the connection drops, unregistering it from the hub on the way out.
func (s *Server) readLoop(conn *connection) {
	defer func() {
		s.hub.unregister(conn)
		conn.close()
	}()

	conn.readPump(func(conn *connection, message []byte) {
		if conn.role == roleHost && conn.hostID == "" {
			if id := extractHostID(message); id != "" {
				conn.hostID = id
				s.hub.registerHost(id, conn)
				s.logger.Info("relay host registered", "host_id", id)
			}
		}
		if conn.hostID == "" {
			s.logger.Debug("dropping message from unpaired connection", "role", conn.role)
			return
		}

		switch conn.role {
		case roleHost:
			s.hub.forwardFromHost(conn.hostID, message)
		case roleOperator:
			s.hub.forwardFromOperator(conn.hostID, message)
		}
	})
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
