// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/p2prd/host/config"
	"github.com/p2prd/host/testutil"
)

func newConfigTestServer(t *testing.T) (*Server, string, *config.Store) {
	t.Helper()
	store, err := config.Open(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("config.Open: %v", err)
	}

	name := testutil.UniqueID("p2prd-ipc-config-test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(name, logger)
	RegisterConfigHandlers(server, store)
	return server, name, store
}

func roundTrip(t *testing.T, name string, request string) []byte {
	t.Helper()
	conn := dialTestServer(t, name)
	defer conn.Close()

	if _, err := conn.Write([]byte(request + "\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}
	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return line
}

func TestRegisterConfigHandlers_Status(t *testing.T) {
	server, name, store := newConfigTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()

	line := roundTrip(t, name, `{"type":"status"}`)

	var got statusResponse
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.HostID != store.Snapshot().HostID {
		t.Fatalf("host ID mismatch: %q != %q", got.HostID, store.Snapshot().HostID)
	}
	if got.HasPassword {
		t.Fatal("expected no password configured on a fresh store")
	}
}

func TestRegisterConfigHandlers_SetPassword(t *testing.T) {
	server, name, store := newConfigTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()

	line := roundTrip(t, name, `{"type":"set_password","password":"secret"}`)

	var got okResponse
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Status != "ok" {
		t.Fatalf("status = %q, want ok", got.Status)
	}
	if store.Snapshot().PasswordHash == "" {
		t.Fatal("expected password hash to be persisted")
	}
}

func TestRegisterConfigHandlers_SetPasswordEmptyRejected(t *testing.T) {
	server, name, _ := newConfigTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()

	line := roundTrip(t, name, `{"type":"set_password","password":""}`)

	var got errorResponse
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Error != ErrEmptyPassword {
		t.Fatalf("error = %q, want %q", got.Error, ErrEmptyPassword)
	}
}

func TestRegisterConfigHandlers_SetResolver(t *testing.T) {
	server, name, store := newConfigTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()

	line := roundTrip(t, name, `{"type":"set_resolver","resolver_url":"https://resolver.example/host"}`)

	var got okResponse
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Status != "ok" {
		t.Fatalf("status = %q, want ok", got.Status)
	}
	if store.Snapshot().SignalingResolverURL != "https://resolver.example/host" {
		t.Fatal("expected resolver URL to be persisted")
	}
}

func TestRegisterConfigHandlers_SetICE(t *testing.T) {
	server, name, store := newConfigTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()

	line := roundTrip(t, name, `{"type":"set_ice","stun":["stun:stun.example:3478"],"turn_url":"turn:turn.example:3478","turn_username":"u","turn_credential":"c"}`)

	var got okResponse
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Status != "ok" {
		t.Fatalf("status = %q, want ok", got.Status)
	}

	snapshot := store.Snapshot()
	if len(snapshot.STUN) != 1 || snapshot.STUN[0] != "stun:stun.example:3478" {
		t.Fatalf("unexpected STUN list: %v", snapshot.STUN)
	}
	if snapshot.TURN.URL != "turn:turn.example:3478" {
		t.Fatalf("unexpected TURN config: %+v", snapshot.TURN)
	}
}

func TestRegisterConfigHandlers_SetICEEmptyRejected(t *testing.T) {
	server, name, _ := newConfigTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	defer func() { cancel(); <-done }()

	line := roundTrip(t, name, `{"type":"set_ice","stun":[],"turn_url":""}`)

	var got errorResponse
	if err := json.Unmarshal(line, &got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Error != ErrEmptyICE {
		t.Fatalf("error = %q, want %q", got.Error, ErrEmptyICE)
	}
}
