// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/p2prd/host/config"
	"github.com/p2prd/host/credential"
	"github.com/p2prd/host/secret"
)

// RegisterConfigHandlers wires the status / set_password / set_resolver
// / set_ice request types against store, matching the request and
// response shapes in the external interfaces. set_password clears any
// standing lockout, since a password rotation makes it moot.
func RegisterConfigHandlers(server *Server, store *config.Store) {
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		cfg := store.Snapshot()

		response := statusResponse{
			HostID:               cfg.HostID,
			HasPassword:          cfg.PasswordHash != "",
			SignalingResolverURL: cfg.SignalingResolverURL,
			STUN:                 cfg.STUN,
		}
		if cfg.TURN.URL != "" {
			response.TURN = &turnResponse{
				URL:        cfg.TURN.URL,
				Username:   cfg.TURN.Username,
				Credential: cfg.TURN.Credential,
			}
		}
		return response, nil
	})

	server.Handle("set_password", func(ctx context.Context, raw []byte) (any, error) {
		var req setPasswordRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, ErrException
		}
		if req.Password == "" {
			return nil, ErrEmptyPassword
		}

		plaintext, err := secret.NewFromBytes([]byte(req.Password))
		if err != nil {
			return nil, fmt.Errorf("ipc: buffering password: %w", err)
		}
		req.Password = ""
		defer plaintext.Close()

		hash, err := credential.Hash(plaintext.String())
		if err != nil {
			return nil, fmt.Errorf("ipc: hashing password: %w", err)
		}

		if err := store.Mutate(func(cfg config.Config) config.Config {
			cfg.PasswordHash = hash
			cfg.Lockout = config.LockoutState{}
			return cfg
		}); err != nil {
			return nil, err
		}

		return okResponse{Status: "ok"}, nil
	})

	server.Handle("set_resolver", func(ctx context.Context, raw []byte) (any, error) {
		var req setResolverRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, ErrException
		}
		if req.ResolverURL == "" {
			return nil, ErrEmptyResolver
		}

		if err := store.Mutate(func(cfg config.Config) config.Config {
			cfg.SignalingResolverURL = req.ResolverURL
			return cfg
		}); err != nil {
			return nil, err
		}
		return okResponse{Status: "ok"}, nil
	})

	server.Handle("set_ice", func(ctx context.Context, raw []byte) (any, error) {
		var req setICERequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, ErrException
		}
		if len(req.STUN) == 0 && req.TURNURL == "" {
			return nil, ErrEmptyICE
		}

		if err := store.Mutate(func(cfg config.Config) config.Config {
			cfg.STUN = req.STUN
			cfg.TURN = config.TURNConfig{
				URL:        req.TURNURL,
				Username:   req.TURNUsername,
				Credential: req.TURNCredential,
			}
			return cfg
		}); err != nil {
			return nil, err
		}
		return okResponse{Status: "ok"}, nil
	})
}
