// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/p2prd/host/clock"
)

// InitialBackoff and MaxBackoff bound the resolver's exponential
// backoff on consecutive fetch failures, per spec.md §4.7.
const (
	InitialBackoff  = 5 * time.Second
	MaxBackoff      = 5 * time.Minute
	defaultInterval = 5 * time.Minute
)

// resolverResponse is the resolver endpoint's JSON body:
// {"url": "wss://signaling.example/ws"}.
type resolverResponse struct {
	URL string `json:"url"`
}

// ConnectFunc is called whenever the resolver determines the host
// should (re)connect: the returned endpoint differs from the current
// one, or the caller reports the socket is not currently connected.
type ConnectFunc func(ctx context.Context, endpoint string) error

// Resolver periodically re-derives the signaling endpoint from a
// configured URL and drives reconnects when it changes. If the
// configured URL is itself an absolute ws(s):// URI, HTTP is bypassed
// entirely and that URI is used directly — useful for local
// deployments with a fixed relay address.
type Resolver struct {
	logger      *slog.Logger
	clock       clock.Clock
	client      *http.Client
	interval    time.Duration
	connect     ConnectFunc
	isConnected func() bool

	current string
}

// NewResolver returns a Resolver. connect is invoked to (re)establish
// the signaling connection; isConnected reports whether the current
// connection is believed healthy (used to trigger a reconnect even
// when the resolved endpoint is unchanged).
func NewResolver(logger *slog.Logger, clk clock.Clock, connect ConnectFunc, isConnected func() bool) *Resolver {
	return &Resolver{
		logger:      logger,
		clock:       clk,
		client:      &http.Client{Timeout: 10 * time.Second},
		interval:    defaultInterval,
		connect:     connect,
		isConnected: isConnected,
	}
}

// Run polls resolverURL every r.interval (immediately on entry) until
// ctx is canceled. resolverURL may be an HTTP(S) resolver endpoint or
// an absolute ws(s):// URI to use verbatim.
func (r *Resolver) Run(ctx context.Context, resolverURL string) {
	backoff := InitialBackoff

	for {
		endpoint, err := r.resolve(ctx, resolverURL)
		if err != nil {
			r.logger.Warn("resolver fetch failed", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-r.clock.After(backoff):
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = InitialBackoff

		if endpoint != r.current || !r.isConnected() {
			r.logger.Info("resolver triggering (re)connect", "endpoint", endpoint)
			if err := r.connect(ctx, endpoint); err != nil {
				r.logger.Warn("connect failed", "endpoint", endpoint, "error", err)
			} else {
				r.current = endpoint
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(r.interval):
		}
	}
}

// resolve returns resolverURL unchanged if it is already an absolute
// ws(s):// URI; otherwise it HTTP-GETs resolverURL and extracts the
// "url" field.
func (r *Resolver) resolve(ctx context.Context, resolverURL string) (string, error) {
	if strings.HasPrefix(resolverURL, "ws://") || strings.HasPrefix(resolverURL, "wss://") {
		return resolverURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolverURL, nil)
	if err != nil {
		return "", fmt.Errorf("signaling: building resolver request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("signaling: fetching resolver endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signaling: resolver returned status %d", resp.StatusCode)
	}

	var body resolverResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("signaling: decoding resolver response: %w", err)
	}
	if body.URL == "" {
		return "", fmt.Errorf("signaling: resolver response missing url field")
	}
	return body.URL, nil
}

// nextBackoff doubles d, capped at MaxBackoff.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}
