// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// p2prd-relay runs the signaling relay: a single WebSocket endpoint
// that pairs a host connection with any number of operator
// connections sharing a host id and forwards messages between them
// without interpreting them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/p2prd/host/clock"
	"github.com/p2prd/host/relay"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		listenAddr      string
		shutdownTimeout time.Duration
	)
	flag.StringVar(&listenAddr, "listen", ":8443", "address to listen on")
	flag.DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "time allowed for in-flight connections to drain on shutdown")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", listenAddr, err)
	}

	server := &http.Server{
		Handler: relay.New(logger, clock.Real()),
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("relay listening", "addr", listener.Addr())
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errs <- err
			return
		}
		errs <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
