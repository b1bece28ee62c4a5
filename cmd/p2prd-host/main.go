// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

// p2prd-host is the unattended remote-desktop host process: it
// authenticates a single operator over a signaling relay, negotiates
// a WebRTC connection, and streams captured frames while relaying
// input back to the desktop.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/pion/webrtc/v4"

	"github.com/p2prd/host/capture"
	"github.com/p2prd/host/clock"
	"github.com/p2prd/host/config"
	"github.com/p2prd/host/desktop"
	"github.com/p2prd/host/input"
	"github.com/p2prd/host/ipc"
	"github.com/p2prd/host/lockout"
	"github.com/p2prd/host/monitor"
	"github.com/p2prd/host/session"
	"github.com/p2prd/host/signaling"
	"github.com/p2prd/host/watcher"
	"github.com/p2prd/host/webrtccore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		logPath    string
		ipcName    string
	)
	flag.StringVar(&configPath, "config", defaultConfigPath(), "path to the host's config file")
	flag.StringVar(&logPath, "log-file", "", "path to a rotating log file (stderr if empty)")
	flag.StringVar(&ipcName, "ipc-name", "P2PRD.Config", "IPC pipe/socket name for the config surface")
	flag.Parse()

	store, err := config.Open(configPath)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	logger, closeLog, err := newLogger(logPath, store.Snapshot().Logging)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	monitors, err := monitor.New()
	if err != nil {
		return fmt.Errorf("enumerating monitors: %w", err)
	}
	switcher := desktop.New()
	injector := input.New(switcher, monitors, input.NewBackend(), logger)
	capturer := capture.New(monitors, switcher, capture.NewBackend(), nil, clk, logger)
	lockoutEngine := lockout.New(store, clk)
	conn := webrtccore.New(logger)

	// signaling.New and session.New each need the other's receiver, so
	// the signaling handler closes over a pointer that's filled in once
	// the Orchestrator exists; nothing invokes it before then.
	var orchestrator *session.Orchestrator
	signalingClient := signaling.New(logger,
		func(message []byte) { orchestrator.OnSignalingMessage(message) },
		func(error) { orchestrator.OnSignalingDrop() },
	)

	orchestrator = session.New(
		logger, clk, lockoutEngine, store, monitors, injector, conn, capturer,
		iceServersFromConfig(store.Snapshot()),
		signalingClient.Send,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		orchestrator.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runICEConfigWatch(ctx, store, orchestrator)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runResolverLoop(ctx, logger, clk, store, signalingClient)
	}()

	consoleWatcher := watcher.New(logger, clk, func(tr watcher.Transition) {
		logger.Info("console session transition", "previous", tr.PreviousSessionID, "current", tr.CurrentSessionID)
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		consoleWatcher.Run(ctx)
	}()

	ipcServer := ipc.NewServer(ipcName, logger)
	ipc.RegisterConfigHandlers(ipcServer, store)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := ipcServer.Serve(ctx); err != nil {
			logger.Error("ipc server exited", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	_ = signalingClient.Close()
	wg.Wait()
	return nil
}

// runICEConfigWatch keeps the Orchestrator's ICE server list current
// with the Config Store, per SPEC_FULL.md's config-change-notification
// addendum: re-subscribe after every fired generation channel.
func runICEConfigWatch(ctx context.Context, store *config.Store, orchestrator *session.Orchestrator) {
	for {
		changed := store.Subscribe()
		select {
		case <-ctx.Done():
			return
		case <-changed:
			orchestrator.SetICEServers(iceServersFromConfig(store.Snapshot()))
		}
	}
}

// runResolverLoop restarts the Resolver's polling loop whenever the
// configured resolver URL changes, since Resolver.Run takes the URL
// as a fixed argument rather than reading the Store itself.
func runResolverLoop(ctx context.Context, logger *slog.Logger, clk clock.Clock, store *config.Store, client *signaling.Client) {
	var connected atomic.Bool

	resolver := signaling.NewResolver(logger, clk,
		func(ctx context.Context, endpoint string) error {
			if err := client.Connect(ctx, endpoint); err != nil {
				connected.Store(false)
				return err
			}
			connected.Store(true)
			return nil
		},
		connected.Load,
	)

	for {
		url := store.Snapshot().SignalingResolverURL
		runCtx, cancel := context.WithCancel(ctx)

		done := make(chan struct{})
		go func() {
			defer close(done)
			if url != "" {
				resolver.Run(runCtx, url)
			} else {
				<-runCtx.Done()
			}
		}()

		changed := store.Subscribe()
		select {
		case <-ctx.Done():
			cancel()
			<-done
			return
		case <-changed:
			cancel()
			<-done
		}
	}
}

// iceServersFromConfig translates the persisted STUN/TURN
// configuration into pion's ICEServer list.
func iceServersFromConfig(cfg config.Config) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(cfg.STUN)+1)
	for _, url := range cfg.STUN {
		servers = append(servers, webrtc.ICEServer{URLs: []string{url}})
	}
	if cfg.TURN.URL != "" {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{cfg.TURN.URL},
			Username:   cfg.TURN.Username,
			Credential: cfg.TURN.Credential,
		})
	}
	return servers
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "p2prd-host.json"
	}
	return dir + "/p2prd/host.json"
}
