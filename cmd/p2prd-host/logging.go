// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/p2prd/host/config"
)

// newLogger builds the host's structured logger. With no log file
// configured it writes JSON to stderr, matching the relay binary.
// With a log file it writes through a rotatingWriter sized from the
// persisted LoggingConfig, since no third-party rotation library is
// part of this module's dependency surface.
func newLogger(logPath string, logging config.LoggingConfig) (*slog.Logger, func(), error) {
	if logPath == "" {
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
		return logger, func() {}, nil
	}

	writer, err := newRotatingWriter(logPath, logging.MaxBytes, logging.Files)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo}))
	return logger, func() { writer.Close() }, nil
}

// rotatingWriter is an io.WriteCloser that rolls logPath to
// logPath.1, logPath.2, ... (up to files-1 backups) once the current
// file exceeds maxBytes, deleting the oldest backup past that bound.
type rotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxBytes int
	files    int
	file     *os.File
	written  int
}

func newRotatingWriter(path string, maxBytes, files int) (*rotatingWriter, error) {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	if files <= 0 {
		files = 5
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	return &rotatingWriter{
		path:     path,
		maxBytes: maxBytes,
		files:    files,
		file:     file,
		written:  int(info.Size()),
	}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+len(p) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.written += n
	return n, err
}

func (w *rotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	oldest := fmt.Sprintf("%s.%d", w.path, w.files-1)
	os.Remove(oldest)
	for i := w.files - 1; i > 0; i-- {
		src := fmt.Sprintf("%s.%d", w.path, i-1)
		dst := fmt.Sprintf("%s.%d", w.path, i)
		if i == 1 {
			src = w.path
		}
		os.Rename(src, dst)
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	w.file = file
	w.written = 0
	return nil
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

var _ io.WriteCloser = (*rotatingWriter)(nil)
