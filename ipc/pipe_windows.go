// Copyright 2026 The p2prd Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package ipc

import (
	"fmt"
	"net"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	pipeBufferSize = 65536
	pipeNamePrefix = `\\.\pipe\`

	// sddl grants full access to SYSTEM and built-in Administrators
	// only, matching the spec's "authenticated by OS-level ACL" rule
	// for the config channel.
	pipeSecurityDescriptor = "D:P(A;;GA;;;SY)(A;;GA;;;BA)"
)

// newListener opens a Windows named pipe restricted to SYSTEM and
// Administrators by security descriptor.
func newListener(name string) (net.Listener, error) {
	sd, err := windows.SecurityDescriptorFromString(pipeSecurityDescriptor)
	if err != nil {
		return nil, fmt.Errorf("ipc: parsing security descriptor: %w", err)
	}

	sa := &windows.SecurityAttributes{
		Length:             uint32(unsafe.Sizeof(windows.SecurityAttributes{})),
		SecurityDescriptor: sd,
	}

	return &namedPipeListener{
		path:    pipeNamePrefix + name,
		sa:      sa,
		closeCh: make(chan struct{}),
	}, nil
}

type namedPipeListener struct {
	path string
	sa   *windows.SecurityAttributes

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

func (l *namedPipeListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, net.ErrClosed
	}
	l.mu.Unlock()

	pathPtr, err := windows.UTF16PtrFromString(l.path)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateNamedPipe(
		pathPtr,
		windows.PIPE_ACCESS_DUPLEX,
		windows.PIPE_TYPE_BYTE|windows.PIPE_READMODE_BYTE|windows.PIPE_WAIT,
		windows.PIPE_UNLIMITED_INSTANCES,
		pipeBufferSize,
		pipeBufferSize,
		0,
		l.sa,
	)
	if err != nil {
		return nil, fmt.Errorf("ipc: CreateNamedPipe: %w", err)
	}

	connected := make(chan error, 1)
	go func() {
		connected <- windows.ConnectNamedPipe(handle, nil)
	}()

	select {
	case err := <-connected:
		if err != nil && err != windows.ERROR_PIPE_CONNECTED {
			windows.CloseHandle(handle)
			return nil, fmt.Errorf("ipc: ConnectNamedPipe: %w", err)
		}
		return &pipeConn{handle: handle, path: l.path}, nil
	case <-l.closeCh:
		windows.CloseHandle(handle)
		return nil, net.ErrClosed
	}
}

func (l *namedPipeListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	close(l.closeCh)
	return nil
}

func (l *namedPipeListener) Addr() net.Addr { return pipeAddr(l.path) }

type pipeAddr string

func (a pipeAddr) Network() string { return "pipe" }
func (a pipeAddr) String() string  { return string(a) }

// pipeConn wraps a connected named pipe instance as a net.Conn. Named
// pipes opened in PIPE_WAIT (blocking) mode without
// FILE_FLAG_OVERLAPPED support synchronous ReadFile/WriteFile
// directly, so no overlapped-I/O bookkeeping is needed here.
type pipeConn struct {
	handle windows.Handle
	path   string

	mu     sync.Mutex
	closed bool
}

func (c *pipeConn) Read(b []byte) (int, error) {
	var n uint32
	err := windows.ReadFile(c.handle, b, &n, nil)
	if err != nil {
		return int(n), err
	}
	return int(n), nil
}

func (c *pipeConn) Write(b []byte) (int, error) {
	var n uint32
	err := windows.WriteFile(c.handle, b, &n, nil)
	if err != nil {
		return int(n), err
	}
	return int(n), nil
}

func (c *pipeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	windows.DisconnectNamedPipe(c.handle)
	return windows.CloseHandle(c.handle)
}

func (c *pipeConn) LocalAddr() net.Addr  { return pipeAddr(c.path) }
func (c *pipeConn) RemoteAddr() net.Addr { return pipeAddr(c.path) }

func (c *pipeConn) SetDeadline(t time.Time) error      { return nil }
func (c *pipeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *pipeConn) SetWriteDeadline(t time.Time) error { return nil }
