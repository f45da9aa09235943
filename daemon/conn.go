// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package daemon implements the Daemon Driver backend: the Cgroup
// Driver contract implemented as RPC calls to a privileged, long-lived
// cgroup-management daemon reached over a fixed Unix socket, the way
// cgmanager is reached from an unprivileged container.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"sync"
	"time"

	"github.com/hashicorp/cgroupcore/cgutil"
	"github.com/hashicorp/go-hclog"
	msgpackrpc "github.com/hashicorp/net-rpc-msgpackrpc/v2"
)

// DefaultSocketPath is where the daemon listens, matching the fixed
// path cgmanager's clients dial
// ("unix:path=/sys/fs/cgroup/cgmanager/sock").
const DefaultSocketPath = "/sys/fs/cgroup/cgmanager/sock"

// dialTimeout bounds the initial connect attempt; the daemon is a
// local, already-running process, so a slow dial means it is wedged or
// absent, not merely busy.
const dialTimeout = 2 * time.Second

// ConnectionHandle owns the RPC client to the daemon. A call that hits
// a connection-level error reconnects once and retries itself; after
// Disconnect, calls return ErrDisconnected without redialing.
type ConnectionHandle struct {
	logger hclog.Logger
	path   string

	mu     sync.Mutex
	client *rpc.Client
}

// Connect dials path and pings the daemon once to fail fast if nothing
// is listening, so Init can fail over to the Fs Driver instead of
// blocking.
func Connect(logger hclog.Logger, path string) (*ConnectionHandle, error) {
	if path == "" {
		path = DefaultSocketPath
	}

	h := &ConnectionHandle{logger: logger.Named("conn"), path: path}
	if err := h.reconnect(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *ConnectionHandle) reconnect() error {
	conn, err := net.DialTimeout("unix", h.path, dialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", h.path, err)
	}

	client := msgpackrpc.NewClient(conn)

	var pong string
	if err := client.Call("Verb.Ping", &PingRequest{}, &pong); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping %s: %w", h.path, err)
	}

	h.mu.Lock()
	if h.client != nil {
		_ = h.client.Close()
	}
	h.client = client
	h.mu.Unlock()

	return nil
}

// call invokes method against the current client, reconnecting once
// and retrying on a connection-level failure. h.mu is held across each
// round trip, so calls on one handle never overlap; it is released
// while reconnect dials. ctx is honored only as a cancellation signal
// around the reconnect dial; net/rpc.Client.Call itself is not
// context-aware.
func (h *ConnectionHandle) call(ctx context.Context, method string, args, reply any) error {
	h.mu.Lock()
	if h.client == nil {
		h.mu.Unlock()
		return cgutil.ErrDisconnected
	}
	err := h.client.Call(method, args, reply)
	h.mu.Unlock()

	if err == nil {
		return nil
	}
	if !isConnectionError(err) {
		return err
	}

	h.logger.Warn("daemon connection lost, reconnecting", "error", err)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if rErr := h.reconnect(); rErr != nil {
		return fmt.Errorf("%w: %v", cgutil.ErrDisconnected, rErr)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil {
		return cgutil.ErrDisconnected
	}
	return h.client.Call(method, args, reply)
}

func isConnectionError(err error) bool {
	return errors.Is(err, rpc.ErrShutdown) || errors.Is(err, net.ErrClosed)
}

// Disconnect closes the underlying client. Implements cgutil.Disconnecter.
func (h *ConnectionHandle) Disconnect() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
