// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package testutil

import (
	"net"
	"net/rpc"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/cgroupcore/daemon"
	msgpackrpc "github.com/hashicorp/net-rpc-msgpackrpc/v2"
)

// FakeDaemon is an in-process stand-in for the privileged cgroup
// daemon, serving the same RPC verbs over a Unix socket so
// daemon.Driver can be exercised without a real cgmanager process.
// It keeps an in-memory tree of controller -> path -> (exists, tasks,
// values) instead of touching any real cgroup filesystem.
type FakeDaemon struct {
	listener   net.Listener
	SocketPath string

	mu     sync.Mutex
	paths  map[string]map[string]bool          // controller -> path -> exists
	tasks  map[string]map[string][]int          // controller -> path -> pids
	values map[string]map[string]map[string]string // controller -> path -> key -> value

	chownMu     sync.Mutex
	chownStatus byte
	chowns      []ChownRecord
}

// StartFakeDaemon listens on a temp-dir Unix socket and serves verb
// calls, plus the raw chown_scm credential-passing handshake, until t
// completes.
func StartFakeDaemon(t *testing.T) *FakeDaemon {
	t.Helper()

	socketPath := t.TempDir() + "/cgmanager.sock"
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("fakedaemon: listen: %v", err)
	}

	fd := &FakeDaemon{
		SocketPath:  socketPath,
		paths:       make(map[string]map[string]bool),
		tasks:       make(map[string]map[string][]int),
		values:      make(map[string]map[string]map[string]string),
		chownStatus: '1',
	}
	fd.serve(t, l)

	t.Cleanup(func() {
		fd.Stop()
		_ = os.RemoveAll(socketPath)
	})

	return fd
}

// serve registers the RPC verb handlers against l and starts accepting
// connections in the background, routing each to either the chown_scm
// raw handshake or the ordinary msgpack-RPC codec.
func (f *FakeDaemon) serve(t *testing.T, l net.Listener) {
	t.Helper()

	f.mu.Lock()
	f.listener = l
	f.mu.Unlock()

	server := rpc.NewServer()
	if err := server.RegisterName("Verb", (*fakeVerb)(f)); err != nil {
		t.Fatalf("fakedaemon: register: %v", err)
	}

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}

			uc, ok := conn.(*net.UnixConn)
			if ok && f.tryHandleChownSCM(uc) {
				continue
			}
			go server.ServeCodec(msgpackrpc.NewServerCodec(conn))
		}
	}()
}

// Stop closes the fake daemon's listener, simulating the daemon
// process going away out from under an established connection.
func (f *FakeDaemon) Stop() {
	f.mu.Lock()
	l := f.listener
	f.mu.Unlock()
	if l != nil {
		_ = l.Close()
	}
}

// Resume re-listens on SocketPath and resumes serving, simulating the
// daemon coming back after Stop. In-memory state (paths, tasks,
// values) survives across Stop/Resume, the same as a restarted daemon
// that persists its cgroup tree on disk.
func (f *FakeDaemon) Resume(t *testing.T) {
	t.Helper()

	l, err := net.Listen("unix", f.SocketPath)
	if err != nil {
		t.Fatalf("fakedaemon: resume listen: %v", err)
	}
	f.serve(t, l)
}

// Seed marks path as already existing under controller, so a
// subsequent Create call reports it as a collision. Used by tests to
// exercise the Path Planner's retry behavior against the fake daemon.
func (f *FakeDaemon) Seed(controller, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	byPath := f.paths[controller]
	if byPath == nil {
		byPath = make(map[string]bool)
		f.paths[controller] = byPath
	}
	byPath[path] = true
}

// SetChownStatus sets the final status byte the fake daemon replies
// with at the end of the chown_scm handshake. Defaults to '1'
// (success); tests exercising the failure path set it to anything
// else.
func (f *FakeDaemon) SetChownStatus(status byte) {
	f.chownMu.Lock()
	defer f.chownMu.Unlock()
	f.chownStatus = status
}

// ChownRecord captures one completed chown_scm handshake, as observed
// by the fake daemon: the controller/path target and the credentials
// carried by each of the two credential sends.
type ChownRecord struct {
	Controller    string
	Path          string
	HostPID       int
	HostUID       int
	NamespacedUID int
}

// ChownRecords returns every chown_scm handshake the fake daemon has
// completed so far, in completion order.
func (f *FakeDaemon) ChownRecords() []ChownRecord {
	f.chownMu.Lock()
	defer f.chownMu.Unlock()
	return append([]ChownRecord(nil), f.chowns...)
}

// fakeVerb is FakeDaemon viewed as the "Verb" RPC receiver net/rpc
// dispatches onto; it is a distinct type only so FakeDaemon's own
// exported surface stays free of RPC-shaped method signatures.
type fakeVerb FakeDaemon

func (f *fakeVerb) Ping(_ *daemon.PingRequest, reply *string) error {
	*reply = "pong"
	return nil
}

func (f *fakeVerb) Create(req *daemon.CreateRequest, reply *daemon.CreateResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byPath := f.paths[req.Controller]
	if byPath == nil {
		byPath = make(map[string]bool)
		f.paths[req.Controller] = byPath
	}

	if byPath[req.Path] {
		reply.Existed = true
		return nil
	}
	byPath[req.Path] = true
	reply.Existed = false
	return nil
}

func (f *fakeVerb) Remove(req *daemon.RemoveRequest, _ *struct{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byPath := f.paths[req.Controller]
	for p := range byPath {
		if p == req.Path || (req.Recursive && strings.HasPrefix(p, req.Path+"/")) {
			delete(byPath, p)
		}
	}
	return nil
}

func (f *fakeVerb) Chmod(_ *daemon.ChmodRequest, _ *struct{}) error {
	return nil
}

func (f *fakeVerb) MovePid(req *daemon.MovePidRequest, _ *struct{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byPath := f.tasks[req.Controller]
	if byPath == nil {
		byPath = make(map[string][]int)
		f.tasks[req.Controller] = byPath
	}
	byPath[req.Path] = append(byPath[req.Path], req.Pid)
	return nil
}

func (f *fakeVerb) MovePidAbs(_ *daemon.MovePidAbsRequest, _ *struct{}) error {
	return nil
}

func (f *fakeVerb) SetValue(req *daemon.SetValueRequest, _ *struct{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	byPath := f.values[req.Controller]
	if byPath == nil {
		byPath = make(map[string]map[string]string)
		f.values[req.Controller] = byPath
	}
	byKey := byPath[req.Path]
	if byKey == nil {
		byKey = make(map[string]string)
		byPath[req.Path] = byKey
	}
	byKey[req.Key] = req.Value
	return nil
}

func (f *fakeVerb) GetValue(req *daemon.GetValueRequest, reply *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	*reply = f.values[req.Controller][req.Path][req.Key]
	return nil
}

func (f *fakeVerb) GetTasks(req *daemon.GetTasksRequest, reply *daemon.GetTasksResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	reply.Pids = append([]int(nil), f.tasks[req.Controller][req.Path]...)
	return nil
}
