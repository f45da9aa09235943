// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package testutil

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/sys/unix"
)

// chownSCMPrefix is the header daemon.Driver's sendChownSCM writes
// ahead of the SCM_RIGHTS ancillary data carrying the far end of the
// credential-passing socketpair.
const chownSCMPrefix = "chown_scm "

// tryHandleChownSCM peeks conn's first bytes to tell a chown_scm
// connection (one short raw message carrying a passed fd) apart from
// an ordinary msgpack-RPC connection, without disturbing the stream
// for the RPC case. It reports whether it claimed and is now handling
// conn.
func (f *FakeDaemon) tryHandleChownSCM(uc *net.UnixConn) bool {
	raw, err := uc.SyscallConn()
	if err != nil {
		return false
	}

	peek := make([]byte, len(chownSCMPrefix))
	var n int
	var peekErr error
	if err := raw.Read(func(fd uintptr) bool {
		n, _, _, _, peekErr = unix.Recvmsg(int(fd), peek, nil, unix.MSG_PEEK)
		// nothing has arrived yet: wait for the client's first bytes
		return peekErr != unix.EAGAIN
	}); err != nil {
		return false
	}
	if peekErr != nil || n < len(peek) || string(peek) != chownSCMPrefix {
		return false
	}

	go f.handleChownSCM(uc)
	return true
}

// handleChownSCM consumes the chown_scm header and its passed fd, then
// drives the daemon side of the credential-passing handshake over that
// fd: ready byte, receive host creds, ready byte, receive namespaced
// creds, final status byte.
func (f *FakeDaemon) handleChownSCM(uc *net.UnixConn) {
	defer uc.Close()

	raw, err := uc.SyscallConn()
	if err != nil {
		return
	}

	buf := make([]byte, 256)
	oob := make([]byte, unix.CmsgSpace(4))
	var n, oobn int
	var rerr error
	if err := raw.Read(func(rawFd uintptr) bool {
		n, oobn, _, _, rerr = unix.Recvmsg(int(rawFd), buf, oob, 0)
		return true
	}); err != nil || rerr != nil {
		return
	}

	scms, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil || len(scms) == 0 {
		return
	}
	fds, err := unix.ParseUnixRights(&scms[0])
	if err != nil || len(fds) == 0 {
		return
	}
	farFd := fds[0]
	defer unix.Close(farFd)

	header := strings.TrimSuffix(string(buf[:n]), "\n")
	fields := strings.Fields(header)
	if len(fields) != 3 {
		return
	}
	controller, path := fields[1], fields[2]

	rec, ok := f.runChownHandshake(farFd)
	if !ok {
		return
	}
	rec.Controller = controller
	rec.Path = path

	f.chownMu.Lock()
	f.chowns = append(f.chowns, rec)
	f.chownMu.Unlock()
}

// runChownHandshake performs every step after the fd hand-off: two
// ready/credential round trips followed by the final status byte.
func (f *FakeDaemon) runChownHandshake(farFd int) (ChownRecord, bool) {
	var rec ChownRecord

	if err := unix.Write(farFd, []byte{0}); err != nil {
		return rec, false
	}

	hostCred, err := recvCreds(farFd)
	if err != nil {
		return rec, false
	}
	rec.HostPID = int(hostCred.Pid)
	rec.HostUID = int(hostCred.Uid)

	if err := unix.Write(farFd, []byte{0}); err != nil {
		return rec, false
	}

	nsCred, err := recvCreds(farFd)
	if err != nil {
		return rec, false
	}
	rec.NamespacedUID = int(nsCred.Uid)

	f.chownMu.Lock()
	status := f.chownStatus
	f.chownMu.Unlock()

	if err := unix.Write(farFd, []byte{status}); err != nil {
		return rec, false
	}
	return rec, true
}

// recvCreds reads the single-byte message and SCM_CREDENTIALS
// ancillary data daemon.sendCreds writes.
func recvCreds(fd int) (*unix.Ucred, error) {
	buf := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(unix.SizeofUcred))

	n, oobn, _, _, err := unix.Recvmsg(fd, buf, oob, 0)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("chown_scm: short credential read")
	}

	scms, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil || len(scms) == 0 {
		return nil, fmt.Errorf("chown_scm: no credentials in ancillary data")
	}
	return unix.ParseUnixCredentials(&scms[0])
}
