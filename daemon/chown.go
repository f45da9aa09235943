// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"path"

	"github.com/hashicorp/cgroupcore/cgutil"
	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
)

// chownMode is applied to the cgroup directory and its tasks /
// cgroup.procs files once the handshake succeeds, so the container's
// in-namespace root can create and populate sub-cgroups.
const chownMode = 0o775

// Chown performs the credential-passing handshake once per known
// controller, chowning cg's cgroup tree into the user namespace idMap
// describes. A nil/empty idMap is a no-op: its presence is what gates
// whether a cross-namespace chown is attempted at all.
func (d *Driver) Chown(ctx context.Context, cg *cgutil.ContainerCgroup, idMap []cgutil.IDMapEntry) error {
	if len(idMap) == 0 {
		return nil
	}

	targetUID := int(idMap[0].HostID)
	full := path.Join(d.group, cg.RelPath)

	var result *multierror.Error
	for _, controller := range d.controllers.Slice() {
		if err := d.chownOne(ctx, controller, full, targetUID); err != nil {
			d.logger.Warn("chown failed", "controller", controller, "path", full, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", controller, err))
		}
	}
	return result.ErrorOrNil()
}

// chownOne drives the handshake for a single controller's copy of the
// cgroup tree, the same send_creds / get_scm_cred sequence cgmanager
// uses.
func (d *Driver) chownOne(ctx context.Context, controller, relPath string, targetUID int) error {
	pair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_DGRAM, 0)
	if err != nil {
		return fmt.Errorf("socketpair: %w", err)
	}
	nearFd, farFd := pair[0], pair[1]
	defer unix.Close(nearFd)

	for _, fd := range pair {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_PASSCRED, 1); err != nil {
			unix.Close(farFd)
			return fmt.Errorf("SO_PASSCRED: %w", err)
		}
	}

	// Step 1: hand the far end to the daemon. chown_scm is the one
	// verb that cannot ride the ordinary msgpack-RPC codec, since it
	// must carry SCM_RIGHTS ancillary data; it goes out over its own
	// short-lived raw connection instead.
	if err := d.sendChownSCM(controller, relPath, farFd); err != nil {
		unix.Close(farFd)
		return fmt.Errorf("chown_scm: %w", err)
	}
	unix.Close(farFd)

	// Step 2: daemon ready byte.
	if _, err := readByte(nearFd); err != nil {
		return fmt.Errorf("await ready: %w", err)
	}

	// Step 3: first credential send, proving the real host identity.
	if err := sendCreds(nearFd, os.Getpid(), os.Getuid(), os.Getgid()); err != nil {
		return fmt.Errorf("send host creds: %w", err)
	}

	// Step 4: second daemon ready byte.
	if _, err := readByte(nearFd); err != nil {
		return fmt.Errorf("await second ready: %w", err)
	}

	// Step 5: second credential send, made by a helper process
	// (nsexec_linux.go) running as targetUID with gid 0, carrying the
	// namespace-mapped uid. The helper does not enter a user namespace.
	if err := sendNamespacedCreds(nearFd, targetUID); err != nil {
		return fmt.Errorf("send namespaced creds: %w", err)
	}

	// Step 6: final status byte, '1' on success.
	status, err := readByte(nearFd)
	if err != nil {
		return fmt.Errorf("await status: %w", err)
	}
	if status != '1' {
		return cgutil.ErrChownFailed
	}

	return d.widenPermissions(ctx, controller, relPath)
}

// sendChownSCM passes farFd to the daemon over a short-lived raw
// connection to the same socket, carrying the controller/path target
// as a small plaintext header ahead of the SCM_RIGHTS ancillary data.
func (d *Driver) sendChownSCM(controller, relPath string, farFd int) error {
	conn, err := net.Dial("unix", d.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return fmt.Errorf("%s: not a unix socket", d.socketPath)
	}

	f, err := uc.File()
	if err != nil {
		return err
	}
	defer f.Close()

	header := []byte(fmt.Sprintf("chown_scm %s %s\n", controller, relPath))
	oob := unix.UnixRights(farFd)
	return unix.Sendmsg(int(f.Fd()), header, oob, nil, 0)
}

func readByte(fd int) (byte, error) {
	buf := make([]byte, 1)
	n, err := unix.Read(fd, buf)
	if err != nil {
		return 0, err
	}
	if n != 1 {
		return 0, fmt.Errorf("short read")
	}
	return buf[0], nil
}

func sendCreds(fd, pid, uid, gid int) error {
	cred := &unix.Ucred{Pid: int32(pid), Uid: uint32(uid), Gid: uint32(gid)}
	oob := unix.UnixCredentials(cred)
	return unix.Sendmsg(fd, []byte{0}, oob, nil, 0)
}

// widenPermissions sets chownMode on the cgroup directory itself and
// on its tasks / cgroup.procs files.
func (d *Driver) widenPermissions(ctx context.Context, controller, relPath string) error {
	if err := d.conn.Chmod(ctx, controller, relPath, chownMode); err != nil {
		return err
	}
	if err := d.conn.Chmod(ctx, controller, path.Join(relPath, "tasks"), chownMode); err != nil {
		return err
	}
	return d.conn.Chmod(ctx, controller, path.Join(relPath, "cgroup.procs"), chownMode)
}
