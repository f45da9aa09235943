// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"
)

// credHelperEnv, when set in a re-exec of this binary, signals that
// the process should act as the namespaced-credential-send helper
// rather than run its normal entrypoint. The second credential send of
// the chown handshake is made by such a helper; it runs in the host
// user namespace with the identity sendNamespacedCreds gives it and
// does not enter the container's user namespace.
const credHelperEnv = "CGROUPCORE_CHOWN_HELPER_FD"

func init() {
	fdStr := os.Getenv(credHelperEnv)
	if fdStr == "" {
		return
	}

	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		os.Exit(2)
	}
	if err := sendCreds(fd, os.Getpid(), os.Getuid(), os.Getgid()); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

// sendNamespacedCreds spawns a helper process whose real/effective/
// saved uid and gid are reset to targetUID/0 with no supplementary
// groups, then makes the second credential send over fd from that
// identity. The kernel resolves the credential through the helper's
// own uid/gid, which is what proves the namespace mapping to the
// daemon.
func sendNamespacedCreds(fd int, targetUID int) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate self: %w", err)
	}

	dupFd, err := unix.Dup(fd)
	if err != nil {
		return fmt.Errorf("dup: %w", err)
	}
	helperFile := os.NewFile(uintptr(dupFd), "chown-cred-fd")
	defer helperFile.Close()

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), fmt.Sprintf("%s=3", credHelperEnv))
	cmd.ExtraFiles = []*os.File{helperFile}
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:    uint32(targetUID),
			Gid:    0,
			Groups: []uint32{},
		},
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("helper: %w", err)
	}
	return nil
}
