// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build linux

package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// socketDirCandidates are checked in order for the host-side directory
// to bind-mount into the container, mirroring cgmanager's lower/upper
// socket-directory search.
var socketDirCandidates = []string{
	"/run/cgmanager/fs",
	"/sys/fs/cgroup/cgmanager",
}

// cgroupTmpfsSize is the fixed size, in bytes, of the tmpfs mounted at
// the container's /sys/fs/cgroup.
const cgroupTmpfsSize = 10000

// MountCgroup arranges the container's in-namespace /sys/fs/cgroup
// view: a small tmpfs, a cgmanager subdirectory, and a bind mount of
// the host daemon socket directory onto it.
func (d *Driver) MountCgroup(_ context.Context, root string) error {
	target := filepath.Join(root, "sys", "fs", "cgroup")
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", target, err)
	}

	opts := fmt.Sprintf("size=%d,mode=0755", cgroupTmpfsSize)
	if err := unix.Mount("tmpfs", target, "tmpfs", 0, opts); err != nil {
		return fmt.Errorf("mount tmpfs at %s: %w", target, err)
	}

	cgmanagerDir := filepath.Join(target, "cgmanager")
	if err := os.Mkdir(cgmanagerDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", cgmanagerDir, err)
	}

	source, err := findSocketDir()
	if err != nil {
		return err
	}

	if err := unix.Mount(source, cgmanagerDir, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("bind mount %s onto %s: %w", source, cgmanagerDir, err)
	}

	return nil
}

// findSocketDir returns the first existing candidate directory. Both
// being absent is fatal: the driver could not have been selected
// without a running daemon.
func findSocketDir() (string, error) {
	for _, dir := range socketDirCandidates {
		if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("no daemon socket directory found in %v", socketDirCandidates)
}
