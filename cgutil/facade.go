// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package cgutil

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Driver is the Cgroup Driver contract implemented by both backends
// (fsdriver.Driver, daemon.Driver). Exactly one implementation is
// selected per process, at init.
type Driver interface {
	// Init prepares the driver for use (hierarchy/controller discovery
	// for the Fs Driver; connect-and-ping for the Daemon Driver).
	Init(ctx context.Context) error

	// Create picks a collision-free relative path for cg (via the Path
	// Planner) and creates it under every hierarchy/controller, setting
	// cg.RelPath on success.
	Create(ctx context.Context, cg *ContainerCgroup) error

	// Enter writes pid into cg's cgroup under every hierarchy/controller.
	Enter(ctx context.Context, cg *ContainerCgroup, pid int) error

	// Get reads a single qualified key (e.g. "memory.limit_in_bytes").
	Get(ctx context.Context, cg *ContainerCgroup, key string) (string, error)

	// Set writes value to the control file named by the qualified key.
	Set(ctx context.Context, cg *ContainerCgroup, key, value string) error

	// GetNrTasks counts the pids currently in cg's cgroup. Returns -1
	// (not a coerced boolean) if cg has no cgroup.
	GetNrTasks(ctx context.Context, cg *ContainerCgroup) (int, error)

	// Destroy removes cg's cgroup from every hierarchy/controller,
	// best-effort: it continues past individual failures and returns an
	// aggregate ok plus the collected errors.
	Destroy(ctx context.Context, cg *ContainerCgroup) (ok bool, err error)

	// Chown transfers ownership of cg's cgroup tree into the user
	// namespace described by idMap. A no-op (Fs Driver) or the full
	// credential-passing handshake (Daemon Driver). A nil/empty idMap
	// means no cross-namespace chown is needed.
	Chown(ctx context.Context, cg *ContainerCgroup, idMap []IDMapEntry) error

	// MountCgroup arranges for root's in-container /sys/fs/cgroup view.
	// A no-op for the Fs Driver; for the Daemon Driver, bind-mounts the
	// daemon's socket directory in.
	MountCgroup(ctx context.Context, root string) error
}

// Disconnecter is implemented by drivers that hold a releasable
// connection (the Daemon Driver). Shutdown paths type-assert for it.
type Disconnecter interface {
	Disconnect() error
}

// New selects and initializes exactly one driver: prefer the Daemon
// Driver if its connection can be opened and pinged, otherwise fall
// back to the Fs Driver. newDaemon/newFs are supplied by callers
// (normally daemon.New and fsdriver.New) to avoid an import cycle
// between cgutil and its two backend packages.
func New(ctx context.Context, logger hclog.Logger, newDaemon func(hclog.Logger) (Driver, error), newFs func(hclog.Logger) (Driver, error)) (Driver, error) {
	logger = logger.Named("cgutil")

	if newDaemon != nil {
		d, err := newDaemon(logger.Named("daemon"))
		if err == nil {
			if initErr := d.Init(ctx); initErr == nil {
				logger.Info("selected daemon driver")
				return d, nil
			} else {
				logger.Warn("daemon driver init failed, falling back to fs driver", "error", initErr)
			}
		} else {
			logger.Debug("daemon driver unavailable, falling back to fs driver", "error", err)
		}
	}

	d, err := newFs(logger.Named("fs"))
	if err != nil {
		return nil, err
	}
	if err := d.Init(ctx); err != nil {
		return nil, err
	}
	logger.Info("selected fs driver")
	return d, nil
}
