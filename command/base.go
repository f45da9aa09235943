// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"flag"
	"fmt"

	"github.com/hashicorp/cgroupcore/cgutil"
	"github.com/hashicorp/cgroupcore/daemon"
	"github.com/hashicorp/cgroupcore/fsdriver"
	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
)

// Meta holds the flags and UI shared by every subcommand.
type Meta struct {
	UI cli.Ui

	group      string
	socketPath string
	retryLimit int
}

// driverFlags registers the flags common to every subcommand and
// returns the FlagSet for the caller to add its own onto.
func (m *Meta) driverFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("cgroupctl", flag.ContinueOnError)
	fs.StringVar(&m.group, "group", cgutil.DefaultGroup, "enclosing cgroup directory")
	fs.StringVar(&m.socketPath, "socket", daemon.DefaultSocketPath, "cgroup daemon socket path")
	fs.IntVar(&m.retryLimit, "retry-limit", cgutil.DefaultNameRetryLimit, "path planner candidate limit")
	return fs
}

// buildDriver runs the same daemon-preferred, fs-fallback selection
// the surrounding runtime uses, so cgroupctl always observes whichever
// backend a real container would have used.
func (m *Meta) buildDriver(ctx context.Context) (cgutil.Driver, error) {
	logger := hclog.New(&hclog.LoggerOptions{Name: "cgroupctl", Level: hclog.Warn})

	newDaemon := func(l hclog.Logger) (cgutil.Driver, error) {
		return daemon.New(l, m.group, m.socketPath, m.retryLimit), nil
	}
	newFs := func(l hclog.Logger) (cgutil.Driver, error) {
		return fsdriver.New(l, m.group, m.retryLimit), nil
	}

	return cgutil.New(ctx, logger, newDaemon, newFs)
}

// cgroupArg resolves the single container-name positional argument
// every subcommand below takes.
func cgroupArg(args []string) (*cgutil.ContainerCgroup, []string, error) {
	if len(args) < 1 {
		return nil, args, fmt.Errorf("missing required <container> argument")
	}
	return &cgutil.ContainerCgroup{Name: args[0]}, args[1:], nil
}
