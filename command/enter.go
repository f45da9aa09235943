// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"fmt"
	"strconv"
)

type EnterCommand struct {
	Meta
}

func (c *EnterCommand) Help() string {
	return `Usage: cgroupctl enter [options] <container> <pid>

  Writes <pid> into <container>'s cgroup under every
  hierarchy/controller.`
}

func (c *EnterCommand) Synopsis() string {
	return "Place a pid into a container's cgroup"
}

func (c *EnterCommand) Run(args []string) int {
	fs := c.driverFlags()
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cg, rest, err := cgroupArg(fs.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if len(rest) < 1 {
		c.UI.Error("missing required <pid> argument")
		return 1
	}
	pid, err := strconv.Atoi(rest[0])
	if err != nil {
		c.UI.Error(fmt.Sprintf("invalid pid %q: %v", rest[0], err))
		return 1
	}
	cg.RelPath = cg.ExpandedBase()

	ctx := context.Background()
	driver, err := c.buildDriver(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("driver init failed: %v", err))
		return 1
	}

	if err := driver.Enter(ctx, cg, pid); err != nil {
		c.UI.Error(fmt.Sprintf("enter failed: %v", err))
		return 1
	}
	return 0
}
