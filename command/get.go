// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"fmt"
)

type GetCommand struct {
	Meta
}

func (c *GetCommand) Help() string {
	return `Usage: cgroupctl get [options] <container> <key>

  Reads the control file named by the qualified key (e.g.
  "memory.limit_in_bytes") from <container>'s cgroup.`
}

func (c *GetCommand) Synopsis() string {
	return "Read a control file"
}

func (c *GetCommand) Run(args []string) int {
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
		c.UI.Error("missing required <key> argument")
		return 1
	}
	cg.RelPath = cg.ExpandedBase()

	ctx := context.Background()
	driver, err := c.buildDriver(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("driver init failed: %v", err))
		return 1
	}

	value, err := driver.Get(ctx, cg, rest[0])
	if err != nil {
		c.UI.Error(fmt.Sprintf("get failed: %v", err))
		return 1
	}

	c.UI.Output(value)
	return 0
}
