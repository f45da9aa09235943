// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"fmt"
)

type SetCommand struct {
	Meta
}

func (c *SetCommand) Help() string {
	return `Usage: cgroupctl set [options] <container> <key> <value>

  Writes value to the control file named by the qualified key (e.g.
  "memory.limit_in_bytes") in <container>'s cgroup.`
}

func (c *SetCommand) Synopsis() string {
	return "Write a control file"
}

func (c *SetCommand) Run(args []string) int {
	fs := c.driverFlags()
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cg, rest, err := cgroupArg(fs.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	if len(rest) < 2 {
		c.UI.Error("usage: set <container> <key> <value>")
		return 1
	}
	cg.RelPath = cg.ExpandedBase()

	ctx := context.Background()
	driver, err := c.buildDriver(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("driver init failed: %v", err))
		return 1
	}

	if err := driver.Set(ctx, cg, rest[0], rest[1]); err != nil {
		c.UI.Error(fmt.Sprintf("set failed: %v", err))
		return 1
	}
	return 0
}
