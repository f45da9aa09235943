// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"fmt"
)

type DestroyCommand struct {
	Meta
}

func (c *DestroyCommand) Help() string {
	return `Usage: cgroupctl destroy [options] <container>

  Removes <container>'s cgroup from every hierarchy/controller,
  best-effort: it keeps going past individual failures.`
}

func (c *DestroyCommand) Synopsis() string {
	return "Destroy a container's cgroup"
}

func (c *DestroyCommand) Run(args []string) int {
	fs := c.driverFlags()
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cg, _, err := cgroupArg(fs.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	cg.RelPath = cg.ExpandedBase()

	ctx := context.Background()
	driver, err := c.buildDriver(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("driver init failed: %v", err))
		return 1
	}

	ok, err := driver.Destroy(ctx, cg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("destroy reported errors: %v", err))
	}
	if !ok {
		return 1
	}
	return 0
}
