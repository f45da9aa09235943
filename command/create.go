// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"fmt"
)

type CreateCommand struct {
	Meta
}

func (c *CreateCommand) Help() string {
	return `Usage: cgroupctl create [options] <container>

  Allocates a collision-free cgroup path for <container> under every
  mounted hierarchy/controller and prints the chosen relative path.`
}

func (c *CreateCommand) Synopsis() string {
	return "Create a container's cgroup"
}

func (c *CreateCommand) Run(args []string) int {
	fs := c.driverFlags()
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cg, _, err := cgroupArg(fs.Args())
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx := context.Background()
	driver, err := c.buildDriver(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("driver init failed: %v", err))
		return 1
	}

	if err := driver.Create(ctx, cg); err != nil {
		c.UI.Error(fmt.Sprintf("create failed: %v", err))
		return 1
	}

	c.UI.Output(cg.RelPath)
	return 0
}
