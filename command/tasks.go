// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package command

import (
	"context"
	"fmt"
)

type TasksCommand struct {
	Meta
}

func (c *TasksCommand) Help() string {
	return `Usage: cgroupctl tasks [options] <container>

  Prints the number of pids currently placed in <container>'s cgroup.`
}

func (c *TasksCommand) Synopsis() string {
	return "Count the pids in a container's cgroup"
}

func (c *TasksCommand) Run(args []string) int {
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

	n, err := driver.GetNrTasks(ctx, cg)
	if err != nil {
		c.UI.Error(fmt.Sprintf("tasks failed: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("%d", n))
	return 0
}
