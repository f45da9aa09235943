// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Command cgroupctl is a small operator tool for inspecting and
// manually driving the cgroup core from outside the container start
// pipeline: creating or destroying a container's cgroup, reading and
// writing control files, and counting the tasks in one. It is a
// debugging aid, not part of any supported automation surface.
package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cgroupcore/command"
	"github.com/hashicorp/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	c := cli.NewCLI("cgroupctl", command.Version)
	c.Args = args
	c.Commands = command.Commands()

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return exitCode
}
