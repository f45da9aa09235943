// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

// Package command implements the cgroupctl subcommands: one operator
// debug action per file, each a cli.Command driving the cgutil facade
// directly against whichever backend (daemon or fs) Init selects.
package command

import (
	"os"

	"github.com/hashicorp/cli"
)

// Version is cgroupctl's reported version. It tracks this module, not
// any surrounding container runtime release.
const Version = "0.1.0"

// Commands returns the full cgroupctl command registry.
func Commands() map[string]cli.CommandFactory {
	ui := &cli.BasicUi{Writer: os.Stdout, ErrorWriter: os.Stderr}

	return map[string]cli.CommandFactory{
		"create": func() (cli.Command, error) {
			return &CreateCommand{Meta: Meta{UI: ui}}, nil
		},
		"destroy": func() (cli.Command, error) {
			return &DestroyCommand{Meta: Meta{UI: ui}}, nil
		},
		"get": func() (cli.Command, error) {
			return &GetCommand{Meta: Meta{UI: ui}}, nil
		},
		"set": func() (cli.Command, error) {
			return &SetCommand{Meta: Meta{UI: ui}}, nil
		},
		"tasks": func() (cli.Command, error) {
			return &TasksCommand{Meta: Meta{UI: ui}}, nil
		},
		"enter": func() (cli.Command, error) {
			return &EnterCommand{Meta: Meta{UI: ui}}, nil
		},
	}
}
