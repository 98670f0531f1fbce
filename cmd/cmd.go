// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd contains the command-line interface (CLI) for the module.
package cmd

import (
	"os"

	"github.com/matt-FFFFFF/jjrun"
	"github.com/matt-FFFFFF/jjrun/cmd/run"
	"github.com/urfave/cli/v3"
)

// RootCmd is the root command for the CLI.
var RootCmd = &cli.Command{
	Commands: []*cli.Command{
		run.RunCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "jjrun",
	Description: `jjrun applies a shell command to every change matched by a revset,
each in a throwaway mutable copy inside an isolated workspace, leaving the
user's working checkout untouched. Results are propagated back onto the
original changes' parent snapshots when the run completes.`,
	Usage:   "jjrun run -r 'mutable() & ::@' -- 'make fmt'",
	Version: jjrun.Version,
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}
