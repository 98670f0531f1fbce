// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand: the thin CLI shell around the
// execution orchestrator.
package run

import (
	"context"
	"fmt"

	"github.com/matt-FFFFFF/jjrun/internal/config"
	"github.com/matt-FFFFFF/jjrun/internal/jj"
	"github.com/matt-FFFFFF/jjrun/internal/runloop"
	"github.com/urfave/cli/v3"
)

const (
	commandArg               = "command"
	revsetFlag               = "revset"
	errStrategyFlag          = "err-strategy"
	configFlag               = "config"
	outputStdErrFlag         = "output-stderr"
	outputStdOutFlag         = "output-stdout"
	outputSuccessDetailsFlag = "output-success-details"
)

// RunCmd is the command that runs a shell command across revset-selected changes.
var RunCmd = &cli.Command{
	Name:        "run",
	Description: "Run a shell command against every change matched by the revset, each in an isolated mutable copy.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      commandArg,
			UsageText: "COMMAND",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags:  runFlags(),
	Action: actionFunc,
}

// runFlags returns a fresh flag set for the run command. Flags carry parse
// state, so every command instance needs its own copies.
func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        revsetFlag,
			Aliases:     []string{"r"},
			Usage:       "Revset selecting the changes to process",
			DefaultText: runloop.DefaultRevset,
		},
		&cli.StringFlag{
			Name:        errStrategyFlag,
			Aliases:     []string{"e"},
			Usage:       "How to react to a failing change: continue, stop or fatal",
			DefaultText: runloop.StrategyContinue.String(),
		},
		&cli.StringFlag{
			Name:        configFlag,
			Usage:       "Path to a defaults file",
			TakesFile:   true,
			DefaultText: config.DefaultFileName,
		},
		&cli.BoolFlag{
			Name:        outputSuccessDetailsFlag,
			Aliases:     []string{"success"},
			Usage:       "Include successful changes' details in the report",
			DefaultText: "false",
			Value:       false,
		},
		&cli.BoolFlag{
			Name:        outputStdErrFlag,
			Aliases:     []string{"stderr"},
			Usage:       "Include captured stderr in the report",
			Value:       true,
			DefaultText: "true",
		},
		&cli.BoolFlag{
			Name:        outputStdOutFlag,
			Aliases:     []string{"stdout"},
			Usage:       "Include captured stdout in the report",
			Value:       false,
			DefaultText: "false",
		},
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	command := cmd.StringArg(commandArg)
	if command == "" {
		return cli.Exit("Please provide a command to run", 1)
	}

	configPath := cmd.String(configFlag)
	explicit := configPath != ""

	if !explicit {
		configPath = config.DefaultFileName
	}

	cfg, err := config.Load(ctx, configPath, explicit)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config %s: %s", configPath, err.Error()), 1)
	}

	opts, outputOpts, err := mergeOptions(cmd, cfg, command)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	orch := runloop.New(jj.NewClient(), cmd.Writer)

	report, err := orch.Run(ctx, opts)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if werr := runloop.WriteReport(cmd.Writer, report, outputOpts); werr != nil {
		return cli.Exit("Failed to write report: "+werr.Error(), 1)
	}

	if code := report.ExitCode(); code != 0 {
		return cli.Exit("", code)
	}

	return nil
}

// mergeOptions resolves each setting with flag > config file > built-in
// default precedence.
func mergeOptions(cmd *cli.Command, cfg *config.File, command string) (runloop.Options, *runloop.OutputOptions, error) {
	opts := runloop.Options{
		Command: command,
		Revset:  runloop.DefaultRevset,
	}

	if cfg.Revset != "" {
		opts.Revset = cfg.Revset
	}

	if cmd.IsSet(revsetFlag) {
		opts.Revset = cmd.String(revsetFlag)
	}

	strategyStr := runloop.StrategyContinue.String()
	if cfg.ErrStrategy != "" {
		strategyStr = cfg.ErrStrategy
	}

	if cmd.IsSet(errStrategyFlag) {
		strategyStr = cmd.String(errStrategyFlag)
	}

	strategy, err := runloop.NewStrategy(strategyStr)
	if err != nil {
		return opts, nil, fmt.Errorf("%w: %q", err, strategyStr)
	}

	opts.Strategy = strategy

	outputOpts := runloop.DefaultOutputOptions()

	if cfg.Output.StdOut != nil {
		outputOpts.IncludeStdOut = *cfg.Output.StdOut
	}

	if cfg.Output.StdErr != nil {
		outputOpts.IncludeStdErr = *cfg.Output.StdErr
	}

	if cfg.Output.SuccessDetails != nil {
		outputOpts.ShowSuccessDetails = *cfg.Output.SuccessDetails
	}

	if cmd.IsSet(outputStdOutFlag) {
		outputOpts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
	}

	if cmd.IsSet(outputStdErrFlag) {
		outputOpts.IncludeStdErr = cmd.Bool(outputStdErrFlag)
	}

	if cmd.IsSet(outputSuccessDetailsFlag) {
		outputOpts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)
	}

	return opts, outputOpts, nil
}
