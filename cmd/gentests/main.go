// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the gentests command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/gentests"
	"github.com/matt-FFFFFF/gentests/cmd/gentests/config"
	"github.com/matt-FFFFFF/gentests/cmd/gentests/run"
	"github.com/matt-FFFFFF/gentests/cmd/gentests/show"
	"github.com/matt-FFFFFF/gentests/internal/color"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/matt-FFFFFF/gentests/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag  = "log-level"
	logFormatFlag = "log-format"
	noColorFlag   = "no-color"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		config.ConfigCmd,
		run.RunCmd,
		run.TargetsCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "gentests",
	Description: `gentests discovers the classes of a Java package and runs Randoop once per class
to generate JUnit tests. Classes are processed concurrently, each with its own time limit,
and a report with one line per class is printed when every run has finished.`,
	Usage:     "gentests run --config gentests.yaml",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  logLevelFlag,
			Usage: "Set the log level (debug, info, warn, error). Overrides " + ctxlog.LogLevelEnvVar + ".",
		},
		&cli.StringFlag{
			Name:  logFormatFlag,
			Usage: "Set the log format: pretty or json",
			Value: "pretty",
		},
		&cli.BoolFlag{
			Name:  noColorFlag,
			Usage: "Disable colored output",
		},
	},
	Before:                before,
	EnableShellCompletion: true,
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool(noColorFlag) {
		color.SetEnabled(false)
	}

	if cmd.IsSet(logLevelFlag) {
		lvl, err := ctxlog.ParseLevel(cmd.String(logLevelFlag))
		if err != nil {
			return ctx, cli.Exit(err.Error(), 1)
		}

		ctxlog.LevelVar.Set(lvl)
	}

	switch f := cmd.String(logFormatFlag); f {
	case "pretty", "":
	case "json":
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
	default:
		return ctx, cli.Exit(fmt.Sprintf("unknown log format %q", f), 1)
	}

	return ctx, nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)
	defer signalbroker.Stop(sigCh)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", gentests.Version, gentests.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1) //nolint:gocritic
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}
}
