// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"
	"fmt"

	"github.com/matt-FFFFFF/gentests/internal/config"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/matt-FFFFFF/gentests/internal/discovery"
	"github.com/urfave/cli/v3"
)

// ErrDiscover is returned when the target classes cannot be discovered.
var ErrDiscover = errors.New("failed to discover classes")

// TargetsCmd lists the classes that `run` would generate tests for.
var TargetsCmd = &cli.Command{
	Name:  "targets",
	Usage: "List the classes tests would be generated for",
	Description: `Discover the classes of the configured package and print one binary class name per line.
Interfaces, annotations, synthetic, anonymous and local classes are left out.`,
	Flags:  configFlags(),
	Action: targetsAction,
}

func targetsAction(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	targets, err := discover(ctx, cfg)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	for _, t := range targets {
		fmt.Fprintln(cmd.Root().Writer, t) //nolint:errcheck
	}

	return nil
}

func discover(ctx context.Context, cfg *config.Config) ([]string, error) {
	targets, err := discovery.Find(ctx, cfg.PackageName, cfg.Roots(), discovery.Options{Recursive: cfg.Recursive})
	if err != nil {
		return nil, errors.Join(ErrDiscover, err)
	}

	ctxlog.Info(ctx, "classes discovered", "package", cfg.PackageName, "count", len(targets))

	return targets, nil
}
