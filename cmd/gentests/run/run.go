// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the commands that discover classes and generate tests for them.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/matt-FFFFFF/gentests/internal/config"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/matt-FFFFFF/gentests/internal/gentool"
	"github.com/matt-FFFFFF/gentests/internal/runbatch"
	"github.com/matt-FFFFFF/gentests/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	outFlag                  = "out"
	outputSuccessDetailsFlag = "output-success-details"
	noOutputFlag             = "no-output"
	tuiFlag                  = "tui"
)

var (
	// ErrBuildCommand is returned when the Randoop command line cannot be built.
	ErrBuildCommand = errors.New("failed to build command line")
	// ErrRunBatch is returned when the batch could not be run.
	ErrRunBatch = errors.New("failed to run batch")
)

// RunCmd discovers the classes of a package and generates tests for each of them.
var RunCmd = &cli.Command{
	Name:  "run",
	Usage: "Generate tests for every class of a package",
	Description: `Discover the classes of the configured package and run Randoop once per class.
Up to --threads classes are processed at the same time. Each Randoop run gets --timeout
seconds plus a grace margin; runs still going after that are killed.

Settings are read from the file given with --config and overridden by flags.
Config file URLs use Hashicorp's go-getter syntax, which allows for fetching files from various sources.
See https://github.com/hashicorp/go-getter.

The command exits with status 1 when any class failed.`,
	Flags: append(configFlags(),
		&cli.StringFlag{
			Name:      outFlag,
			Usage:     "Also write the report to this file, for use with `gentests show`",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.BoolFlag{
			Name:    outputSuccessDetailsFlag,
			Aliases: []string{"success"},
			Usage:   "Include Randoop output for successful classes",
		},
		&cli.BoolFlag{
			Name:  noOutputFlag,
			Usage: "Do not include Randoop output in the report",
		},
		&cli.BoolFlag{
			Name:  tuiFlag,
			Usage: "Show live progress in an interactive terminal UI; log output is printed after it closes",
		},
	),
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("Running run command")

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

	var report *runbatch.Report

	switch cmd.Bool(tuiFlag) {
	case true:
		logger.Info("Starting interactive TUI mode...")

		buf := new(bytes.Buffer)
		tuiCtx := ctxlog.NewForTUI(ctx, buf)

		report, err = tui.NewRunner(tuiCtx).Run(tuiCtx, func(ctx context.Context) (*runbatch.Report, error) {
			return generate(ctx, cfg, targets)
		})

		buf.WriteTo(cmd.Root().ErrWriter) //nolint:errcheck

		if report != nil && errors.Is(err, tui.ErrTUI) {
			logger.Error(fmt.Sprintf("TUI execution error: %s", err.Error()))
			err = nil
		}
	default:
		report, err = generate(ctx, cfg, targets)
	}

	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if outFileName := cmd.String(outFlag); outFileName != "" {
		if err := writeReportFile(outFileName, report); err != nil {
			logger.Error(fmt.Sprintf("Failed to write report to file %s: %s", outFileName, err.Error()))
			return cli.Exit(cliExitStr, 1)
		}

		logger.Info(fmt.Sprintf("Report written to %s", outFileName))
	}

	opts := runbatch.DefaultOutputOptions()
	opts.IncludeOutput = !cmd.Bool(noOutputFlag)
	opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

	if err := report.WriteText(cmd.Root().Writer, opts); err != nil {
		logger.Error(fmt.Sprintf("Failed to write report: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	if report.HasFailure() {
		logger.Error("Test generation failed for some classes. See above for details.")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// generate builds the Randoop command line and runs one job per target.
func generate(ctx context.Context, cfg *config.Config, targets []string) (*runbatch.Report, error) {
	builder, err := gentool.NewBuilder(ctx, gentool.Options{
		Java:            cfg.Java,
		JVMArgs:         cfg.JVMArgs,
		RandoopJar:      cfg.RandoopJar,
		ClassRoots:      cfg.Roots(),
		Classpath:       cfg.Classpath,
		PackageName:     cfg.PackageName,
		OutputDir:       cfg.OutputDir,
		TimeLimit:       cfg.TimeoutSeconds,
		ExtraParameters: cfg.ExtraParameters,
	})
	if err != nil {
		return nil, errors.Join(ErrBuildCommand, err)
	}

	ctxlog.Debug(ctx, "randoop command line", "template", builder.Template())

	runner := &runbatch.Runner{
		Grace:  cfg.Grace(),
		LogDir: cfg.LogDir,
	}

	if runner.Grace == 0 {
		runner.Grace = -1
	}

	orchestrator, err := runbatch.NewOrchestrator(runner)
	if err != nil {
		return nil, errors.Join(ErrRunBatch, err)
	}

	report, err := orchestrator.RunBatch(ctx, runbatch.BatchSpec{
		Targets:          slices.Clone(targets),
		Template:         builder.Template(),
		PerTarget:        builder.PerTarget,
		WorkingDirectory: cfg.WorkingDir,
		TimeoutSeconds:   cfg.TimeoutSeconds,
		Concurrency:      cfg.Threads,
	})
	if err != nil {
		return nil, errors.Join(ErrRunBatch, err)
	}

	return report, nil
}

func writeReportFile(name string, report *runbatch.Report) error {
	f, err := os.Create(name)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if err := report.WriteBinary(f); err != nil {
		_ = f.Close()
		return err //nolint:wrapcheck
	}

	return f.Close() //nolint:wrapcheck
}
