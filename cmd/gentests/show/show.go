// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package show renders a report saved by `gentests run --out`.
package show

import (
	"context"
	"errors"
	"os"

	"github.com/matt-FFFFFF/gentests/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	fileArg                  = "file"
	outputSuccessDetailsFlag = "output-success-details"
	noOutputFlag             = "no-output"
)

var (
	// ErrReadFile is returned when the file cannot be read.
	ErrReadFile = errors.New("failed to read file")
	// ErrNoFile is returned when no file is given.
	ErrNoFile = errors.New("no report file given")
	// ErrWriteResults is returned when the report cannot be written.
	ErrWriteResults = errors.New("failed to write report")
)

// ShowCmd is the command that shows a previously saved report.
var ShowCmd = &cli.Command{
	Name:        "show",
	Usage:       "Show a saved report",
	Description: "Show a report previously saved with `gentests run --out FILE`.",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      fileArg,
			UsageText: "FILE",
			Config: cli.StringConfig{
				TrimSpace: true,
			},
		},
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    outputSuccessDetailsFlag,
			Aliases: []string{"success"},
			Usage:   "Include Randoop output for successful classes",
		},
		&cli.BoolFlag{
			Name:  noOutputFlag,
			Usage: "Do not include Randoop output",
		},
	},
	Action: func(_ context.Context, cmd *cli.Command) error {
		name := cmd.StringArg(fileArg)
		if name == "" {
			return cli.Exit(ErrNoFile.Error(), 1)
		}

		file, err := os.Open(name)
		if err != nil {
			return errors.Join(ErrReadFile, err)
		}
		defer file.Close() // nolint:errcheck

		report, err := runbatch.ReadBinary(file)
		if err != nil {
			return err //nolint:wrapcheck
		}

		opts := runbatch.DefaultOutputOptions()
		opts.IncludeOutput = !cmd.Bool(noOutputFlag)
		opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)

		if err := report.WriteText(cmd.Root().Writer, opts); err != nil {
			return errors.Join(ErrWriteResults, err)
		}

		return nil
	},
}
