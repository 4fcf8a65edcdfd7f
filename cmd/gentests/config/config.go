// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config contains the command that prints a starter configuration file
// and its reference documentation.
package config

import (
	"context"
	"errors"
	"fmt"

	gtconfig "github.com/matt-FFFFFF/gentests/internal/config"
	"github.com/matt-FFFFFF/gentests/internal/schema"
	"github.com/urfave/cli/v3"
)

const (
	packageFlag  = "package"
	schemaFlag   = "schema"
	markdownFlag = "markdown"

	schemaTitle       = "gentests Configuration"
	schemaDescription = "Configuration for generating Randoop tests for every class of a Java package"
)

// ErrMarshal is returned when the configuration cannot be encoded.
var ErrMarshal = errors.New("failed to encode configuration")

// ConfigCmd prints a configuration file with every default filled in.
var ConfigCmd = newConfigCmd()

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print a starter configuration file, or its JSON schema",
		Description: `Print a YAML configuration file with the default settings, ready to be edited and passed to ` +
			"`gentests run --config`.\n\nWith --schema a JSON schema for editors is printed instead, with --markdown a field reference.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    packageFlag,
				Aliases: []string{"p"},
				Usage:   "Package name to put in the file",
				Value:   "com.example",
			},
		},
		MutuallyExclusiveFlags: []cli.MutuallyExclusiveFlags{{
			Flags: [][]cli.Flag{
				{&cli.BoolFlag{
					Name:  schemaFlag,
					Usage: "Print the JSON schema of the configuration file",
				}},
				{&cli.BoolFlag{
					Name:  markdownFlag,
					Usage: "Print a Markdown reference of the configuration file",
				}},
			},
		}},
		Action: func(_ context.Context, cmd *cli.Command) error {
			w := cmd.Root().Writer
			g := schema.NewGenerator(schemaTitle, schemaDescription)

			switch {
			case cmd.Bool(schemaFlag):
				return g.WriteJSONSchema(w, gtconfig.Default()) //nolint:wrapcheck
			case cmd.Bool(markdownFlag):
				return g.WriteMarkdownDoc(w, gtconfig.Default()) //nolint:wrapcheck
			}

			cfg := gtconfig.Default()
			cfg.PackageName = cmd.String(packageFlag)

			b, err := cfg.Marshal()
			if err != nil {
				return errors.Join(ErrMarshal, err)
			}

			_, err = fmt.Fprint(w, string(b))

			return err //nolint:wrapcheck
		},
	}
}
