// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package run

import (
	"context"
	"errors"

	"github.com/matt-FFFFFF/gentests/internal/config"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/urfave/cli/v3"
)

const (
	configFlag      = "config"
	packageFlag     = "package"
	recursiveFlag   = "recursive"
	classesDirFlag  = "classes-dir"
	rootFlag        = "root"
	classpathFlag   = "classpath"
	outputDirFlag   = "output-dir"
	workingDirFlag  = "working-dir"
	timeoutFlag     = "timeout"
	graceFlag       = "grace"
	threadsFlag     = "threads"
	javaFlag        = "java"
	jvmArgFlag      = "jvm-arg"
	randoopJarFlag  = "randoop-jar"
	extraParamsFlag = "extra-parameters"
	logDirFlag      = "log-dir"
	cliExitStr      = ""
)

// ErrLoadConfig is returned when the configuration cannot be loaded or is invalid.
var ErrLoadConfig = errors.New("failed to load configuration")

// configFlags returns a new set of the flags that override the configuration file.
// Each command needs its own instances.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage: "Specify the URL of the YAML configuration file. " +
				"Supports Hashicorp's go-getter syntax for fetching files from various sources.",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:    packageFlag,
			Aliases: []string{"p"},
			Usage:   "Java package whose classes get tests",
		},
		&cli.BoolFlag{
			Name:  recursiveFlag,
			Usage: "Include classes from sub-packages",
		},
		&cli.StringFlag{
			Name:      classesDirFlag,
			Usage:     "Directory with the compiled classes under test (default: " + config.DefaultClassesDir + ")",
			TakesFile: true,
		},
		&cli.StringSliceFlag{
			Name:  rootFlag,
			Usage: "Additional directory or jar to search for classes. Specify multiple times for more.",
		},
		&cli.StringSliceFlag{
			Name:  classpathFlag,
			Usage: "Dependency jar or directory for the classpath. Specify multiple times for more.",
		},
		&cli.StringFlag{
			Name:      outputDirFlag,
			Aliases:   []string{"o"},
			Usage:     "Directory for the generated tests (default: " + config.DefaultOutputDir + ")",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      workingDirFlag,
			Usage:     "Working directory for every Randoop process",
			TakesFile: true,
		},
		&cli.IntFlag{
			Name:    timeoutFlag,
			Aliases: []string{"t"},
			Usage:   "Seconds Randoop may spend on each class",
		},
		&cli.IntFlag{
			Name:  graceFlag,
			Usage: "Seconds added to the timeout before a process is killed",
		},
		&cli.IntFlag{
			Name:    threadsFlag,
			Aliases: []string{"j"},
			Usage:   "Maximum number of Randoop processes running at once",
		},
		&cli.StringFlag{
			Name:  javaFlag,
			Usage: "Java executable",
		},
		&cli.StringSliceFlag{
			Name:  jvmArgFlag,
			Usage: "Extra JVM argument. Specify multiple times for more.",
		},
		&cli.StringFlag{
			Name:      randoopJarFlag,
			Usage:     "Path to randoop-all.jar",
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:  extraParamsFlag,
			Usage: "Additional Randoop flags, separated by whitespace",
		},
		&cli.StringFlag{
			Name:      logDirFlag,
			Usage:     "Write each class's Randoop output to a file in this directory",
			TakesFile: true,
		},
	}
}

// loadConfig reads the configuration file, if any, applies the flags that were set
// and validates the result.
func loadConfig(ctx context.Context, cmd *cli.Command) (*config.Config, error) {
	cfg := config.Default()

	if url := cmd.String(configFlag); url != "" {
		ctxlog.Debug(ctx, "loading configuration", "url", url)

		var err error
		if cfg, err = config.Load(ctx, url); err != nil {
			return nil, errors.Join(ErrLoadConfig, err)
		}
	}

	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(ErrLoadConfig, err)
	}

	return cfg, nil
}

func applyFlags(cmd *cli.Command, cfg *config.Config) {
	setString := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}

	setInt := func(name string, dst *int) {
		if cmd.IsSet(name) {
			*dst = cmd.Int(name)
		}
	}

	setString(packageFlag, &cfg.PackageName)
	setString(classesDirFlag, &cfg.ClassesDir)
	setString(outputDirFlag, &cfg.OutputDir)
	setString(workingDirFlag, &cfg.WorkingDir)
	setString(javaFlag, &cfg.Java)
	setString(randoopJarFlag, &cfg.RandoopJar)
	setString(extraParamsFlag, &cfg.ExtraParameters)
	setString(logDirFlag, &cfg.LogDir)
	setInt(timeoutFlag, &cfg.TimeoutSeconds)
	setInt(graceFlag, &cfg.GraceSeconds)
	setInt(threadsFlag, &cfg.Threads)

	if cmd.IsSet(recursiveFlag) {
		cfg.Recursive = cmd.Bool(recursiveFlag)
	}

	// Repeated flags add to the lists from the file.
	cfg.DiscoveryRoots = append(cfg.DiscoveryRoots, cmd.StringSlice(rootFlag)...)
	cfg.Classpath = append(cfg.Classpath, cmd.StringSlice(classpathFlag)...)
	cfg.JVMArgs = append(cfg.JVMArgs, cmd.StringSlice(jvmArgFlag)...)
}
