// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config holds the gentests configuration file format.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
)

// Defaults.
const (
	DefaultClassesDir     = "target/classes"
	DefaultOutputDir      = "target/generated-test-sources/java"
	DefaultTimeoutSeconds = 30
	DefaultGraceSeconds   = 10
	DefaultThreads        = 1
	DefaultJava           = "java"
)

var (
	// ErrInvalidYaml is returned when the configuration cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoPackage is returned when no package name is configured.
	ErrNoPackage = errors.New("package_name must be set")
	// ErrNoClassesDir is returned when no classes directory is configured.
	ErrNoClassesDir = errors.New("classes_dir must be set")
	// ErrNoOutputDir is returned when no output directory is configured.
	ErrNoOutputDir = errors.New("output_dir must be set")
	// ErrTimeout is returned when timeout_seconds is not positive.
	ErrTimeout = errors.New("timeout_seconds must be at least 1")
	// ErrGrace is returned when grace_seconds is negative.
	ErrGrace = errors.New("grace_seconds must not be negative")
	// ErrThreads is returned when threads is not positive.
	ErrThreads = errors.New("threads must be at least 1")
)

// Config is the gentests configuration file.
type Config struct {
	PackageName     string   `yaml:"package_name" docdesc:"Java package whose classes get tests, e.g. com.example.billing"`                         //nolint:lll
	Recursive       bool     `yaml:"recursive,omitempty" docdesc:"Also include classes of sub-packages"`                                            //nolint:lll
	ClassesDir      string   `yaml:"classes_dir" docdesc:"Directory holding the compiled classes of the project"`                                   //nolint:lll
	DiscoveryRoots  []string `yaml:"discovery_roots,omitempty" docdesc:"Further directories or jars searched for classes of the package"`           //nolint:lll
	Classpath       []string `yaml:"classpath,omitempty" docdesc:"Extra classpath entries needed to load the classes, e.g. dependency jars"`        //nolint:lll
	OutputDir       string   `yaml:"output_dir" docdesc:"Directory Randoop writes the generated JUnit sources to"`                                  //nolint:lll
	WorkingDir      string   `yaml:"working_dir,omitempty" docdesc:"Working directory of every Randoop process, defaults to the current directory"` //nolint:lll
	TimeoutSeconds  int      `yaml:"timeout_seconds" docdesc:"Time limit given to Randoop for each class, in seconds"`                              //nolint:lll
	GraceSeconds    int      `yaml:"grace_seconds" docdesc:"Seconds a run may exceed its time limit before it is killed, 0 for none"`               //nolint:lll
	Threads         int      `yaml:"threads" docdesc:"Number of classes processed at the same time"`                                                //nolint:lll
	Java            string   `yaml:"java" docdesc:"Java executable, looked up on PATH when it has no directory"`                                    //nolint:lll
	JVMArgs         []string `yaml:"jvm_args,omitempty" docdesc:"Arguments passed to the JVM before the main class, e.g. -Xmx2g"`                   //nolint:lll
	RandoopJar      string   `yaml:"randoop_jar,omitempty" docdesc:"Path to the Randoop jar, prepended to the classpath"`                           //nolint:lll
	ExtraParameters string   `yaml:"extra_parameters,omitempty" docdesc:"Additional Randoop options, separated by whitespace"`                      //nolint:lll
	LogDir          string   `yaml:"log_dir,omitempty" docdesc:"When set, the output of each run is written to <log_dir>/<class>.log"`              //nolint:lll
}

// Default returns a configuration with every default applied and no package.
func Default() *Config {
	return &Config{
		ClassesDir:     DefaultClassesDir,
		OutputDir:      DefaultOutputDir,
		TimeoutSeconds: DefaultTimeoutSeconds,
		GraceSeconds:   DefaultGraceSeconds,
		Threads:        DefaultThreads,
		Java:           DefaultJava,
	}
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
// An empty or comment-only document yields the defaults.
// The result is not validated.
func Parse(data []byte) (*Config, error) {
	c := Default()

	// A null document would zero the struct rather than leave it alone.
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err == nil && doc == nil {
		return c, nil
	}

	if err := yaml.UnmarshalWithOptions(data, c, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidYaml, yaml.FormatError(err, false, true))
	}

	return c, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c) //nolint:wrapcheck
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var err error

	if c.PackageName == "" {
		err = multierror.Append(err, ErrNoPackage)
	}

	if c.ClassesDir == "" {
		err = multierror.Append(err, ErrNoClassesDir)
	}

	if c.OutputDir == "" {
		err = multierror.Append(err, ErrNoOutputDir)
	}

	if c.TimeoutSeconds < 1 {
		err = multierror.Append(err, fmt.Errorf("%w: got %d", ErrTimeout, c.TimeoutSeconds))
	}

	if c.GraceSeconds < 0 {
		err = multierror.Append(err, fmt.Errorf("%w: got %d", ErrGrace, c.GraceSeconds))
	}

	if c.Threads < 1 {
		err = multierror.Append(err, fmt.Errorf("%w: got %d", ErrThreads, c.Threads))
	}

	if err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// Roots returns the discovery search roots: the classes directory first.
func (c *Config) Roots() []string {
	return append([]string{c.ClassesDir}, c.DiscoveryRoots...)
}

// Grace returns the grace margin added to every job timeout.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}
