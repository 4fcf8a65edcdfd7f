// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package gentool builds the Randoop command lines run for every target class.
package gentool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/spf13/afero"
)

const (
	// DefaultJava is the executable used when Options.Java is empty.
	DefaultJava = "java"
	// MainClass is the Randoop entry point.
	MainClass = "randoop.main.Main"
	// Command is the Randoop sub-command.
	Command = "gentests"
	// TestClassSuffix is appended to the simple class name to name the generated tests.
	TestClassSuffix = "RandoopTest"
)

var (
	// ErrNoOutputDir is returned when no output directory is configured.
	ErrNoOutputDir = errors.New("output directory must be set")
	// ErrInvalidTimeLimit is returned when the time limit is not positive.
	ErrInvalidTimeLimit = errors.New("time limit must be a positive number of seconds")
	// ErrEmptyClasspath is returned when there is nothing to put on the classpath.
	ErrEmptyClasspath = errors.New("classpath is empty")
)

// FsFactory is a function that returns an afero filesystem.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

// staticFlags are passed to every Randoop run.
var staticFlags = []string{
	// Code under test
	"--only-test-public-members=false",
	"--flaky-test-behavior=OUTPUT",
	"--nondeterministic-methods-to-output=1000",

	// Which tests to output
	"--no-error-revealing-tests=false",
	"--no-regression-tests=false",
	"--no-regression-assertions=false",
	"--check-compilable=true",
	"--minimize-error-test=false",

	// Test classification
	"--checked-exception=EXPECTED",
	"--unchecked-exception=EXPECTED",
	"--cm-exception=INVALID",
	"--ncdf-exception=INVALID",
	"--npe-on-null-input=EXPECTED",
	"--npe-on-non-null-input=ERROR",
	"--oom-exception=INVALID",
	"--sof-exception=INVALID",
	"--use-jdk-specifications=true",
	"--ignore-condition-compilation-error=false",
	"--ignore-condition-exception=false",

	// Limits
	"--attempted-limit=100000000",
	"--generated-limit=100000000",
	"--output-limit=100000000",
	"--maxsize=1000",
	"--stop-on-error-test=false",

	// Values used in tests
	"--null-ratio=0.05",
	"--forbid-null=false",
	"--literals-level=CLASS",
	"--method-selection=UNIFORM",
	"--string-maxlen=1000",

	// Shape of generated tests
	"--alias-ratio=0.0",
	"--input-selection=UNIFORM",
	"--clear=100000000",

	// JUnit output
	"--dont-output-tests=false",
	"--junit-reflection-allowed=true",

	// Randomness
	"--randomseed=0",
	"--deterministic=false",

	// Troubleshooting
	"--progressdisplay=false",
	"--debug-checks=false",

	// Threading
	"--usethreads=false",
	"--call-timeout=5000",
}

// Options configures the command line.
type Options struct {
	Java            string   // Java executable; DefaultJava when empty
	JVMArgs         []string // Extra JVM arguments placed before -classpath
	RandoopJar      string   // Optional path to randoop-all.jar, put first on the classpath
	ClassRoots      []string // Compiled classes of the code under test
	Classpath       []string // Dependency jars and directories
	PackageName     string   // Default package for generated tests
	OutputDir       string   // Directory the tests are written to
	TimeLimit       int      // Seconds Randoop spends on each class
	ExtraParameters string   // Additional flags, whitespace separated
}

// Builder produces the shared template and the per-target tokens.
type Builder struct {
	opts      Options
	classpath string
	template  []string
}

// NewBuilder validates opts and assembles the template. A configured Randoop jar
// that does not exist is logged and left off the classpath.
func NewBuilder(ctx context.Context, opts Options) (*Builder, error) {
	if opts.OutputDir == "" {
		return nil, ErrNoOutputDir
	}

	if opts.TimeLimit < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeLimit, opts.TimeLimit)
	}

	if opts.Java == "" {
		opts.Java = DefaultJava
	}

	entries := make([]string, 0, 1+len(opts.ClassRoots)+len(opts.Classpath))

	if opts.RandoopJar != "" {
		if ok, _ := afero.Exists(FsFactory(), opts.RandoopJar); ok {
			entries = append(entries, opts.RandoopJar)
		} else {
			ctxlog.Error(ctx, "randoop jar not found, relying on the classpath", "path", opts.RandoopJar)
		}
	}

	for _, e := range slices.Concat(opts.ClassRoots, opts.Classpath) {
		if e != "" && !slices.Contains(entries, e) {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 {
		return nil, ErrEmptyClasspath
	}

	b := &Builder{
		opts:      opts,
		classpath: strings.Join(entries, string(os.PathListSeparator)),
	}
	b.template = b.buildTemplate()

	return b, nil
}

func (b *Builder) buildTemplate() []string {
	t := make([]string, 0, 16+len(b.opts.JVMArgs)+len(staticFlags)) //nolint:mnd

	t = append(t, b.opts.Java, "-ea")
	t = append(t, b.opts.JVMArgs...)
	t = append(t, "-classpath", b.classpath, MainClass, Command)
	t = append(t, staticFlags...)
	t = append(t,
		"--time-limit="+strconv.Itoa(b.opts.TimeLimit),
		"--junit-package-name="+b.opts.PackageName,
		"--junit-output-dir="+b.opts.OutputDir,
	)
	t = append(t, strings.Fields(b.opts.ExtraParameters)...)

	return t
}

// Classpath returns the joined classpath.
func (b *Builder) Classpath() string {
	return b.classpath
}

// Template returns a copy of the tokens shared by every job.
func (b *Builder) Template() []string {
	return slices.Clone(b.template)
}

// PerTarget returns the tokens that point Randoop at one class. The package flag
// repeats the template's and wins because it comes last.
func (b *Builder) PerTarget(className string) []string {
	return []string{
		"--testclass=" + className,
		"--regression-test-basename=" + SimpleName(className) + TestClassSuffix,
		"--junit-package-name=" + PackageOf(className),
	}
}

// SimpleName returns the class name after the last '.' and the last '$'.
func SimpleName(className string) string {
	name := className[strings.LastIndexByte(className, '.')+1:]

	return name[strings.LastIndexByte(name, '$')+1:]
}

// PackageOf returns the package of a binary class name.
func PackageOf(className string) string {
	if i := strings.LastIndexByte(className, '.'); i >= 0 {
		return className[:i]
	}

	return ""
}
