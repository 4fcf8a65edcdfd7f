// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/matt-FFFFFF/gentests/internal/progress"
	"github.com/matt-FFFFFF/gentests/internal/teereader"
	"github.com/spf13/afero"
)

const (
	// DefaultGrace is added to every job's timeout before the process is killed.
	DefaultGrace = 10 * time.Second
	// DefaultReapDelay bounds how long the runner waits for the output pipe to close
	// after the process has exited.
	DefaultReapDelay = 2 * time.Second
	// DefaultProgressInterval is how often a running job is logged.
	DefaultProgressInterval = 30 * time.Second

	maxOutputSize      = 8 * 1024 * 1024 // 8MB
	lastLineLength     = 120
	outputPollInterval = time.Second
	logDirMode         = 0o755
	logFileMode        = 0o644
)

var (
	// ErrNoCommand is the launch failure for a job with no command tokens.
	ErrNoCommand = errors.New("job has no command")
	// ErrCouldNotStartProcess is the launch failure when the executable cannot be started.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is the launch failure when the output pipe cannot be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrBadWorkingDirectory is the launch failure when the job's working directory is unusable.
	ErrBadWorkingDirectory = errors.New("bad working directory")
	// ErrBatchCancelled is the launch failure for jobs dequeued after the batch context ended.
	ErrBatchCancelled = errors.New("batch cancelled before launch")
)

// FS is the filesystem used for per-job output logs.
var FS = afero.NewOsFs()

// JobRunner executes a Job and classifies its result. Implementations must
// return exactly one Outcome and never panic.
type JobRunner interface {
	Run(ctx context.Context, job *Job) *Outcome
}

var _ JobRunner = (*Runner)(nil)

// Runner runs jobs as child processes. The zero value uses the defaults above.
type Runner struct {
	Grace            time.Duration // Added to the job timeout; DefaultGrace when zero, none when negative
	ReapDelay        time.Duration // DefaultReapDelay when zero
	ProgressInterval time.Duration // DefaultProgressInterval when zero
	LogDir           string        // When set, each job's output is written to <LogDir>/<target>.log
}

// Run launches the job's process with stderr merged into stdout, enforces the
// deadline and classifies the result. The context supplies the logger and the
// progress reporter; if it is already done the job is not launched.
func (r *Runner) Run(ctx context.Context, job *Job) *Outcome {
	logger := ctxlog.Logger(ctx).With("target", job.TargetID())
	start := time.Now()

	out := r.run(ctx, logger, job)
	out.Duration = time.Since(start)

	if out.Success() {
		logger.Info("job completed", "duration", out.Duration.Round(time.Millisecond))
		progress.Send(ctx, out.TargetID, progress.EventCompleted, "job completed",
			progress.EventData{ExitCode: out.ExitCode})
	} else {
		logger.Warn("job failed",
			"status", out.Status.String(),
			"detail", out.Detail(),
			"duration", out.Duration.Round(time.Millisecond))
		progress.Send(ctx, out.TargetID, progress.EventFailed, out.Status.String(),
			progress.EventData{ExitCode: out.ExitCode, Detail: out.Detail()})
	}

	r.writeLog(logger, out)

	return out
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, job *Job) *Outcome {
	id := job.TargetID()

	if ctx.Err() != nil {
		return launchFailed(id, fmt.Errorf("%w: %w", ErrBatchCancelled, context.Cause(ctx)))
	}

	tokens := job.Tokens()
	if len(tokens) == 0 {
		return launchFailed(id, ErrNoCommand)
	}

	grace := r.grace()
	deadline := job.Timeout() + grace

	logger.Info("launching job", "timeout", job.Timeout(), "grace", grace)

	if err := checkWorkingDirectory(job.WorkingDirectory()); err != nil {
		return launchFailed(id, errors.Join(ErrCouldNotStartProcess, err))
	}

	path, err := resolveExecutable(tokens[0], job.WorkingDirectory())
	if err != nil {
		return launchFailed(id, errors.Join(ErrCouldNotStartProcess, err))
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return launchFailed(id, errors.Join(ErrFailedToCreatePipe, err))
	}

	// A nil entry leaves the child's stdin closed if /dev/null cannot be opened.
	stdin, _ := os.Open(os.DevNull)

	logger.Debug("job command", "path", path, "args", tokens[1:], "cwd", job.WorkingDirectory())

	ps, err := os.StartProcess(path, tokens, &os.ProcAttr{
		Dir:   job.WorkingDirectory(),
		Env:   os.Environ(),
		Files: []*os.File{stdin, wOut, wOut},
		Sys:   sysProcAttr(),
	})

	_ = wOut.Close()

	if stdin != nil {
		_ = stdin.Close()
	}

	if err != nil {
		_ = rOut.Close()
		return launchFailed(id, errors.Join(ErrCouldNotStartProcess, err))
	}

	started := time.Now()

	logger.Debug("process started", "pid", ps.Pid)
	progress.Send(ctx, id, progress.EventStarted, "job started", progress.EventData{})

	capture := teereader.NewLastLineTeeReader(rOut, maxOutputSize)
	drained := make(chan struct{})

	go func() {
		defer close(drained)

		_, _ = io.Copy(io.Discard, capture)
	}()

	var (
		mu       sync.Mutex
		exited   bool
		timedOut bool
	)

	stop := make(chan struct{})
	watchdogDone := make(chan struct{})

	// The watchdog kills the process group at the deadline and reports progress meanwhile.
	go func() {
		defer close(watchdogDone)

		timer := time.NewTimer(deadline)
		defer timer.Stop()

		ticker := time.NewTicker(r.progressInterval())
		defer ticker.Stop()

		poll := time.NewTicker(outputPollInterval)
		defer poll.Stop()

		var lastLine string

		for {
			select {
			case <-stop:
				return

			case <-poll.C:
				if line := capture.LastLine(lastLineLength); line != lastLine {
					lastLine = line
					progress.Send(ctx, id, progress.EventOutput, "", progress.EventData{OutputLine: line})
				}

			case <-ticker.C:
				logger.Info("job running",
					"elapsed", time.Since(started).Round(time.Second),
					"lastLine", capture.LastLine(lastLineLength))

			case <-timer.C:
				mu.Lock()
				if !exited {
					timedOut = true

					logger.Warn("deadline exceeded, killing process", "pid", ps.Pid, "deadline", deadline)

					if err := killTree(ps); err != nil {
						logger.Error("process kill error", "pid", ps.Pid, "error", err)
					}
				}
				mu.Unlock()

				return
			}
		}
	}()

	state, waitErr := ps.Wait()

	mu.Lock()
	exited = true
	killed := timedOut
	mu.Unlock()

	close(stop)
	<-watchdogDone

	if killed {
		// A descendant that left the process group can still hold the pipe open.
		_ = rOut.Close()
	} else {
		r.drain(logger, rOut, drained)
	}

	out := &Outcome{
		TargetID:  id,
		Output:    capture.Bytes(),
		Truncated: capture.Truncated(),
	}

	switch {
	case killed:
		// The exit status of a killed process says nothing about the job.
		out.Status = StatusTimedOut
		out.ExitCode = -1
		out.Message = fmt.Sprintf("still running after %s (timeout %s + grace %s)", deadline, job.Timeout(), grace)
	case waitErr != nil:
		out.Status = StatusNonZeroExit
		out.ExitCode = -1
		out.Message = waitErr.Error()
	case state.Success():
		out.Status = StatusSuccess
		out.ExitCode = 0
	default:
		out.Status = StatusNonZeroExit
		out.ExitCode = state.ExitCode()

		if out.ExitCode == -1 {
			out.Message = state.String()
		}
	}

	return out
}

// drain waits for the output reader to reach EOF. Grandchildren that outlive the
// process can hold the pipe open, so after the reap delay the read end is closed.
func (r *Runner) drain(logger *slog.Logger, rOut *os.File, drained <-chan struct{}) {
	defer rOut.Close() //nolint:errcheck

	reap := r.reapDelay()

	select {
	case <-drained:
		return
	case <-time.After(reap):
	}

	logger.Debug("output pipe still open after process exit, closing it")

	_ = rOut.Close()

	select {
	case <-drained:
	case <-time.After(reap):
		logger.Warn("output reader did not stop, abandoning it")
	}
}

func (r *Runner) writeLog(logger *slog.Logger, out *Outcome) {
	if r.LogDir == "" {
		return
	}

	if err := FS.MkdirAll(r.LogDir, logDirMode); err != nil {
		logger.Warn("could not create job log directory", "path", r.LogDir, "error", err)
		return
	}

	name := filepath.Join(r.LogDir, LogFileName(out.TargetID))
	if err := afero.WriteFile(FS, name, out.Output, logFileMode); err != nil {
		logger.Warn("could not write job log", "path", name, "error", err)
		return
	}

	logger.Debug("job output written", "path", name)
}

func (r *Runner) grace() time.Duration {
	switch {
	case r.Grace > 0:
		return r.Grace
	case r.Grace < 0:
		return 0
	}

	return DefaultGrace
}

func (r *Runner) reapDelay() time.Duration {
	if r.ReapDelay > 0 {
		return r.ReapDelay
	}

	return DefaultReapDelay
}

func (r *Runner) progressInterval() time.Duration {
	if r.ProgressInterval > 0 {
		return r.ProgressInterval
	}

	return DefaultProgressInterval
}

// LogFileName returns the file name used for a target's output log.
func LogFileName(targetID string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		default:
			return r
		}
	}, targetID) + ".log"
}

func checkWorkingDirectory(dir string) error {
	if dir == "" {
		return nil
	}

	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrBadWorkingDirectory, dir, err)
	}

	if !fi.IsDir() {
		return fmt.Errorf("%w %s: not a directory", ErrBadWorkingDirectory, dir)
	}

	return nil
}

// resolveExecutable looks bare names up on PATH. Paths with a separator are used
// as given, relative ones against the job's working directory.
func resolveExecutable(name, dir string) (string, error) {
	if strings.ContainsAny(name, `/\`) {
		if !filepath.IsAbs(name) && dir != "" {
			return filepath.Join(dir, name), nil
		}

		return name, nil
	}

	return exec.LookPath(name) //nolint:wrapcheck
}
