// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/matt-FFFFFF/gentests/internal/latch"
	"github.com/matt-FFFFFF/gentests/internal/progress"
	"github.com/matt-FFFFFF/gentests/internal/workerpool"
)

var (
	// ErrInvalidConcurrency is returned when a batch asks for fewer than one worker.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")
	// ErrNilRunner is returned by NewOrchestrator when no runner is supplied.
	ErrNilRunner = errors.New("job runner must not be nil")
	// ErrSubmit is returned when a job could not be handed to the worker pool.
	ErrSubmit = errors.New("could not submit job")
	// ErrNoOutcome is recorded for a job whose runner returned nil.
	ErrNoOutcome = errors.New("runner returned no outcome")
)

// BatchSpec is the input to a single RunBatch call.
type BatchSpec struct {
	Targets          []string                     // Target ids; treated as a set
	Template         []string                     // Tokens shared by every job, executable first
	PerTarget        func(target string) []string // Tokens appended for one target; may be nil
	WorkingDirectory string                       // Working directory for every job
	TimeoutSeconds   int                          // Per-job time budget
	Concurrency      int                          // Maximum number of jobs running at once
}

// Orchestrator fans a batch of jobs out over a worker pool and joins on their completion.
type Orchestrator struct {
	runner JobRunner
}

// NewOrchestrator returns an Orchestrator that runs every job with runner.
func NewOrchestrator(runner JobRunner) (*Orchestrator, error) {
	if runner == nil {
		return nil, ErrNilRunner
	}

	return &Orchestrator{runner: runner}, nil
}

// RunBatch runs one job per distinct target, at most spec.Concurrency at a time, and
// blocks until every job has produced an Outcome. Job failures are reported in the
// Report; an error is returned only when the BatchSpec itself is invalid.
//
// Cancelling ctx does not stop running jobs. Jobs that have not started yet resolve
// as StatusLaunchFailed. Job lifecycle events go to the progress.Reporter in ctx.
func (o *Orchestrator) RunBatch(ctx context.Context, spec BatchSpec) (*Report, error) {
	report := &Report{
		BatchID: uuid.NewString(),
		Started: time.Now(),
	}

	ctx = ctxlog.With(ctx, "batch", report.BatchID)

	targets := normaliseTargets(spec.Targets)
	if len(targets) == 0 {
		ctxlog.Info(ctx, "no targets, nothing to run")

		report.Finished = time.Now()

		return report, nil
	}

	if spec.Concurrency < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConcurrency, spec.Concurrency)
	}

	jobs := make([]*Job, len(targets))

	for i, target := range targets {
		var extra []string
		if spec.PerTarget != nil {
			extra = spec.PerTarget(target)
		}

		job, err := NewJob(target, slices.Concat(spec.Template, extra), spec.WorkingDirectory, spec.TimeoutSeconds)
		if err != nil {
			return nil, err
		}

		jobs[i] = job
	}

	ctxlog.Info(ctx, "batch started",
		"jobs", len(jobs),
		"concurrency", spec.Concurrency,
		"timeout", spec.TimeoutSeconds)

	// One slot per job; each worker only ever writes its own index.
	outcomes := make([]*Outcome, len(jobs))
	tracker := latch.New(len(jobs))

	pool, err := workerpool.New(ctx, spec.Concurrency, func(ctx context.Context, i int) {
		defer tracker.CountDown()

		outcomes[i] = o.runner.Run(ctx, jobs[i])
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	for i := range jobs {
		progress.Send(ctx, jobs[i].TargetID(), progress.EventQueued, "job queued", progress.EventData{})

		if err := pool.Submit(i); err != nil {
			// Unreachable while this function owns the pool, but the job still needs an outcome.
			outcomes[i] = launchFailed(jobs[i].TargetID(), errors.Join(ErrSubmit, err))
			tracker.CountDown()
		}
	}

	tracker.Wait()
	pool.Shutdown()

	for i, out := range outcomes {
		if out == nil {
			outcomes[i] = launchFailed(jobs[i].TargetID(), ErrNoOutcome)
		}
	}

	report.Outcomes = outcomes
	report.Finished = time.Now()

	counts := report.Counts()

	ctxlog.Info(ctx, "batch finished",
		"duration", report.Duration().Round(time.Millisecond),
		"success", counts[StatusSuccess],
		"nonZeroExit", counts[StatusNonZeroExit],
		"timedOut", counts[StatusTimedOut],
		"launchFailed", counts[StatusLaunchFailed])

	return report, nil
}

// normaliseTargets sorts the targets and drops duplicates and empty ids.
func normaliseTargets(in []string) []string {
	out := slices.DeleteFunc(slices.Clone(in), func(s string) bool { return s == "" })
	slices.Sort(out)

	return slices.Compact(out)
}
