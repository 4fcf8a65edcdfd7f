// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
	"github.com/matt-FFFFFF/gentests/internal/progress"
	"github.com/matt-FFFFFF/gentests/internal/runbatch"
)

const eventBufferSize = 1024

// ErrTUI is returned when the terminal UI fails; the batch result is still returned with it.
var ErrTUI = errors.New("terminal UI error")

// BatchFunc runs a batch. The context it receives carries the progress reporter.
type BatchFunc func(ctx context.Context) (*runbatch.Report, error)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model   *Model
	program *tea.Program
	mutex   sync.Mutex
}

type options struct {
	autoQuit    bool
	programOpts []tea.ProgramOption
}

// Option configures a Runner.
type Option func(*options)

// WithAutoQuit makes the UI exit as soon as the batch has completed.
func WithAutoQuit() Option {
	return func(o *options) {
		o.autoQuit = true
	}
}

// WithProgramOptions passes options through to the bubbletea program.
// When none are given the program uses the alternate screen.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(o *options) {
		o.programOpts = append(o.programOpts, opts...)
	}
}

// NewRunner creates a new TUI runner.
func NewRunner(ctx context.Context, opts ...Option) *Runner {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if len(o.programOpts) == 0 {
		o.programOpts = []tea.ProgramOption{tea.WithAltScreen()}
	}

	model := NewModel(o.autoQuit)
	program := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithContext(ctx)}, o.programOpts...)...)

	return &Runner{
		model:   model,
		program: program,
	}
}

// Run starts the TUI and runs batch with a progress reporter that feeds it.
//
// If the user quits before the batch has completed, jobs that have not been
// launched yet are cancelled and running ones are waited for, so a report is
// always returned once batch does.
func (r *Runner) Run(ctx context.Context, batch BatchFunc) (*runbatch.Report, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := progress.NewChannelReporter(batchCtx, eventBufferSize)
	reporter.Listen(progress.ListenerFunc(func(ev progress.Event) {
		r.program.Send(ProgressEventMsg{Event: ev})
	}))

	type result struct {
		report *runbatch.Report
		err    error
	}

	resultCh := make(chan result, 1)

	go func() {
		report, err := batch(progress.NewContext(batchCtx, reporter))

		// Close flushes buffered events so the completion message comes last.
		reporter.Close()
		r.program.Send(BatchCompletedMsg{Report: report, Err: err})

		resultCh <- result{report: report, err: err}
	}()

	_, tuiErr := r.program.Run()

	if !r.model.Completed() {
		ctxlog.Info(ctx, "terminal UI closed before the batch completed, not launching further jobs")
		cancel()
	}

	res := <-resultCh

	// Cancellation and interrupts end the UI on purpose.
	if tuiErr != nil && ctx.Err() == nil && !errors.Is(tuiErr, tea.ErrInterrupted) {
		return res.report, errors.Join(ErrTUI, tuiErr, res.err)
	}

	return res.report, res.err
}
