// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/gentests/internal/progress"
	"github.com/matt-FFFFFF/gentests/internal/runbatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headless() Option {
	return WithProgramOptions(tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutSignalHandler())
}

func TestRunner_RunAutoQuit(t *testing.T) {
	ctx := t.Context()
	r := NewRunner(ctx, WithAutoQuit(), headless())

	want := &runbatch.Report{BatchID: "b-1", Outcomes: []*runbatch.Outcome{
		{TargetID: "com.example.A", Status: runbatch.StatusSuccess},
	}}

	report, err := r.Run(ctx, func(ctx context.Context) (*runbatch.Report, error) {
		progress.Send(ctx, "com.example.A", progress.EventQueued, "", progress.EventData{})
		progress.Send(ctx, "com.example.A", progress.EventStarted, "", progress.EventData{})
		progress.Send(ctx, "com.example.A", progress.EventCompleted, "", progress.EventData{})

		return want, nil
	})

	require.NoError(t, err)
	assert.Same(t, want, report)
	assert.True(t, r.model.Completed())

	rows := r.model.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, StatusSucceeded, rows[0].Status)
}

func TestRunner_BatchErrorIsReturned(t *testing.T) {
	ctx := t.Context()
	r := NewRunner(ctx, WithAutoQuit(), headless())

	batchErr := errors.New("boom")

	report, err := r.Run(ctx, func(context.Context) (*runbatch.Report, error) {
		return nil, batchErr
	})

	assert.Nil(t, report)
	require.ErrorIs(t, err, batchErr)
	assert.NotErrorIs(t, err, ErrTUI)
}

func TestRunner_CancelStopsBatchAndUI(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	r := NewRunner(ctx, headless())

	started := make(chan struct{})

	go func() {
		<-started
		cancel()
	}()

	done := make(chan struct{})

	var (
		report *runbatch.Report
		err    error
	)

	go func() {
		defer close(done)

		report, err = r.Run(ctx, func(ctx context.Context) (*runbatch.Report, error) {
			close(started)
			<-ctx.Done()

			return &runbatch.Report{BatchID: "cancelled"}, nil
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "cancelled", report.BatchID)
}
