// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/gentests/internal/progress"
	"github.com/matt-FFFFFF/gentests/internal/runbatch"
)

const (
	defaultWidth  = 100
	defaultHeight = 24
)

// JobStatus represents the current state of a job in the TUI.
type JobStatus int

const (
	StatusQueued JobStatus = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
)

// String returns a string representation of the job status.
func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobRow is one line of the job list.
type JobRow struct {
	Target     string
	Status     JobStatus
	StartTime  time.Time
	EndTime    time.Time
	LastOutput string
	Detail     string
}

// Elapsed returns how long the job has been running, or ran for.
func (r *JobRow) Elapsed(now time.Time) time.Duration {
	switch {
	case r.StartTime.IsZero():
		return 0
	case r.EndTime.IsZero():
		return now.Sub(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

// Model is the bubbletea model for a running batch.
type Model struct {
	rows     map[string]*JobRow
	order    []string
	width    int
	height   int
	quitting bool
	autoQuit bool

	completed bool
	report    *runbatch.Report
	batchErr  error

	viewport viewport.Model
	spinner  spinner.Model
	styles   *Styles
	now      func() time.Time
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title     lipgloss.Style
	Queued    lipgloss.Style
	Running   lipgloss.Style
	Succeeded lipgloss.Style
	Failed    lipgloss.Style
	Output    lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Queued: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Succeeded: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a new TUI model. With autoQuit the program exits as soon as
// the batch has completed instead of waiting for the user.
func NewModel(autoQuit bool) *Model {
	m := &Model{
		rows:     make(map[string]*JobRow),
		width:    defaultWidth,
		height:   defaultHeight,
		autoQuit: autoQuit,
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		styles:   NewStyles(),
		now:      time.Now,
	}

	m.viewport = viewport.New(m.width-2, m.viewportHeight()) //nolint:mnd // border

	return m
}

// Rows returns the job rows sorted by target.
func (m *Model) Rows() []JobRow {
	out := make([]JobRow, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.rows[id])
	}

	return out
}

// Completed reports whether the batch has finished.
func (m *Model) Completed() bool {
	return m.completed
}

// Counts returns the number of rows in each status.
func (m *Model) Counts() map[JobStatus]int {
	counts := make(map[JobStatus]int, 4) //nolint:mnd
	for _, r := range m.rows {
		counts[r.Status]++
	}

	return counts
}

// row returns the row for target, creating it in sorted position if needed.
func (m *Model) row(target string) *JobRow {
	if r, ok := m.rows[target]; ok {
		return r
	}

	r := &JobRow{Target: target}
	m.rows[target] = r

	i, _ := slices.BinarySearch(m.order, target)
	m.order = slices.Insert(m.order, i, target)

	return r
}

// applyEvent folds a progress event into the job rows.
func (m *Model) applyEvent(ev progress.Event) {
	r := m.row(ev.Target)

	switch ev.Type {
	case progress.EventQueued:
		r.Status = StatusQueued

	case progress.EventStarted:
		r.Status = StatusRunning
		r.StartTime = ev.Timestamp

	case progress.EventOutput:
		r.LastOutput = ev.Data.OutputLine

	case progress.EventCompleted:
		r.Status = StatusSucceeded
		r.EndTime = ev.Timestamp

	case progress.EventFailed:
		r.Status = StatusFailed
		r.EndTime = ev.Timestamp
		r.Detail = ev.Data.Detail
	}
}

// applyReport makes the rows agree with the final report, which is authoritative
// when events were dropped.
func (m *Model) applyReport(report *runbatch.Report) {
	if report == nil {
		return
	}

	for _, out := range report.Outcomes {
		r := m.row(out.TargetID)

		if out.Success() {
			r.Status = StatusSucceeded
			r.Detail = ""
		} else {
			r.Status = StatusFailed
			r.Detail = out.Detail()
		}

		if r.EndTime.IsZero() {
			r.EndTime = m.now()
		}

		if r.StartTime.IsZero() {
			r.StartTime = r.EndTime.Add(-out.Duration)
		}
	}
}

// viewportHeight returns the height left for the job list after the title,
// the summary line, the border and the help text.
func (m *Model) viewportHeight() int {
	const reservedLines = 7

	if m.height <= reservedLines {
		return 1
	}

	return m.height - reservedLines
}
