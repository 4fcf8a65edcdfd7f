// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/gentests/internal/progress"
	"github.com/matt-FFFFFF/gentests/internal/runbatch"
)

const (
	minStatusBarAvailableHeight = 10
	durationRounding            = 100 * time.Millisecond
	targetColumnWidth           = 48
	ellipsis                    = "…"
)

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// BatchCompletedMsg indicates that every job of the batch has an outcome.
type BatchCompletedMsg struct {
	Report *runbatch.Report
	Err    error
}

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, 1) //nolint:mnd // border
		m.viewport.Height = m.viewportHeight()

		return m, nil

	case spinner.TickMsg:
		if m.completed {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case ProgressEventMsg:
		m.applyEvent(msg.Event)
		return m, nil

	case BatchCompletedMsg:
		m.completed = true
		m.report = msg.Report
		m.batchErr = msg.Err
		m.applyReport(msg.Report)

		if m.autoQuit {
			return m, tea.Quit
		}

		return m, nil
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	if m.quitting && !m.completed {
		return "Waiting for running jobs to finish...\n"
	}

	var content strings.Builder

	for _, id := range m.order {
		m.renderRow(&content, m.rows[id])
	}

	if m.completed {
		content.WriteString("\n")
		content.WriteString(m.completionBanner())
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("☕ Randoop test generation"))
	view.WriteString("\n")
	view.WriteString(m.statusBar())
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))

	if m.height > minStatusBarAvailableHeight {
		view.WriteString("\n")

		helpText := "↑/↓ to scroll, 'q' to stop launching new jobs and quit"
		if m.completed {
			helpText = "↑/↓ to scroll, 'q' to quit and show the report"
		}

		view.WriteString(m.styles.Help.Render(helpText))
	}

	return view.String()
}

func (m *Model) statusBar() string {
	c := m.Counts()

	return fmt.Sprintf("%d jobs: %d queued, %d running, %s, %s",
		len(m.rows),
		c[StatusQueued],
		c[StatusRunning],
		m.styles.Succeeded.Render(fmt.Sprintf("%d succeeded", c[StatusSucceeded])),
		m.styles.Failed.Render(fmt.Sprintf("%d failed", c[StatusFailed])))
}

func (m *Model) completionBanner() string {
	switch {
	case m.batchErr != nil:
		return m.styles.Error.Render("Batch could not run: " + m.batchErr.Error())
	case m.report != nil && m.report.HasFailure():
		return m.styles.Failed.Render("Batch completed with failures")
	}

	return m.styles.Succeeded.Render("Batch completed successfully")
}

// renderRow writes one job line: status icon, target, elapsed time, then the
// failure detail or, while running, the last output line.
func (m *Model) renderRow(b *strings.Builder, r *JobRow) {
	var (
		icon   string
		target = padRight(truncate(r.Target, targetColumnWidth), targetColumnWidth)
	)

	switch r.Status {
	case StatusQueued:
		icon = "·"
		target = m.styles.Queued.Render(target)
	case StatusRunning:
		icon = m.spinner.View()
		target = m.styles.Running.Render(target)
	case StatusSucceeded:
		icon = "✓"
		target = m.styles.Succeeded.Render(target)
	case StatusFailed:
		icon = "✗"
		target = m.styles.Failed.Render(target)
	}

	b.WriteString(icon)
	b.WriteString(" ")
	b.WriteString(target)

	if !r.StartTime.IsZero() {
		b.WriteString(m.styles.Output.Render(fmt.Sprintf(" %8v", r.Elapsed(m.now()).Round(durationRounding))))
	}

	room := m.viewport.Width - targetColumnWidth - 14 //nolint:mnd // icon, spacing and duration
	if room < 2 { //nolint:mnd
		b.WriteString("\n")
		return
	}

	switch {
	case r.Status == StatusFailed && r.Detail != "":
		b.WriteString("  ")
		b.WriteString(m.styles.Error.Render(truncate(r.Detail, room)))
	case r.Status == StatusRunning && r.LastOutput != "":
		b.WriteString("  ")
		b.WriteString(m.styles.Output.Render(truncate(r.LastOutput, room)))
	}

	b.WriteString("\n")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	if n <= 1 {
		return string(runes[:n])
	}

	return string(runes[:n-1]) + ellipsis
}

func padRight(s string, n int) string {
	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(" ", n-l)
	}

	return s
}
