// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/gentests/internal/color"
)

// OutputOptions controls what is included in the text report.
type OutputOptions struct {
	IncludeOutput      bool // Whether to include captured process output
	ShowSuccessDetails bool // Whether to show output for successful jobs too
}

// DefaultOutputOptions returns the options used by `gentests run`.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeOutput:      true,
		ShowSuccessDetails: false,
	}
}

// WriteText writes one line per job followed by a summary line.
func (r *Report) WriteText(w io.Writer, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	for _, o := range r.Outcomes {
		if err := writeOutcome(w, o, options); err != nil {
			return err
		}
	}

	return writeSummary(w, r)
}

func writeOutcome(w io.Writer, o *Outcome, options *OutputOptions) error {
	var glyph string

	var labelColor color.Code

	switch o.Status {
	case StatusSuccess:
		glyph = color.Colorize("✓", color.FgGreen)
		labelColor = color.FgGreen
	case StatusTimedOut:
		glyph = color.Colorize("⏱", color.FgYellow)
		labelColor = color.FgYellow
	case StatusNonZeroExit, StatusLaunchFailed:
		glyph = color.Colorize("✗", color.FgRed)
		labelColor = color.FgRed
	default:
		glyph = color.Colorize("?", color.FgWhite)
		labelColor = color.FgWhite
	}

	if _, err := fmt.Fprintf(w, "%s %s %s",
		glyph,
		color.Colorize(o.TargetID, color.Bold, labelColor),
		color.Colorize("("+o.Status.String()+", "+o.Duration.Round(time.Millisecond).String()+")", color.Faint),
	); err != nil {
		return err //nolint:wrapcheck
	}

	if !o.Success() {
		fmt.Fprintf(w, " %s %s", color.Colorize("➜", labelColor), o.Detail()) // nolint:errcheck
	}

	fmt.Fprintln(w) // nolint:errcheck

	showOutput := options.IncludeOutput && len(o.Output) > 0 && (!o.Success() || options.ShowSuccessDetails)
	if !showOutput {
		return nil
	}

	header := "➜ Output:"
	if o.Truncated {
		header = "➜ Output (truncated):"
	}

	fmt.Fprintf(w, "  %s\n", color.Colorize(header, color.FgHiWhite)) // nolint:errcheck
	fmt.Fprint(w, formatOutput(o.Output, "     "))                   // nolint:errcheck

	return nil
}

func writeSummary(w io.Writer, r *Report) error {
	counts := r.Counts()

	summaryColor := color.FgGreen
	if r.HasFailure() {
		summaryColor = color.FgRed
	}

	_, err := fmt.Fprintln(w, color.Colorize(fmt.Sprintf(
		"%d jobs in %s: %d succeeded, %d failed, %d timed out, %d did not launch",
		len(r.Outcomes),
		r.Duration().Round(time.Millisecond),
		counts[StatusSuccess],
		counts[StatusNonZeroExit],
		counts[StatusTimedOut],
		counts[StatusLaunchFailed],
	), color.Bold, summaryColor))

	return err //nolint:wrapcheck
}

// formatOutput indents every non-empty line of output.
func formatOutput(output []byte, indent string) string {
	sb := strings.Builder{}
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	sb.Grow(len(output) + len(lines)*len(indent))

	for _, line := range lines {
		if line == "" {
			sb.WriteString("\n")
			continue
		}

		sb.WriteString(indent)
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	return sb.String()
}
