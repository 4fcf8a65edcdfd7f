// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"time"
)

// Status is the terminal classification of a job.
type Status int

const (
	// StatusSuccess means the process exited with code 0 within its deadline.
	StatusSuccess Status = iota
	// StatusNonZeroExit means the process exited within its deadline with a non-zero code.
	StatusNonZeroExit
	// StatusTimedOut means the process was still running at its deadline.
	StatusTimedOut
	// StatusLaunchFailed means the process could not be started.
	StatusLaunchFailed
)

var (
	// ErrNonZeroExit marks an outcome with StatusNonZeroExit.
	ErrNonZeroExit = errors.New("process exited with non-zero code")
	// ErrTimedOut marks an outcome with StatusTimedOut.
	ErrTimedOut = errors.New("process exceeded its time limit")
	// ErrLaunchFailed marks an outcome with StatusLaunchFailed.
	ErrLaunchFailed = errors.New("process could not be launched")
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNonZeroExit:
		return "non-zero exit"
	case StatusTimedOut:
		return "timed out"
	case StatusLaunchFailed:
		return "launch failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of running one Job. Exactly one is produced per Job.
type Outcome struct {
	TargetID  string        // Target of the job
	Status    Status        // Terminal classification
	ExitCode  int           // Process exit code; -1 when the process did not exit on its own
	Message   string        // Failure reason for TimedOut and LaunchFailed, signal description otherwise
	Duration  time.Duration // Wall time from launch attempt to classification
	Output    []byte        // Merged stdout and stderr, possibly truncated
	Truncated bool          // Output exceeded the capture limit
}

// Success reports whether the job succeeded.
func (o *Outcome) Success() bool {
	return o.Status == StatusSuccess
}

// Err returns nil for a successful outcome, otherwise an error wrapping the
// sentinel for the status.
func (o *Outcome) Err() error {
	switch o.Status {
	case StatusSuccess:
		return nil
	case StatusNonZeroExit:
		return fmt.Errorf("%w: exit code %d", ErrNonZeroExit, o.ExitCode)
	case StatusTimedOut:
		return fmt.Errorf("%w: %s", ErrTimedOut, o.Message)
	case StatusLaunchFailed:
		return fmt.Errorf("%w: %s", ErrLaunchFailed, o.Message)
	default:
		return fmt.Errorf("unknown status %d", o.Status)
	}
}

// Detail is the human-readable failure description used in reports.
func (o *Outcome) Detail() string {
	switch o.Status {
	case StatusSuccess:
		return ""
	case StatusNonZeroExit:
		if o.Message != "" {
			return fmt.Sprintf("exit code %d (%s)", o.ExitCode, o.Message)
		}

		return fmt.Sprintf("exit code %d", o.ExitCode)
	default:
		return o.Message
	}
}

func launchFailed(targetID string, err error) *Outcome {
	return &Outcome{
		TargetID: targetID,
		Status:   StatusLaunchFailed,
		ExitCode: -1,
		Message:  err.Error(),
	}
}
