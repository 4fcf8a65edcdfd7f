// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrEmptyTarget is returned when a job has no target id.
	ErrEmptyTarget = errors.New("job target must not be empty")
	// ErrInvalidTimeout is returned when a job timeout is not positive.
	ErrInvalidTimeout = errors.New("job timeout must be a positive number of seconds")
)

// Job describes one external process invocation for a single target.
// It is immutable: the token slice is copied on the way in and on the way out.
type Job struct {
	targetID       string
	tokens         []string
	workingDir     string
	timeoutSeconds int
}

// NewJob validates and builds a Job. An empty workingDir means the current directory.
func NewJob(targetID string, tokens []string, workingDir string, timeoutSeconds int) (*Job, error) {
	if targetID == "" {
		return nil, ErrEmptyTarget
	}

	if timeoutSeconds < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTimeout, timeoutSeconds)
	}

	return &Job{
		targetID:       targetID,
		tokens:         slices.Clone(tokens),
		workingDir:     workingDir,
		timeoutSeconds: timeoutSeconds,
	}, nil
}

// TargetID returns the target this job generates tests for.
func (j *Job) TargetID() string {
	return j.targetID
}

// Tokens returns a copy of the command line, executable first.
func (j *Job) Tokens() []string {
	return slices.Clone(j.tokens)
}

// WorkingDirectory returns the directory the process is started in.
func (j *Job) WorkingDirectory() string {
	return j.workingDir
}

// TimeoutSeconds returns the job's time budget.
func (j *Job) TimeoutSeconds() int {
	return j.timeoutSeconds
}

// Timeout returns the job's time budget as a duration.
func (j *Job) Timeout() time.Duration {
	return time.Duration(j.timeoutSeconds) * time.Second
}
