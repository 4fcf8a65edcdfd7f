// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"encoding/gob"
	"errors"
	"io"
	"time"
)

var (
	// ErrWriteGob is returned when writing the report to a binary format fails.
	ErrWriteGob = errors.New("failed to write binary report")
	// ErrReadGob is returned when a binary report cannot be decoded.
	ErrReadGob = errors.New("failed to read binary report")
)

// Report aggregates the outcomes of one batch, ordered by target id.
type Report struct {
	BatchID  string
	Started  time.Time
	Finished time.Time
	Outcomes []*Outcome
}

// Duration is the wall time of the batch.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// HasFailure reports whether any job did not succeed.
func (r *Report) HasFailure() bool {
	for _, o := range r.Outcomes {
		if !o.Success() {
			return true
		}
	}

	return false
}

// Counts returns the number of outcomes per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4) //nolint:mnd

	for _, o := range r.Outcomes {
		counts[o.Status]++
	}

	return counts
}

// Failed returns the outcomes that did not succeed, in report order.
func (r *Report) Failed() []*Outcome {
	var failed []*Outcome

	for _, o := range r.Outcomes {
		if !o.Success() {
			failed = append(failed, o)
		}
	}

	return failed
}

// WriteBinary encodes the report with encoding/gob.
func (r *Report) WriteBinary(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(r); err != nil {
		return errors.Join(ErrWriteGob, err)
	}

	return nil
}

// ReadBinary decodes a report written by WriteBinary.
func ReadBinary(rd io.Reader) (*Report, error) {
	var r Report
	if err := gob.NewDecoder(rd).Decode(&r); err != nil {
		return nil, errors.Join(ErrReadGob, err)
	}

	return &r, nil
}
