// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package latch provides a one-shot countdown latch.
//
// A CountDown starts at n and is released when n calls to CountDown have been made.
// Waiters are released together by closing a channel. A latch is never re-armed.
package latch

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrMisuse is the panic value when CountDown is called on a released latch.
	ErrMisuse = errors.New("latch: count down past zero")
	// ErrNegativeCount is the panic value when New is called with n < 0.
	ErrNegativeCount = errors.New("latch: negative count")
)

// CountDown is a countdown latch. The zero value is not usable; call New.
type CountDown struct {
	mu        sync.Mutex
	remaining int
	done      chan struct{}
}

// New returns a latch that is released after n calls to CountDown.
// A latch created with n == 0 is released immediately.
func New(n int) *CountDown {
	if n < 0 {
		panic(ErrNegativeCount)
	}

	c := &CountDown{
		remaining: n,
		done:      make(chan struct{}),
	}

	if n == 0 {
		close(c.done)
	}

	return c
}

// CountDown decrements the count by one and releases waiters when it reaches zero.
// Calling it more than n times is a programming error and panics with ErrMisuse.
func (c *CountDown) CountDown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remaining == 0 {
		panic(ErrMisuse)
	}

	c.remaining--

	if c.remaining == 0 {
		close(c.done)
	}
}

// Remaining returns the current count.
func (c *CountDown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.remaining
}

// Done returns a channel that is closed when the count reaches zero.
func (c *CountDown) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the count reaches zero.
func (c *CountDown) Wait() {
	<-c.done
}

// WaitTimeout blocks until the count reaches zero or d elapses.
// It reports whether zero was reached.
func (c *CountDown) WaitTimeout(d time.Duration) bool {
	select {
	case <-c.done:
		return true
	default:
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-c.done:
		return true
	case <-t.C:
		return false
	}
}
