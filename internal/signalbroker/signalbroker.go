// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns termination signals into a two-step shutdown.
//
// The first signal of a kind is logged and otherwise ignored so running jobs can
// reach their own deadline. The second signal of the same kind cancels the context,
// which stops queued jobs from being launched.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/gentests/internal/ctxlog"
)

var termSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// New registers a channel for sigs, or for the termination signals when none are given.
// Call Stop to unregister it.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	if len(sigs) == 0 {
		sigs = termSignals
	}

	ch := make(chan os.Signal, 1)

	ctxlog.Debug(ctx, "registering signal handler", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unregisters ch. It does not close it.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
