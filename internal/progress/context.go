// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"time"
)

type ctxKey struct{}

// NewContext returns a copy of ctx that carries r.
func NewContext(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, ctxKey{}, r)
}

// FromContext returns the Reporter stored in ctx, or a NullReporter if there is none.
func FromContext(ctx context.Context) Reporter {
	if r, ok := ctx.Value(ctxKey{}).(Reporter); ok && r != nil {
		return r
	}

	return NewNullReporter()
}

// Send reports an event for target to the Reporter in ctx, stamping it with the current time.
func Send(ctx context.Context, target string, typ EventType, msg string, data EventData) {
	FromContext(ctx).Report(Event{
		Target:    target,
		Type:      typ,
		Message:   msg,
		Timestamp: time.Now(),
		Data:      data,
	})
}
