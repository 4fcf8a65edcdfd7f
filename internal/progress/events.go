// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a real-time update about one job in a batch.
type Event struct {
	Target    string    // Target id of the job, e.g. com.example.Greeter
	Type      EventType // What happened
	Message   string    // Human-readable status message
	Timestamp time.Time // When the event occurred
	Data      EventData // Type-specific data
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventQueued indicates the job has been handed to the worker pool.
	EventQueued EventType = iota
	// EventStarted indicates the job's process has been launched.
	EventStarted
	// EventOutput indicates the job printed a new last line.
	EventOutput
	// EventCompleted indicates the job exited successfully.
	EventCompleted
	// EventFailed indicates the job did not launch, exited non-zero or timed out.
	EventFailed
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventQueued:
		return "queued"
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow this one for the same target.
func (et EventType) Terminal() bool {
	return et == EventCompleted || et == EventFailed
}

// EventData contains type-specific information for progress events.
type EventData struct {
	// For EventOutput
	OutputLine string

	// For EventCompleted/EventFailed
	ExitCode int
	Detail   string // Failure detail, e.g. "exit code 2"
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends a progress event. Implementations must not block and must be
	// safe for concurrent use.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives progress events from a ChannelReporter.
type Listener interface {
	// OnEvent is called for every delivered event, in order, from one goroutine.
	OnEvent(event Event)
}

// NullReporter is a no-op Reporter.
type NullReporter struct{}

// Report does nothing.
func (nr *NullReporter) Report(Event) {}

// Close does nothing.
func (nr *NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent calls f(event).
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}
