// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEventType_String(t *testing.T) {
	tests := []struct {
		eventType EventType
		expected  string
		terminal  bool
	}{
		{EventQueued, "queued", false},
		{EventStarted, "started", false},
		{EventOutput, "output", false},
		{EventCompleted, "completed", true},
		{EventFailed, "failed", true},
		{EventType(999), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
			assert.Equal(t, tt.terminal, tt.eventType.Terminal())
		})
	}
}

func TestNullReporter(t *testing.T) {
	reporter := NewNullReporter()
	require.NotNil(t, reporter)

	reporter.Report(Event{
		Target:    "com.example.A",
		Type:      EventStarted,
		Message:   "test message",
		Timestamp: time.Now(),
	})

	reporter.Close()
}

func TestFromContext(t *testing.T) {
	t.Run("default is a null reporter", func(t *testing.T) {
		assert.IsType(t, &NullReporter{}, FromContext(context.Background()))
	})

	t.Run("returns the stored reporter", func(t *testing.T) {
		reporter := NewChannelReporter(context.Background(), 1)
		defer reporter.Close()

		ctx := NewContext(context.Background(), reporter)
		assert.Same(t, reporter, FromContext(ctx))
	})
}

func TestSend(t *testing.T) {
	reporter := NewChannelReporter(context.Background(), 1)
	defer reporter.Close()

	ctx := NewContext(context.Background(), reporter)
	Send(ctx, "com.example.A", EventFailed, "job failed", EventData{ExitCode: 2, Detail: "exit code 2"})

	select {
	case ev := <-reporter.Events():
		assert.Equal(t, "com.example.A", ev.Target)
		assert.Equal(t, EventFailed, ev.Type)
		assert.Equal(t, 2, ev.Data.ExitCode)
		assert.Equal(t, "exit code 2", ev.Data.Detail)
		assert.False(t, ev.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not received")
	}
}

func TestChannelReporter(t *testing.T) {
	reporter := NewChannelReporter(context.Background(), 10)
	require.NotNil(t, reporter)

	event := Event{
		Target:    "com.example.A",
		Type:      EventStarted,
		Message:   "job started",
		Timestamp: time.Now(),
	}

	reporter.Report(event)

	select {
	case received := <-reporter.Events():
		assert.Equal(t, event.Target, received.Target)
		assert.Equal(t, event.Type, received.Type)
		assert.Equal(t, event.Message, received.Message)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Event not received within timeout")
	}

	reporter.Close()
	reporter.Close()

	// Dropped, and must not panic on the closed channel.
	reporter.Report(Event{Type: EventCompleted})
	assert.Error(t, reporter.Context().Err())
}

func TestChannelReporter_BufferOverflow(t *testing.T) {
	reporter := NewChannelReporter(context.Background(), 1)

	reporter.Report(Event{Type: EventStarted, Message: "Event 1"})

	done := make(chan struct{})

	go func() {
		defer close(done)
		reporter.Report(Event{Type: EventOutput, Message: "Event 2"})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Report blocked on a full buffer")
	}

	reporter.Close()
}

type mockListener struct {
	mu     sync.Mutex
	events []Event
}

func (ml *mockListener) OnEvent(event Event) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.events = append(ml.events, event)
}

func TestChannelReporter_Listen(t *testing.T) {
	reporter := NewChannelReporter(context.Background(), 10)

	listener := &mockListener{}
	reporter.Listen(listener)

	events := []Event{
		{Target: "a", Type: EventQueued},
		{Target: "a", Type: EventStarted},
		{Target: "a", Type: EventCompleted},
	}

	for _, event := range events {
		reporter.Report(event)
	}

	// Close waits for the listener to drain what was buffered.
	reporter.Close()

	listener.mu.Lock()
	defer listener.mu.Unlock()

	require.Len(t, listener.events, len(events))

	for i, expected := range events {
		assert.Equal(t, expected.Type, listener.events[i].Type)
	}
}

func TestChannelReporter_ConcurrentReportAndClose(t *testing.T) {
	reporter := NewChannelReporter(context.Background(), 4)
	reporter.Listen(ListenerFunc(func(Event) {}))

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 100 {
				reporter.Report(Event{Type: EventOutput})
			}
		}()
	}

	reporter.Close()
	wg.Wait()
}
