package main

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardEvents_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan tcell.Event)

	polls := 0
	poll := func() tcell.Event {
		polls++
		return tcell.NewEventResize(80, 24)
	}

	done := make(chan struct{})
	go func() {
		forwardEvents(ctx, poll, out)
		close(done)
	}()

	ev := <-out
	require.IsType(t, &tcell.EventResize{}, ev)

	// Nobody reads out any more; cancelling must release the sender.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder blocked after cancel")
	}
	assert.GreaterOrEqual(t, polls, 2)
}

func TestForwardEvents_EndsOnNilEvent(t *testing.T) {
	out := make(chan tcell.Event, 1)
	done := make(chan struct{})
	go func() {
		forwardEvents(context.Background(), func() tcell.Event { return nil }, out)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop on a nil event")
	}
	assert.Len(t, out, 0)
}
