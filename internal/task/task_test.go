package task

import (
	"testing"
	"time"
)

func TestChanEmitter_Emit(t *testing.T) {
	ch := make(chan Event, 1)
	e := &ChanEmitter{Ch: ch}

	e.Emit(Event{Task: "build", Status: StatusRunning, Message: "started"})

	select {
	case ev := <-ch:
		if ev.Task != "build" {
			t.Errorf("Task: expected %q, got %q", "build", ev.Task)
		}
		if ev.Status != StatusRunning {
			t.Errorf("Status: expected %q, got %q", StatusRunning, ev.Status)
		}
		if ev.Timestamp.IsZero() {
			t.Error("Timestamp: expected to be set, got zero")
		}
	default:
		t.Fatal("expected event on channel")
	}
}

func TestChanEmitter_Emit_DropsWhenFull(t *testing.T) {
	ch := make(chan Event, 1)
	e := &ChanEmitter{Ch: ch}

	e.Emit(Event{Task: "first"})
	e.Emit(Event{Task: "second"}) // must not block

	ev := <-ch
	if ev.Task != "first" {
		t.Errorf("Task: expected %q, got %q", "first", ev.Task)
	}
	select {
	case ev := <-ch:
		t.Errorf("expected second event dropped, got %q", ev.Task)
	default:
	}
}

func TestChanEmitter_Emit_KeepsExplicitTimestamp(t *testing.T) {
	ch := make(chan Event, 1)
	e := &ChanEmitter{Ch: ch}
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	e.Emit(Event{Task: "build", Timestamp: ts})

	ev := <-ch
	if !ev.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: expected %v, got %v", ts, ev.Timestamp)
	}
}
