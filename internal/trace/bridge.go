package trace

import (
	"sync"
	"time"

	"github.com/go-logr/logr"

	"taskdeck/internal/task"
)

// Bridge converts task runner events into operation start and end events on
// an EventSink, forwarding every event to the wrapped emitter unchanged. With
// a Recorder sink it gives in-process runs the span pipeline; with a Client
// sink the run reports into another process's ingest server.
type Bridge struct {
	sink EventSink
	next task.Emitter
	log  logr.Logger

	mu  sync.Mutex
	ids map[string]string // scope/task -> operation ID
}

var _ task.Emitter = (*Bridge)(nil)

// NewBridge wraps next so task events also feed sink. A nil next discards
// the forwarded events.
func NewBridge(sink EventSink, next task.Emitter, log logr.Logger) *Bridge {
	if next == nil {
		next = task.NopEmitter{}
	}
	return &Bridge{
		sink: sink,
		next: next,
		log:  log,
		ids:  make(map[string]string),
	}
}

// Emit implements task.Emitter. The first running event for a task opens an
// operation; the terminal event closes it. Running events in between are
// progress updates and pass through untouched.
func (b *Bridge) Emit(ev task.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.next.Emit(ev)

	switch ev.Status {
	case task.StatusRunning:
		b.opStart(ev)
	case task.StatusSucceeded, task.StatusFailed:
		b.opEnd(ev)
	}
}

func (b *Bridge) opStart(ev task.Event) {
	key := ev.Scope + "/" + ev.Task
	b.mu.Lock()
	if _, running := b.ids[key]; running {
		b.mu.Unlock()
		return
	}
	id := NewOpID()
	b.ids[key] = id
	b.mu.Unlock()

	b.handle(OpEvent{
		Kind:      EventOpStart,
		ID:        id,
		Name:      ev.Task,
		Scope:     ev.Scope,
		Timestamp: ev.Timestamp,
	})
}

func (b *Bridge) opEnd(ev task.Event) {
	key := ev.Scope + "/" + ev.Task
	b.mu.Lock()
	id, running := b.ids[key]
	delete(b.ids, key)
	b.mu.Unlock()
	if !running {
		// Terminal event with no recorded start; nothing to close.
		return
	}

	detail := map[string]string{"status": string(ev.Status)}
	if ev.Err != nil {
		detail["error"] = ev.Err.Error()
	}
	b.handle(OpEvent{
		Kind:      EventOpEnd,
		ID:        id,
		Name:      ev.Task,
		Scope:     ev.Scope,
		Detail:    detail,
		Timestamp: ev.Timestamp,
	})
}

func (b *Bridge) handle(event OpEvent) {
	if err := b.sink.HandleEvent(event); err != nil {
		b.log.Error(err, "recording op event", "op", event.Name)
	}
}
