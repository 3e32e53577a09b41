// Package task models the asynchronous workloads whose progress taskdeck
// displays, and runs them against progress indicators.
package task

import "time"

// Kind selects how a task runs and reports progress.
type Kind int

const (
	// KindDeterminate runs a fixed number of steps, one progress unit each.
	KindDeterminate Kind = iota
	// KindIndeterminate runs for a duration with no measurable total; its
	// display is tied to the operation's lifetime.
	KindIndeterminate
	// KindCommand runs an external command under a pseudo-terminal.
	KindCommand
)

// Status indicates the state of a task run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task describes one workload bound to a visual scope.
type Task struct {
	Name         string
	Scope        string
	Kind         Kind
	Steps        int           // KindDeterminate: total units
	StepInterval time.Duration // KindDeterminate: pause between units
	Duration     time.Duration // KindIndeterminate: operation lifetime
	Command      []string      // KindCommand: argv
	RevealDelay  time.Duration // postpone the widget reveal
}

// Event is the live feed for UIs: one entry per state change or output line.
type Event struct {
	Task      string
	Scope     string
	Status    Status
	Message   string
	Err       error
	Timestamp time.Time
}

// Emitter consumes task events.
type Emitter interface {
	Emit(ev Event)
}

// ChanEmitter emits events to a channel for a UI to consume.
type ChanEmitter struct {
	Ch chan<- Event
}

var _ Emitter = (*ChanEmitter)(nil)

// Emit sends the event to the channel (non-blocking; drops if full).
func (e *ChanEmitter) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case e.Ch <- ev:
	default:
		// Channel full; drop to avoid blocking the runner
	}
}

// NopEmitter discards events.
type NopEmitter struct{}

var _ Emitter = (*NopEmitter)(nil)

// Emit implements Emitter.
func (NopEmitter) Emit(Event) {}
