package progress

import (
	"fmt"
	"time"
)

// StateKind tags the variants of State.
type StateKind int

const (
	KindNone StateKind = iota
	KindDone
	KindInfinite
	KindWhile
	KindWork
)

func (k StateKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDone:
		return "done"
	case KindInfinite:
		return "infinite"
	case KindWhile:
		return "while"
	case KindWork:
		return "work"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the progress a reporter currently tracks. Exactly one value is
// held per reporter at any instant; values are immutable and replaced, never
// mutated. The union is sealed: only the variants in this file implement it.
type State interface {
	Kind() StateKind
	isState()
}

// StateNone means no operation is in progress. Initial state.
type StateNone struct{}

// StateDone means the most recent operation completed. Terminal for
// activation replay until superseded by a new show or showWhile call.
type StateDone struct{}

// StateInfinite means an indeterminate operation is in progress.
type StateInfinite struct{}

// StateWhile ties the display to the lifetime of a pending operation. Op
// identity (pointer equality) decides whether a later settlement is current
// or stale. Start and Delay allow recomputing the remaining reveal delay when
// a hidden scope comes back.
type StateWhile struct {
	Op    *Operation
	Start time.Time
	Delay time.Duration
}

// StateWork is a quantifiable operation. Total and Worked are optional:
// HasTotal false means no total was declared yet, HasWorked false means no
// units were reported yet. Values are forwarded verbatim, negatives included.
type StateWork struct {
	Total     int
	HasTotal  bool
	Worked    int
	HasWorked bool
}

func (StateNone) Kind() StateKind     { return KindNone }
func (StateDone) Kind() StateKind     { return KindDone }
func (StateInfinite) Kind() StateKind { return KindInfinite }
func (StateWhile) Kind() StateKind    { return KindWhile }
func (StateWork) Kind() StateKind     { return KindWork }

func (StateNone) isState()     {}
func (StateDone) isState()     {}
func (StateInfinite) isState() {}
func (StateWhile) isState()    {}
func (StateWork) isState()     {}

// Event is a progress state machine input. The union is sealed.
type Event interface {
	isEvent()
}

// SetInfinite switches to indeterminate display.
type SetInfinite struct{}

// SetTotal declares (or re-declares) a determinate unit total.
type SetTotal struct {
	Total int
}

// AddWorked reports amount units completed since the last report.
type AddWorked struct {
	Worked int
}

// MarkDone ends the current operation.
type MarkDone struct{}

// BeginWhile ties display to Op until it settles. Start is the caller's
// clock reading for the event; Transition never reads the wall clock itself.
type BeginWhile struct {
	Op    *Operation
	Start time.Time
	Delay time.Duration
}

// ResolveWhile reports that Op has settled.
type ResolveWhile struct {
	Op *Operation
}

func (SetInfinite) isEvent()  {}
func (SetTotal) isEvent()     {}
func (AddWorked) isEvent()    {}
func (MarkDone) isEvent()     {}
func (BeginWhile) isEvent()   {}
func (ResolveWhile) isEvent() {}

// Transition is the progress state machine: a total function from the
// current state and an event to the next state. It has no side effects
// beyond constructing the join node for overlapping while operations.
//
// Rules:
//   - SetInfinite, MarkDone: from any state.
//   - SetTotal: enters Work; a previous Work's worked count is carried over.
//   - AddWorked: accumulates on Work; on any other state it falls back to
//     Infinite, because a bare worked amount without a total cannot be
//     represented determinately.
//   - BeginWhile over a pending While joins the two operations so display
//     ends only once both settle; the earliest start is kept so remaining
//     reveal delays never grow. Re-announcing the same operation only
//     refreshes the delay.
//   - ResolveWhile ends the While it refers to; a settlement for any other
//     operation is stale and leaves the state unchanged.
func Transition(cur State, ev Event) State {
	switch ev := ev.(type) {
	case SetInfinite:
		return StateInfinite{}
	case SetTotal:
		next := StateWork{Total: ev.Total, HasTotal: true}
		if prev, ok := cur.(StateWork); ok && prev.HasWorked {
			next.Worked = prev.Worked
			next.HasWorked = true
		}
		return next
	case AddWorked:
		if prev, ok := cur.(StateWork); ok {
			prev.Worked += ev.Worked
			prev.HasWorked = true
			return prev
		}
		return StateInfinite{}
	case MarkDone:
		return StateDone{}
	case BeginWhile:
		prev, ok := cur.(StateWhile)
		if !ok {
			return StateWhile{Op: ev.Op, Start: ev.Start, Delay: ev.Delay}
		}
		if prev.Op == ev.Op {
			return StateWhile{Op: prev.Op, Start: prev.Start, Delay: ev.Delay}
		}
		start := prev.Start
		if ev.Start.Before(start) {
			start = ev.Start
		}
		return StateWhile{Op: Join(prev.Op, ev.Op), Start: start, Delay: ev.Delay}
	case ResolveWhile:
		if prev, ok := cur.(StateWhile); ok && prev.Op == ev.Op {
			return StateNone{}
		}
		return cur
	default:
		panic(fmt.Sprintf("progress: unhandled event %T", ev))
	}
}

// RemainingDelay is the portion of a While's reveal delay still outstanding
// at now, never negative. A scope reactivating mid-wait honors only this
// remainder, never the full original delay again.
func RemainingDelay(st StateWhile, now time.Time) time.Duration {
	if st.Delay <= 0 {
		return 0
	}
	remaining := st.Delay - now.Sub(st.Start)
	if remaining < 0 {
		return 0
	}
	return remaining
}
