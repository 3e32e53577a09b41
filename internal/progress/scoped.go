package progress

import (
	"sync"
	"time"
)

// ScopedIndicator reports progress for one visual scope that the user can
// hide and reshow independently of the operations reporting into it. While
// the scope is inactive every update lands in the recorded State only; on
// reactivation the state is replayed onto the widget so the result is
// indistinguishable from having been visible the whole time.
type ScopedIndicator struct {
	mu      sync.Mutex
	widget  Widget
	scopeID string
	active  bool
	state   State
	waiters map[*Operation][]chan struct{}

	listener *scopeListener

	// now is the clock; tests substitute it to pin delay arithmetic.
	now func() time.Time
}

var _ Indicator = (*ScopedIndicator)(nil)

// NewScopedIndicator binds widget to the scope identified by scopeID and
// subscribes to src for that scope's open and close events. The reporter
// starts inactive; an empty scopeID means the scope cannot be hidden, which
// forces it active from the start. Call Close to release the subscriptions.
func NewScopedIndicator(widget Widget, scopeID string, src ScopeEventSource) *ScopedIndicator {
	s := &ScopedIndicator{
		widget:  widget,
		scopeID: scopeID,
		active:  scopeID == "",
		state:   StateNone{},
		waiters: make(map[*Operation][]chan struct{}),
		now:     time.Now,
	}
	s.listener = newScopeListener(src, scopeID, s.activate, s.deactivate)
	return s
}

// ScopeID returns the scope this reporter is bound to.
func (s *ScopedIndicator) ScopeID() string {
	return s.scopeID
}

// Active reports whether the reporter's scope is currently the visible one.
func (s *ScopedIndicator) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// State returns the currently recorded progress state.
func (s *ScopedIndicator) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close releases the scope event subscriptions. The reporter still accepts
// progress calls afterwards; it only stops reacting to scope changes.
// Idempotent.
func (s *ScopedIndicator) Close() {
	s.listener.close()
}

func (s *ScopedIndicator) activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.replayLocked()
}

func (s *ScopedIndicator) deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The surrounding UI is tearing the widget down on its own; only the
	// flag flips here.
	s.active = false
}

// replayLocked projects the recorded state onto the widget. Replay never
// mutates state.
func (s *ScopedIndicator) replayLocked() {
	switch st := s.state.(type) {
	case StateNone, StateDone:
		// Nothing to show. Done stays terminal until a new show call.
	case StateWhile:
		s.widget.StartIndeterminate()
		s.widget.Reveal(RemainingDelay(st, s.now()))
	case StateInfinite:
		// An already-running operation: no delay on re-reveal.
		s.widget.StartIndeterminate()
		s.widget.Reveal(0)
	case StateWork:
		// Total must be re-established before worked.
		if st.HasTotal {
			s.widget.StartDeterminate(st.Total)
		}
		if st.HasWorked {
			s.widget.SetWorked(st.Worked)
		}
		s.widget.Reveal(0)
	}
}

// ShowIndeterminate implements Indicator.
func (s *ScopedIndicator) ShowIndeterminate(delay time.Duration) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Transition(s.state, SetInfinite{})
	if s.active {
		s.widget.StartIndeterminate()
		s.widget.Reveal(delay)
	}
	return &scopedHandle{r: s}
}

// ShowDeterminate implements Indicator.
func (s *ScopedIndicator) ShowDeterminate(total int, delay time.Duration) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Transition(s.state, SetTotal{Total: total})
	if s.active {
		s.widget.StartDeterminate(total)
		// StartDeterminate restarted the count; re-issue carried worked.
		if work := s.state.(StateWork); work.HasWorked {
			s.widget.SetWorked(work.Worked)
		}
		s.widget.Reveal(delay)
	}
	return &scopedHandle{r: s}
}

// ShowWhile implements Indicator.
func (s *ScopedIndicator) ShowWhile(op *Operation, delay time.Duration) <-chan struct{} {
	released := make(chan struct{})

	s.mu.Lock()
	var prevGroup *Operation
	if prev, ok := s.state.(StateWhile); ok {
		prevGroup = prev.Op
	}
	s.state = Transition(s.state, BeginWhile{Op: op, Start: s.now(), Delay: delay})
	group := s.state.(StateWhile).Op
	if prevGroup != nil && prevGroup != group {
		// Waiters on the superseded group now wait for the joined one.
		s.waiters[group] = append(s.waiters[group], s.waiters[prevGroup]...)
		delete(s.waiters, prevGroup)
	}
	s.waiters[group] = append(s.waiters[group], released)
	if s.active {
		s.widget.StartIndeterminate()
		s.widget.Reveal(delay)
	}
	s.mu.Unlock()

	go func() {
		<-group.Done()
		s.settleWhile(group)
	}()
	return released
}

// settleWhile runs when a pending group settles. Display is stopped only if
// the state still refers to that exact group; a newer show or showWhile
// supersedes it and makes the settlement stale for display purposes. Waiters
// for the group are always released.
func (s *ScopedIndicator) settleWhile(group *Operation) {
	s.mu.Lock()
	ws := s.waiters[group]
	delete(s.waiters, group)
	prev, wasCurrent := s.state.(StateWhile)
	current := wasCurrent && prev.Op == group
	s.state = Transition(s.state, ResolveWhile{Op: group})
	if current && s.active {
		s.widget.Stop()
		s.widget.Conceal()
	}
	s.mu.Unlock()

	for _, w := range ws {
		close(w)
	}
}

// workedLocked applies the worked rule: the amount is accepted into the
// recorded state when the reporter is inactive or the widget can count it
// against a total; otherwise both state and widget fall back to the infinite
// animation.
func (s *ScopedIndicator) workedLocked(n int) {
	if s.active && !s.widget.HasTotal() {
		s.state = Transition(s.state, SetInfinite{})
		s.widget.StartIndeterminate()
		s.widget.Reveal(0)
		return
	}
	s.state = Transition(s.state, AddWorked{Worked: n})
	if s.active {
		s.widget.SetWorked(n)
		s.widget.Reveal(0)
	}
}

// scopedHandle holds a non-owning reference back to its reporter. All
// mutation runs under the reporter's lock; after Done the handle goes inert.
type scopedHandle struct {
	r    *ScopedIndicator
	done bool
}

func (h *scopedHandle) Total(n int) {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	if h.done {
		return
	}
	h.r.state = Transition(h.r.state, SetTotal{Total: n})
	if h.r.active {
		h.r.widget.StartDeterminate(n)
		if work := h.r.state.(StateWork); work.HasWorked {
			h.r.widget.SetWorked(work.Worked)
		}
	}
}

func (h *scopedHandle) Worked(n int) {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	if h.done {
		return
	}
	h.r.workedLocked(n)
}

func (h *scopedHandle) Done() {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	if h.done {
		return
	}
	h.done = true
	h.r.state = Transition(h.r.state, MarkDone{})
	if h.r.active {
		h.r.widget.Stop()
		h.r.widget.Conceal()
	}
}

// scopeListener wires one scope's open and close events to two callbacks.
// The reporter supplies the callbacks, the listener owns the subscriptions.
type scopeListener struct {
	once         sync.Once
	cancelOpened func()
	cancelClosed func()
}

func newScopeListener(src ScopeEventSource, scopeID string, onOpen, onClose func()) *scopeListener {
	l := &scopeListener{}
	l.cancelOpened = src.SubscribeOpened(func(id string) {
		if id == scopeID {
			onOpen()
		}
	})
	l.cancelClosed = src.SubscribeClosed(func(id string) {
		if id == scopeID {
			onClose()
		}
	})
	return l
}

func (l *scopeListener) close() {
	l.once.Do(func() {
		l.cancelOpened()
		l.cancelClosed()
	})
}
