package progress

import (
	"sync"
	"time"
)

// Indicator is the progress reporting contract. Callers hold either variant
// (WidgetIndicator or ScopedIndicator) without knowing which.
type Indicator interface {
	// ShowIndeterminate starts tracking an operation with no measurable
	// total. The widget reveal is postponed by delay when positive.
	ShowIndeterminate(delay time.Duration) Handle
	// ShowDeterminate starts tracking an operation with a declared unit
	// total. The widget reveal is postponed by delay when positive.
	ShowDeterminate(total int, delay time.Duration) Handle
	// ShowWhile ties indeterminate display to op's lifetime. When another
	// while operation is already pending the two are joined: display ends
	// only once every joined operation has settled, in any order and with
	// any outcome. The returned channel closes once the caller's joined
	// group has fully settled and stop processing ran; it never reports
	// the operation's outcome.
	ShowWhile(op *Operation, delay time.Duration) <-chan struct{}
}

// Handle reports into the operation a Show call started. Total and Worked
// follow the state machine transitions; Done ends the operation. After Done
// every call on the handle is a no-op. Done itself is idempotent: the widget
// observes stop and conceal exactly once per handle.
type Handle interface {
	Total(n int)
	Worked(n int)
	Done()
}

// WidgetIndicator reports into a widget that is always visible, so there is
// nothing to replay and no progress state is retained. Only the pending
// while group and its waiters are tracked, which the joining contract
// requires. A Show call does not disarm a pending group's settlement: a
// group settling after a later Show still stops the widget. ScopedIndicator
// records state and suppresses such stale settlements; callers that need
// the newer display to survive should use it instead.
type WidgetIndicator struct {
	mu      sync.Mutex
	widget  Widget
	pending *Operation
	waiters map[*Operation][]chan struct{}
}

var _ Indicator = (*WidgetIndicator)(nil)

// NewWidgetIndicator returns an indicator forwarding every call to widget.
func NewWidgetIndicator(widget Widget) *WidgetIndicator {
	return &WidgetIndicator{
		widget:  widget,
		waiters: make(map[*Operation][]chan struct{}),
	}
}

// ShowIndeterminate implements Indicator.
func (u *WidgetIndicator) ShowIndeterminate(delay time.Duration) Handle {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.widget.StartIndeterminate()
	u.widget.Reveal(delay)
	return &widgetHandle{u: u}
}

// ShowDeterminate implements Indicator.
func (u *WidgetIndicator) ShowDeterminate(total int, delay time.Duration) Handle {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.widget.StartDeterminate(total)
	u.widget.Reveal(delay)
	return &widgetHandle{u: u}
}

// ShowWhile implements Indicator.
func (u *WidgetIndicator) ShowWhile(op *Operation, delay time.Duration) <-chan struct{} {
	released := make(chan struct{})

	u.mu.Lock()
	group := op
	if u.pending != nil && u.pending != op {
		group = Join(u.pending, op)
		// Waiters on the superseded group now wait for the joined one.
		u.waiters[group] = append(u.waiters[group], u.waiters[u.pending]...)
		delete(u.waiters, u.pending)
	}
	u.pending = group
	u.waiters[group] = append(u.waiters[group], released)
	u.widget.StartIndeterminate()
	u.widget.Reveal(delay)
	u.mu.Unlock()

	go func() {
		<-group.Done()
		u.settleWhile(group)
	}()
	return released
}

// settleWhile runs once per settled group. The widget is stopped only if the
// group is still the pending one; a group superseded by a later join leaves
// stopping to the join node. Waiters for the group are always released.
func (u *WidgetIndicator) settleWhile(group *Operation) {
	u.mu.Lock()
	ws := u.waiters[group]
	delete(u.waiters, group)
	if u.pending == group {
		u.pending = nil
		u.widget.Stop()
		u.widget.Conceal()
	}
	u.mu.Unlock()

	for _, w := range ws {
		close(w)
	}
}

type widgetHandle struct {
	u    *WidgetIndicator
	done bool
}

func (h *widgetHandle) Total(n int) {
	h.u.mu.Lock()
	defer h.u.mu.Unlock()
	if h.done {
		return
	}
	h.u.widget.StartDeterminate(n)
}

func (h *widgetHandle) Worked(n int) {
	h.u.mu.Lock()
	defer h.u.mu.Unlock()
	if h.done {
		return
	}
	if h.u.widget.HasTotal() {
		h.u.widget.SetWorked(n)
		h.u.widget.Reveal(0)
		return
	}
	// No total to count against: fall back to the infinite animation.
	h.u.widget.StartIndeterminate()
	h.u.widget.Reveal(0)
}

func (h *widgetHandle) Done() {
	h.u.mu.Lock()
	defer h.u.mu.Unlock()
	if h.done {
		return
	}
	h.done = true
	h.u.widget.Stop()
	h.u.widget.Conceal()
}
