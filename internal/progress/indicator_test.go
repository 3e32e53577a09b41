package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeWidget records every call and models the visible end state, so tests
// can assert both call order and what the user would finally see.
type fakeWidget struct {
	mu      sync.Mutex
	log     []string
	mode    string // "", "indeterminate", "determinate"
	total   int
	worked  int
	visible bool
}

var _ Widget = (*fakeWidget)(nil)

func (w *fakeWidget) StartIndeterminate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, "startIndeterminate")
	w.mode = "indeterminate"
	w.total = 0
	w.worked = 0
}

func (w *fakeWidget) StartDeterminate(total int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, fmt.Sprintf("startDeterminate(%d)", total))
	w.mode = "determinate"
	w.total = total
	w.worked = 0
}

func (w *fakeWidget) SetWorked(amount int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, fmt.Sprintf("setWorked(%d)", amount))
	w.worked += amount
}

func (w *fakeWidget) HasTotal() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mode == "determinate"
}

func (w *fakeWidget) Reveal(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, fmt.Sprintf("reveal(%v)", delay))
	w.visible = true
}

func (w *fakeWidget) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, "stop")
	w.mode = ""
	w.total = 0
	w.worked = 0
}

func (w *fakeWidget) Conceal() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.log = append(w.log, "conceal")
	w.visible = false
}

func (w *fakeWidget) calls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.log))
	copy(out, w.log)
	return out
}

func (w *fakeWidget) count(call string) int {
	n := 0
	for _, c := range w.calls() {
		if c == call {
			n++
		}
	}
	return n
}

// endState summarizes what the user sees: mode, counts, visibility.
func (w *fakeWidget) endState() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return fmt.Sprintf("mode=%s total=%d worked=%d visible=%v", w.mode, w.total, w.worked, w.visible)
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if c == call {
			return i
		}
	}
	return -1
}

// assertClosed fails unless ch closes shortly.
func assertClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected channel to close")
	}
}

// assertOpen fails if ch closes within a short window.
func assertOpen(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatal("expected channel to still be open")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestWidgetIndicator_ShowDeterminate_DrivesWidget(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)

	h := ind.ShowDeterminate(10, 0)
	h.Worked(3)
	h.Worked(4)

	want := "mode=determinate total=10 worked=7 visible=true"
	if got := w.endState(); got != want {
		t.Errorf("endState: expected %q, got %q", want, got)
	}
}

func TestWidgetIndicator_ShowIndeterminate_RevealsWithDelay(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)

	ind.ShowIndeterminate(250 * time.Millisecond)

	calls := w.calls()
	if indexOf(calls, "startIndeterminate") == -1 {
		t.Error("expected startIndeterminate")
	}
	if indexOf(calls, "reveal(250ms)") == -1 {
		t.Errorf("expected reveal(250ms), got %v", calls)
	}
}

func TestWidgetIndicator_Worked_FallsBackWithoutTotal(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)

	h := ind.ShowIndeterminate(0)
	h.Worked(5)

	if w.count("setWorked(5)") != 0 {
		t.Error("expected no setWorked without a total")
	}
	if w.count("startIndeterminate") != 2 {
		t.Errorf("expected indeterminate fallback, got calls %v", w.calls())
	}
}

func TestWidgetIndicator_HandleTotal_ThenWorkedCounts(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)

	h := ind.ShowIndeterminate(0)
	h.Total(8)
	h.Worked(2)

	want := "mode=determinate total=8 worked=2 visible=true"
	if got := w.endState(); got != want {
		t.Errorf("endState: expected %q, got %q", want, got)
	}
}

func TestWidgetIndicator_Done_IdempotentAndInert(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)

	h := ind.ShowDeterminate(10, 0)
	h.Done()
	h.Done()
	h.Worked(3)
	h.Total(5)

	if got := w.count("stop"); got != 1 {
		t.Errorf("expected exactly one stop, got %d", got)
	}
	if got := w.count("conceal"); got != 1 {
		t.Errorf("expected exactly one conceal, got %d", got)
	}
	if w.count("setWorked(3)") != 0 || w.count("startDeterminate(5)") != 0 {
		t.Errorf("expected handle to be inert after done, got %v", w.calls())
	}
}

func TestWidgetIndicator_ShowWhile_StopsOnSettle(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)
	op := NewOperation()

	released := ind.ShowWhile(op, 0)
	assertOpen(t, released)

	op.Settle()
	assertClosed(t, released)

	if w.count("stop") != 1 || w.count("conceal") != 1 {
		t.Errorf("expected one stop and one conceal, got %v", w.calls())
	}
}

func TestWidgetIndicator_ShowWhile_JoinReleasesBothAfterAll(t *testing.T) {
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)
	a := NewOperation()
	b := NewOperation()

	relA := ind.ShowWhile(a, 0)
	relB := ind.ShowWhile(b, 0)

	// One member failing early must not end the display or release anyone.
	b.Settle()
	assertOpen(t, relA)
	assertOpen(t, relB)
	if got := w.count("stop"); got != 0 {
		t.Errorf("expected no stop while a member is pending, got %d", got)
	}

	a.Settle()
	assertClosed(t, relA)
	assertClosed(t, relB)
	if got := w.count("stop"); got != 1 {
		t.Errorf("expected exactly one stop once all settled, got %d", got)
	}
}

func TestWidgetIndicator_ShowWhile_SettlementAfterShowStillStops(t *testing.T) {
	// The always-visible variant keeps a superseded while's settlement
	// armed: a show issued in between does not disarm the eventual stop.
	w := &fakeWidget{}
	ind := NewWidgetIndicator(w)
	op := NewOperation()

	released := ind.ShowWhile(op, 0)
	ind.ShowDeterminate(10, 0)

	op.Settle()
	assertClosed(t, released)

	calls := w.calls()
	stopAt := indexOf(calls, "stop")
	showAt := indexOf(calls, "startDeterminate(10)")
	if stopAt == -1 || showAt == -1 || stopAt < showAt {
		t.Errorf("expected stop after the determinate show, got %v", calls)
	}
}
