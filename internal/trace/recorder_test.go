package trace

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewRecorder_Defaults(t *testing.T) {
	r := NewRecorder(0)
	if r.maxSpans != 64 {
		t.Errorf("NewRecorder(0): expected maxSpans=64, got %d", r.maxSpans)
	}
	if r.pending == nil {
		t.Error("NewRecorder: expected pending map to be initialized")
	}
}

func TestNewRecorder_CustomMaxSpans(t *testing.T) {
	r := NewRecorder(5)
	if r.maxSpans != 5 {
		t.Errorf("NewRecorder(5): expected maxSpans=5, got %d", r.maxSpans)
	}
}

func TestHandleEvent_PairsStartEnd(t *testing.T) {
	r := NewRecorder(10)
	id := NewOpID()
	startTime := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	endTime := startTime.Add(250 * time.Millisecond)

	startEvent := OpEvent{
		Kind:      EventOpStart,
		ID:        id,
		Name:      "compile",
		Scope:     "build",
		Timestamp: startTime,
		Detail:    map[string]string{"command": "make"},
	}
	endEvent := OpEvent{
		Kind:      EventOpEnd,
		ID:        id,
		Timestamp: endTime,
		Detail:    map[string]string{"outcome": "succeeded"},
	}

	if err := r.HandleEvent(startEvent); err != nil {
		t.Fatalf("HandleEvent(op_start): expected no error, got %v", err)
	}
	if err := r.HandleEvent(endEvent); err != nil {
		t.Fatalf("HandleEvent(op_end): expected no error, got %v", err)
	}

	recent := r.Recent()
	if len(recent) != 1 {
		t.Fatalf("Recent: expected 1 span, got %d", len(recent))
	}
	span := recent[0]
	if span.Name != "compile" {
		t.Errorf("Name: expected %q, got %q", "compile", span.Name)
	}
	if span.Scope != "build" {
		t.Errorf("Scope: expected %q, got %q", "build", span.Scope)
	}
	if span.Duration() != 250*time.Millisecond {
		t.Errorf("Duration: expected 250ms, got %v", span.Duration())
	}
	if span.Detail["command"] != "make" {
		t.Errorf("Detail[command]: expected %q, got %q", "make", span.Detail["command"])
	}
	if span.Detail["outcome"] != "succeeded" {
		t.Errorf("Detail[outcome]: expected %q, got %q", "succeeded", span.Detail["outcome"])
	}
}

func TestHandleEvent_DuplicateStartRejected(t *testing.T) {
	r := NewRecorder(10)
	ev := OpEvent{Kind: EventOpStart, ID: "op-1", Name: "compile", Timestamp: time.Now()}

	if err := r.HandleEvent(ev); err != nil {
		t.Fatalf("HandleEvent(op_start): expected no error, got %v", err)
	}
	if err := r.HandleEvent(ev); err == nil {
		t.Error("HandleEvent(duplicate op_start): expected error, got nil")
	}
}

func TestHandleEvent_UnmatchedEndRejected(t *testing.T) {
	r := NewRecorder(10)
	ev := OpEvent{Kind: EventOpEnd, ID: "op-unknown", Timestamp: time.Now()}

	if err := r.HandleEvent(ev); err == nil {
		t.Error("HandleEvent(unmatched op_end): expected error, got nil")
	}
	if len(r.Recent()) != 0 {
		t.Errorf("Recent: expected no spans, got %d", len(r.Recent()))
	}
}

func TestHandleEvent_UnknownKindRejected(t *testing.T) {
	r := NewRecorder(10)
	ev := OpEvent{Kind: "op_weird", ID: "op-1", Timestamp: time.Now()}

	if err := r.HandleEvent(ev); err == nil {
		t.Error("HandleEvent(unknown kind): expected error, got nil")
	}
}

func TestRecorder_EvictsOldestSpans(t *testing.T) {
	r := NewRecorder(3)
	base := time.Now()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("op-%d", i)
		r.HandleEvent(OpEvent{Kind: EventOpStart, ID: id, Name: id, Timestamp: base})
		r.HandleEvent(OpEvent{Kind: EventOpEnd, ID: id, Timestamp: base.Add(time.Millisecond)})
	}

	recent := r.Recent()
	if len(recent) != 3 {
		t.Fatalf("Recent: expected 3 spans after eviction, got %d", len(recent))
	}
	// Newest first
	if recent[0].ID != "op-4" {
		t.Errorf("Recent[0]: expected op-4, got %s", recent[0].ID)
	}
	if recent[2].ID != "op-2" {
		t.Errorf("Recent[2]: expected op-2, got %s", recent[2].ID)
	}
}

func TestRecorder_PendingSortedByStart(t *testing.T) {
	r := NewRecorder(10)
	base := time.Now()

	r.HandleEvent(OpEvent{Kind: EventOpStart, ID: "late", Name: "late", Timestamp: base.Add(time.Second)})
	r.HandleEvent(OpEvent{Kind: EventOpStart, ID: "early", Name: "early", Timestamp: base})

	pending := r.Pending()
	if len(pending) != 2 {
		t.Fatalf("Pending: expected 2 events, got %d", len(pending))
	}
	if pending[0].ID != "early" || pending[1].ID != "late" {
		t.Errorf("Pending order: expected [early late], got [%s %s]", pending[0].ID, pending[1].ID)
	}
}

func TestRecorder_OnChangeCalledPerEvent(t *testing.T) {
	r := NewRecorder(10)
	var mu sync.Mutex
	calls := 0
	r.SetOnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	r.HandleEvent(OpEvent{Kind: EventOpStart, ID: "op-1", Name: "compile", Timestamp: time.Now()})
	r.HandleEvent(OpEvent{Kind: EventOpEnd, ID: "op-1", Timestamp: time.Now()})

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("onChange calls: expected 2, got %d", calls)
	}
}

func TestRecorder_ConcurrentEvents(t *testing.T) {
	r := NewRecorder(100)
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("op-%d", i)
			r.HandleEvent(OpEvent{Kind: EventOpStart, ID: id, Name: id, Timestamp: time.Now()})
			r.HandleEvent(OpEvent{Kind: EventOpEnd, ID: id, Timestamp: time.Now()})
		}(i)
	}
	wg.Wait()

	if got := len(r.Recent()); got != 20 {
		t.Errorf("Recent: expected 20 spans, got %d", got)
	}
	if got := len(r.Pending()); got != 0 {
		t.Errorf("Pending: expected 0 events, got %d", got)
	}
}

func TestNewOpID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewOpID()
		if len(id) != 16 {
			t.Fatalf("NewOpID: expected 16 hex characters, got %d (%q)", len(id), id)
		}
		if seen[id] {
			t.Fatalf("NewOpID: duplicate id %q", id)
		}
		seen[id] = true
	}
}
