package trace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// OpSpan is a completed operation with its measured lifetime.
type OpSpan struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Scope  string            `json:"scope,omitempty"`
	Start  time.Time         `json:"start"`
	End    time.Time         `json:"end"`
	Detail map[string]string `json:"detail,omitempty"`
}

// Duration is the time between the operation's start and end events.
func (s OpSpan) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Recorder pairs operation start and end events into spans
type Recorder struct {
	mu       sync.RWMutex
	pending  map[string]OpEvent // op ID -> start event (waiting for end)
	recent   []OpSpan           // completed spans, oldest first
	maxSpans int                // max completed spans to keep (default 64)
	onChange func()             // callback when recorder state changes
	exporter *OTLPExporter      // OTLP exporter for completed spans
}

// NewRecorder creates a new span recorder
func NewRecorder(maxSpans int) *Recorder {
	if maxSpans <= 0 {
		maxSpans = 64
	}
	exporter, _ := NewOTLPExporter(context.Background())
	return &Recorder{
		pending:  make(map[string]OpEvent),
		recent:   make([]OpSpan, 0, maxSpans),
		maxSpans: maxSpans,
		exporter: exporter,
	}
}

// HandleEvent processes an incoming operation event
// - op_start: records the pending operation; a duplicate ID is rejected
// - op_end: pairs with the pending start into a completed span; an end
//   without a matching start is rejected
func (r *Recorder) HandleEvent(event OpEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Kind {
	case EventOpStart:
		if _, exists := r.pending[event.ID]; exists {
			return fmt.Errorf("duplicate op_start for id %q", event.ID)
		}
		r.pending[event.ID] = event

	case EventOpEnd:
		start, found := r.pending[event.ID]
		if !found {
			return fmt.Errorf("op_end without matching op_start for id %q", event.ID)
		}
		delete(r.pending, event.ID)

		span := OpSpan{
			ID:     event.ID,
			Name:   start.Name,
			Scope:  start.Scope,
			Start:  start.Timestamp,
			End:    event.Timestamp,
			Detail: mergeDetail(start.Detail, event.Detail),
		}
		r.appendRecent(span)

		// Export synchronously so a span recorded just before process exit
		// still reaches the collector's batcher.
		if r.exporter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := r.exporter.ExportSpan(ctx, span); err != nil {
				// TODO: surface export errors via an OnError callback;
				// printing interferes with bubbletea rendering.
				_ = err
			}
			cancel()
		}

	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}

	r.callOnChange()
	return nil
}

// appendRecent adds a completed span, evicting the oldest if over capacity
// (must be called with lock held)
func (r *Recorder) appendRecent(span OpSpan) {
	r.recent = append(r.recent, span)
	if len(r.recent) > r.maxSpans {
		r.recent = r.recent[1:]
	}
}

// callOnChange calls the onChange callback if set (must be called with lock held)
func (r *Recorder) callOnChange() {
	if r.onChange != nil {
		r.onChange()
	}
}

// Recent returns completed spans, newest first
func (r *Recorder) Recent() []OpSpan {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]OpSpan, 0, len(r.recent))
	for i := len(r.recent) - 1; i >= 0; i-- {
		result = append(result, r.recent[i])
	}
	return result
}

// Pending returns the start events still waiting for their end, oldest first
func (r *Recorder) Pending() []OpEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]OpEvent, 0, len(r.pending))
	for _, ev := range r.pending {
		result = append(result, ev)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

// SetOnChange sets callback for state changes (thread-safe)
func (r *Recorder) SetOnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Shutdown flushes pending exports and closes the OTLP exporter.
// Must be called before process exit to ensure spans are exported.
func (r *Recorder) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	exporter := r.exporter
	r.mu.Unlock()

	if exporter != nil {
		return exporter.Shutdown(ctx)
	}
	return nil
}

// mergeDetail overlays end-event detail on top of start-event detail
func mergeDetail(start, end map[string]string) map[string]string {
	if start == nil && end == nil {
		return nil
	}
	merged := make(map[string]string, len(start)+len(end))
	for k, v := range start {
		merged[k] = v
	}
	for k, v := range end {
		merged[k] = v
	}
	return merged
}
