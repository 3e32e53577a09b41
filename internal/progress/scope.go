package progress

import (
	"sort"
	"sync"
)

// ScopeEventSource announces visual scopes opening and closing. Each
// Subscribe call returns a cancel func that releases the subscription;
// cancel is idempotent. Callbacks run synchronously on the notifying
// goroutine and must not block.
type ScopeEventSource interface {
	SubscribeOpened(fn func(scopeID string)) (cancel func())
	SubscribeClosed(fn func(scopeID string)) (cancel func())
}

// ScopeNotifier is an in-process ScopeEventSource. The zero value is ready
// to use. Open and Close fan out to every subscriber in subscription order.
type ScopeNotifier struct {
	mu     sync.Mutex
	nextID int
	opened map[int]func(string)
	closed map[int]func(string)
}

var _ ScopeEventSource = (*ScopeNotifier)(nil)

// SubscribeOpened registers fn for scope-opened events.
func (n *ScopeNotifier) SubscribeOpened(fn func(string)) func() {
	return n.subscribe(&n.opened, fn)
}

// SubscribeClosed registers fn for scope-closed events.
func (n *ScopeNotifier) SubscribeClosed(fn func(string)) func() {
	return n.subscribe(&n.closed, fn)
}

func (n *ScopeNotifier) subscribe(m *map[int]func(string), fn func(string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if *m == nil {
		*m = make(map[int]func(string))
	}
	id := n.nextID
	n.nextID++
	(*m)[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(*m, id)
	}
}

// Open announces that the scope identified by id became visible.
func (n *ScopeNotifier) Open(id string) {
	n.notify(&n.opened, id)
}

// Close announces that the scope identified by id was hidden.
func (n *ScopeNotifier) Close(id string) {
	n.notify(&n.closed, id)
}

func (n *ScopeNotifier) notify(m *map[int]func(string), id string) {
	n.mu.Lock()
	ids := make([]int, 0, len(*m))
	for sub := range *m {
		ids = append(ids, sub)
	}
	sort.Ints(ids)
	fns := make([]func(string), 0, len(ids))
	for _, sub := range ids {
		fns = append(fns, (*m)[sub])
	}
	n.mu.Unlock()
	for _, fn := range fns {
		safeNotify(fn, id)
	}
}

// safeNotify calls fn with panic recovery. One subscriber failing must not
// break the others.
func safeNotify(fn func(string), id string) {
	defer func() {
		_ = recover()
	}()
	fn(id)
}
