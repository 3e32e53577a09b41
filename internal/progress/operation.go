package progress

import (
	"sync"
	"sync/atomic"
)

// Operation is a settle-once handle for an in-flight asynchronous unit of
// work. Settlement carries no outcome: success and failure both settle,
// because display lifetime is the only concern at this layer. Identity is
// the pointer; two operations are never compared structurally.
type Operation struct {
	once sync.Once
	done chan struct{}
}

// NewOperation returns a pending operation.
func NewOperation() *Operation {
	return &Operation{done: make(chan struct{})}
}

// Settle marks the operation settled. Idempotent and safe from any goroutine.
func (o *Operation) Settle() {
	o.once.Do(func() { close(o.done) })
}

// Done returns a channel that is closed once the operation has settled.
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Settled reports whether the operation has settled.
func (o *Operation) Settled() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// Run starts fn in a goroutine and returns an operation that settles when fn
// returns, whatever its error. Callers that need the error must capture it on
// their side; settlement does not expose it.
func Run(fn func() error) *Operation {
	op := NewOperation()
	go func() {
		defer op.Settle()
		_ = fn()
	}()
	return op
}

// Join returns the join node for a and b: an operation that settles once the
// settle count reaches both members, regardless of settlement order. Already
// settled members count immediately.
func Join(a, b *Operation) *Operation {
	j := NewOperation()
	var pending atomic.Int32
	pending.Store(2)
	for _, member := range []*Operation{a, b} {
		go func(m *Operation) {
			<-m.Done()
			if pending.Add(-1) == 0 {
				j.Settle()
			}
		}(member)
	}
	return j
}
