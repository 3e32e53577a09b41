package progress

import (
	"errors"
	"testing"
	"time"
)

// assertSettles fails the test unless op settles shortly.
func assertSettles(t *testing.T, op *Operation) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected operation to settle")
	}
}

// assertPending fails the test if op settles within a short window.
func assertPending(t *testing.T, op *Operation) {
	t.Helper()
	select {
	case <-op.Done():
		t.Fatal("expected operation to still be pending")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestOperation_Settle_Idempotent(t *testing.T) {
	op := NewOperation()
	op.Settle()
	op.Settle()
	if !op.Settled() {
		t.Error("expected operation to be settled")
	}
}

func TestOperation_Settled_ReflectsState(t *testing.T) {
	op := NewOperation()
	if op.Settled() {
		t.Error("expected new operation to be pending")
	}
	op.Settle()
	if !op.Settled() {
		t.Error("expected settled after Settle")
	}
}

func TestRun_SettlesWhenFnReturns(t *testing.T) {
	op := Run(func() error { return nil })
	assertSettles(t, op)
}

func TestRun_SettlesOnError(t *testing.T) {
	op := Run(func() error { return errors.New("boom") })
	assertSettles(t, op)
}

func TestJoin_SettlesOnlyAfterBothMembers(t *testing.T) {
	a := NewOperation()
	b := NewOperation()
	j := Join(a, b)

	assertPending(t, j)
	a.Settle()
	assertPending(t, j)
	b.Settle()
	assertSettles(t, j)
}

func TestJoin_OrderIndependent(t *testing.T) {
	a := NewOperation()
	b := NewOperation()
	j := Join(a, b)

	b.Settle()
	assertPending(t, j)
	a.Settle()
	assertSettles(t, j)
}

func TestJoin_SettledMembersCountImmediately(t *testing.T) {
	a := NewOperation()
	b := NewOperation()
	a.Settle()
	b.Settle()
	assertSettles(t, Join(a, b))
}
