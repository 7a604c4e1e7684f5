package multiqueue

import (
	"context"
	"sync"
	"sync/atomic"
)

// EventLoop is the external, single-threaded event-loop collaborator
// (§4.7, §6). Exactly one worker at a time is allowed to be blocked inside
// RunOnceBlocking; the Scheduler enforces that via loopOwner, never the
// EventLoop implementation itself.
type EventLoop interface {
	// RunOnceBlocking drives the loop until at least one event has been
	// processed, or ctx is done.
	RunOnceBlocking(ctx context.Context) error

	// RunOnceNonblocking drains whatever is immediately ready without
	// blocking.
	RunOnceNonblocking() error

	// Stop asks a loop this goroutine currently owns to return from
	// RunOnceBlocking promptly.
	Stop()

	// WakeUp interrupts a loop blocked in RunOnceBlocking from a goroutine
	// that does not own it (the cross-thread wake primitive).
	WakeUp() error
}

// loopOwner tracks which worker, if any, currently owns the exclusive right
// to call into the EventLoop (§4.7 "global mutex"). Ownership is tracked
// separately from the mutex itself so Scheduler.wakeAny can decide between
// Stop() and WakeUp() the way partr.c's jl_wakeup_thread does.
type loopOwner struct {
	mu    sync.Mutex
	owner atomic.Int32
}

func newLoopOwner() *loopOwner {
	lo := &loopOwner{}
	lo.owner.Store(NoOwner)
	return lo
}

func (lo *loopOwner) tryAcquire(self int32) bool {
	if !lo.mu.TryLock() {
		return false
	}
	lo.owner.Store(self)
	return true
}

func (lo *loopOwner) release() {
	lo.owner.Store(NoOwner)
	lo.mu.Unlock()
}

func (lo *loopOwner) ownedBy(self int32) bool {
	return self != NoOwner && lo.owner.Load() == self
}
