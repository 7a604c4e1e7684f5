package multiqueue

import "sync/atomic"

// TaskSlot is a ready-made Task accessor for callers that don't already
// have a task representation carrying its own priority/owner fields. It
// wraps an opaque Handle and payload, and implements the atomic priority and
// ownership bookkeeping the scheduler requires.
type TaskSlot struct {
	Handle  TaskHandle
	Payload any

	priority atomic.Int32 // widened int16
	owner    atomic.Int32
}

// NewTaskSlot returns an unclaimed slot wrapping handle and payload.
func NewTaskSlot(handle TaskHandle, payload any) *TaskSlot {
	s := &TaskSlot{Handle: handle, Payload: payload}
	s.owner.Store(NoOwner)
	return s
}

func (s *TaskSlot) Priority() int16     { return int16(s.priority.Load()) }
func (s *TaskSlot) SetPriority(p int16) { s.priority.Store(int32(p)) }
func (s *TaskSlot) OwnerTID() int32     { return s.owner.Load() }

func (s *TaskSlot) CompareAndSwapOwner(old, new int32) bool {
	return s.owner.CompareAndSwap(old, new)
}
