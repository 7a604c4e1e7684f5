package multiqueue

import (
	"sync"
	"sync/atomic"
)

// shard is a fixed-capacity d-ary min-heap of Task handles, guarded by a
// non-blocking trylock (§4.1). count and headPriority are stored as atomics
// so idle.snapshot and the multi-queue's sampler can read them without
// acquiring the lock. count is written only while mu is held; headPriority
// is published under mu on pop, and MultiQueue.Insert also lowers it by CAS
// after unlocking.
type shard struct {
	mu       sync.Mutex
	tasks    []Task
	count    atomic.Int32
	capacity int32
	arity    int

	headPriority atomic.Int32
}

func newShard(capacity, arity int) *shard {
	s := &shard{
		tasks:    make([]Task, capacity),
		capacity: int32(capacity),
		arity:    arity,
	}
	s.headPriority.Store(PriorityInfinity)
	return s
}

// push appends task and restores the heap property. The caller must hold mu.
func (s *shard) push(t Task) error {
	n := s.count.Load()
	if n == s.capacity {
		return ErrCapacityExceeded
	}
	s.tasks[n] = t
	s.count.Store(n + 1)
	s.siftUp(int(n))
	return nil
}

// popHead removes and returns the minimum-priority task, republishing
// headPriority before returning. The caller must hold mu.
func (s *shard) popHead() (Task, bool) {
	n := s.count.Load()
	if n == 0 {
		return nil, false
	}
	top := s.tasks[0]
	last := n - 1
	s.tasks[0] = s.tasks[last]
	s.tasks[last] = nil
	s.count.Store(last)
	if last > 0 {
		s.siftDown(0)
	}
	s.publishHeadPriority()
	return top, true
}

// siftUp restores heap order after an append at index i. Caller holds mu.
func (s *shard) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / s.arity
		if s.tasks[i].Priority() < s.tasks[parent].Priority() {
			s.tasks[i], s.tasks[parent] = s.tasks[parent], s.tasks[i]
			i = parent
		} else {
			return
		}
	}
}

// siftDown restores heap order after replacing the root. Caller holds mu.
// Ties among children are broken first-wins, matching the deterministic
// minimum-child rule §4.1 requires.
func (s *shard) siftDown(i int) {
	n := int(s.count.Load())
	for {
		first := s.arity*i + 1
		if first >= n {
			return
		}
		last := first + s.arity
		if last > n {
			last = n
		}
		min := first
		minPrio := s.tasks[first].Priority()
		for c := first + 1; c < last; c++ {
			if p := s.tasks[c].Priority(); p < minPrio {
				min = c
				minPrio = p
			}
		}
		if minPrio < s.tasks[i].Priority() {
			s.tasks[i], s.tasks[min] = s.tasks[min], s.tasks[i]
			i = min
		} else {
			return
		}
	}
}

// publishHeadPriority stores tasks[0].priority (or +Inf when empty) with
// release semantics. Caller holds mu.
func (s *shard) publishHeadPriority() {
	if s.count.Load() == 0 {
		s.headPriority.Store(PriorityInfinity)
		return
	}
	s.headPriority.Store(int32(s.tasks[0].Priority()))
}

// loadHeadPriority is the advisory, lock-free read used by the sampler.
func (s *shard) loadHeadPriority() int32 { return s.headPriority.Load() }

// len is an unsynchronized, ordinary load used by idle.snapshot (§4.3).
func (s *shard) len() int32 { return s.count.Load() }
