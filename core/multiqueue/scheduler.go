package multiqueue

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Swind/go-partr-scheduler/core"
)

// Scheduler is the exposed surface described in §6: init/enqueue/next/wake/
// mark_enqueued, plus Stats() for observability.
type Scheduler struct {
	cfg Config

	mq        *MultiQueue
	sleep     sleepCheck
	parks     []*parkSlot
	rngs      []*WorkerRNG
	loopOwner *loopOwner

	externalMu  sync.Mutex
	externalRNG *WorkerRNG

	wakeCount atomic.Int64
	parkCount atomic.Int64
}

// New constructs a Scheduler for cfg.Workers workers with c*Workers shards.
// It panics on a non-positive worker count. ShardMultiplier, ShardCapacity,
// HeapArity and Logger are defaulted if zero; the other Config fields are
// used as given, so a zero SleepThreshold means workers never park (§6
// "init").
func New(cfg Config) *Scheduler {
	if cfg.Workers <= 0 {
		panic("multiqueue: Config.Workers must be > 0")
	}
	cfg = cfg.withDefaults()

	total := cfg.ShardMultiplier * cfg.Workers
	s := &Scheduler{
		cfg:         cfg,
		mq:          newMultiQueue(total, cfg.ShardCapacity, cfg.HeapArity),
		parks:       make([]*parkSlot, cfg.Workers),
		rngs:        make([]*WorkerRNG, cfg.Workers),
		loopOwner:   newLoopOwner(),
		externalRNG: NewWorkerRNG(0xD1B54A32D192ED03),
	}
	s.sleep.init()
	for i := 0; i < cfg.Workers; i++ {
		s.parks[i] = newParkSlot()
		s.rngs[i] = NewWorkerRNG(uint64(i+1) * 0x9E3779B97F4A7C15)
	}
	return s
}

func (s *Scheduler) logger() core.Logger { return s.cfg.Logger }

func (s *Scheduler) rngFor(tid int32) *WorkerRNG {
	if tid >= 0 && int(tid) < len(s.rngs) {
		return s.rngs[tid]
	}
	return s.externalRNG
}

// Enqueue inserts task at priority and wakes a worker, for callers that are
// not themselves a scheduler worker (e.g. an API goroutine posting work).
// Workers driving their own inserts (a task spawning a child task) should
// use EnqueueFrom so sampling uses their own RNG state instead of the shared
// external one.
func (s *Scheduler) Enqueue(task Task, priority int16) error {
	s.externalMu.Lock()
	err := s.mq.Insert(task, priority, s.externalRNG)
	s.externalMu.Unlock()
	if err != nil {
		s.logger().Warn("multiqueue: enqueue failed", core.F("error", err))
		return err
	}
	s.wakeAny(externalCaller)
	return nil
}

// EnqueueFrom is Enqueue for a caller that is worker tid, avoiding
// contention on the shared external RNG.
func (s *Scheduler) EnqueueFrom(tid int32, task Task, priority int16) error {
	if err := s.mq.Insert(task, priority, s.rngFor(tid)); err != nil {
		s.logger().Warn("multiqueue: enqueue failed", core.F("error", err), core.F("worker", tid))
		return err
	}
	s.wakeAny(tid)
	return nil
}

// Next blocks until a runnable task has been claimed by worker tid (§6
// "next"). sticky may be nil.
func (s *Scheduler) Next(ctx context.Context, tid int32, sticky StickyGetter) Task {
	return s.getNextTask(ctx, tid, sticky)
}

// Wake signals worker tid's park slot (§6 "wake", §4.5 "wake(target)"). A
// parked worker returns from park only once the sleep state is no longer
// asleep, so Wake alone does not release it while the state stays asleep;
// wakeAny is what flips the state to awake.
func (s *Scheduler) Wake(tid int32) {
	if tid < 0 || int(tid) >= len(s.parks) {
		return
	}
	s.parks[tid].wake()
}

// wakeAny implements §4.5 wake_any(self): flip the sleep state to awake and,
// if that was a real transition, broadcast to every worker but self. The
// event loop, if configured, is notified on every call, transition or not.
// self is externalCaller for non-worker producers, which never own the
// event-loop mutex.
func (s *Scheduler) wakeAny(self int32) {
	if s.sleep.wakeAny() {
		for i := range s.parks {
			if int32(i) != self {
				s.parks[i].wake()
			}
		}
		s.wakeCount.Add(1)
	}

	if s.cfg.EventLoop == nil {
		return
	}
	if s.loopOwner.ownedBy(self) {
		s.cfg.EventLoop.Stop()
	} else {
		_ = s.cfg.EventLoop.WakeUp()
	}
}

// MarkEnqueued visits every task currently sitting in a shard (§6
// "mark_enqueued", §4.8). Must only be called from a stop-the-world phase.
func (s *Scheduler) MarkEnqueued(visitor func(Task)) {
	s.mq.MarkEnqueuedTasks(visitor)
}

// Stats is a point-in-time snapshot for the Prometheus exporter.
type Stats struct {
	ShardCount  int
	QueuedTasks int
	SleepState  string
	ParkTotal   int64
	WakeTotal   int64
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		ShardCount:  len(s.mq.shards),
		QueuedTasks: s.mq.queuedTasks(),
		SleepState:  s.sleep.load().String(),
		ParkTotal:   s.parkCount.Load(),
		WakeTotal:   s.wakeCount.Load(),
	}
}

// ShardHeadPriorities returns each shard's cached head_priority, for
// per-shard gauges. PriorityInfinity marks an empty shard.
func (s *Scheduler) ShardHeadPriorities() []int32 {
	out := make([]int32, len(s.mq.shards))
	for i := range s.mq.shards {
		out[i] = s.mq.shards[i].loadHeadPriority()
	}
	return out
}
