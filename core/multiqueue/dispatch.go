package multiqueue

import (
	"context"
	"runtime"
	"time"

	"github.com/Swind/go-partr-scheduler/core"
)

// spinBatch is how many spin iterations elapse between opportunistic
// event-loop pumps (§4.6 step 4: "after every ~1000 spins").
const spinBatch = 1000

// StickyGetter may return a task pinned to the calling worker (e.g. a
// resumed continuation), bypassing the multi-queue entirely (§4.6 step 2).
// A nil return means "nothing sticky right now".
type StickyGetter func() Task

// getNextTask implements the worker dispatch loop (§4.6). It blocks until a
// runnable task has been claimed by self, or ctx is cancelled.
func (s *Scheduler) getNextTask(ctx context.Context, self int32, sticky StickyGetter) Task {
	rng := s.rngFor(self)
	spins := 0
	var thresholdStart time.Time

	for {
		if ctx.Err() != nil {
			return nil
		}

		// Step 1: safepoint.
		if s.cfg.Safepoint != nil {
			s.cfg.Safepoint()
		}

		// Step 2: sticky probe.
		if sticky != nil {
			if t := sticky(); t != nil {
				if t.OwnerTID() != self {
					t.CompareAndSwapOwner(NoOwner, self)
				}
				return t
			}
		}

		// Step 3: multi-queue extract.
		if t, ok := s.mq.Extract(self, rng); ok {
			return t
		}

		// Step 4: spin, and every spinBatch iterations opportunistically
		// pump the event loop without blocking.
		runtime.Gosched()
		spins++
		if spins >= spinBatch {
			spins = 0
			if s.pumpNonblocking(self) {
				if t, ok := s.mq.Extract(self, rng); ok {
					return t
				}
			}
		}

		if s.cfg.SleepThreshold <= 0 {
			// Latency-critical configuration: spin forever, skip 5-7.
			continue
		}

		// Step 5: threshold check.
		if thresholdStart.IsZero() {
			thresholdStart = time.Now()
			continue
		}
		if time.Since(thresholdStart) < s.cfg.SleepThreshold {
			continue
		}

		if !s.sleep.checkNow(s.mq.snapshot) {
			// Snapshot saw work; someone else will pick it up too, but
			// restart our own threshold window.
			thresholdStart = time.Time{}
			continue
		}

		// Step 6: try to own the event loop and drive it for one blocking
		// iteration before re-attempting extraction.
		if s.cfg.EventLoop != nil && s.loopOwner.tryAcquire(self) {
			s.logger().Debug("multiqueue: worker acquired event-loop ownership", core.F("worker", self))
			_ = s.cfg.EventLoop.RunOnceBlocking(ctx)
			s.loopOwner.release()

			if t, ok := s.mq.Extract(self, rng); ok {
				return t
			}
			if !s.sleep.isAsleep() {
				thresholdStart = time.Time{}
				continue
			}
		}

		// Step 7: park. Cancelling ctx runs wakeAny, which flips the sleep
		// state to awake and signals every park slot, so a parked worker
		// returns and observes the cancellation at the top of the loop.
		s.parkCount.Add(1)
		s.logger().Debug("multiqueue: worker parking", core.F("worker", self))
		stopWake := context.AfterFunc(ctx, func() { s.wakeAny(externalCaller) })
		s.parks[self].park(&s.sleep)
		stopWake()
		thresholdStart = time.Time{}
	}
}

// pumpNonblocking drives the event loop for whatever is immediately ready,
// serialized the same way RunOnceBlocking is: only the worker that wins the
// loop's trylock may touch it, so a concurrent blocking pumper is never
// disturbed.
func (s *Scheduler) pumpNonblocking(self int32) bool {
	if s.cfg.EventLoop == nil {
		return false
	}
	if !s.loopOwner.tryAcquire(self) {
		return false
	}
	defer s.loopOwner.release()
	return s.cfg.EventLoop.RunOnceNonblocking() == nil
}
