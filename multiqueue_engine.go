package taskrunner

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/Swind/go-partr-scheduler/core"
	"github.com/Swind/go-partr-scheduler/core/multiqueue"
)

// priorityForTraits maps the three-level TaskTraits.Priority enum onto the
// multi-queue's 16-bit priority space (lower value dispatches first), so
// callers written against a simple priority enum keep working unmodified.
func priorityForTraits(traits core.TaskTraits) int16 {
	switch traits.Priority {
	case core.TaskPriorityUserBlocking:
		return 0
	case core.TaskPriorityUserVisible:
		return 1000
	default:
		return 2000
	}
}

// multiqueueEngine adapts a *multiqueue.Scheduler to workEngine, wrapping
// every posted core.Task closure in a multiqueue.TaskSlot so the scheduler
// only ever handles opaque handles, never the closures themselves. It also
// owns the pool's ambient collaborators (panic handler, metrics, rejected
// task handler), instrumenting each task at enqueue time rather than
// threading them through the dispatch loop.
type multiqueueEngine struct {
	name         string
	sched        *multiqueue.Scheduler
	delayManager *core.DelayManager
	logger       core.Logger

	panicHandler        core.PanicHandler
	metrics             core.Metrics
	rejectedTaskHandler core.RejectedTaskHandler

	metricActive atomic.Int32
}

func newMultiqueueEngine(name string, cfg multiqueue.Config, poolConfig *core.PoolConfig) *multiqueueEngine {
	logger := cfg.Logger
	if logger == nil {
		logger = core.NewNoOpLogger()
	}
	return &multiqueueEngine{
		name:                name,
		sched:               multiqueue.New(cfg),
		delayManager:        core.NewDelayManager(),
		logger:              logger,
		panicHandler:        poolConfig.PanicHandler,
		metrics:             poolConfig.Metrics,
		rejectedTaskHandler: poolConfig.RejectedTaskHandler,
	}
}

// instrument wraps task so panics are captured and reported through the
// engine's PanicHandler/Metrics rather than crashing a worker goroutine, and
// so every execution's duration reaches Metrics.RecordTaskDuration. Workers
// don't carry a stable identity across dispatches in the multi-queue engine
// (unlike a dedicated single-thread runner), so workerID is reported as -1,
// the same convention core.PanicHandler documents for non-pool runners.
func (e *multiqueueEngine) instrument(id core.TaskID, task core.Task, traits core.TaskTraits) core.Task {
	return func(ctx context.Context) {
		start := time.Now()
		defer func() {
			e.metrics.RecordTaskDuration(e.name, traits.Priority, time.Since(start))
			if r := recover(); r != nil {
				e.metrics.RecordTaskPanic(e.name, r)
				e.logger.Warn("task panicked", core.F("task_id", id.String()), core.F("panic", r))
				e.panicHandler.HandlePanic(ctx, e.name, -1, r, debug.Stack())
			}
		}()
		task(ctx)
	}
}

func (e *multiqueueEngine) PostInternal(task core.Task, traits core.TaskTraits) {
	id := core.GenerateTaskID()
	slot := multiqueue.NewTaskSlot(multiqueue.TaskHandle(id), e.instrument(id, task, traits))
	if err := e.sched.Enqueue(slot, priorityForTraits(traits)); err != nil {
		e.metrics.RecordTaskRejected(e.name, "capacity_exceeded")
		e.rejectedTaskHandler.HandleRejectedTask(e.name, "capacity_exceeded")
		// Capacity is fixed at construction; overflow means the pool was
		// sized wrong for its workload, not a transient condition.
		panic(err)
	}
}

func (e *multiqueueEngine) PostDelayedInternal(task core.Task, delay time.Duration, traits core.TaskTraits, target core.TaskRunner) {
	e.delayManager.AddDelayedTask(task, delay, traits, target)
}

// GetWork blocks in the multi-queue's own dispatch loop until worker
// workerID has claimed a task or ctx is cancelled.
func (e *multiqueueEngine) GetWork(ctx context.Context, workerID int) (core.Task, bool) {
	t := e.sched.Next(ctx, int32(workerID), nil)
	if t == nil {
		return nil, false
	}
	slot, ok := t.(*multiqueue.TaskSlot)
	if !ok {
		return nil, false
	}
	return slot.Payload.(core.Task), true
}

func (e *multiqueueEngine) Shutdown() {
	e.delayManager.Stop()
}

func (e *multiqueueEngine) ShutdownGraceful(timeout time.Duration) error {
	e.delayManager.Stop()
	deadline := time.After(timeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			return context.DeadlineExceeded
		case <-ticker.C:
			if e.QueuedTaskCount() == 0 && e.ActiveTaskCount() == 0 {
				return nil
			}
		}
	}
}

func (e *multiqueueEngine) QueuedTaskCount() int  { return e.sched.Stats().QueuedTasks }
func (e *multiqueueEngine) ActiveTaskCount() int  { return int(e.metricActive.Load()) }
func (e *multiqueueEngine) DelayedTaskCount() int { return e.delayManager.TaskCount() }

func (e *multiqueueEngine) OnTaskStart() { e.metricActive.Add(1) }
func (e *multiqueueEngine) OnTaskEnd()   { e.metricActive.Add(-1) }

// Stats exposes the underlying scheduler snapshot for Prometheus export.
func (e *multiqueueEngine) Stats() multiqueue.Stats { return e.sched.Stats() }

// ShardHeadPriorities exposes per-shard head priorities for Prometheus export.
func (e *multiqueueEngine) ShardHeadPriorities() []int32 { return e.sched.ShardHeadPriorities() }
