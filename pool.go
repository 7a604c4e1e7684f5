package taskrunner

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-partr-scheduler/core"
	"github.com/Swind/go-partr-scheduler/core/multiqueue"
)

// workEngine is the abstraction GoroutineThreadPool's worker loop drives. The
// sharded multi-queue scheduler in core/multiqueue is the only engine that
// implements it (via multiqueueEngine); the interface exists so the pool's
// lifecycle/worker-loop plumbing stays independent of the scheduler's
// internals.
type workEngine interface {
	PostInternal(task core.Task, traits core.TaskTraits)
	PostDelayedInternal(task core.Task, delay time.Duration, traits core.TaskTraits, target core.TaskRunner)
	GetWork(ctx context.Context, workerID int) (core.Task, bool)
	Shutdown()
	ShutdownGraceful(timeout time.Duration) error
	QueuedTaskCount() int
	ActiveTaskCount() int
	DelayedTaskCount() int
	OnTaskStart()
	OnTaskEnd()
}

// multiqueueStats is satisfied by multiqueueEngine, exposed so a caller
// (e.g. the Prometheus multi-queue exporter) can reach per-shard scheduler
// detail beyond the pool-level PoolStats.
type multiqueueStats interface {
	Stats() multiqueue.Stats
	ShardHeadPriorities() []int32
}

// GoroutineThreadPool manages a set of worker goroutines that pull tasks
// from a multiqueueEngine and execute them. It also implements
// core.TaskRunner directly, so it can serve as its own core.DelayManager
// callback target without a separate runner type in front of it.
type GoroutineThreadPool struct {
	id        string
	workers   int
	engine    workEngine
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
}

// NewGoroutineThreadPool creates a GoroutineThreadPool backed by the
// sharded multi-queue scheduler, sized with multiqueue.DefaultConfig and
// default panic/metrics/rejection handlers.
func NewGoroutineThreadPool(id string, workers int) *GoroutineThreadPool {
	return NewGoroutineThreadPoolWithConfig(id, workers, multiqueue.DefaultConfig(workers), core.DefaultPoolConfig())
}

// NewGoroutineThreadPoolWithConfig creates a GoroutineThreadPool backed by
// the multi-queue scheduler with an explicit shard/capacity/sleep-threshold
// configuration and ambient collaborators (panic handler, metrics,
// rejected-task handler): each worker samples from cfg.ShardMultiplier*workers
// independent shards rather than contending on one shared queue.
func NewGoroutineThreadPoolWithConfig(id string, workers int, cfg multiqueue.Config, poolConfig *core.PoolConfig) *GoroutineThreadPool {
	cfg.Workers = workers
	if poolConfig == nil {
		poolConfig = core.DefaultPoolConfig()
	}
	return &GoroutineThreadPool{
		id:      id,
		workers: workers,
		engine:  newMultiqueueEngine(id, cfg, poolConfig),
	}
}

// Start starts all worker goroutines
func (tg *GoroutineThreadPool) Start(ctx context.Context) {
	tg.runningMu.Lock()
	defer tg.runningMu.Unlock()

	if tg.running {
		return // Already running
	}

	tg.ctx, tg.cancel = context.WithCancel(ctx)
	tg.running = true

	for i := 0; i < tg.workers; i++ {
		tg.wg.Add(1)
		go tg.workerLoop(i, tg.ctx)
	}
}

// Stop stops the thread pool
func (tg *GoroutineThreadPool) Stop() {
	// Always shut down the engine (stopping its delay manager) even if the
	// pool was never started; tasks already in the multi-queue are not removed
	tg.engine.Shutdown()

	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		return
	}
	tg.runningMu.Unlock()

	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()
}

// StopGraceful stops the thread pool gracefully, waiting for queued tasks to complete
// Returns error if timeout is exceeded before tasks complete
func (tg *GoroutineThreadPool) StopGraceful(timeout time.Duration) error {
	tg.runningMu.Lock()
	if !tg.running {
		// Not running, nothing to do
		tg.runningMu.Unlock()
		return nil
	}
	tg.runningMu.Unlock()

	// First, gracefully shutdown the scheduler (waits for queues to drain)
	if err := tg.engine.ShutdownGraceful(timeout); err != nil {
		// Timeout occurred, but we still need to cancel workers
		if tg.cancel != nil {
			tg.cancel()
		}
		tg.Join()

		// Set running to false even on timeout path
		tg.runningMu.Lock()
		tg.running = false
		tg.runningMu.Unlock()

		return err
	}

	// Scheduler drained successfully, now cancel workers
	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()

	return nil
}

// ID returns the ID of the thread pool
func (tg *GoroutineThreadPool) ID() string {
	return tg.id
}

// IsRunning returns whether the thread pool is running
func (tg *GoroutineThreadPool) IsRunning() bool {
	tg.runningMu.RLock()
	defer tg.runningMu.RUnlock()
	return tg.running
}

// workerLoop is the main loop for each worker. Panic recovery here is a
// backstop only: multiqueueEngine.PostInternal wraps every task with its own
// panic handler/metrics instrumentation before it ever reaches the engine.
func (tg *GoroutineThreadPool) workerLoop(id int, ctx context.Context) {
	defer tg.wg.Done()

	for {
		task, ok := tg.engine.GetWork(ctx, id)
		if !ok {
			return
		}

		tg.engine.OnTaskStart()

		func() {
			defer func() {
				tg.engine.OnTaskEnd()
				recover()
			}()
			task(ctx)
		}()
	}
}

// Join waits for all worker goroutines to finish
func (tg *GoroutineThreadPool) Join() {
	tg.wg.Wait()
}

// WorkerCount returns the number of workers
func (tg *GoroutineThreadPool) WorkerCount() int {
	return tg.workers
}

func (tg *GoroutineThreadPool) QueuedTaskCount() int {
	return tg.engine.QueuedTaskCount()
}

func (tg *GoroutineThreadPool) ActiveTaskCount() int {
	return tg.engine.ActiveTaskCount()
}

func (tg *GoroutineThreadPool) DelayedTaskCount() int {
	return tg.engine.DelayedTaskCount()
}

// Stats returns a snapshot of the pool's runtime observability state.
func (tg *GoroutineThreadPool) Stats() core.PoolStats {
	return core.PoolStats{
		ID:      tg.id,
		Workers: tg.workers,
		Queued:  tg.QueuedTaskCount(),
		Active:  tg.ActiveTaskCount(),
		Delayed: tg.DelayedTaskCount(),
		Running: tg.IsRunning(),
	}
}

func (tg *GoroutineThreadPool) PostInternal(task core.Task, traits core.TaskTraits) {
	tg.engine.PostInternal(task, traits)
}

func (tg *GoroutineThreadPool) PostDelayedInternal(task core.Task, delay time.Duration, traits core.TaskTraits, target core.TaskRunner) {
	tg.engine.PostDelayedInternal(task, delay, traits, target)
}

// MultiQueueStats returns the pool's underlying multi-queue scheduler stats
// accessor, or false if this pool's engine isn't multiqueue-backed. All
// engines constructed through this package are, so the false case only
// matters to a caller that has substituted its own workEngine.
func (tg *GoroutineThreadPool) MultiQueueStats() (multiqueueStats, bool) {
	s, ok := tg.engine.(multiqueueStats)
	return s, ok
}

// =============================================================================
// core.TaskRunner: the pool posts directly to itself
// =============================================================================
//
// GoroutineThreadPool implements core.TaskRunner so callers (and
// core.DelayManager, which needs a concrete callback target) can post work
// straight to the pool without an intermediate sequencing runner. Unlike a
// SequencedTaskRunner, tasks posted this way carry no ordering guarantee
// relative to each other; they are dispatched by the multi-queue scheduler
// according to traits alone.

func (tg *GoroutineThreadPool) PostTask(task core.Task) {
	tg.PostInternal(task, core.DefaultTaskTraits())
}

func (tg *GoroutineThreadPool) PostTaskWithTraits(task core.Task, traits core.TaskTraits) {
	tg.PostInternal(task, traits)
}

func (tg *GoroutineThreadPool) PostDelayedTask(task core.Task, delay time.Duration) {
	tg.PostDelayedInternal(task, delay, core.DefaultTaskTraits(), tg)
}

func (tg *GoroutineThreadPool) PostDelayedTaskWithTraits(task core.Task, delay time.Duration, traits core.TaskTraits) {
	tg.PostDelayedInternal(task, delay, traits, tg)
}

// =============================================================================
// Global Thread Pool Helper (Singleton)
// =============================================================================

var (
	globalThreadPool *GoroutineThreadPool
	globalMu         sync.Mutex
)

// InitGlobalThreadPool initializes the global thread pool with specified number of workers.
// It starts the pool immediately.
func InitGlobalThreadPool(workers int) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool != nil {
		return // Already initialized
	}

	globalThreadPool = NewGoroutineThreadPool("global-pool", workers)
	globalThreadPool.Start(context.Background())
}

// GetGlobalThreadPool returns the global thread pool instance.
// It panics if InitGlobalThreadPool has not been called.
func GetGlobalThreadPool() *GoroutineThreadPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool == nil {
		panic("GlobalThreadPool not initialized. Call InitGlobalThreadPool() first.")
	}
	return globalThreadPool
}

// ShutdownGlobalThreadPool stops the global thread pool.
func ShutdownGlobalThreadPool() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool != nil {
		globalThreadPool.Stop()
		globalThreadPool = nil
	}
}

// CreateTaskRunner returns the global thread pool as a core.TaskRunner.
// This is the recommended way to get a TaskRunner: the pool posts tasks
// directly, scheduled by priority via the multi-queue engine.
func CreateTaskRunner(traits TaskTraits) core.TaskRunner {
	return GetGlobalThreadPool()
}
