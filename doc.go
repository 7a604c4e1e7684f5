// Package taskrunner provides a work-stealing multi-queue task scheduler for Go,
// modeled on Julia's partr runtime.
//
// This library implements a threading model where developers post tasks with
// priority traits to a shared GoroutineThreadPool, whose workers pull work
// from a sharded, per-priority multi-queue rather than a single shared queue.
//
// # Quick Start
//
// Initialize the global thread pool at application startup:
//
//	taskrunner.InitGlobalThreadPool(4) // 4 workers
//	defer taskrunner.ShutdownGlobalThreadPool()
//
// Post tasks through the pool's TaskRunner surface:
//
//	runner := taskrunner.CreateTaskRunner(core.DefaultTaskTraits())
//	runner.PostTask(func(ctx context.Context) {
//		// Your code here
//	})
//
// # Key Concepts
//
// TaskRunner: interface for posting tasks. GoroutineThreadPool implements it
// directly, so tasks can be posted to the pool without an intermediate
// sequencing object.
//
// TaskTraits: describes task attributes including priority (BestEffort,
// UserVisible, UserBlocking). A task lands in a randomly sampled shard;
// priority orders it within that shard's heap and decides which of two
// sampled shards a worker extracts from, so dispatch order by priority is
// approximate, not strict.
//
// GoroutineThreadPool: the execution engine managing worker goroutines. Each
// worker samples two candidate shards from the multi-queue and claims the
// higher-priority one, rather than draining one global FIFO.
//
// # Thread Safety
//
// Unlike a strictly sequenced runner, tasks posted to the pool carry no
// ordering guarantee relative to each other; two tasks posted back to back may
// execute concurrently on different workers. Priority only affects dispatch
// order among tasks still queued, never mutual exclusion. Callers who need
// exclusive access to shared state must still synchronize it themselves.
//
// # Example
//
//	import (
//		"context"
//		"time"
//		taskrunner "github.com/Swind/go-partr-scheduler"
//		"github.com/Swind/go-partr-scheduler/core"
//	)
//
//	func main() {
//		taskrunner.InitGlobalThreadPool(4)
//		defer taskrunner.ShutdownGlobalThreadPool()
//
//		runner := taskrunner.CreateTaskRunner(core.DefaultTaskTraits())
//
//		runner.PostTaskWithTraits(func(ctx context.Context) {
//			println("high priority")
//		}, taskrunner.TraitsUserBlocking())
//
//		// Delayed task
//		runner.PostDelayedTask(func(ctx context.Context) {
//			println("delayed")
//		}, 1*time.Second)
//	}
//
// For more details, see https://github.com/Swind/go-partr-scheduler
package taskrunner
