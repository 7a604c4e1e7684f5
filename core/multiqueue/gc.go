package multiqueue

// MarkEnqueuedTasks implements the GC traversal hook (§4.8): it visits every
// task currently sitting in a shard so a mark phase can keep them reachable.
// It takes no locks; the caller (a stop-the-world GC phase) guarantees no
// mutator is concurrently modifying shards, and there is deliberately no
// second index of live tasks to keep in sync.
func (mq *MultiQueue) MarkEnqueuedTasks(visitor func(Task)) {
	for i := range mq.shards {
		sh := &mq.shards[i]
		n := sh.count.Load()
		for j := int32(0); j < n; j++ {
			visitor(sh.tasks[j])
		}
	}
}
