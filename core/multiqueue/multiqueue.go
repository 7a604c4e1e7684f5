package multiqueue

// MultiQueue is the P_total = c*P array of shards (§3 "Multi-queue", §4.2).
type MultiQueue struct {
	shards []shard
	unbias uint64
}

func newMultiQueue(total, capacity, arity int) *MultiQueue {
	mq := &MultiQueue{shards: make([]shard, total)}
	for i := range mq.shards {
		mq.shards[i] = *newShard(capacity, arity)
	}
	mq.unbias = unbiasedBound(uint64(total))
	return mq
}

// Insert assigns priority to task and publishes it into a randomly sampled
// shard, retrying the trylock until it succeeds (§4.2 step 2-3), then
// optimistically lowers the shard's cached head priority without reacquiring
// the lock (§4.2 step 4 — mirrors the source's post-unlock CAS, which can
// only ever lower the cache, never raise it above the true head).
func (mq *MultiQueue) Insert(t Task, priority int16, rng *WorkerRNG) error {
	t.SetPriority(priority)

	n := uint64(len(mq.shards))
	var sh *shard
	for {
		idx := sampleShard(rng, n, mq.unbias)
		candidate := &mq.shards[idx]
		if candidate.mu.TryLock() {
			sh = candidate
			break
		}
	}

	if err := sh.push(t); err != nil {
		sh.mu.Unlock()
		return err
	}
	sh.mu.Unlock()

	widened := int32(priority)
	for {
		prev := sh.headPriority.Load()
		if widened >= prev {
			return nil
		}
		if sh.headPriority.CompareAndSwap(prev, widened) {
			return nil
		}
	}
}

// Extract implements two-choice delete-min (§4.2 "extract"). self is the
// calling worker's tid, used to skip the CAS when a task is already owned by
// the caller (the sticky-resume case never reaches here, but a task could in
// principle already be self-owned from a prior failed dispatch attempt).
func (mq *MultiQueue) Extract(self int32, rng *WorkerRNG) (Task, bool) {
	n := uint64(len(mq.shards))
	if n == 0 {
		return nil, false
	}

	for {
		claimRace := false
		for i := 0; i < len(mq.shards); i++ {
			a := sampleShard(rng, n, mq.unbias)
			b := sampleShard(rng, n, mq.unbias)

			shA, shB := &mq.shards[a], &mq.shards[b]
			prioA, prioB := shA.loadHeadPriority(), shB.loadHeadPriority()

			best, bestPrio := shA, prioA
			if prioB < prioA {
				best, bestPrio = shB, prioB
			}
			if bestPrio == PriorityInfinity {
				continue
			}

			if !best.mu.TryLock() {
				continue
			}
			if best.loadHeadPriority() != bestPrio || best.len() == 0 {
				best.mu.Unlock()
				continue
			}

			head := best.tasks[0]
			if head.OwnerTID() != self {
				if !head.CompareAndSwapOwner(NoOwner, self) {
					best.mu.Unlock()
					claimRace = true
					break
				}
			}

			task, _ := best.popHead()
			best.mu.Unlock()
			return task, true
		}
		if !claimRace {
			return nil, false
		}
		// A claim race means another worker's outer loop is also making
		// progress; restart our own full sampling budget (mirrors the
		// source's "goto retry" jumping above the loop, not just continuing
		// it).
	}
}
