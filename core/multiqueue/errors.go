package multiqueue

import "errors"

// ErrCapacityExceeded is returned by Insert/Enqueue when the sampled shard is
// already full. Per the error-handling table this is fatal: capacity is
// fixed at construction time, so overflow means the scheduler was sized
// wrong for its workload, not a transient condition to retry.
var ErrCapacityExceeded = errors.New("multiqueue: shard capacity exceeded")

// ErrNoEventLoop names the case of a scheduler constructed without an
// EventLoop. No function in this package returns it: dispatch with a nil
// EventLoop skips the loop pump and falls back to parking.
var ErrNoEventLoop = errors.New("multiqueue: no event loop configured")
