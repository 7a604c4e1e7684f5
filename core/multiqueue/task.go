package multiqueue

// NoOwner is the owner_tid sentinel meaning "unclaimed".
const NoOwner int32 = -1

// externalCaller is a pseudo worker id used by producers that enqueue work
// without being a scheduler worker themselves (e.g. an API goroutine). It is
// never a valid tid and can never own the event-loop mutex.
const externalCaller int32 = -2

// PriorityInfinity is the head_priority value published by an empty shard.
// It is deliberately outside the 16-bit priority domain so a real task
// priority can never compare equal to "empty".
const PriorityInfinity int32 = 1<<31 - 1

// TaskHandle is an opaque identifier a caller may attach to a Task
// implementation. The scheduler never interprets it.
type TaskHandle uint64

// Task is the accessor contract the multi-queue needs from whatever object a
// caller enqueues (§3 "Task accessor", §6 "Task accessor" collaborator). The
// scheduler never allocates, frees, or otherwise owns tasks; it only stores
// and moves values satisfying this interface.
type Task interface {
	// Priority returns the task's current 16-bit priority (smaller = higher
	// priority).
	Priority() int16

	// SetPriority is called exactly once, by Insert, before the task is
	// published into a shard.
	SetPriority(p int16)

	// OwnerTID atomically reads the claim token: NoOwner if unclaimed,
	// otherwise the id of the worker that claimed it.
	OwnerTID() int32

	// CompareAndSwapOwner atomically claims the task, succeeding only if the
	// current owner is old.
	CompareAndSwapOwner(old, new int32) bool
}
