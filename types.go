package taskrunner

import "github.com/Swind/go-partr-scheduler/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the taskrunner package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// TaskTraits defines task attributes (priority, blocking behavior, etc.)
type TaskTraits = core.TaskTraits

// TaskPriority defines the priority levels for tasks
type TaskPriority = core.TaskPriority

// TaskRunner is the interface for posting tasks. GoroutineThreadPool
// implements it directly.
type TaskRunner = core.TaskRunner

// TaskID identifies a single posted task instance for logging/metrics correlation.
type TaskID = core.TaskID

// PoolConfig holds the ambient collaborators (panic handler, metrics,
// rejected-task handler) a GoroutineThreadPool is built with.
type PoolConfig = core.PoolConfig

// PoolStats is a runtime observability snapshot of a GoroutineThreadPool.
type PoolStats = core.PoolStats

// Priority constants
const (
	TaskPriorityBestEffort   TaskPriority = core.TaskPriorityBestEffort
	TaskPriorityUserVisible  TaskPriority = core.TaskPriorityUserVisible
	TaskPriorityUserBlocking TaskPriority = core.TaskPriorityUserBlocking
)

// Convenience functions for creating TaskTraits
var (
	DefaultTaskTraits  = core.DefaultTaskTraits
	TraitsUserBlocking = core.TraitsUserBlocking
	TraitsBestEffort   = core.TraitsBestEffort
	TraitsUserVisible  = core.TraitsUserVisible
)

// DefaultPoolConfig re-exports core.DefaultPoolConfig for convenience.
var DefaultPoolConfig = core.DefaultPoolConfig

// ThreadPool is re-exported for type compatibility
type ThreadPool = core.ThreadPool

// GetCurrentTaskRunner retrieves the current TaskRunner from context
var GetCurrentTaskRunner = core.GetCurrentTaskRunner
