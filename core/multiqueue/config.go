package multiqueue

import (
	"os"
	"strings"
	"time"

	"github.com/Swind/go-partr-scheduler/core"
)

// defaultSleepThreshold mirrors the source's DEFAULT_THREAD_SLEEP_THRESHOLD
// (4ms of continuous spinning before a worker is allowed to check for
// sleep).
const defaultSleepThreshold = 4 * time.Millisecond

// sleepThresholdEnvVar overrides the compiled default the same way partr.c
// reads JULIA_THREAD_SLEEP_THRESHOLD (§ Supplemented from original_source).
const sleepThresholdEnvVar = "TASKRUNNER_SLEEP_THRESHOLD"

// Safepoint lets a runtime's GC coordinate with a worker about to fetch its
// next task (§6 "GC" collaborator). A nil Safepoint is a valid no-op.
type Safepoint func()

// Config configures a Scheduler at construction (§6 "Configuration").
type Config struct {
	// Workers is P, the number of scheduler-visible worker ids in [0, P).
	Workers int

	// ShardMultiplier is c: the multi-queue holds c*Workers shards.
	ShardMultiplier int

	// ShardCapacity is the fixed per-shard task capacity.
	ShardCapacity int

	// HeapArity is d, the branching factor of each shard's heap.
	HeapArity int

	// SleepThreshold is the duration a worker must find no work before it
	// runs the sleep-check protocol. Zero means "infinite": workers spin
	// forever and never park (§4.6, last paragraph).
	SleepThreshold time.Duration

	// Logger receives Debug/Warn diagnostics for capacity failures,
	// sleep-state transitions, and event-loop ownership hand-offs. Never
	// called on the insert/extract hot path. Defaults to a no-op logger.
	Logger core.Logger

	// EventLoop is the external single-threaded loop dispatch pumps
	// opportunistically and blocks in when idle (§4.7). Nil means dispatch
	// never pumps a loop and only ever parks once idle.
	EventLoop EventLoop

	// Safepoint is invoked once per dispatch iteration (§4.6 step 1). Nil is
	// a valid no-op.
	Safepoint Safepoint
}

// DefaultConfig returns a Config sized for the given worker count, with
// SleepThreshold resolved from TASKRUNNER_SLEEP_THRESHOLD if set.
func DefaultConfig(workers int) Config {
	return Config{
		Workers:         workers,
		ShardMultiplier: 4,
		ShardCapacity:   8192,
		HeapArity:       8,
		SleepThreshold:  sleepThresholdFromEnv(),
		Logger:          core.NewNoOpLogger(),
	}
}

func sleepThresholdFromEnv() time.Duration {
	v, ok := os.LookupEnv(sleepThresholdEnvVar)
	if !ok || v == "" {
		return defaultSleepThreshold
	}
	if strings.EqualFold(strings.TrimSpace(v), "infinite") {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultSleepThreshold
	}
	return d
}

func (c Config) withDefaults() Config {
	if c.ShardMultiplier <= 0 {
		c.ShardMultiplier = 4
	}
	if c.ShardCapacity <= 0 {
		c.ShardCapacity = 8192
	}
	if c.HeapArity <= 0 {
		c.HeapArity = 8
	}
	if c.Logger == nil {
		c.Logger = core.NewNoOpLogger()
	}
	return c
}
