package prometheus

import (
	"context"
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Swind/go-partr-scheduler/core/multiqueue"
)

// SchedulerStatsProvider provides current multiqueue.Scheduler stats
// snapshots, satisfied by *multiqueue.Scheduler itself.
type SchedulerStatsProvider interface {
	Stats() multiqueue.Stats
	ShardHeadPriorities() []int32
}

// MultiQueuePoller periodically exports multiqueue.Scheduler.Stats() and
// per-shard head priorities into Prometheus collectors, the same
// polling-loop shape as SnapshotPoller.
type MultiQueuePoller struct {
	interval time.Duration

	mu         sync.RWMutex
	schedulers map[string]SchedulerStatsProvider

	shardDepth        *prom.GaugeVec
	shardHeadPriority *prom.GaugeVec
	sleepState        *prom.GaugeVec
	parkTotal         *prom.GaugeVec
	wakeTotal         *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewMultiQueuePoller creates and registers collectors for one or more
// multi-queue schedulers.
func NewMultiQueuePoller(reg prom.Registerer, interval time.Duration) (*MultiQueuePoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	shardDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskrunner",
		Name:      "multiqueue_queued_tasks",
		Help:      "Total tasks currently queued across all shards.",
	}, []string{"scheduler"})
	shardHeadPriority := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskrunner",
		Name:      "multiqueue_shard_head_priority",
		Help:      "Cached head priority per shard (PriorityInfinity when empty).",
	}, []string{"scheduler", "shard"})
	sleepState := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskrunner",
		Name:      "multiqueue_sleep_state",
		Help:      "Sleep-check state (0=awake, 1=checking, 2=asleep).",
	}, []string{"scheduler"})
	parkTotal := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskrunner",
		Name:      "multiqueue_park_total",
		Help:      "Cumulative count of workers entering park().",
	}, []string{"scheduler"})
	wakeTotal := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "taskrunner",
		Name:      "multiqueue_wake_total",
		Help:      "Cumulative count of real awake transitions from wake_any.",
	}, []string{"scheduler"})

	var err error
	if shardDepth, err = registerCollector(reg, shardDepth); err != nil {
		return nil, err
	}
	if shardHeadPriority, err = registerCollector(reg, shardHeadPriority); err != nil {
		return nil, err
	}
	if sleepState, err = registerCollector(reg, sleepState); err != nil {
		return nil, err
	}
	if parkTotal, err = registerCollector(reg, parkTotal); err != nil {
		return nil, err
	}
	if wakeTotal, err = registerCollector(reg, wakeTotal); err != nil {
		return nil, err
	}

	return &MultiQueuePoller{
		interval:          interval,
		schedulers:        make(map[string]SchedulerStatsProvider),
		shardDepth:        shardDepth,
		shardHeadPriority: shardHeadPriority,
		sleepState:        sleepState,
		parkTotal:         parkTotal,
		wakeTotal:         wakeTotal,
	}, nil
}

// AddScheduler adds or replaces a scheduler stats provider by name.
func (p *MultiQueuePoller) AddScheduler(name string, provider SchedulerStatsProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "scheduler")
	p.mu.Lock()
	p.schedulers[name] = provider
	p.mu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *MultiQueuePoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *MultiQueuePoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *MultiQueuePoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func sleepStateValue(s string) float64 {
	switch s {
	case "checking":
		return 1
	case "asleep":
		return 2
	default:
		return 0
	}
}

func (p *MultiQueuePoller) collectOnce() {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for name, provider := range p.schedulers {
		stats := provider.Stats()
		p.shardDepth.WithLabelValues(name).Set(float64(stats.QueuedTasks))
		p.sleepState.WithLabelValues(name).Set(sleepStateValue(stats.SleepState))
		p.parkTotal.WithLabelValues(name).Set(float64(stats.ParkTotal))
		p.wakeTotal.WithLabelValues(name).Set(float64(stats.WakeTotal))

		for i, prio := range provider.ShardHeadPriorities() {
			p.shardHeadPriority.WithLabelValues(name, fmt.Sprintf("%d", i)).Set(float64(prio))
		}
	}
}
