package multiqueue

import "sync/atomic"

// sleepPhase is the tri-state atomic gating the transition into parking
// (§3 "Sleep-check state", §4.4).
type sleepPhase int32

const (
	awake sleepPhase = iota
	checking
	asleep
)

func (p sleepPhase) String() string {
	switch p {
	case awake:
		return "awake"
	case checking:
		return "checking"
	case asleep:
		return "asleep"
	default:
		return "unknown"
	}
}

// sleepCheck is the single process-wide state machine described in §4.4.
// Every Scheduler owns exactly one.
type sleepCheck struct {
	state atomic.Int32
}

func (s *sleepCheck) init() { s.state.Store(int32(awake)) }

func (s *sleepCheck) load() sleepPhase { return sleepPhase(s.state.Load()) }

// checkNow runs the sleep_check_now() protocol. snapshot reports whether the
// whole multi-queue is currently empty. It returns true ("safe to sleep")
// once the state has settled in asleep, false ("do not sleep") once it has
// settled in awake.
func (s *sleepCheck) checkNow(snapshot func() bool) bool {
	for {
		switch s.load() {
		case checking:
			// Another goroutine owns the transition; spin until it resolves,
			// then loop back to the top of the switch to read the settled
			// state (awake or asleep).
			for s.load() == checking {
			}
		case awake:
			if !s.state.CompareAndSwap(int32(awake), int32(checking)) {
				continue
			}
			if snapshot() {
				if s.state.CompareAndSwap(int32(checking), int32(asleep)) {
					return true
				}
				// A concurrent wakeAny swapped checking to awake; loop and
				// re-observe rather than assume state.
				continue
			}
			s.state.Store(int32(awake))
			return false
		case asleep:
			return true
		}
	}
}

// wakeAny implements the "exchange to awake" half of wake_any (§4.5).
// It returns true if the previous state was not already awake, meaning some
// worker was checking or asleep and must be signalled.
func (s *sleepCheck) wakeAny() bool {
	prev := s.state.Swap(int32(awake))
	return sleepPhase(prev) != awake
}

func (s *sleepCheck) isAsleep() bool { return s.load() == asleep }
