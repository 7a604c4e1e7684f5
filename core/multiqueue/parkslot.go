package multiqueue

import "sync"

// parkSlot is one worker's blocking primitive (§3 "Park slot", §4.5). It is
// accessed from other workers only while holding mu, so a wake can never be
// lost against a park that has observed asleep but not yet started waiting.
type parkSlot struct {
	mu   sync.Mutex
	cond *sync.Cond
}

func newParkSlot() *parkSlot {
	p := &parkSlot{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// park blocks the calling worker until sc is no longer asleep.
func (p *parkSlot) park(sc *sleepCheck) {
	p.mu.Lock()
	for sc.isAsleep() {
		p.cond.Wait()
	}
	p.mu.Unlock()
}

// wake signals this worker's condition variable. Safe to call whether or not
// the worker is currently waiting.
func (p *parkSlot) wake() {
	p.mu.Lock()
	p.cond.Signal()
	p.mu.Unlock()
}
