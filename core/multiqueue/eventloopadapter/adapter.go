// Package eventloopadapter wraps a *eventloop.Loop (github.com/joeycumines/go-eventloop)
// to satisfy multiqueue.EventLoop.
//
// Loop.Run(ctx) is designed to be called exactly once, blocking for the
// loop's entire lifetime — it has no "drive one tick and return" primitive.
// This adapter therefore starts the loop once, in a dedicated goroutine, at
// construction, and turns RunOnceBlocking into "wait for the shared loop to
// service one submitted round-trip" rather than "personally drive one
// iteration of the loop", which is how the scheduler's loopOwner mutex ends
// up arbitrating which worker is the one currently waiting on that
// round-trip, not who is running the loop itself.
package eventloopadapter

import (
	"context"

	eventloop "github.com/joeycumines/go-eventloop"

	"github.com/Swind/go-partr-scheduler/core/multiqueue"
)

// Adapter satisfies multiqueue.EventLoop.
type Adapter struct {
	loop      *eventloop.Loop
	runCancel context.CancelFunc
	runDone   chan struct{}
}

var _ multiqueue.EventLoop = (*Adapter)(nil)

// New starts a fresh loop in a dedicated goroutine, tied to ctx's lifetime.
func New(ctx context.Context) (*Adapter, error) {
	loop, err := eventloop.New()
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	a := &Adapter{
		loop:      loop,
		runCancel: cancel,
		runDone:   make(chan struct{}),
	}
	go func() {
		defer close(a.runDone)
		_ = loop.Run(runCtx)
	}()
	return a, nil
}

// RunOnceBlocking submits a marker task to the loop's internal queue and
// blocks until the loop has executed it (i.e. completed one round-trip
// through its own tick), ctx is done, or the loop has stopped entirely.
func (a *Adapter) RunOnceBlocking(ctx context.Context) error {
	done := make(chan struct{})
	if err := a.loop.SubmitInternal(func() {
		close(done)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.runDone:
		return nil
	}
}

// RunOnceNonblocking submits the same marker task but never waits for it;
// it only reports submission failure (e.g. the loop has already terminated).
func (a *Adapter) RunOnceNonblocking() error {
	return a.loop.SubmitInternal(func() {})
}

// Stop nudges the loop the same way WakeUp does. The dedicated run goroutine
// is never actually blocked "inside" a call a worker owns the way partr.c's
// uv_run is, so there is no separate uv_stop-equivalent to invoke here.
func (a *Adapter) Stop() {
	_ = a.loop.Wake()
}

// WakeUp is the cross-thread wake primitive.
func (a *Adapter) WakeUp() error {
	return a.loop.Wake()
}

// Close stops the underlying loop and waits for its run goroutine to exit.
func (a *Adapter) Close(ctx context.Context) error {
	a.runCancel()
	err := a.loop.Shutdown(ctx)
	<-a.runDone
	return err
}
