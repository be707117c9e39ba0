package dialqueue

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// abortComposer combines a fresh per-dial timeout, the queue-wide
// shutdown signal, and the caller's optional user context into a single
// cancellation source (spec.md §4.5). Its Clear method detaches internal
// listeners deterministically so many concurrent waiters never leak
// goroutines (spec.md §5's explicit "raise the listener limit" note,
// expressed here as "don't need a listener limit at all": each composer
// owns exactly one watcher goroutine regardless of waiter count).
type abortComposer struct {
	ctx    context.Context
	cancel context.CancelFunc

	timer clock.Timer

	once sync.Once
	done chan struct{}
}

// newAbortComposer starts the composite context. userCtx may be nil,
// meaning the caller supplied no per-call cancellation.
func newAbortComposer(shutdownCtx context.Context, userCtx context.Context, timeout time.Duration, cl clock.Clock) *abortComposer {
	if cl == nil {
		cl = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ac := &abortComposer{
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	ac.timer = cl.Timer(timeout)

	var userDone <-chan struct{}
	if userCtx != nil {
		userDone = userCtx.Done()
	}

	go func() {
		defer ac.timer.Stop()
		select {
		case <-ac.timer.C:
		case <-shutdownCtx.Done():
		case <-userDone:
		case <-ac.done:
		}
		cancel()
	}()

	return ac
}

// Context returns the composite context, aborted when any source fires.
func (ac *abortComposer) Context() context.Context { return ac.ctx }

// Clear detaches the composer's internal watcher goroutine. Safe to call
// more than once; safe to call after the context has already been
// cancelled by one of its sources.
func (ac *abortComposer) Clear() {
	ac.once.Do(func() { close(ac.done) })
}
