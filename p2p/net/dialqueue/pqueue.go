package dialqueue

import (
	"container/heap"
	"context"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
)

// ErrExecutorClosed is returned by Executor.Add after Abort, before a
// subsequent Reopen.
var ErrExecutorClosed = errors.New("dialqueue: executor is closed")

// ErrAborted is delivered to waiters of a job that never ran (every
// waiter left before a free slot arrived) or that was cancelled by
// Executor.Abort, distinct from a started job's own task error.
var ErrAborted = errors.New("dialqueue: job aborted")

// TaskFunc is the unit of work an Executor schedules.
type TaskFunc[T any] func(ctx context.Context) (T, error)

type jobResult[T any] struct {
	val T
	err error
}

type waiter[T any] struct {
	ch  chan jobResult[T]
	ctx context.Context
}

// Job is a scheduled unit shared by every caller that joined it,
// corresponding to spec.md §3's DialJob: one result cell, many waiters.
type Job[T any] struct {
	seq      uint64
	priority int
	task     TaskFunc[T]

	mu      sync.Mutex
	waiters map[*waiter[T]]struct{}
	done    bool
	result  jobResult[T]

	runCancel context.CancelFunc
	index     int // position in the pending heap; -1 once running/finished
}

// Priority returns the job's scheduling priority (higher runs first).
func (j *Job[T]) Priority() int { return j.priority }

func (j *Job[T]) join(waiterCtx context.Context) *waiter[T] {
	w := &waiter[T]{ch: make(chan jobResult[T], 1), ctx: waiterCtx}
	j.mu.Lock()
	if j.done {
		res := j.result
		j.mu.Unlock()
		w.ch <- res
		return w
	}
	if j.waiters == nil {
		j.waiters = make(map[*waiter[T]]struct{})
	}
	j.waiters[w] = struct{}{}
	j.mu.Unlock()
	return w
}

func (j *Job[T]) finish(val T, err error) {
	j.mu.Lock()
	if j.done {
		j.mu.Unlock()
		return
	}
	j.done = true
	j.result = jobResult[T]{val: val, err: err}
	waiters := j.waiters
	j.waiters = nil
	j.mu.Unlock()
	for w := range waiters {
		w.ch <- jobResult[T]{val: val, err: err}
	}
}

// jobHeap is a max-heap on priority, FIFO among equal priorities.
type jobHeap[T any] []*Job[T]

func (h jobHeap[T]) Len() int { return len(h) }
func (h jobHeap[T]) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h jobHeap[T]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *jobHeap[T]) Push(x any) {
	j := x.(*Job[T])
	j.index = len(*h)
	*h = append(*h, j)
}
func (h *jobHeap[T]) Pop() any {
	old := *h
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	*h = old[:n-1]
	return j
}

// Executor is the Priority Job Queue of spec.md §4.2: a bounded
// concurrency scheduler with priorities, join, abort, and metrics hooks.
type Executor[T any] struct {
	concurrency int
	clock       clock.Clock
	metrics     MetricsTracer
	onJobError  func(error)

	mu      sync.Mutex
	pending jobHeap[T]
	running map[*Job[T]]struct{}
	nextSeq uint64
	closed  bool
}

// ExecutorOption configures an Executor at construction time.
type ExecutorOption[T any] func(*Executor[T])

// WithExecutorClock injects a clock (tests only; Executor itself doesn't
// use timers directly, but threads the clock through for callers that
// schedule follow-up work off of it).
func WithExecutorClock[T any](cl clock.Clock) ExecutorOption[T] {
	return func(e *Executor[T]) { e.clock = cl }
}

// WithExecutorMetrics attaches a MetricsTracer.
func WithExecutorMetrics[T any](m MetricsTracer) ExecutorOption[T] {
	return func(e *Executor[T]) { e.metrics = m }
}

// WithJobErrorHandler registers a callback invoked for every started
// job that finishes with a non-nil, non-abort error (spec.md §4.2:
// "Emits error events for started-then-failed jobs, filtered for
// AbortError").
func WithJobErrorHandler[T any](fn func(error)) ExecutorOption[T] {
	return func(e *Executor[T]) { e.onJobError = fn }
}

// NewExecutor returns a ready Executor bounded to concurrency
// simultaneously-running jobs.
func NewExecutor[T any](concurrency int, opts ...ExecutorOption[T]) *Executor[T] {
	e := &Executor[T]{
		concurrency: concurrency,
		clock:       clock.New(),
		running:     make(map[*Job[T]]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle is a caller's view onto a (possibly shared) Job.
type Handle[T any] struct {
	job  *Job[T]
	exec *Executor[T]
	w    *waiter[T]
}

// Job exposes the underlying Job, e.g. so a caller can offer it to
// another waiter via Executor.JoinJob.
func (h *Handle[T]) Job() *Job[T] { return h.job }

// Wait blocks until the job resolves or the context supplied at
// Add/JoinJob time is cancelled, whichever comes first. If this
// waiter's context fires first, only this Handle's view rejects; other
// waiters of the same job are unaffected unless this was the last one
// (spec.md §5 "Cancellation isolation").
func (h *Handle[T]) Wait() (T, error) {
	select {
	case res := <-h.w.ch:
		return res.val, res.err
	case <-h.w.ctx.Done():
		h.exec.leave(h.job, h.w)
		var zero T
		return zero, h.w.ctx.Err()
	}
}

// Add enqueues a new job and returns a Handle for the caller. priority
// follows spec.md §4.1's convention: higher runs first.
func (e *Executor[T]) Add(ctx context.Context, task TaskFunc[T], priority int) (*Handle[T], error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrExecutorClosed
	}
	j := &Job[T]{seq: e.nextSeq, priority: priority, task: task, index: -1}
	e.nextSeq++
	heap.Push(&e.pending, j)
	e.tryDispatchLocked()
	e.reportLocked()
	e.mu.Unlock()

	return &Handle[T]{job: j, exec: e, w: j.join(ctx)}, nil
}

// JoinJob attaches ctx as an additional waiter on an already-queued or
// already-running job (spec.md §4.2 join).
func (e *Executor[T]) JoinJob(j *Job[T], ctx context.Context) *Handle[T] {
	return &Handle[T]{job: j, exec: e, w: j.join(ctx)}
}

// Len reports the number of jobs currently pending (not yet running).
func (e *Executor[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending.Len()
}

// RunningLen reports the number of jobs currently executing.
func (e *Executor[T]) RunningLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.running)
}

func (e *Executor[T]) tryDispatchLocked() {
	for e.pending.Len() > 0 && len(e.running) < e.concurrency {
		j := heap.Pop(&e.pending).(*Job[T])
		runCtx, cancel := context.WithCancel(context.Background())
		j.runCancel = cancel
		e.running[j] = struct{}{}
		go e.runJob(j, runCtx)
	}
}

func (e *Executor[T]) runJob(j *Job[T], runCtx context.Context) {
	val, err := j.task(runCtx)
	j.finish(val, err)

	if err != nil && !errors.Is(err, ErrAborted) && !errors.Is(err, context.Canceled) && e.onJobError != nil {
		e.onJobError(err)
	}

	e.mu.Lock()
	delete(e.running, j)
	e.tryDispatchLocked()
	e.reportLocked()
	e.mu.Unlock()
}

// leave detaches w from j's waiter set. If j thereby has no waiters
// left: a still-pending j is removed from the queue and resolved with
// ErrAborted; an already-running j has its run context cancelled (the
// in-flight task observes this through ctx and should return promptly).
func (e *Executor[T]) leave(j *Job[T], w *waiter[T]) {
	e.mu.Lock()
	j.mu.Lock()
	delete(j.waiters, w)
	empty := len(j.waiters) == 0 && !j.done
	pending := empty && j.index >= 0
	j.mu.Unlock()

	switch {
	case pending:
		heap.Remove(&e.pending, j.index)
		e.reportLocked()
		e.mu.Unlock()
		j.finish(*new(T), ErrAborted)
	case empty:
		cancel := j.runCancel
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	default:
		e.mu.Unlock()
	}
}

// Abort resolves every pending job with ErrAborted, cancels the run
// context of every running job (whose result is then whatever its task
// returns), and closes the executor to further Add calls (spec.md §5
// shutdown). Reopen undoes the closed state for a fresh start().
func (e *Executor[T]) Abort() {
	e.mu.Lock()
	pending := make([]*Job[T], len(e.pending))
	copy(pending, e.pending)
	e.pending = e.pending[:0]
	running := make([]*Job[T], 0, len(e.running))
	for j := range e.running {
		running = append(running, j)
	}
	e.closed = true
	e.reportLocked()
	e.mu.Unlock()

	for _, j := range pending {
		j.finish(*new(T), ErrAborted)
	}
	for _, j := range running {
		if j.runCancel != nil {
			j.runCancel()
		}
	}
}

// Reopen clears the closed state set by Abort so Add accepts new jobs
// again (spec.md §5: "a subsequent start() installs a fresh shutdown
// controller").
func (e *Executor[T]) Reopen() {
	e.mu.Lock()
	e.closed = false
	e.mu.Unlock()
}

func (e *Executor[T]) reportLocked() {
	if e.metrics == nil {
		return
	}
	e.metrics.QueueDepth(e.pending.Len())
	e.metrics.RunningJobs(len(e.running))
}
