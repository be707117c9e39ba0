package dialqueue

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p-dialqueue/core/network"
	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// Target names what a caller wants to reach: a PeerId, a bag of
// multiaddrs, or both (spec.md §3).
type Target struct {
	Peer  peer.ID
	Addrs []string
}

// DialRequestOptions are the per-call knobs spec.md §4.1 recognizes.
type DialRequestOptions struct {
	Priority int
	// Force skips the dial-backoff fast-fail (SPEC_FULL.md §5).
	Force    bool
	Progress ProgressFunc
}

// trackedJob is the Dial Queue's bookkeeping for one in-flight DialJob:
// the underlying scheduled Job plus the mutable set of addresses and
// progress observers every joined caller has contributed.
type trackedJob struct {
	peer peer.ID
	job  *Job[network.Conn]

	mu       sync.Mutex
	addrs    []string
	addrSeen map[string]struct{}
	progress []ProgressFunc
}

func newTrackedJob(peer peer.ID, job *Job[network.Conn]) *trackedJob {
	return &trackedJob{peer: peer, job: job, addrSeen: make(map[string]struct{})}
}

func (tj *trackedJob) addWaiter(addrs []string, progress ProgressFunc) {
	tj.mu.Lock()
	defer tj.mu.Unlock()
	for _, a := range addrs {
		if _, ok := tj.addrSeen[a]; !ok {
			tj.addrSeen[a] = struct{}{}
			tj.addrs = append(tj.addrs, a)
		}
	}
	if progress != nil {
		tj.progress = append(tj.progress, progress)
	}
}

func (tj *trackedJob) snapshotAddrs() []string {
	tj.mu.Lock()
	defer tj.mu.Unlock()
	out := make([]string, len(tj.addrs))
	copy(out, tj.addrs)
	return out
}

func (tj *trackedJob) emitAll(ev ProgressEvent) {
	tj.mu.Lock()
	fns := make([]ProgressFunc, len(tj.progress))
	copy(fns, tj.progress)
	tj.mu.Unlock()
	for _, fn := range fns {
		emit(fn, ev)
	}
}

// matchesTarget implements the join decision of spec.md §4.1, resolved
// per the recorded Open Question answer: a join requires compatible
// PeerIds (equal, or either side undefined). Conflicting PeerIds always
// produce independent jobs, even over an intersecting address set.
func (tj *trackedJob) matchesTarget(p peer.ID, addrs []string) bool {
	if !tj.peer.Empty() && !p.Empty() {
		return tj.peer == p
	}
	tj.mu.Lock()
	existing := tj.addrSeen
	tj.mu.Unlock()
	for _, a := range addrs {
		if _, ok := existing[a]; ok {
			return true
		}
	}
	return false
}

type backoffEntry struct {
	failures int
	until    time.Time
}

// Queue is the Dial Queue of spec.md §4.1, built on top of the Priority
// Job Queue (pqueue.go) and the Address Calculator (addrs.go).
type Queue struct {
	local peer.ID
	cfg   Config
	calc  *Calculator
	exec  *Executor[network.Conn]

	shutdownCtx context.Context
	shutdown    context.CancelFunc

	mu      sync.Mutex
	tracked []*trackedJob
	backoff map[peer.ID]*backoffEntry
}

// NewQueue constructs a Queue for local, the node's own identity (used
// for the self-dial check), configured by cfg.
func NewQueue(local peer.ID, cfg Config) *Queue {
	shutdownCtx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		local:       local,
		cfg:         cfg,
		calc:        NewCalculator(local, &cfg),
		shutdownCtx: shutdownCtx,
		shutdown:    cancel,
		backoff:     make(map[peer.ID]*backoffEntry),
	}
	q.exec = NewExecutor[network.Conn](cfg.MaxParallelDials,
		WithExecutorClock[network.Conn](cfg.Clock),
		WithExecutorMetrics[network.Conn](cfg.Metrics),
		WithJobErrorHandler[network.Conn](func(err error) {
			log.Debugf("dial job finished with error: %s", err)
		}),
	)
	return q
}

// Close shuts the queue down: every pending job resolves with
// ErrAborted and every running job's context is cancelled (spec.md §5).
func (q *Queue) Close() {
	q.shutdown()
	q.exec.Abort()
}

// Dial is the Dial Queue's single public entry point: short-circuit on
// an existing connection, join an overlapping in-flight job if one
// exists, or schedule a new one (spec.md §4.1).
func (q *Queue) Dial(ctx context.Context, target Target, opts DialRequestOptions) (network.Conn, error) {
	if target.Peer.Empty() && len(target.Addrs) == 0 {
		return nil, &InvalidParametersError{Reason: "dial target has neither a PeerId nor any addresses"}
	}
	if err := checkConsistentPeerIDs(target.Addrs); err != nil {
		return nil, err
	}

	if !opts.Force && !target.Peer.Empty() && q.cfg.ConnTracker != nil {
		for _, conn := range q.cfg.ConnTracker.ConnsToPeer(target.Peer) {
			if conn.Status() == network.StatusOpen {
				emit(opts.Progress, ProgressEvent{Kind: ProgressAlreadyConnected, Conn: conn})
				return conn, nil
			}
		}
	}

	if !opts.Force {
		if err := q.checkBackoff(target.Peer); err != nil {
			return nil, err
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if isSim, _, _ := network.GetSimultaneousConnect(ctx); isSim {
		opts.Priority = math.MaxInt
	}

	tj, handle, err := q.joinOrCreate(ctx, target, opts)
	if err != nil {
		return nil, err
	}
	_ = tj

	conn, err := handle.Wait()
	q.recordBackoffResult(target.Peer, err == nil)
	return conn, err
}

func (q *Queue) joinOrCreate(ctx context.Context, target Target, opts DialRequestOptions) (*trackedJob, *Handle[network.Conn], error) {
	q.mu.Lock()
	for _, tj := range q.tracked {
		if tj.matchesTarget(target.Peer, target.Addrs) {
			tj.addWaiter(target.Addrs, opts.Progress)
			q.mu.Unlock()
			tj.emitAll(ProgressEvent{Kind: ProgressAlreadyInDialQueue})
			return tj, q.exec.JoinJob(tj.job, ctx), nil
		}
	}

	if q.exec.Len() >= q.cfg.MaxDialQueueLen {
		q.mu.Unlock()
		return nil, nil, &DialError{Peer: target.Peer, Reason: "dial queue is full"}
	}

	tj := newTrackedJob(target.Peer, nil)
	tj.addWaiter(target.Addrs, opts.Progress)

	handle, err := q.exec.Add(ctx, q.dialTask(tj), opts.Priority)
	if err != nil {
		q.mu.Unlock()
		return nil, nil, err
	}
	tj.job = handle.Job()
	q.tracked = append(q.tracked, tj)
	q.mu.Unlock()

	tj.emitAll(ProgressEvent{Kind: ProgressAddToDialQueue})
	return tj, handle, nil
}

// dialTask returns the function the Executor runs for tj: compose an
// abort context over the job lifetime, calculate addresses, and walk
// them via the Attempt Loop.
func (q *Queue) dialTask(tj *trackedJob) TaskFunc[network.Conn] {
	return func(runCtx context.Context) (network.Conn, error) {
		defer q.untrack(tj)

		ac := newAbortComposer(runCtx, nil, q.cfg.DialTimeout, q.cfg.Clock)
		defer ac.Clear()
		ctx := ac.Context()

		addrs := tj.snapshotAddrs()
		calculated, err := q.calc.Calculate(ctx, tj.peer, addrs)
		if err != nil {
			return nil, err
		}
		tj.emitAll(ProgressEvent{Kind: ProgressCalculatedAddresses, Addresses: calculated})

		return runAttempts(ctx, calculated, attemptOptions{
			Peer:             tj.peer,
			Transports:       q.cfg.TransportMgr,
			Peerstore:        q.cfg.Peerstore,
			MaxAddrsToDial:   q.cfg.MaxPeerAddrsDial,
			Clock:            q.cfg.Clock,
			Progress:         tj.emitAll,
			Metrics:          q.cfg.Metrics,
			RankingStartedAt: q.cfg.Clock.Now(),
		})
	}
}

func (q *Queue) untrack(tj *trackedJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, other := range q.tracked {
		if other == tj {
			q.tracked = append(q.tracked[:i], q.tracked[i+1:]...)
			return
		}
	}
}

// checkBackoff implements SPEC_FULL.md §5's dial backoff: a peer with
// recent, repeated dial failures fast-fails until its backoff window
// elapses, unless the caller set DialRequestOptions.Force.
func (q *Queue) checkBackoff(p peer.ID) error {
	if p.Empty() {
		return nil
	}
	q.mu.Lock()
	e, ok := q.backoff[p]
	q.mu.Unlock()
	if !ok {
		return nil
	}
	if q.cfg.Clock.Now().Before(e.until) {
		return &DialError{Peer: p, Reason: "dial backoff"}
	}
	return nil
}

func (q *Queue) recordBackoffResult(p peer.ID, success bool) {
	if p.Empty() {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if success {
		delete(q.backoff, p)
		return
	}
	e, ok := q.backoff[p]
	if !ok {
		e = &backoffEntry{}
		q.backoff[p] = e
	}
	e.failures++
	if e.failures <= DefaultBackoffThreshold {
		return
	}
	delay := q.cfg.BackoffBase + q.cfg.BackoffCoef*time.Duration(e.failures*e.failures)
	if delay > q.cfg.BackoffMax {
		delay = q.cfg.BackoffMax
	}
	e.until = q.cfg.Clock.Now().Add(delay)
}
