package dialqueue

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p-dialqueue/core/network"
	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
	"github.com/libp2p/go-libp2p-dialqueue/core/peerstore"
	"github.com/libp2p/go-libp2p-dialqueue/core/transport"
)

// attemptOptions carries everything the Attempt Loop needs beyond the
// sorted address list itself.
type attemptOptions struct {
	Peer             peer.ID
	Transports       transport.Manager
	Peerstore        peerstore.Peerstore
	MaxAddrsToDial    int
	Clock            interface{ Now() time.Time }
	Progress         ProgressFunc
	Metrics          MetricsTracer
	RankingStartedAt time.Time
}

// runAttempts implements the Attempt Loop of spec.md §4.4: walk addrs in
// rank order under ctx (the composite abort signal), stopping at the
// first success, the context's cancellation, or maxAddrsToDial attempts,
// whichever comes first.
func runAttempts(ctx context.Context, addrs []Address, opts attemptOptions) (network.Conn, error) {
	truncated := opts.MaxAddrsToDial > 0 && opts.MaxAddrsToDial < len(addrs)
	limit := opts.MaxAddrsToDial
	if limit <= 0 || limit > len(addrs) {
		limit = len(addrs)
	}

	if !opts.RankingStartedAt.IsZero() && opts.Metrics != nil {
		opts.Metrics.DialRankingDelay(opts.Clock.Now().Sub(opts.RankingStartedAt))
	}

	var errs []error
	for i := 0; i < limit; i++ {
		addr := addrs[i]

		select {
		case <-ctx.Done():
			errs = append(errs, &TimeoutError{Cause: ctx.Err()})
			return nil, finishAttempts(opts, false, errs)
		default:
		}

		emit(opts.Progress, ProgressEvent{Kind: ProgressStartDial, Address: addr.Multiaddr})

		conn, err := opts.Transports.Dial(ctx, addr.Multiaddr, transport.DialOptions{})
		if err != nil {
			errs = append(errs, err)
			recordDialFailure(opts.Peerstore, opts.Peer, opts.Clock)
			if opts.Metrics != nil {
				opts.Metrics.FailedDialing(addr.Multiaddr, err)
			}
			emit(opts.Progress, ProgressEvent{Kind: ProgressDialFailed, Address: addr.Multiaddr, Err: err})
			if ctx.Err() != nil {
				finishAttempts(opts, false, errs)
				return nil, &TimeoutError{Cause: err}
			}
			continue
		}

		recordDialSuccess(opts.Peerstore, conn.RemotePeer(), addr.Multiaddr, opts.Clock)
		emit(opts.Progress, ProgressEvent{Kind: ProgressDialSucceeded, Address: addr.Multiaddr, Conn: conn})
		return conn, finishAttempts(opts, true, nil)
	}

	if truncated {
		finishAttempts(opts, false, errs)
		return nil, &DialError{Peer: opts.Peer, Reason: "Peer had more than maxPeerAddrsToDial"}
	}
	return nil, finishAttempts(opts, false, errs)
}

func finishAttempts(opts attemptOptions, success bool, errs []error) error {
	if !success {
		recordDialFailure(opts.Peerstore, opts.Peer, opts.Clock)
	}
	if opts.Metrics != nil {
		opts.Metrics.DialCompleted(success, len(errs))
	}
	return dialResultError(errs)
}
