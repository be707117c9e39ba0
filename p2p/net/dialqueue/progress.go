package dialqueue

import (
	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/network"
)

// ProgressKind tags the variants of progress event the dial queue emits
// (spec.md §6). Modeled as a small tagged variant rather than ad-hoc
// event subclasses.
type ProgressKind int

const (
	ProgressAlreadyConnected ProgressKind = iota
	ProgressAlreadyInDialQueue
	ProgressAddToDialQueue
	ProgressStartDial
	ProgressCalculatedAddresses
	ProgressDialFailed
	ProgressDialSucceeded
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressAlreadyConnected:
		return "dial-queue:already-connected"
	case ProgressAlreadyInDialQueue:
		return "dial-queue:already-in-dial-queue"
	case ProgressAddToDialQueue:
		return "dial-queue:add-to-dial-queue"
	case ProgressStartDial:
		return "dial-queue:start-dial"
	case ProgressCalculatedAddresses:
		return "dial-queue:calculated-addresses"
	case ProgressDialFailed:
		return "dial-queue:dial-failed"
	case ProgressDialSucceeded:
		return "dial-queue:dial-succeeded"
	default:
		return "dial-queue:unknown"
	}
}

// ProgressEvent is delivered to a caller's OnProgress callback.
type ProgressEvent struct {
	Kind      ProgressKind
	Conn      network.Conn // set for ProgressAlreadyConnected, ProgressDialSucceeded
	Addresses []Address     // set for ProgressCalculatedAddresses
	Address   ma.Multiaddr  // set for ProgressStartDial, ProgressDialFailed, ProgressDialSucceeded
	Err       error         // set for ProgressDialFailed
}

// ProgressFunc receives best-effort progress notifications. A nil
// ProgressFunc is always safe to invoke through emit.
type ProgressFunc func(ProgressEvent)

// emit calls fn if non-nil; progress emission is best-effort and must
// never block or panic the caller (spec.md §6).
func emit(fn ProgressFunc, ev ProgressEvent) {
	if fn == nil {
		return
	}
	fn(ev)
}
