// Package network defines the Conn contract the dial queue produces and
// the small set of context helpers it needs to thread dial-scoped
// options (such as simultaneous-connect) through collaborators that
// only see a context.Context, mirroring go-libp2p's
// network.GetSimultaneousConnect/WithSimultaneousConnect pair.
package network

import (
	"context"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// Status is the lifecycle state of a Conn.
type Status int

const (
	StatusOpen Status = iota
	StatusClosing
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClosing:
		return "closing"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is an established, upgraded connection to a remote peer. Its
// lifecycle beyond what the dial queue observes is owned externally
// (see spec.md §1 Non-goals).
type Conn interface {
	RemotePeer() peer.ID
	RemoteMultiaddr() ma.Multiaddr
	Status() Status
	Close() error
}

// ConnectionTracker reports already-established connections to a peer,
// letting a dialer short-circuit (spec.md §4.1 "already connected").
// Ownership of the connections themselves stays with whatever maintains
// the swarm; the dial queue only ever reads this.
type ConnectionTracker interface {
	ConnsToPeer(p peer.ID) []Conn
}

type simultaneousConnectKey struct{}

// SimultaneousConnectValue carries the simultaneous-connect marker and
// whether this side is acting as the hole-punch client.
type SimultaneousConnectValue struct {
	IsClient bool
	Reason   string
}

// WithSimultaneousConnect marks ctx as driving a simultaneous-connect
// (hole punch) dial. The Priority Job Queue schedules such jobs at
// maximum priority with no inter-address delay (SPEC_FULL.md §5).
func WithSimultaneousConnect(ctx context.Context, isClient bool, reason string) context.Context {
	return context.WithValue(ctx, simultaneousConnectKey{}, SimultaneousConnectValue{IsClient: isClient, Reason: reason})
}

// GetSimultaneousConnect reports whether ctx carries a simultaneous
// connect marker, and its value if so.
func GetSimultaneousConnect(ctx context.Context) (isSimConnect bool, isClient bool, reason string) {
	v, ok := ctx.Value(simultaneousConnectKey{}).(SimultaneousConnectValue)
	if !ok {
		return false, false, ""
	}
	return true, v.IsClient, v.Reason
}
