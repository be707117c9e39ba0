// Package transport defines the capability the dial queue borrows to
// actually open a connection. Concrete transports (TCP, WebSocket, QUIC,
// ...) are external collaborators per spec.md §1 and are never
// implemented in this module.
package transport

import (
	"context"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/network"
	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// DialOptions carries the per-attempt knobs a transport dial needs.
type DialOptions struct {
	OnProgress func(network.Conn, error)
}

// Transport dials and tests dialability for a single protocol family.
type Transport interface {
	// Dial opens and upgrades a connection to addr. Implementations
	// must respect ctx cancellation.
	Dial(ctx context.Context, addr ma.Multiaddr, p peer.ID) (network.Conn, error)
	// CanDial reports whether this transport can handle addr's protocol
	// stack at all (irrespective of current resource limits).
	CanDial(addr ma.Multiaddr) bool
}

// Manager is the transport-manager contract required by spec.md §6.
type Manager interface {
	// Dial opens an upgraded connection to addr, honoring ctx for
	// cancellation/timeout.
	Dial(ctx context.Context, addr ma.Multiaddr, opts DialOptions) (network.Conn, error)
	// DialTransportForMultiaddr returns the Transport that would be used
	// to dial addr, or nil if none is registered for its protocol stack.
	DialTransportForMultiaddr(addr ma.Multiaddr) Transport
}
