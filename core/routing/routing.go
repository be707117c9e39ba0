// Package routing defines the peer-routing lookup the dial queue falls
// back to when it has a PeerId but no known addresses (spec.md §4.3
// stage 4). The routing backend itself is an external collaborator.
package routing

import (
	"context"
	"errors"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// ErrNoPeerRouters is returned when no peer routing backend is
// configured. The dial queue swallows this error (spec.md §4.3 stage 4).
var ErrNoPeerRouters = errors.New("routing: no peer routers configured")

// PeerInfo is the result of a successful FindPeer lookup.
type PeerInfo struct {
	ID    peer.ID
	Addrs []ma.Multiaddr
}

// PeerRouting is the contract required by spec.md §6.
type PeerRouting interface {
	FindPeer(ctx context.Context, p peer.ID) (PeerInfo, error)
}
