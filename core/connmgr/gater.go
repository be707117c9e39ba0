// Package connmgr defines the connection gater contract. Both methods
// are optional in the source specification; we express "optional" the
// idiomatic Go way, as separate single-method interfaces the dial queue
// type-asserts for, rather than a monolithic interface with
// always-present no-op methods.
package connmgr

import (
	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// PeerDialGater vetoes dials by target peer identity.
type PeerDialGater interface {
	DenyDialPeer(p peer.ID) bool
}

// MultiaddrDialGater vetoes dials by candidate address.
type MultiaddrDialGater interface {
	DenyDialMultiaddr(addr ma.Multiaddr) bool
}

// ConnectionGater is a marker interface; implementations supply either
// or both of PeerDialGater and MultiaddrDialGater. A nil ConnectionGater
// denies nothing.
type ConnectionGater interface{}

// DenyDialPeer calls gater's DenyDialPeer if it implements PeerDialGater,
// otherwise reports false.
func DenyDialPeer(gater ConnectionGater, p peer.ID) bool {
	if gater == nil {
		return false
	}
	if g, ok := gater.(PeerDialGater); ok {
		return g.DenyDialPeer(p)
	}
	return false
}

// DenyDialMultiaddr calls gater's DenyDialMultiaddr if it implements
// MultiaddrDialGater, otherwise reports false.
func DenyDialMultiaddr(gater ConnectionGater, addr ma.Multiaddr) bool {
	if gater == nil {
		return false
	}
	if g, ok := gater.(MultiaddrDialGater); ok {
		return g.DenyDialMultiaddr(addr)
	}
	return false
}
