// Package peerstore defines the peer-store contract the dial queue reads
// addresses from and writes dial-outcome feedback into (spec.md §4.6,
// §6), plus a simple in-memory implementation good enough for tests and
// small deployments. Persistent/disk-backed peerstores are an external
// collaborator; this module does not itself depend on a KV store.
package peerstore

import (
	"errors"
	"sync"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// ErrNotFound is returned by Get when no record exists for the peer.
var ErrNotFound = errors.New("peerstore: peer record not found")

// Stable metadata keys, per spec.md §6.
const (
	LastDialSuccessKey = "last-dial-success"
	LastDialFailureKey = "last-dial-failure"
)

// Address is a peer store's view of a known address: the multiaddr plus
// whether it was vouched for by a signed peer record (spec.md §3).
// isCertified is sticky-true under deduplication.
type Address struct {
	Multiaddr   ma.Multiaddr
	IsCertified bool
}

// PeerRecord is what Get returns: everything the dial queue needs to
// seed address discovery (spec.md §4.3 stage 4).
type PeerRecord struct {
	ID        peer.ID
	Addresses []Address
}

// MergeRecord is what Merge accepts: additive address/metadata updates.
type MergeRecord struct {
	Multiaddrs []ma.Multiaddr
	Metadata   map[string][]byte
}

// Peerstore is the contract required by spec.md §6.
type Peerstore interface {
	Get(p peer.ID) (*PeerRecord, error)
	Merge(p peer.ID, rec MergeRecord) error
}

// Memory is a goroutine-safe, in-memory Peerstore.
type Memory struct {
	mu       sync.RWMutex
	addrs    map[peer.ID]map[string]Address // keyed by peer, then stringified addr
	metadata map[peer.ID]map[string][]byte
}

// NewMemory returns an empty in-memory Peerstore.
func NewMemory() *Memory {
	return &Memory{
		addrs:    make(map[peer.ID]map[string]Address),
		metadata: make(map[peer.ID]map[string][]byte),
	}
}

// Get implements Peerstore.
func (m *Memory) Get(p peer.ID) (*PeerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	addrSet, ok := m.addrs[p]
	if !ok || len(addrSet) == 0 {
		return nil, ErrNotFound
	}
	rec := &PeerRecord{ID: p}
	for _, a := range addrSet {
		rec.Addresses = append(rec.Addresses, a)
	}
	return rec, nil
}

// Merge implements Peerstore. Address certification is sticky-true: an
// address already recorded as certified is never downgraded.
func (m *Memory) Merge(p peer.ID, rec MergeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(rec.Multiaddrs) > 0 {
		set, ok := m.addrs[p]
		if !ok {
			set = make(map[string]Address)
			m.addrs[p] = set
		}
		for _, a := range rec.Multiaddrs {
			key := a.String()
			existing, ok := set[key]
			set[key] = Address{
				Multiaddr:   a,
				IsCertified: ok && existing.IsCertified,
			}
		}
	}

	if len(rec.Metadata) > 0 {
		meta, ok := m.metadata[p]
		if !ok {
			meta = make(map[string][]byte)
			m.metadata[p] = meta
		}
		for k, v := range rec.Metadata {
			meta[k] = v
		}
	}
	return nil
}

// Metadata returns a copy of the metadata recorded for p, for tests and
// inspection tooling.
func (m *Memory) Metadata(p peer.ID) map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.metadata[p]))
	for k, v := range m.metadata[p] {
		out[k] = v
	}
	return out
}
