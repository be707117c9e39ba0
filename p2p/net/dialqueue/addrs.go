package dialqueue

import (
	"context"
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	madns "github.com/multiformats/go-multiaddr-dns"
	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/connmgr"
	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
	"github.com/libp2p/go-libp2p-dialqueue/core/peerstore"
	"github.com/libp2p/go-libp2p-dialqueue/core/routing"
	"github.com/libp2p/go-libp2p-dialqueue/core/transport"
)

// dnsCacheTTL bounds how long a resolved dnsaddr is reused across
// overlapping dial jobs before a fresh resolution is attempted.
const dnsCacheTTL = 10 * time.Second

type dnsCacheEntry struct {
	addrs  []ma.Multiaddr
	expiry time.Time
}

// Calculator implements the Address Calculator of spec.md §4.3: the
// 13-stage pipeline from seed strings to a final, sorted dial list.
type Calculator struct {
	LocalPeer   peer.ID
	Peerstore   peerstore.Peerstore
	PeerRouting routing.PeerRouting
	Transports  transport.Manager
	Gater       connmgr.ConnectionGater
	Resolver    *madns.Resolver
	Sorter      AddressSorter

	dnsCache *lru.Cache[string, dnsCacheEntry]
	clock    interface{ Now() time.Time }
}

// NewCalculator builds a Calculator from a Config plus the local peer
// identity used for the self-dial and consistency checks.
func NewCalculator(local peer.ID, cfg *Config) *Calculator {
	cache, _ := lru.New[string, dnsCacheEntry](256)
	sorter := cfg.sorter()
	return &Calculator{
		LocalPeer:   local,
		Peerstore:   cfg.Peerstore,
		PeerRouting: cfg.PeerRouting,
		Transports:  cfg.TransportMgr,
		Gater:       cfg.ConnectionGater,
		Resolver:    cfg.Resolver,
		Sorter:      sorter,
		dnsCache:    cache,
		clock:       cfg.Clock,
	}
}

// Calculate runs the full pipeline and returns the sorted dial list for
// peerID (which may be empty for address-only dials) seeded from
// addrStrings.
func (c *Calculator) Calculate(ctx context.Context, peerID peer.ID, addrStrings []string) ([]Address, error) {
	// Stage 1: seed.
	addrs := make([]Address, 0, len(addrStrings))
	for _, s := range addrStrings {
		m, err := ma.NewMultiaddr(s)
		if err != nil {
			log.Debugf("dropping unparseable address %q: %s", s, err)
			continue
		}
		addrs = append(addrs, Address{Multiaddr: m})
	}

	// Stage 2: identity check.
	if !peerID.Empty() && !c.LocalPeer.Empty() && peerID == c.LocalPeer {
		return nil, &DialError{Peer: peerID, Reason: "tried to dial self"}
	}

	// Stage 3: peer gate.
	if !peerID.Empty() && connmgr.DenyDialPeer(c.Gater, peerID) {
		return nil, &DialDeniedError{Reason: "connection gater denied peer " + peerID.String()}
	}

	// Stage 4: address discovery.
	if !peerID.Empty() && len(addrs) == 0 {
		var err error
		addrs, err = c.discover(ctx, peerID)
		if err != nil {
			return nil, err
		}
	}

	// Stage 5: resolution.
	addrs, err := c.resolveAll(ctx, addrs)
	if err != nil {
		return nil, err
	}

	// Stage 6: PeerId encapsulation.
	if !peerID.Empty() {
		addrs, err = encapsulatePeerID(addrs, peerID)
		if err != nil {
			return nil, err
		}
	}

	// Stage 7: transport filter.
	addrs = c.filterNoTransport(addrs)

	// Stage 8: PeerId consistency filter.
	if !peerID.Empty() {
		addrs = filterMismatchedPeerID(addrs, peerID)
	}

	// Stage 9: dedup.
	addrs = dedupAddresses(addrs)

	// Stage 10: empty check.
	if len(addrs) == 0 {
		return nil, &NoValidAddressesError{Peer: peerID}
	}

	// Stage 11: multiaddr gate.
	addrs = c.filterGatedMultiaddrs(addrs)

	// Stage 12: empty check.
	if len(addrs) == 0 {
		return nil, &DialDeniedError{Reason: "the connection gater denied all addresses in the dial request"}
	}

	// Stage 13: sort.
	return c.Sorter(addrs), nil
}

// discover implements stage 4: load known addresses from the peer store,
// falling back to peer routing if still empty.
func (c *Calculator) discover(ctx context.Context, peerID peer.ID) ([]Address, error) {
	var addrs []Address

	if c.Peerstore != nil {
		rec, err := c.Peerstore.Get(peerID)
		switch {
		case err == nil:
			for _, a := range rec.Addresses {
				addrs = append(addrs, Address{Multiaddr: a.Multiaddr, IsCertified: a.IsCertified})
			}
		case errors.Is(err, peerstore.ErrNotFound):
			// swallowed, per spec.md §4.3 stage 4
		default:
			return nil, err
		}
	}

	if len(addrs) == 0 && c.PeerRouting != nil {
		info, err := c.PeerRouting.FindPeer(ctx, peerID)
		switch {
		case err == nil:
			for _, m := range info.Addrs {
				addrs = append(addrs, Address{Multiaddr: m})
			}
		case errors.Is(err, routing.ErrNoPeerRouters):
			// swallowed, per spec.md §4.3 stage 4
		default:
			return nil, err
		}
	}

	return addrs, nil
}

// resolveAll implements stage 5: resolve each address, preserving the
// original (certified) record when resolution is a no-op.
func (c *Calculator) resolveAll(ctx context.Context, addrs []Address) ([]Address, error) {
	if c.Resolver == nil {
		return addrs, nil
	}
	var out []Address
	for _, a := range addrs {
		resolved, err := c.resolveCached(ctx, a.Multiaddr)
		if err != nil {
			return nil, err
		}
		if len(resolved) == 1 && resolved[0].Equal(a.Multiaddr) {
			out = append(out, a) // preserve isCertified
			continue
		}
		for _, r := range resolved {
			out = append(out, Address{Multiaddr: r})
		}
	}
	return out, nil
}

func (c *Calculator) resolveCached(ctx context.Context, addr ma.Multiaddr) ([]ma.Multiaddr, error) {
	key := addr.String()
	if c.dnsCache != nil {
		if e, ok := c.dnsCache.Get(key); ok && c.clock != nil && c.clock.Now().Before(e.expiry) {
			return e.addrs, nil
		}
	}
	resolved, err := c.Resolver.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}
	if c.dnsCache != nil && c.clock != nil {
		c.dnsCache.Add(key, dnsCacheEntry{addrs: resolved, expiry: c.clock.Now().Add(dnsCacheTTL)})
	}
	return resolved, nil
}

// encapsulatePeerID implements stage 6.
func encapsulatePeerID(addrs []Address, peerID peer.ID) ([]Address, error) {
	p2pSuffix, err := ma.NewMultiaddr("/p2p/" + peerID.String())
	if err != nil {
		return nil, err
	}
	out := make([]Address, len(addrs))
	for i, a := range addrs {
		if isPathAddr(a.Multiaddr) || hasP2PComponent(a.Multiaddr) {
			out[i] = a
			continue
		}
		out[i] = Address{Multiaddr: a.Multiaddr.Encapsulate(p2pSuffix), IsCertified: a.IsCertified}
	}
	return out, nil
}

// filterNoTransport implements stage 7.
func (c *Calculator) filterNoTransport(addrs []Address) []Address {
	if c.Transports == nil {
		return addrs
	}
	out := addrs[:0:0]
	for _, a := range addrs {
		if c.Transports.DialTransportForMultiaddr(a.Multiaddr) != nil {
			out = append(out, a)
		}
	}
	return out
}

// filterMismatchedPeerID implements stage 8: drop addresses whose own
// embedded /p2p/<id> disagrees with the target peerID (this can happen
// after DNS-resolving a shared bootstrap hostname).
func filterMismatchedPeerID(addrs []Address, peerID peer.ID) []Address {
	out := addrs[:0:0]
	for _, a := range addrs {
		if v, err := a.Multiaddr.ValueForProtocol(ma.P_P2P); err == nil && v != "" && v != peerID.String() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// dedupAddresses implements stage 9, OR-ing isCertified across
// duplicates and preserving first-seen order.
func dedupAddresses(addrs []Address) []Address {
	seen := make(map[string]int, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		k := a.key()
		if idx, ok := seen[k]; ok {
			if a.IsCertified {
				out[idx].IsCertified = true
			}
			continue
		}
		seen[k] = len(out)
		out = append(out, a)
	}
	return out
}

// filterGatedMultiaddrs implements stage 11.
func (c *Calculator) filterGatedMultiaddrs(addrs []Address) []Address {
	out := addrs[:0:0]
	for _, a := range addrs {
		if connmgr.DenyDialMultiaddr(c.Gater, a.Multiaddr) {
			continue
		}
		out = append(out, a)
	}
	return out
}
