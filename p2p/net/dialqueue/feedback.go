package dialqueue

import (
	"strconv"
	"time"

	ma "github.com/multiformats/go-multiaddr"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
	"github.com/libp2p/go-libp2p-dialqueue/core/peerstore"
)

// nowMillisUTF8 encodes the current time as decimal milliseconds since
// epoch, UTF-8 encoded, per spec.md §4.6.
func nowMillisUTF8(cl interface{ Now() time.Time }) []byte {
	ms := cl.Now().UnixMilli()
	return []byte(strconv.FormatInt(ms, 10))
}

// recordDialSuccess merges the winning remote address and a
// last-dial-success timestamp into the peer store (spec.md §4.6). Merge
// failures are logged and swallowed; they must never mask the dial
// result (spec.md §7).
func recordDialSuccess(ps peerstore.Peerstore, remotePeer peer.ID, remoteAddr ma.Multiaddr, cl interface{ Now() time.Time }) {
	if ps == nil || remotePeer.Empty() {
		return
	}
	err := ps.Merge(remotePeer, peerstore.MergeRecord{
		Multiaddrs: []ma.Multiaddr{remoteAddr},
		Metadata:   map[string][]byte{peerstore.LastDialSuccessKey: nowMillisUTF8(cl)},
	})
	if err != nil {
		log.Warnf("peerstore merge on dial success for %s failed: %s", remotePeer, err)
	}
}

// recordDialFailure merges a last-dial-failure timestamp into the peer
// store for a known PeerId (spec.md §4.6). No-op if p is empty (the
// Address Calculator can be driven with no PeerId, e.g. isDialable).
func recordDialFailure(ps peerstore.Peerstore, p peer.ID, cl interface{ Now() time.Time }) {
	if ps == nil || p.Empty() {
		return
	}
	err := ps.Merge(p, peerstore.MergeRecord{
		Metadata: map[string][]byte{peerstore.LastDialFailureKey: nowMillisUTF8(cl)},
	})
	if err != nil {
		log.Warnf("peerstore merge on dial failure for %s failed: %s", p, err)
	}
}
