package dialqueue

import "github.com/libp2p/go-libp2p-dialqueue/core/peer"

// Valid base58-encoded sha2-256 multihashes, reused across tests wherever
// a PeerId needs to round-trip through a real /p2p/<id> multiaddr
// component (which validates its value as a multihash).
const (
	testPeerLocal  = peer.ID("QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG")
	testPeerRemote = peer.ID("QmUNLLsPACCz1vLxQVkXqqLX5R1X345qqfHbsf67hvA3Nn")
)
