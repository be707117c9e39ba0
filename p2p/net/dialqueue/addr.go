package dialqueue

import (
	ma "github.com/multiformats/go-multiaddr"
)

// Address is a candidate dial target plus its certification status
// (spec.md §3). isCertified is sticky-true under deduplication.
type Address struct {
	Multiaddr   ma.Multiaddr
	IsCertified bool
}

func (a Address) key() string { return a.Multiaddr.String() }

// p2pCircuitProtocolName is the multiaddr protocol name used by
// circuit-relay (p2p-circuit) addresses; IsRelayed matches protocols by
// this name.
const p2pCircuitProtocolName = "p2p-circuit"

// IsRelayed reports whether ma routes through a circuit relay, i.e. it
// contains a /p2p-circuit component (spec.md GLOSSARY "Circuit / Relay
// address").
func IsRelayed(addr ma.Multiaddr) bool {
	for _, p := range addr.Protocols() {
		if p.Name == p2pCircuitProtocolName {
			return true
		}
	}
	return false
}

// pathProtocols are terminal protocols that embed a path component
// rather than a peer ID slot (e.g. unix sockets); PeerId encapsulation
// (spec.md §4.3 stage 6) is skipped for these.
var pathProtocols = map[string]bool{
	"unix": true,
}

// isPathAddr reports whether addr's terminal protocol is a path-type
// protocol.
func isPathAddr(addr ma.Multiaddr) bool {
	protos := addr.Protocols()
	if len(protos) == 0 {
		return false
	}
	return pathProtocols[protos[len(protos)-1].Name]
}

// hasP2PComponent reports whether addr already carries a /p2p/<peerid>
// component.
func hasP2PComponent(addr ma.Multiaddr) bool {
	for _, p := range addr.Protocols() {
		if p.Name == "p2p" {
			return true
		}
	}
	return false
}

// checkConsistentPeerIDs enforces spec.md §4.1: if multiple addrs carry a
// /p2p/<id> component, they must all name the same PeerId. Addrs that
// fail to parse or carry no PeerId component are ignored here; the
// Address Calculator reports parse failures on its own terms.
func checkConsistentPeerIDs(addrStrings []string) error {
	var seen string
	for _, s := range addrStrings {
		m, err := ma.NewMultiaddr(s)
		if err != nil {
			continue
		}
		id, err := m.ValueForProtocol(ma.P_P2P)
		if err != nil {
			continue
		}
		if seen == "" {
			seen = id
			continue
		}
		if id != seen {
			return &InvalidParametersError{Reason: "multiaddr list carries more than one distinct PeerId"}
		}
	}
	return nil
}
