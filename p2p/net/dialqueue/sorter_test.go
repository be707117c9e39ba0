package dialqueue

import (
	"testing"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/require"
)

func addrAt(t *testing.T, s string, certified bool) Address {
	t.Helper()
	m, err := ma.NewMultiaddr(s)
	require.NoError(t, err)
	return Address{Multiaddr: m, IsCertified: certified}
}

func TestDefaultAddressSorterCertifiedFirst(t *testing.T) {
	in := []Address{
		addrAt(t, "/ip4/1.2.3.4/tcp/4001", false),
		addrAt(t, "/ip4/5.6.7.8/tcp/4001", true),
	}
	out := DefaultAddressSorter(in)
	require.True(t, out[0].IsCertified)
	require.False(t, out[1].IsCertified)
}

func TestDefaultAddressSorterPublicBeforeRelayed(t *testing.T) {
	relay := addrAt(t, "/ip4/1.2.3.4/tcp/4001/p2p/"+testPeerLocal.String()+"/p2p-circuit/p2p/"+testPeerRemote.String(), false)
	direct := addrAt(t, "/ip4/5.6.7.8/tcp/4001", false)

	out := DefaultAddressSorter([]Address{relay, direct})
	require.Equal(t, direct.Multiaddr.String(), out[0].Multiaddr.String())
	require.Equal(t, relay.Multiaddr.String(), out[1].Multiaddr.String())
}

func TestDefaultAddressSorterTransportClass(t *testing.T) {
	tcp := addrAt(t, "/ip4/1.2.3.4/tcp/4001", false)
	ws := addrAt(t, "/ip4/1.2.3.4/tcp/4002/ws", false)

	out := DefaultAddressSorter([]Address{tcp, ws})
	require.Equal(t, ws.Multiaddr.String(), out[0].Multiaddr.String())
	require.Equal(t, tcp.Multiaddr.String(), out[1].Multiaddr.String())
}

func TestDefaultAddressSorterPreservesInputOrderOnFullTie(t *testing.T) {
	a := addrAt(t, "/ip4/1.2.3.4/tcp/4001", false)
	b := addrAt(t, "/ip4/1.2.3.4/tcp/4002", false)

	out := DefaultAddressSorter([]Address{a, b})
	require.Equal(t, a.Multiaddr.String(), out[0].Multiaddr.String())
	require.Equal(t, b.Multiaddr.String(), out[1].Multiaddr.String())
}
