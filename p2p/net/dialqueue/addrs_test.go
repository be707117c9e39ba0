package dialqueue

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/require"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
	"github.com/libp2p/go-libp2p-dialqueue/core/peerstore"
)

func mustAddr(t *testing.T, s string) ma.Multiaddr {
	t.Helper()
	m, err := ma.NewMultiaddr(s)
	require.NoError(t, err)
	return m
}

func newTestCalculator(t *testing.T, local peer.ID) *Calculator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = clock.NewMock()
	return NewCalculator(local, &cfg)
}

func TestCalculateSeedsFromAddrStrings(t *testing.T) {
	c := newTestCalculator(t, testPeerLocal)
	out, err := c.Calculate(context.Background(), testPeerRemote, []string{"/ip4/1.2.3.4/tcp/4001"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Contains(t, out[0].Multiaddr.String(), testPeerRemote.String())
}

func TestCalculateRejectsSelfDial(t *testing.T) {
	c := newTestCalculator(t, testPeerLocal)
	_, err := c.Calculate(context.Background(), testPeerLocal, []string{"/ip4/1.2.3.4/tcp/4001"})
	require.Error(t, err)
	var dialErr *DialError
	require.ErrorAs(t, err, &dialErr)
}

func TestCalculateNoValidAddresses(t *testing.T) {
	c := newTestCalculator(t, testPeerLocal)
	_, err := c.Calculate(context.Background(), testPeerRemote, nil)
	require.Error(t, err)
	var noAddrs *NoValidAddressesError
	require.ErrorAs(t, err, &noAddrs)
}

func TestCalculateDiscoversFromPeerstore(t *testing.T) {
	ps := peerstore.NewMemory()
	known := mustAddr(t, "/ip4/9.9.9.9/tcp/4001")
	require.NoError(t, ps.Merge(testPeerRemote, peerstore.MergeRecord{Multiaddrs: []ma.Multiaddr{known}}))

	cfg := DefaultConfig()
	cfg.Clock = clock.NewMock()
	cfg.Peerstore = ps
	c := NewCalculator(testPeerLocal, &cfg)

	out, err := c.Calculate(context.Background(), testPeerRemote, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Contains(t, out[0].Multiaddr.String(), "9.9.9.9")
}

func TestCalculateDedupesWithStickyCertification(t *testing.T) {
	out := dedupAddresses([]Address{
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4001"), IsCertified: false},
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4001"), IsCertified: true},
	})
	require.Len(t, out, 1)
	require.True(t, out[0].IsCertified)
}
