package peerstore

import (
	"errors"
	"testing"

	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/require"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

func mustAddr(t *testing.T, s string) ma.Multiaddr {
	t.Helper()
	m, err := ma.NewMultiaddr(s)
	require.NoError(t, err)
	return m
}

func TestMemoryGetNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.Get(peer.ID("QmFoo"))
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryMergeAndGet(t *testing.T) {
	m := NewMemory()
	p := peer.ID("QmFoo")
	a1 := mustAddr(t, "/ip4/1.2.3.4/tcp/4001")

	require.NoError(t, m.Merge(p, MergeRecord{Multiaddrs: []ma.Multiaddr{a1}}))

	rec, err := m.Get(p)
	require.NoError(t, err)
	require.Len(t, rec.Addresses, 1)
	require.Equal(t, a1.String(), rec.Addresses[0].Multiaddr.String())
	require.False(t, rec.Addresses[0].IsCertified)
}

func TestMemoryMetadataMerge(t *testing.T) {
	m := NewMemory()
	p := peer.ID("QmFoo")

	require.NoError(t, m.Merge(p, MergeRecord{Metadata: map[string][]byte{LastDialSuccessKey: []byte("100")}}))
	require.NoError(t, m.Merge(p, MergeRecord{Metadata: map[string][]byte{LastDialFailureKey: []byte("200")}}))

	meta := m.Metadata(p)
	require.Equal(t, []byte("100"), meta[LastDialSuccessKey])
	require.Equal(t, []byte("200"), meta[LastDialFailureKey])
}
