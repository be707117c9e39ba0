package dialqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/benbjohnson/clock"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/require"

	"github.com/libp2p/go-libp2p-dialqueue/core/network"
	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
	"github.com/libp2p/go-libp2p-dialqueue/core/peerstore"
	"github.com/libp2p/go-libp2p-dialqueue/core/transport"
)

type failingTransportManager struct{}

func (failingTransportManager) Dial(ctx context.Context, addr ma.Multiaddr, opts transport.DialOptions) (network.Conn, error) {
	return nil, errors.New("refused")
}
func (failingTransportManager) DialTransportForMultiaddr(addr ma.Multiaddr) transport.Transport {
	return nil
}

func TestRunAttemptsReportsMaxAddrsExceeded(t *testing.T) {
	addrs := []Address{
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4001")},
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4002")},
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4003")},
	}

	_, err := runAttempts(context.Background(), addrs, attemptOptions{
		Peer:           testPeerRemote,
		Transports:     failingTransportManager{},
		Peerstore:      peerstore.NewMemory(),
		MaxAddrsToDial: 2,
		Clock:          clock.NewMock(),
	})
	require.Error(t, err)
	var dialErr *DialError
	require.ErrorAs(t, err, &dialErr)
	require.Contains(t, dialErr.Reason, "maxPeerAddrsToDial")
}

func TestRunAttemptsUnderLimitReturnsAggregateError(t *testing.T) {
	addrs := []Address{
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4001")},
		{Multiaddr: mustAddr(t, "/ip4/1.2.3.4/tcp/4002")},
	}

	_, err := runAttempts(context.Background(), addrs, attemptOptions{
		Peer:           testPeerRemote,
		Transports:     failingTransportManager{},
		Peerstore:      peerstore.NewMemory(),
		MaxAddrsToDial: 2,
		Clock:          clock.NewMock(),
	})
	require.Error(t, err)
	var dialErr *DialError
	require.False(t, errors.As(err, &dialErr))
	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)
}

func TestRunAttemptsRecordsSuccessUnderConnRemotePeer(t *testing.T) {
	addr := mustAddr(t, "/ip4/1.2.3.4/tcp/4001")
	ps := peerstore.NewMemory()

	tm := &fakeTransportManager{
		dialFunc: func(ctx context.Context, a ma.Multiaddr) (network.Conn, error) {
			return &fakeConn{remotePeer: testPeerRemote, remoteAddr: a}, nil
		},
	}

	// No PeerId is known up front (an address-only dial); the winning
	// conn's own RemotePeer is what the success feedback must key on.
	_, err := runAttempts(context.Background(), []Address{{Multiaddr: addr}}, attemptOptions{
		Peer:           peer.ID(""),
		Transports:     tm,
		Peerstore:      ps,
		MaxAddrsToDial: 1,
		Clock:          clock.NewMock(),
	})
	require.NoError(t, err)

	meta := ps.Metadata(testPeerRemote)
	_, ok := meta[peerstore.LastDialSuccessKey]
	require.True(t, ok)

	emptyMeta := ps.Metadata(peer.ID(""))
	require.Empty(t, emptyMeta)
}
