package dialqueue

import (
	"time"

	"github.com/benbjohnson/clock"
	madns "github.com/multiformats/go-multiaddr-dns"

	"github.com/libp2p/go-libp2p-dialqueue/core/connmgr"
	"github.com/libp2p/go-libp2p-dialqueue/core/network"
	"github.com/libp2p/go-libp2p-dialqueue/core/peerstore"
	"github.com/libp2p/go-libp2p-dialqueue/core/routing"
	"github.com/libp2p/go-libp2p-dialqueue/core/transport"
)

// Default values, per spec.md §6.
const (
	DefaultMaxParallelDials  = 100
	DefaultMaxDialQueueLen   = 500
	DefaultMaxPeerAddrsDial  = 25
	DefaultDialTimeout       = 30 * time.Second
	DefaultBackoffBase       = 5 * time.Second
	DefaultBackoffCoef       = 1 * time.Second
	DefaultBackoffMax        = 5 * time.Minute
	DefaultBackoffThreshold  = 1 // exhausted attempts before backoff kicks in
)

// Config carries every option spec.md §6 recognizes. Built with
// functional options to avoid process-global mutable state.
type Config struct {
	Peerstore       peerstore.Peerstore
	PeerRouting     routing.PeerRouting
	TransportMgr    transport.Manager
	ConnectionGater connmgr.ConnectionGater
	ConnTracker     network.ConnectionTracker // optional; enables the already-connected short-circuit

	AddressSorter AddressSorter // nil means DefaultAddressSorter

	MaxParallelDials int
	MaxDialQueueLen  int
	MaxPeerAddrsDial int
	DialTimeout      time.Duration

	BackoffBase time.Duration
	BackoffCoef time.Duration
	BackoffMax  time.Duration

	Resolver *madns.Resolver // DNS resolver for dnsaddr/dns4/dns6 resolution

	Metrics MetricsTracer // optional

	Clock clock.Clock // optional, defaults to clock.New()
}

// Option mutates a Config at construction time.
type Option func(*Config) error

// DefaultConfig returns a Config populated with spec.md §6's defaults.
// Peerstore, TransportMgr (and optionally PeerRouting/ConnectionGater)
// must still be supplied via Options before constructing a Queue.
func DefaultConfig() Config {
	return Config{
		MaxParallelDials: DefaultMaxParallelDials,
		MaxDialQueueLen:  DefaultMaxDialQueueLen,
		MaxPeerAddrsDial: DefaultMaxPeerAddrsDial,
		DialTimeout:      DefaultDialTimeout,
		BackoffBase:      DefaultBackoffBase,
		BackoffCoef:      DefaultBackoffCoef,
		BackoffMax:       DefaultBackoffMax,
		Clock:            clock.New(),
	}
}

func WithPeerstore(ps peerstore.Peerstore) Option {
	return func(c *Config) error { c.Peerstore = ps; return nil }
}

func WithPeerRouting(pr routing.PeerRouting) Option {
	return func(c *Config) error { c.PeerRouting = pr; return nil }
}

func WithTransportManager(tm transport.Manager) Option {
	return func(c *Config) error { c.TransportMgr = tm; return nil }
}

func WithConnectionGater(g connmgr.ConnectionGater) Option {
	return func(c *Config) error { c.ConnectionGater = g; return nil }
}

func WithConnectionTracker(t network.ConnectionTracker) Option {
	return func(c *Config) error { c.ConnTracker = t; return nil }
}

func WithAddressSorter(s AddressSorter) Option {
	return func(c *Config) error { c.AddressSorter = s; return nil }
}

func WithMaxParallelDials(n int) Option {
	return func(c *Config) error { c.MaxParallelDials = n; return nil }
}

func WithMaxDialQueueLength(n int) Option {
	return func(c *Config) error { c.MaxDialQueueLen = n; return nil }
}

func WithMaxPeerAddrsToDial(n int) Option {
	return func(c *Config) error { c.MaxPeerAddrsDial = n; return nil }
}

func WithDialTimeout(d time.Duration) Option {
	return func(c *Config) error { c.DialTimeout = d; return nil }
}

func WithMetricsTracer(m MetricsTracer) Option {
	return func(c *Config) error { c.Metrics = m; return nil }
}

func WithClock(cl clock.Clock) Option {
	return func(c *Config) error { c.Clock = cl; return nil }
}

func WithDNSResolver(r *madns.Resolver) Option {
	return func(c *Config) error { c.Resolver = r; return nil }
}

// sorter returns the configured AddressSorter or DefaultAddressSorter.
func (c *Config) sorter() AddressSorter {
	if c.AddressSorter != nil {
		return c.AddressSorter
	}
	return DefaultAddressSorter
}
