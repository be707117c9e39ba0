package dialqueue

import (
	"fmt"
	"strings"

	"github.com/libp2p/go-libp2p-dialqueue/core/peer"
)

// InvalidParametersError is returned when the caller's dial target is
// malformed, e.g. a multiaddr list carrying more than one distinct
// PeerId (spec.md §4.1).
type InvalidParametersError struct {
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return "invalid dial parameters: " + e.Reason
}

// DialError is the catch-all "the dial queue itself refused or gave up"
// error (self-dial, full queue, backoff, attempt cap). Message
// distinguishes the specific trigger, matching spec.md §7's table.
type DialError struct {
	Peer   peer.ID
	Reason string
}

func (e *DialError) Error() string {
	if e.Peer.Empty() {
		return "dial error: " + e.Reason
	}
	return fmt.Sprintf("dial error to %s: %s", e.Peer, e.Reason)
}

// DialDeniedError is returned when a ConnectionGater rejects a peer or
// every remaining candidate address.
type DialDeniedError struct {
	Reason string
}

func (e *DialDeniedError) Error() string {
	return "dial denied: " + e.Reason
}

// NoValidAddressesError is returned when the Address Calculator produces
// an empty address list after resolution and filtering.
type NoValidAddressesError struct {
	Peer peer.ID
}

func (e *NoValidAddressesError) Error() string {
	if e.Peer.Empty() {
		return "no valid addresses to dial"
	}
	return fmt.Sprintf("no valid addresses to dial peer %s", e.Peer)
}

// TimeoutError is returned when the composite abort signal (timeout,
// shutdown, or user cancellation) fires while an attempt is in flight.
type TimeoutError struct {
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Cause == nil {
		return "dial timed out"
	}
	return "dial timed out: " + e.Cause.Error()
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// AggregateError wraps two or more per-address dial failures (spec.md
// §4.4/§7: exactly one attempted failure is returned bare, two or more
// are aggregated).
type AggregateError struct {
	Message string
	Errors  []error
}

func (e *AggregateError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%s: [%s]", e.Message, strings.Join(parts, "; "))
}

// Unwrap supports errors.Is/As traversal of every wrapped failure
// (Go 1.20+ multi-error unwrap).
func (e *AggregateError) Unwrap() []error { return e.Errors }

// dialResultError folds a job's accumulated per-address errors into the
// single error the caller observes, per spec.md §4.4/§7.
func dialResultError(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateError{Message: "all multiaddr dials failed", Errors: errs}
	}
}
