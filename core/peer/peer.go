// Package peer provides the minimal peer identity type consumed by the
// dial queue and its collaborators. Cryptographic key material and peer
// ID derivation are out of scope here (see spec.md Non-goals); ID is
// treated as an opaque, comparable, string-keyed identity.
package peer

import "errors"

// ErrEmptyPeerID is returned by Validate for the zero-value ID.
var ErrEmptyPeerID = errors.New("peer ID is empty")

// ID is an opaque peer identifier. Two IDs are equal iff their
// underlying strings are equal.
type ID string

// Validate reports ErrEmptyPeerID for the zero-value ID and nil for any
// other; the ID's contents are not checked further.
func (p ID) Validate() error {
	if p == "" {
		return ErrEmptyPeerID
	}
	return nil
}

// Empty reports whether p is the zero value.
func (p ID) Empty() bool {
	return p == ""
}

// String returns the human-readable form of the ID.
func (p ID) String() string {
	return string(p)
}

// MatchesOrEmpty reports whether p and other refer to the same peer,
// treating an empty ID on either side as a wildcard. This implements
// the "PeerIds are compatible" rule from spec.md §9 used when deciding
// whether two dial targets overlap.
func (p ID) MatchesOrEmpty(other ID) bool {
	if p.Empty() || other.Empty() {
		return true
	}
	return p == other
}
