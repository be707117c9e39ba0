package dialqueue

import "context"

// IsDialable implements the isDialable probe of spec.md §4.7: run the
// Address Calculator with no PeerId and report whether at least one
// candidate survives. It is side-effect free (no peer store writes, no
// queue entry) and never propagates an error to the caller; failures
// are logged and treated as "not dialable".
func (q *Queue) IsDialable(ctx context.Context, addrStrings []string) bool {
	addrs, err := q.calc.Calculate(ctx, "", addrStrings)
	if err != nil {
		log.Debugf("isDialable probe failed for %v: %s", addrStrings, err)
		return false
	}
	return len(addrs) > 0
}
