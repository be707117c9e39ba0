// Package dialqueue implements the connection-establishment scheduler:
// deduplication of overlapping dial requests, a bounded-concurrency
// priority job queue, address calculation (discovery, resolution,
// filtering, sorting), the per-dial attempt loop, composite
// cancellation, and peer-store feedback.
package dialqueue

import (
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("dialqueue")
