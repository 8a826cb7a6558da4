// Package stats holds the per-consumer accounting state the engine reads
// and rewrites on every free-call decision.
package stats

import "github.com/oap75/freecalls/config"

// WindowStats is the accounting state for a single window: which timeline
// bucket it currently covers, and how many calls have been used within it.
type WindowStats struct {
	TimelineIndex uint64
	UsedCalls     uint16
}

// NewWindowStats starts a fresh bucket for the given timeline index with
// zero calls used.
func NewWindowStats(timelineIndex uint64) WindowStats {
	return WindowStats{TimelineIndex: timelineIndex}
}

// ConsumerStats is the full accounting record for one consumer: one
// WindowStats per configured window, plus the config fingerprint the
// record was produced under.
//
// The fingerprint lets the engine detect a stale record (one produced
// under a window layout that has since changed) in O(1) rather than
// re-deriving the layout from the record's length and contents.
type ConsumerStats struct {
	Windows    []WindowStats
	ConfigHash config.Hash
}

// New builds a ConsumerStats from an explicit window list and fingerprint.
func New(windows []WindowStats, hash config.Hash) ConsumerStats {
	return ConsumerStats{Windows: windows, ConfigHash: hash}
}

// Empty returns a ConsumerStats with no window buckets, stamped with hash.
// Used whenever a consumer has no usable prior record: first call ever, or
// an existing record produced under a different config fingerprint.
func Empty(hash config.Hash) ConsumerStats {
	return ConsumerStats{ConfigHash: hash}
}

// WindowAt returns the window stats at index, and whether that index exists.
// A missing index means the corresponding window has never been evaluated
// for this consumer (for example, a layout that grew since the record was
// last written) and should be treated as an unstarted bucket.
func (c ConsumerStats) WindowAt(index int) (WindowStats, bool) {
	if index < 0 || index >= len(c.Windows) {
		return WindowStats{}, false
	}
	return c.Windows[index], true
}

// Push appends a window's computed stats. Mirrors building a new record
// window by window as the engine walks a config's window list in order.
func (c *ConsumerStats) Push(w WindowStats) {
	c.Windows = append(c.Windows, w)
}
