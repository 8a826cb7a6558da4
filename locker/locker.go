// Package locker describes locked-balance facts mirrored in from an
// external chain, and the read-only view of them the engine consults when
// computing a consumer's max quota.
package locker

// LockedInfo is a snapshot of a consumer's locked balance as last reported
// by the oracle. Amount is denominated in the smallest unit of the locked
// asset; ExpiresAt is zero when the lock has no expiry.
type LockedInfo struct {
	Amount    uint64
	LockedAt  uint64
	ExpiresAt uint64
}

// HasExpiry reports whether the lock carries an expiry tick at all.
func (l LockedInfo) HasExpiry() bool { return l.ExpiresAt != 0 }

// Expired reports whether the lock had already expired by currentTick.
func (l LockedInfo) Expired(currentTick uint64) bool {
	return l.HasExpiry() && currentTick >= l.ExpiresAt
}

// Event identifies the last oracle-reported event the mirror has applied,
// so the oracle can resume feeding events after a restart without
// replaying ones already processed.
type Event struct {
	BlockNumber uint32
	EventIndex  uint32
}

// Lookup is the read-only view of mirrored lock state that quota
// calculation strategies depend on. The engine never writes through this
// interface; only the oracle-facing mirror package does.
type Lookup interface {
	// Locked returns the current LockedInfo for account, if any.
	Locked(account string) (LockedInfo, bool)
}
