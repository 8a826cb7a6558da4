// Package mirror is the oracle-facing write path for locked-balance facts
// mirrored in from an external chain. It reuses the same store.KV
// abstraction the consumer-stats store uses, so it picks up whichever
// backend (in-memory, Redis, PostgreSQL) the deployment already runs.
package mirror

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/oap75/freecalls/locker"
	"github.com/oap75/freecalls/store"
)

// Mirror is the read/write view of mirrored locked-balance state. Only the
// oracle integration should hold a *Mirror; everything else should depend
// on locker.Lookup instead.
type Mirror struct {
	kv       store.KV
	prefix   string
	eventKey string
}

// New builds a Mirror over kv, namespacing its keys under keyPrefix.
func New(kv store.KV, keyPrefix string) *Mirror {
	return &Mirror{kv: kv, prefix: keyPrefix, eventKey: keyPrefix + "_last_event"}
}

func (m *Mirror) key(account string) string {
	return m.prefix + account
}

// Locked implements locker.Lookup.
func (m *Mirror) Locked(account string) (locker.LockedInfo, bool) {
	raw, ok, err := m.kv.Get(context.Background(), m.key(account))
	if err != nil || !ok {
		return locker.LockedInfo{}, false
	}
	info, err := decodeLockedInfo(raw)
	if err != nil {
		return locker.LockedInfo{}, false
	}
	return info, true
}

// SetLockedInfo records info for account, overwriting whatever was there.
// Intended to be called only by the oracle integration reporting a lock
// event; ordinary engine code never writes through this method.
func (m *Mirror) SetLockedInfo(ctx context.Context, account string, info locker.LockedInfo) error {
	return m.kv.Set(ctx, m.key(account), encodeLockedInfo(info), 0)
}

// ClearLockedInfo removes account's locked-balance record entirely, e.g.
// once the oracle reports the lock has been fully withdrawn.
func (m *Mirror) ClearLockedInfo(ctx context.Context, account string) error {
	return m.kv.Delete(ctx, m.key(account))
}

// SetLastProcessedEvent records the last oracle event applied, so a
// restarted oracle integration can resume without replaying events already
// mirrored in.
func (m *Mirror) SetLastProcessedEvent(ctx context.Context, event locker.Event) error {
	return m.kv.Set(ctx, m.eventKey, encodeEvent(event), 0)
}

// LastProcessedEvent returns the last event recorded via
// SetLastProcessedEvent, if any.
func (m *Mirror) LastProcessedEvent(ctx context.Context) (locker.Event, bool, error) {
	raw, ok, err := m.kv.Get(ctx, m.eventKey)
	if err != nil || !ok {
		return locker.Event{}, false, err
	}
	ev, err := decodeEvent(raw)
	if err != nil {
		return locker.Event{}, false, err
	}
	return ev, true, nil
}

func encodeLockedInfo(info locker.LockedInfo) string {
	return fmt.Sprintf("%d|%d|%d", info.Amount, info.LockedAt, info.ExpiresAt)
}

func decodeLockedInfo(raw string) (locker.LockedInfo, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 3 {
		return locker.LockedInfo{}, fmt.Errorf("mirror: invalid locked info encoding %q", raw)
	}
	amount, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return locker.LockedInfo{}, err
	}
	lockedAt, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return locker.LockedInfo{}, err
	}
	expiresAt, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return locker.LockedInfo{}, err
	}
	return locker.LockedInfo{Amount: amount, LockedAt: lockedAt, ExpiresAt: expiresAt}, nil
}

func encodeEvent(e locker.Event) string {
	return fmt.Sprintf("%d|%d", e.BlockNumber, e.EventIndex)
}

func decodeEvent(raw string) (locker.Event, error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 2 {
		return locker.Event{}, fmt.Errorf("mirror: invalid event encoding %q", raw)
	}
	block, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return locker.Event{}, err
	}
	idx, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return locker.Event{}, err
	}
	return locker.Event{BlockNumber: uint32(block), EventIndex: uint32(idx)}, nil
}
