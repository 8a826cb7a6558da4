// Package store persists per-consumer accounting records and the
// eligible-accounts allow-list behind a pluggable key/value backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oap75/freecalls/config"
	"github.com/oap75/freecalls/stats"
	"github.com/oap75/freecalls/utils"
	"github.com/oap75/freecalls/utils/builderpool"
)

// KV is the minimal durable key/value contract every backend implements.
// Values are opaque strings; callers (ConsumerStore, EligibleStore) own
// encoding. CheckAndSet provides the compare-and-swap primitive
// ConsumerStore.Save builds its retry loop on.
type KV interface {
	// Get returns the current value for key, and whether key exists at all
	// (a missing or expired key reports false, never an error).
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set unconditionally stores value for key. ttl of zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// CheckAndSet stores newValue for key only if the current value equals
	// oldValue. An empty oldValue means "only if key does not currently
	// exist". A false, nil result means the compare failed; it is not an
	// error and callers may reload and retry.
	CheckAndSet(ctx context.Context, key, oldValue, newValue string, ttl time.Duration) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// ErrContention is returned by ConsumerStore.Save after exhausting its
// retry budget against concurrent writers for the same consumer.
var ErrContention = errors.New("store: exceeded retries due to concurrent writers")

// MaxRetries bounds how many CheckAndSet attempts ConsumerStore.Save makes
// before giving up with ErrContention.
const MaxRetries = 5

// ConsumerStore persists ConsumerStats keyed by consumer account.
type ConsumerStore struct {
	kv     KV
	prefix string
}

// NewConsumerStore builds a ConsumerStore over kv. keyPrefix namespaces the
// keys (e.g. "freecalls:stats:") so a single backend can be shared with
// other record kinds without collisions.
func NewConsumerStore(kv KV, keyPrefix string) *ConsumerStore {
	return &ConsumerStore{kv: kv, prefix: keyPrefix}
}

func (s *ConsumerStore) key(account string) string {
	return s.prefix + account
}

// Load fetches the current ConsumerStats for account, along with the raw
// encoded value (needed as the "expected" value for a subsequent
// CheckAndSet) and whether a record existed at all.
func (s *ConsumerStore) Load(ctx context.Context, account string) (rec stats.ConsumerStats, raw string, ok bool, err error) {
	if err := utils.ValidateAccount(account); err != nil {
		return stats.ConsumerStats{}, "", false, err
	}
	raw, ok, err = s.kv.Get(ctx, s.key(account))
	if err != nil || !ok {
		return stats.ConsumerStats{}, "", ok, err
	}
	rec, err = decodeConsumerStats(raw)
	if err != nil {
		return stats.ConsumerStats{}, "", false, err
	}
	return rec, raw, true, nil
}

// Save writes next for account, retrying CheckAndSet against a freshly
// reloaded expected value if a concurrent writer won the race, up to
// MaxRetries times. expectedRaw should be the raw value last seen by Load
// (empty string if no record existed).
func (s *ConsumerStore) Save(ctx context.Context, account string, expectedRaw string, next stats.ConsumerStats) error {
	key := s.key(account)
	newRaw := encodeConsumerStats(next)

	for attempt := 0; attempt < MaxRetries; attempt++ {
		ok, err := s.kv.CheckAndSet(ctx, key, expectedRaw, newRaw, 0)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		current, exists, err := s.kv.Get(ctx, key)
		if err != nil {
			return err
		}
		if !exists {
			expectedRaw = ""
			continue
		}
		expectedRaw = current
	}
	return ErrContention
}

// encodeConsumerStats renders a ConsumerStats as a compact ASCII line:
// "v1|hash|idx1:used1|idx2:used2|...". Compact, allocation-light, and easy
// to diff in logs or a database column.
func encodeConsumerStats(c stats.ConsumerStats) string {
	b := builderpool.Get()
	defer builderpool.Put(b)
	b.WriteString("v1|")
	b.WriteString(strconv.FormatUint(c.ConfigHash, 10))
	for _, w := range c.Windows {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(w.TimelineIndex, 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(w.UsedCalls), 10))
	}
	return b.String()
}

func decodeConsumerStats(raw string) (stats.ConsumerStats, error) {
	fields := strings.Split(raw, "|")
	if len(fields) < 2 || fields[0] != "v1" {
		return stats.ConsumerStats{}, fmt.Errorf("store: unrecognized consumer stats encoding %q", raw)
	}
	hash, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return stats.ConsumerStats{}, fmt.Errorf("store: invalid config hash in %q: %w", raw, err)
	}

	rec := stats.Empty(config.Hash(hash))
	for _, field := range fields[2:] {
		idxStr, usedStr, found := strings.Cut(field, ":")
		if !found {
			return stats.ConsumerStats{}, fmt.Errorf("store: invalid window field %q", field)
		}
		idx, err := strconv.ParseUint(idxStr, 10, 64)
		if err != nil {
			return stats.ConsumerStats{}, fmt.Errorf("store: invalid timeline index in %q: %w", field, err)
		}
		used, err := strconv.ParseUint(usedStr, 10, 16)
		if err != nil {
			return stats.ConsumerStats{}, fmt.Errorf("store: invalid used calls in %q: %w", field, err)
		}
		rec.Push(stats.WindowStats{TimelineIndex: idx, UsedCalls: uint16(used)})
	}
	return rec, nil
}
