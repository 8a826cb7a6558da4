package lockstrategy

import (
	"fmt"
	"math/bits"

	"github.com/oap75/freecalls/locker"
)

func init() {
	Register("time_weighted_lock", func(config any) (Strategy, error) {
		cfg, ok := config.(TimeWeightedConfig)
		if !ok {
			return nil, fmt.Errorf("lockstrategy: time_weighted_lock requires a TimeWeightedConfig, got %T", config)
		}
		if cfg.OneUnit == 0 {
			return nil, fmt.Errorf("lockstrategy: time_weighted_lock requires a non-zero OneUnit")
		}
		return NewTimeWeighted(cfg.Scale, cfg.OneUnit, cfg.CallsPerUnit), nil
	})
}

// TimeWeightedConfig is the config type Create("time_weighted_lock", ...)
// expects.
type TimeWeightedConfig struct {
	Scale        TimeScale
	OneUnit      uint64
	CallsPerUnit uint64
}

// Tick-scale constants for the utilization ladder. A deployment expresses
// these in whatever tick unit it uses (block numbers, seconds, ...); the
// ratios between them are what the ladder actually depends on.
type TimeScale struct {
	TicksPerWeek  uint64
	TicksPerMonth uint64
}

// TimeWeighted grants quota proportional to how long a balance has stayed
// locked: the longer an account has committed funds, the larger a share of
// its locked balance converts into free calls, up to a 100% cap.
type TimeWeighted struct {
	Scale        TimeScale
	OneUnit      uint64 // base currency unit, e.g. one "dollar" in smallest denomination
	CallsPerUnit uint64
}

// NewTimeWeighted builds a TimeWeighted strategy over the given tick scale.
func NewTimeWeighted(scale TimeScale, oneUnit, callsPerUnit uint64) *TimeWeighted {
	return &TimeWeighted{Scale: scale, OneUnit: oneUnit, CallsPerUnit: callsPerUnit}
}

// Calculate implements the week/month utilization ladder described above:
// no lock, a lock that hasn't started yet, or one that has already expired
// all yield no quota; otherwise the locked balance converts to free calls
// at the utilization percentage matching how long it has been locked.
func (t *TimeWeighted) Calculate(_ string, currentTick uint64, locked locker.LockedInfo, hasLocked bool) (uint16, bool) {
	if !hasLocked {
		return 0, false
	}
	if locked.LockedAt >= currentTick {
		return 0, false
	}
	if locked.Expired(currentTick) {
		return 0, false
	}

	elapsed := currentTick - locked.LockedAt
	utilization := t.utilizationPercent(elapsed)

	tokens := locked.Amount / t.OneUnit
	calls := ^uint64(0) // saturated unless both multiplications fit in 64 bits
	if hi, lo := bits.Mul64(tokens, t.CallsPerUnit); hi == 0 {
		if hi, lo = bits.Mul64(lo, utilization); hi == 0 {
			calls = lo / 100
		}
	}

	const maxCalls = ^uint16(0)
	if calls >= uint64(maxCalls) {
		return maxCalls, true
	}
	return uint16(calls), true
}

func (t *TimeWeighted) utilizationPercent(elapsed uint64) uint64 {
	week, month := t.Scale.TicksPerWeek, t.Scale.TicksPerMonth
	if elapsed < week {
		return 15
	}
	if elapsed < month {
		weeks := elapsed / week
		if weeks > 3 {
			weeks = 3
		}
		return 25 + 5*weeks
	}
	months := elapsed / month
	if months > 12 {
		months = 12
	}
	return 40 + 5*months
}
