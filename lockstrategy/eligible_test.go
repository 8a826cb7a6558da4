package lockstrategy

import (
	"testing"

	"github.com/oap75/freecalls/locker"
	"github.com/stretchr/testify/require"
)

type mapLookup map[string]bool

func (m mapLookup) IsEligible(account string) bool { return m[account] }

func TestEligibleAccounts_Calculate(t *testing.T) {
	s := NewEligibleAccounts(mapLookup{"alice": true}, 10)

	got, ok := s.Calculate("alice", 0, locker.LockedInfo{}, false)
	require.True(t, ok)
	require.Equal(t, uint16(10), got)

	_, ok = s.Calculate("bob", 0, locker.LockedInfo{}, false)
	require.False(t, ok)
}

func TestEligibleAccounts_IgnoresLockedInfo(t *testing.T) {
	s := NewEligibleAccounts(mapLookup{"alice": true}, 10)
	got, ok := s.Calculate("alice", 999, locker.LockedInfo{Amount: 1_000_000}, true)
	require.True(t, ok)
	require.Equal(t, uint16(10), got)
}

func TestCreate_Registered(t *testing.T) {
	s, err := Create("eligible_accounts", EligibleConfig{Lookup: mapLookup{"alice": true}, QuotaPerAccount: 10})
	require.NoError(t, err)
	require.NotNil(t, s)
	got, ok := s.Calculate("alice", 0, locker.LockedInfo{}, false)
	require.True(t, ok)
	require.Equal(t, uint16(10), got)

	s, err = Create("time_weighted_lock", TimeWeightedConfig{
		Scale:        TimeScale{TicksPerWeek: 7, TicksPerMonth: 30},
		OneUnit:      1,
		CallsPerUnit: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = Create("does_not_exist", nil)
	require.ErrorIs(t, err, ErrStrategyNotFound)
}

func TestCreate_RejectsMismatchedConfig(t *testing.T) {
	_, err := Create("eligible_accounts", TimeWeightedConfig{})
	require.Error(t, err)

	_, err = Create("eligible_accounts", EligibleConfig{})
	require.Error(t, err, "a config with a nil Lookup must be rejected rather than built into an unusable strategy")

	_, err = Create("time_weighted_lock", EligibleConfig{})
	require.Error(t, err)

	_, err = Create("time_weighted_lock", TimeWeightedConfig{})
	require.Error(t, err, "a zero OneUnit must be rejected rather than built into a strategy that divides by it")
}
