package lockstrategy

import (
	"testing"

	"github.com/oap75/freecalls/locker"
	"github.com/stretchr/testify/require"
)

const (
	day   = uint64(24 * 3600)
	week  = 7 * day
	month = 30 * day
)

func newStrategy() *TimeWeighted {
	return NewTimeWeighted(TimeScale{TicksPerWeek: week, TicksPerMonth: month}, 1, 10)
}

func TestTimeWeighted_Calculate(t *testing.T) {
	tests := []struct {
		name    string
		amount  uint64
		elapsed uint64
		want    uint16
	}{
		{"under_one_unit_one_day", 0, day, 0},
		{"one_unit_one_day", 1, day, 1},
		{"ten_units_one_day", 10, day, 15},
		{"hundred_units_one_day", 100, day, 150},
		{"one_unit_one_week", 1, week, 3},
		{"ten_units_one_week", 10, week, 30},
		{"ten_units_two_weeks", 10, 2 * week, 35},
		{"ten_units_three_weeks", 10, 3 * week, 40},
		{"ten_units_four_weeks_caps_at_three", 10, 4 * week, 40},
		{"five_units_one_month", 5, month, 22},
		{"twenty_units_one_month", 20, month, 90},
		{"five_units_two_months", 5, 2 * month, 25},
		{"hundred_units_thirteen_months_caps", 100, 13 * month, 1000},
		{"hundred_units_far_future_caps", 100, 100 * month, 1000},
	}

	s := newStrategy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locked := locker.LockedInfo{Amount: tt.amount, LockedAt: 0}
			got, ok := s.Calculate("consumer", tt.elapsed, locked, true)
			require.True(t, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTimeWeighted_NoLock(t *testing.T) {
	s := newStrategy()
	_, ok := s.Calculate("consumer", 1000, locker.LockedInfo{}, false)
	require.False(t, ok)
}

func TestTimeWeighted_NotYetStarted(t *testing.T) {
	s := newStrategy()
	locked := locker.LockedInfo{Amount: 10, LockedAt: 500}
	_, ok := s.Calculate("consumer", 100, locked, true)
	require.False(t, ok)
}

func TestTimeWeighted_Expired(t *testing.T) {
	s := newStrategy()
	locked := locker.LockedInfo{Amount: 10, LockedAt: 0, ExpiresAt: 100}
	_, ok := s.Calculate("consumer", 100, locked, true)
	require.False(t, ok, "expires_at reached means no quota")

	_, ok = s.Calculate("consumer", 200, locked, true)
	require.False(t, ok, "already past expiry means no quota")
}

func TestTimeWeighted_NotYetExpired(t *testing.T) {
	s := newStrategy()
	locked := locker.LockedInfo{Amount: 10, LockedAt: 0, ExpiresAt: 100}
	got, ok := s.Calculate("consumer", 50, locked, true)
	require.True(t, ok)
	require.Equal(t, uint16(15), got)
}
