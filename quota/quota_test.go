package quota

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_ZeroMaxQuotaAlwaysZero(t *testing.T) {
	full := MustFraction(Precision)
	require.Equal(t, NumberOfCalls(0), Evaluate(0, full))
}

func TestEvaluate_FractionAtOrAbovePrecisionReturnsFull(t *testing.T) {
	require.Equal(t, NumberOfCalls(55), Evaluate(55, MustFraction(Precision)))
	require.Equal(t, NumberOfCalls(55), Evaluate(55, MustFraction(Precision+1)))
}

func TestEvaluate_RoundsDownButNeverBelowOne(t *testing.T) {
	// 55 * 3000 / 10000 = 16.5 -> floors to 16
	require.Equal(t, NumberOfCalls(16), Evaluate(55, MustFraction(3000)))

	// a tiny fraction of a small quota would floor to 0, but the minimum-of-1
	// rule guarantees at least one call while max_quota is non-zero.
	require.Equal(t, NumberOfCalls(1), Evaluate(1, MustFraction(1)))
}

func TestEvaluate_Table(t *testing.T) {
	tests := []struct {
		maxQuota MaxQuota
		fraction uint16
		want     NumberOfCalls
	}{
		{0, Precision, 0},
		{100, Precision, 100},
		{100, Precision / 2, 50},
		{55, 2000, 11},
		{34, 100, 1},
	}
	for _, tt := range tests {
		got := Evaluate(tt.maxQuota, MustFraction(tt.fraction))
		require.Equal(t, tt.want, got, "Evaluate(%d, %d)", tt.maxQuota, tt.fraction)
	}
}

func TestNewFraction_RejectsZero(t *testing.T) {
	_, err := NewFraction(0)
	require.Error(t, err)
}

func TestFractionFromPercent(t *testing.T) {
	f, err := FractionFromPercent(100)
	require.NoError(t, err)
	require.Equal(t, Precision, f.Get())

	f, err = FractionFromPercent(30)
	require.NoError(t, err)
	require.Equal(t, uint16(3000), f.Get())

	_, err = FractionFromPercent(0)
	require.Error(t, err)

	_, err = FractionFromPercent(101)
	require.Error(t, err)
}
