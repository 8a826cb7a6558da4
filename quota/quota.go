// Package quota implements the fixed-precision arithmetic used to turn a
// consumer's maximum quota into the per-window call allowance.
package quota

import "fmt"

// NumberOfCalls counts free calls granted or used within a window.
type NumberOfCalls = uint16

// MaxQuota is the total number of free calls a consumer is entitled to
// across all windows, before any per-window fraction is applied.
type MaxQuota = NumberOfCalls

// Precision is the fixed-point denominator fractions are expressed against.
// It must be non-zero and divisible by 10 so that percentages like 0.1%
// can still be represented exactly.
const Precision uint16 = 10_000

// Fraction is a non-zero numerator over Precision, e.g. Precision itself
// represents 100% of MaxQuota.
type Fraction uint16

// NewFraction validates and builds a Fraction from a raw numerator.
func NewFraction(numerator uint16) (Fraction, error) {
	if numerator == 0 {
		return 0, fmt.Errorf("quota: fraction numerator must be non-zero")
	}
	return Fraction(numerator), nil
}

// MustFraction is like NewFraction but panics on error. Intended for
// package-level configuration tables, not for untrusted input.
func MustFraction(numerator uint16) Fraction {
	f, err := NewFraction(numerator)
	if err != nil {
		panic(err)
	}
	return f
}

// FractionFromPercent converts a percentage (0, 100] into a Fraction at the
// configured Precision. The scaled value is truncated toward zero, not
// rounded to the nearest representable fraction.
func FractionFromPercent(percent float64) (Fraction, error) {
	if percent <= 0 || percent > 100 {
		return 0, fmt.Errorf("quota: percent must be in (0, 100], got %v", percent)
	}
	numerator := uint16(percent / 100 * float64(Precision))
	return NewFraction(numerator)
}

// Get returns the raw numerator.
func (f Fraction) Get() uint16 { return uint16(f) }

// Evaluate computes the number of calls granted for a window out of
// maxQuota, given the window's fraction of that quota.
//
// A zero maxQuota always yields zero. A fraction at or above Precision is
// clamped to the full maxQuota. Otherwise the result is rounded down but
// never below 1, so that a non-zero maxQuota always grants at least one
// call per window.
func Evaluate(maxQuota MaxQuota, fraction Fraction) NumberOfCalls {
	if maxQuota == 0 {
		return 0
	}
	if fraction.Get() >= Precision {
		return maxQuota
	}
	n := uint64(maxQuota) * uint64(fraction.Get()) / uint64(Precision)
	if n < 1 {
		n = 1
	}
	return NumberOfCalls(n)
}
