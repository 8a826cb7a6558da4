// Package config defines the window layout of the rate limiter and the
// deterministic fingerprint used to detect when that layout changes.
package config

import (
	"fmt"

	"github.com/oap75/freecalls/quota"
)

// Hash fingerprints a RateLimiterConfig. Two configs with the same windows
// in the same order always hash equal, regardless of which replica computes
// it, so every node in a cluster agrees on whether a consumer's persisted
// stats were produced under the current layout.
type Hash = uint64

// Window describes one sliding accounting bucket: a period expressed in
// block numbers (or any other monotonically increasing tick count) and the
// fraction of the consumer's max quota available within that period.
type Window struct {
	Period   uint64
	Fraction quota.Fraction
}

// RateLimiterConfig is the ordered list of windows evaluated for every free
// call, plus the fingerprint of that list.
type RateLimiterConfig struct {
	Windows []Window
	Hash    Hash
}

// New builds a RateLimiterConfig from windows, validating and fingerprinting
// them in one step.
func New(windows []Window) (RateLimiterConfig, error) {
	if err := Validate(windows); err != nil {
		return RateLimiterConfig{}, err
	}
	return RateLimiterConfig{Windows: windows, Hash: FingerprintWindows(windows)}, nil
}

// Validate enforces the three invariants every window layout must satisfy:
//
//  1. at least one window is configured;
//  2. the first window (the broadest) carries the full quota fraction;
//  3. windows are strictly decreasing in both period and fraction, so each
//     subsequent window is a tighter, shorter-lived sub-budget of the one
//     before it.
func Validate(windows []Window) error {
	if len(windows) == 0 {
		return fmt.Errorf("config: at least one window is required")
	}
	prev := windows[0]
	if prev.Fraction.Get() != quota.Precision {
		return fmt.Errorf("config: first window must cover the full quota (fraction %d, want %d)",
			prev.Fraction.Get(), quota.Precision)
	}
	for _, cur := range windows[1:] {
		if cur.Period >= prev.Period {
			return fmt.Errorf("config: window period %d must be strictly less than preceding period %d",
				cur.Period, prev.Period)
		}
		if cur.Fraction.Get() >= prev.Fraction.Get() {
			return fmt.Errorf("config: window fraction %d must be strictly less than preceding fraction %d",
				cur.Fraction.Get(), prev.Fraction.Get())
		}
		prev = cur
	}
	return nil
}

// FingerprintWindows computes the rolling-hash fingerprint of an ordered
// window list. The algorithm (seed 7, multiplier 31) is a plain polynomial
// hash so it stays a pure function of the input, never of map iteration
// order or pointer identity, and therefore reproduces identically on every
// replica.
func FingerprintWindows(windows []Window) Hash {
	var hash Hash = 7
	for _, w := range windows {
		hash = 31*hash + fingerprintWindow(w)
	}
	return hash
}

func fingerprintWindow(w Window) Hash {
	var hash Hash = 7
	hash = 31*hash + w.Period
	hash = 31*hash + uint64(w.Fraction.Get())
	return hash
}
