// Package utils holds small, dependency-free helpers shared across the
// rate limiter's packages.
package utils

import "fmt"

// allowedAccountChars is a precomputed boolean table for O(1) character
// validation of account identifiers, avoiding a regexp compile per call on
// a path the engine exercises for every free-call decision.
var allowedAccountChars [128]bool

func init() {
	for _, c := range "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-:.@+" {
		allowedAccountChars[c] = true
	}
}

// ValidateAccount checks that an account identifier is non-empty, at most
// 64 bytes, and contains only alphanumeric ASCII plus a small set of
// separator characters — the same shape a chain address, a public key
// encoding, or a service account name naturally takes, and narrow enough
// to be safe as a storage key component without further escaping.
func ValidateAccount(account string) error {
	if len(account) == 0 {
		return fmt.Errorf("account cannot be empty")
	}
	if len(account) > 64 {
		return fmt.Errorf("account cannot exceed 64 bytes, got %d bytes", len(account))
	}

	const hint = "only alphanumeric ASCII, underscore (_), hyphen (-), colon (:), period (.), at (@), and plus (+) are allowed"
	for i, r := range account {
		if r >= 128 || !allowedAccountChars[r] {
			return fmt.Errorf("account contains invalid character '%c' at position %d: %s", r, i, hint)
		}
	}
	return nil
}
