package store

import (
	"context"

	"github.com/oap75/freecalls/utils"
)

// EligibleStore persists the allow-list of accounts granted a flat free
// quota regardless of locked balance.
type EligibleStore struct {
	kv     KV
	prefix string
}

// NewEligibleStore builds an EligibleStore over kv, namespaced by keyPrefix.
func NewEligibleStore(kv KV, keyPrefix string) *EligibleStore {
	return &EligibleStore{kv: kv, prefix: keyPrefix}
}

func (s *EligibleStore) key(account string) string {
	return s.prefix + account
}

// IsEligible reports whether account is on the allow-list. Satisfies
// lockstrategy.EligibleAccountsLookup.
func (s *EligibleStore) IsEligible(account string) bool {
	_, ok, err := s.kv.Get(context.Background(), s.key(account))
	return err == nil && ok
}

// Add grants account a place on the allow-list. Idempotent.
func (s *EligibleStore) Add(ctx context.Context, account string) error {
	if err := utils.ValidateAccount(account); err != nil {
		return err
	}
	return s.kv.Set(ctx, s.key(account), "1", 0)
}

// AddMany grants every account in accounts a place on the allow-list,
// stopping at the first error.
func (s *EligibleStore) AddMany(ctx context.Context, accounts []string) error {
	for _, account := range accounts {
		if err := s.Add(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// Remove revokes account's allow-list membership. Removing an account that
// was never eligible is not an error.
func (s *EligibleStore) Remove(ctx context.Context, account string) error {
	return s.kv.Delete(ctx, s.key(account))
}
