package lockstrategy

import (
	"fmt"

	"github.com/oap75/freecalls/locker"
)

func init() {
	Register("eligible_accounts", func(config any) (Strategy, error) {
		cfg, ok := config.(EligibleConfig)
		if !ok {
			return nil, fmt.Errorf("lockstrategy: eligible_accounts requires an EligibleConfig, got %T", config)
		}
		if cfg.Lookup == nil {
			return nil, fmt.Errorf("lockstrategy: eligible_accounts requires a non-nil Lookup")
		}
		return NewEligibleAccounts(cfg.Lookup, cfg.QuotaPerAccount), nil
	})
}

// EligibleAccountsLookup reports whether an account has been granted a flat
// free-quota allowance regardless of any locked balance.
type EligibleAccountsLookup interface {
	IsEligible(account string) bool
}

// EligibleConfig is the config type Create("eligible_accounts", ...) expects.
type EligibleConfig struct {
	Lookup          EligibleAccountsLookup
	QuotaPerAccount uint16
}

// EligibleAccounts grants a fixed quota to accounts an operator has
// explicitly allow-listed, ignoring locked balance entirely. It is meant
// for privileged accounts (service bots, subsidized partners) that should
// get free calls without needing to lock anything.
type EligibleAccounts struct {
	Lookup      EligibleAccountsLookup
	QuotaPerAccount uint16
}

// NewEligibleAccounts builds an EligibleAccounts strategy backed by lookup,
// granting quotaPerAccount free calls to every eligible account.
func NewEligibleAccounts(lookup EligibleAccountsLookup, quotaPerAccount uint16) *EligibleAccounts {
	return &EligibleAccounts{Lookup: lookup, QuotaPerAccount: quotaPerAccount}
}

// Calculate ignores the locked-info arguments entirely: eligibility is a
// standalone allow-list, not derived from locked balance.
func (e *EligibleAccounts) Calculate(consumer string, _ uint64, _ locker.LockedInfo, _ bool) (uint16, bool) {
	if e.Lookup == nil || !e.Lookup.IsEligible(consumer) {
		return 0, false
	}
	return e.QuotaPerAccount, true
}
