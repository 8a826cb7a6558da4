// Package lockstrategy computes a consumer's max quota from mirrored
// locked-balance facts. Strategies are pluggable and self-register by
// name, the same way a rate-limit backend or algorithm would, so the
// engine can be configured to use whichever strategy fits the deployment
// without a compile-time dependency on every implementation.
package lockstrategy

import (
	"errors"

	"github.com/oap75/freecalls/locker"
	"github.com/oap75/freecalls/quota"
)

// ErrStrategyNotFound is returned by Create when no strategy is registered
// under the requested name.
var ErrStrategyNotFound = errors.New("lockstrategy: strategy not found")

// Strategy computes the max quota granted to consumer at currentTick given
// its mirrored lock info (absent when the consumer has never locked
// anything). A zero MaxQuota and ok=false both mean "no free calls at all"
// for this consumer right now; the engine treats them identically.
type Strategy interface {
	Calculate(consumer string, currentTick uint64, locked locker.LockedInfo, hasLocked bool) (quota.MaxQuota, bool)
}

// Factory builds a configured Strategy instance from config, whose
// concrete type each registered strategy documents (e.g. EligibleConfig,
// TimeWeightedConfig). A factory must reject a config of the wrong type or
// with missing required fields rather than building an unusable zero-value
// strategy.
type Factory func(config any) (Strategy, error)

var registered = make(map[string]Factory)

// Register registers a strategy factory under name. Called from the
// init() of each strategy's own file.
func Register(name string, factory Factory) {
	registered[name] = factory
}

// Create instantiates the strategy registered under name, passing it
// config.
func Create(name string, config any) (Strategy, error) {
	factory, ok := registered[name]
	if !ok {
		return nil, ErrStrategyNotFound
	}
	return factory(config)
}
