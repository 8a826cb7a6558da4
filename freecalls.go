// Package freecalls wires together the window configuration, the quota
// strategy, and the persisted accounting store into a ready-to-use rate
// limiter, configured through functional options.
package freecalls

import (
	"context"
	"fmt"
	"time"

	"github.com/oap75/freecalls/config"
	"github.com/oap75/freecalls/engine"
	"github.com/oap75/freecalls/locker"
	"github.com/oap75/freecalls/lockstrategy"
	"github.com/oap75/freecalls/store"
)

// options accumulates the pieces New needs before it can build a Limiter.
type options struct {
	windows        []config.Window
	kv             store.KV
	strategy       lockstrategy.Strategy
	locked         locker.Lookup
	clock          engine.Clock
	statsKeyPrefix string
}

// Option configures a Limiter built by New.
type Option func(*options) error

// WithWindows sets the window layout. Required.
func WithWindows(windows ...config.Window) Option {
	return func(o *options) error {
		o.windows = windows
		return nil
	}
}

// WithBackend sets the key/value backend the limiter persists consumer
// stats through. Required.
func WithBackend(kv store.KV) Option {
	return func(o *options) error {
		o.kv = kv
		return nil
	}
}

// WithStrategy sets the quota-from-lock strategy directly. Required unless
// WithStrategyName is used instead.
func WithStrategy(strategy lockstrategy.Strategy) Option {
	return func(o *options) error {
		o.strategy = strategy
		return nil
	}
}

// WithStrategyName builds the quota-from-lock strategy from the
// lockstrategy registry by name (e.g. "eligible_accounts",
// "time_weighted_lock"), passing it strategyConfig. This is an alternative
// to WithStrategy for deployments that select a strategy by configuration
// rather than by compiling against its concrete type; see the strategy's
// own Config type (EligibleConfig, TimeWeightedConfig) for what
// strategyConfig must hold.
func WithStrategyName(name string, strategyConfig any) Option {
	return func(o *options) error {
		strategy, err := lockstrategy.Create(name, strategyConfig)
		if err != nil {
			return err
		}
		o.strategy = strategy
		return nil
	}
}

// WithLockedLookup sets the read-only view of mirrored locked-balance
// facts the strategy consults. Strategies that ignore locked info (like
// the eligible-accounts strategy) can be built without calling this; a
// no-op lookup is used by default.
func WithLockedLookup(lookup locker.Lookup) Option {
	return func(o *options) error {
		o.locked = lookup
		return nil
	}
}

// WithClock overrides the tick source. Defaults to wall-clock Unix time.
func WithClock(clock engine.Clock) Option {
	return func(o *options) error {
		o.clock = clock
		return nil
	}
}

// WithStatsKeyPrefix namespaces the keys the limiter's store writes.
// Defaults to "freecalls:stats:".
func WithStatsKeyPrefix(prefix string) Option {
	return func(o *options) error {
		o.statsKeyPrefix = prefix
		return nil
	}
}

type noLockLookup struct{}

func (noLockLookup) Locked(string) (locker.LockedInfo, bool) { return locker.LockedInfo{}, false }

// Limiter is a ready-to-use free-call rate limiter.
type Limiter struct {
	engine *engine.Engine
	config config.RateLimiterConfig
}

// New validates opts and builds a Limiter, or returns an error describing
// the first invalid or missing option.
func New(opts ...Option) (*Limiter, error) {
	o := &options{
		clock:          engine.ClockFunc(func() uint64 { return uint64(time.Now().Unix()) }),
		locked:         noLockLookup{},
		statsKeyPrefix: "freecalls:stats:",
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("freecalls: %w", err)
		}
	}

	if o.kv == nil {
		return nil, fmt.Errorf("freecalls: WithBackend is required")
	}
	if o.strategy == nil {
		return nil, fmt.Errorf("freecalls: WithStrategy is required")
	}

	cfg, err := config.New(o.windows)
	if err != nil {
		return nil, fmt.Errorf("freecalls: %w", err)
	}

	statsStore := store.NewConsumerStore(o.kv, o.statsKeyPrefix)
	eng := engine.New(o.clock, statsStore, o.locked, o.strategy, func() config.RateLimiterConfig { return cfg })

	return &Limiter{engine: eng, config: cfg}, nil
}

// TryFreeCall attempts to admit and immediately charge a free call for
// account, returning whether it was granted.
func (l *Limiter) TryFreeCall(ctx context.Context, account string) (bool, error) {
	return l.engine.TryFreeCall(ctx, account)
}

// CanMakeFreeCall reports whether account currently has quota, without
// charging anything.
func (l *Limiter) CanMakeFreeCall(ctx context.Context, account string) (bool, error) {
	return l.engine.CanMakeFreeCall(ctx, account)
}

// Dispatch runs the full filter-admit-charge-execute flow described by the
// engine's Dispatch method.
func (l *Limiter) Dispatch(ctx context.Context, account string, innerOp any, filter func(any) bool, dispatch func(any) error, emit engine.EventSink) error {
	return l.engine.Dispatch(ctx, account, innerOp, filter, dispatch, emit)
}

// Config returns the active window configuration and its fingerprint.
func (l *Limiter) Config() config.RateLimiterConfig {
	return l.config
}
