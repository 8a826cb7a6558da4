// Package engine decides, on every free-call attempt, whether a consumer
// has remaining quota and applies that decision to persisted state.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/oap75/freecalls/config"
	"github.com/oap75/freecalls/locker"
	"github.com/oap75/freecalls/lockstrategy"
	"github.com/oap75/freecalls/quota"
	"github.com/oap75/freecalls/stats"
	"github.com/oap75/freecalls/store"
)

// ErrNoWindows is returned when the engine is asked to evaluate a
// RateLimiterConfig with no windows configured at all.
var ErrNoWindows = errors.New("engine: rate limiter config has no windows")

// Clock supplies the current tick (block number, or any monotonically
// increasing counter the deployment ticks on).
type Clock interface {
	CurrentTick() uint64
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() uint64

func (f ClockFunc) CurrentTick() uint64 { return f() }

// Engine is the decision-and-apply core of the free-call rate limiter. A
// single Engine instance is safe for concurrent use: TryFreeCall and
// Dispatch hold the engine's mutex across evaluating and persisting a
// decision, so concurrent callers on one Engine never charge against the
// same prior record. Engines in separate processes sharing one backend are
// not serialized against each other: store.ConsumerStore.Save retries a
// failed compare-and-swap against the reloaded value and overwrites it.
type Engine struct {
	clock     Clock
	stats     *store.ConsumerStore
	lockedAt  locker.Lookup
	strategy  lockstrategy.Strategy
	mu        sync.Mutex
	getConfig func() config.RateLimiterConfig
}

// New builds an Engine. getConfig is called on every decision so that a
// live config reload is picked up without restarting the engine.
func New(clock Clock, statsStore *store.ConsumerStore, lockedAt locker.Lookup, strategy lockstrategy.Strategy, getConfig func() config.RateLimiterConfig) *Engine {
	return &Engine{clock: clock, stats: statsStore, lockedAt: lockedAt, strategy: strategy, getConfig: getConfig}
}

// Decision is the outcome of evaluating whether a consumer can make a free
// call right now.
type Decision struct {
	Allowed bool
	// Next is the ConsumerStats that would result from admitting the call.
	// Populated only when Allowed is true.
	Next stats.ConsumerStats
	// expectedRaw is the raw encoding of the record Next was derived from,
	// used as the CheckAndSet "expected" value on Apply.
	expectedRaw string
}

// Evaluate computes whether consumer may make a free call right now,
// without persisting anything. Safe to call repeatedly and from many
// goroutines; it never mutates shared state.
func (e *Engine) Evaluate(ctx context.Context, consumer string) (Decision, error) {
	cfg := e.getConfig()
	if len(cfg.Windows) == 0 {
		return Decision{}, ErrNoWindows
	}

	currentTick := e.clock.CurrentTick()

	locked, hasLocked := e.lockedAt.Locked(consumer)
	maxQuota, ok := e.strategy.Calculate(consumer, currentTick, locked, hasLocked)
	if !ok || maxQuota == 0 {
		return Decision{Allowed: false}, nil
	}

	old, raw, exists, err := e.stats.Load(ctx, consumer)
	if err != nil {
		return Decision{}, err
	}
	if !exists || old.ConfigHash != cfg.Hash {
		old = stats.Empty(cfg.Hash)
		raw = ""
	}

	next := stats.Empty(cfg.Hash)
	for i, w := range cfg.Windows {
		prior, hasPrior := old.WindowAt(i)
		windowStats, allowed := evaluateWindow(currentTick, maxQuota, w, prior, hasPrior)
		if !allowed {
			return Decision{Allowed: false}, nil
		}
		next.Push(windowStats)
	}

	return Decision{Allowed: true, Next: next, expectedRaw: raw}, nil
}

// evaluateWindow applies the fixed-bucket sliding-timeline algorithm to a
// single window: the bucket resets whenever the current tick has moved
// into a later timeline index than the one on record, and a call is
// admitted only if the (possibly just-reset) bucket still has headroom
// under the window's share of maxQuota.
func evaluateWindow(currentTick uint64, maxQuota quota.MaxQuota, w config.Window, prior stats.WindowStats, hasPrior bool) (stats.WindowStats, bool) {
	if w.Period == 0 {
		return stats.WindowStats{}, false
	}

	currentIndex := currentTick / w.Period
	current := prior
	if !hasPrior || prior.TimelineIndex < currentIndex {
		current = stats.NewWindowStats(currentIndex)
	}

	limit := quota.Evaluate(maxQuota, w.Fraction)
	if current.UsedCalls >= limit {
		return stats.WindowStats{}, false
	}

	current.UsedCalls++
	return current, true
}

// Apply persists a decision previously returned by Evaluate, retrying
// against concurrent writers via the underlying store's compare-and-swap.
// Calling Apply on a Decision with Allowed == false is a no-op.
func (e *Engine) Apply(ctx context.Context, consumer string, d Decision) error {
	if !d.Allowed {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.Save(ctx, consumer, d.expectedRaw, d.Next)
}

// CanMakeFreeCall reports whether consumer currently has quota to make a
// free call, without persisting anything. It is a thin wrapper over
// Evaluate for callers that only care about the yes/no answer.
func (e *Engine) CanMakeFreeCall(ctx context.Context, consumer string) (bool, error) {
	d, err := e.Evaluate(ctx, consumer)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// TryFreeCall evaluates and, if admitted, immediately persists the
// decision before returning, holding the engine's mutex across both steps.
// This is the all-in-one entrypoint most callers want; Evaluate/Apply are
// split out for validators that need to check admissibility without
// committing to it.
func (e *Engine) TryFreeCall(ctx context.Context, consumer string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, err := e.Evaluate(ctx, consumer)
	if err != nil {
		return false, err
	}
	if !d.Allowed {
		return false, nil
	}
	if err := e.stats.Save(ctx, consumer, d.expectedRaw, d.Next); err != nil {
		return false, err
	}
	return true, nil
}

// InnerOutcome is the result of dispatching a free call's wrapped
// operation, carried on the event Dispatch emits.
type InnerOutcome struct {
	Caller     string
	FreeCall   bool // true on every event Dispatch emits: it emits only for admitted calls
	Dispatched bool // true when the inner operation actually ran
	InnerErr   error
}

// EventSink receives the outcome of every Dispatch call that admitted and
// ran the inner operation, mirroring the "free call result" event emitted
// by the original extrinsic.
type EventSink func(InnerOutcome)

// Dispatch runs the full admit-charge-execute flow for caller's innerOp:
// if the filter rejects innerOp, or the caller is out of quota, innerOp is
// never run, no event is emitted and no fee is charged — free-call submissions are
// asymmetric-fee by design, so a bad submission costs the submitter
// nothing but also buys them nothing. If admitted, the charge is persisted
// before dispatch, and is never rolled back regardless of how dispatch
// turns out: refunding a failed inner operation would let an attacker
// exhaust runtime CPU by crafting operations engineered to fail while
// paying only once for a batch of them.
func (e *Engine) Dispatch(ctx context.Context, caller string, innerOp any, filter func(any) bool, dispatch func(any) error, emit EventSink) error {
	if filter != nil && !filter(innerOp) {
		return nil
	}

	e.mu.Lock()
	d, err := e.Evaluate(ctx, caller)
	if err == nil && d.Allowed {
		err = e.stats.Save(ctx, caller, d.expectedRaw, d.Next)
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if !d.Allowed {
		return nil
	}

	innerErr := dispatch(innerOp)
	if emit != nil {
		emit(InnerOutcome{Caller: caller, FreeCall: true, Dispatched: true, InnerErr: innerErr})
	}
	return nil
}
