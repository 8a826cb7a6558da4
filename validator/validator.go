// Package validator implements the read-only admission check a submission
// queue runs before accepting a free-call wrapper, without mutating any
// engine state.
package validator

import (
	"context"

	"github.com/oap75/freecalls/engine"
)

// Kind discriminates why a submission was rejected, mirroring the
// extrinsic-level error codes a caller surfaces back to the submitter.
type Kind int

const (
	// Valid means the submission is admissible and may enter the queue.
	Valid Kind = iota
	// OutOfQuota means the inner operation is the right shape for a free
	// call but the caller has no remaining quota right now.
	OutOfQuota
	// CallCannotBeFree means the inner operation is not eligible to be
	// wrapped as a free call at all, regardless of quota.
	CallCannotBeFree
)

func (k Kind) String() string {
	switch k {
	case Valid:
		return "valid"
	case OutOfQuota:
		return "out_of_quota"
	case CallCannotBeFree:
		return "call_cannot_be_free"
	default:
		return "unknown"
	}
}

// Filter reports whether innerOp is the kind of operation allowed to be
// submitted as a free call at all (independent of quota).
type Filter func(innerOp any) bool

// Validator runs the admission check ahead of dispatch. It must never
// report Valid for a submission that dispatch would in fact refuse, but
// may over-admit under a race since the engine re-checks at dispatch time.
type Validator struct {
	engine *engine.Engine
	filter Filter
}

// New builds a Validator around engine, using filter to decide whether an
// inner operation is eligible to be wrapped as a free call.
func New(eng *engine.Engine, filter Filter) *Validator {
	return &Validator{engine: eng, filter: filter}
}

// Validate runs the read-only admission check for caller submitting
// innerOp. It never persists anything.
func (v *Validator) Validate(ctx context.Context, caller string, innerOp any) (Kind, error) {
	if v.filter != nil && !v.filter(innerOp) {
		return CallCannotBeFree, nil
	}

	allowed, err := v.engine.CanMakeFreeCall(ctx, caller)
	if err != nil {
		return CallCannotBeFree, err
	}
	if !allowed {
		return OutOfQuota, nil
	}
	return Valid, nil
}
