package affinity

import (
	"context"
	"sync/atomic"
)

// State is the execution-context state of a Flow.
type State int32

const (
	// StateUIAffine means the flow is logically on the UI-affine context.
	StateUIAffine State = iota
	// StateBackground means the flow is executing off the UI context.
	StateBackground
	// StateTransitioning means the flow is between contexts.
	StateTransitioning
)

// String returns the state name for logs and test failures.
func (s State) String() string {
	switch s {
	case StateUIAffine:
		return "ui-affine"
	case StateBackground:
		return "background"
	case StateTransitioning:
		return "transitioning"
	}
	return "unknown"
}

// Guard is the one-shot cancellation latch for an operation. Checkpoints
// report the context's error until Seal is called; afterwards every
// checkpoint passes unconditionally. The latch is never re-armed.
type Guard struct {
	sealed atomic.Bool
}

// Checkpoint returns ctx's error if the guard is still armed, nil once
// sealed.
func (g *Guard) Checkpoint(ctx context.Context) error {
	if g.sealed.Load() {
		return nil
	}
	return ctx.Err()
}

// Seal permanently disarms the guard. The operation is committed from this
// point on and must run to completion.
func (g *Guard) Seal() { g.sealed.Store(true) }

// Sealed reports whether the guard has been sealed.
func (g *Guard) Sealed() bool { return g.sealed.Load() }

// Flow tracks one operation's context hops and cancellation window. A flow
// begins logically UI-affine, matching the caller's entry context.
type Flow struct {
	coord *Coordinator
	state atomic.Int32
	guard Guard
}

// NewFlow starts a flow for a single operation.
func NewFlow(c *Coordinator) *Flow {
	f := &Flow{coord: c}
	f.state.Store(int32(StateUIAffine))
	return f
}

// State returns the flow's current context state.
func (f *Flow) State() State { return State(f.state.Load()) }

// Checkpoint consults the cancellation latch.
func (f *Flow) Checkpoint(ctx context.Context) error { return f.guard.Checkpoint(ctx) }

// Seal begins the non-cancellable window. See Guard.Seal.
func (f *Flow) Seal() { f.guard.Seal() }

// Sealed reports whether the non-cancellable window has begun.
func (f *Flow) Sealed() bool { return f.guard.Sealed() }

// OnUI runs fn on the UI-affine context and blocks until it completes.
// Before the flow is sealed the hop is cancellable; after sealing the hop
// runs regardless of ctx, because the post-mutation refresh is part of the
// committed operation.
func (f *Flow) OnUI(ctx context.Context, fn func(UIToken) error) error {
	if err := f.guard.Checkpoint(ctx); err != nil {
		return err
	}
	if f.guard.Sealed() {
		ctx = context.WithoutCancel(ctx)
	}
	prev := f.state.Swap(int32(StateTransitioning))
	err := f.coord.RunOnUI(ctx, func(tok UIToken) error {
		f.state.Store(int32(StateUIAffine))
		return fn(tok)
	})
	f.state.Store(prev)
	return err
}

// ToBackground releases the UI-affine context. It is the last cancellation
// checkpoint a registration passes before sealing.
func (f *Flow) ToBackground(ctx context.Context) error {
	if err := f.guard.Checkpoint(ctx); err != nil {
		return err
	}
	f.state.Store(int32(StateBackground))
	return nil
}
