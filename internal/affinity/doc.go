// Package affinity manages execution-context affinity for workspace
// operations. A Coordinator owns a single goroutine that stands in for the
// host's UI-affine context; any read or write of host UI-only state must
// happen there. Work scheduled onto it receives a UIToken, a capability
// value that cannot be constructed outside this package, so functions that
// require the UI context can demand proof at the type level.
//
// A Flow tracks one operation's hops between the UI-affine context and
// background execution, together with its cancellation window: the caller's
// context is honored at every checkpoint until the flow is sealed, after
// which cancellation is ignored for the remainder of the operation. The
// seal is a one-way latch; it is never re-armed.
//
// The expected sequence for a registration is:
//
//	flow := affinity.NewFlow(coord)
//	flow.OnUI(ctx, readHostState)   // cancellable
//	flow.ToBackground(ctx)          // cancellable, last checkpoint
//	flow.Seal()                     // mutation window begins
//	...mutate shared state...
//	flow.OnUI(ctx, refreshHostState) // runs even if ctx is cancelled
package affinity
