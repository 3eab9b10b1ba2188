// Package registry implements the project-registration transaction: the
// protocol that admits a new compilation unit into the shared solution
// snapshot.
//
// A registration walks a fixed sequence. On the UI-affine context it
// captures the host's solution path; it then awaits document-option
// initialization, drops to background, and seals its cancellation window.
// From that point the operation runs to completion: identity and version
// are allocated, the correlation entry is recorded, and exactly one
// serialized mutation is applied to the store. Whether the call creates
// the solution or adds to it is decided inside that mutation, against the
// snapshot the mutation actually sees, so two registrations racing on an
// empty workspace cannot both create the solution. The operation finishes
// with a synchronous hop back to the UI context to refresh the host's
// language flag.
//
// Best-effort host lookups (solution path, telemetry session) degrade to
// absent values and never fail a registration; only structurally invalid
// input does.
package registry
