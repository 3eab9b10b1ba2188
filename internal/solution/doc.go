// Package solution models the shared, versioned workspace state: an
// immutable Snapshot of registered projects behind a serializing Store.
//
// Snapshots are plain values. Every "mutation" returns a fresh Snapshot and
// leaves the original untouched, so a reference obtained from the Store is
// stable forever and safe to read from any goroutine. The Store is the only
// mutation point: Apply serializes all writers, hands the mutator the
// pre-mutation snapshot, and installs its result atomically. Readers see
// either the old snapshot or the new one, never anything in between.
//
// Change notification follows the workspace-callback idiom: handlers
// registered with OnChange fire after each swap, in apply order, outside
// the write path. Handlers must not call back into Apply.
package solution
