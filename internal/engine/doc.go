// Package engine hosts the reducer.
//
// An Engine owns one pos.State and is the only writer of it. Dispatch runs
// the reducer synchronously under a lock, so actions never interleave, and
// stamps each action with a sequence number from a logical Clock (wall time
// is recorded but never used for ordering).
//
// After every dispatch the engine notifies its observers in registration
// order. Observers must be quick and must not dispatch; the sync adapter
// only compares hashes and signals its own goroutine.
//
// When a Journal is configured, every dispatched action is queued and the
// Run loop writes it out from a single goroutine. A journal write failure
// is logged and the loop carries on. The journal is an audit trail and a
// replay source, never part of the dispatch path.
package engine
