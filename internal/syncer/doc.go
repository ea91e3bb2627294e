// Package syncer keeps a terminal's engine and its remote snapshot in step.
//
// On sign-in the Adapter subscribes to the account's snapshot. The first
// payload hydrates the engine (an account with no record starts from the
// default snapshot) and opens the Ready gate. From then on the adapter
// watches dispatches and, once the persisted collections have settled for
// the debounce interval, overwrites the remote record wholesale. Writes are
// last-writer-wins: no merge, no revision check. A failed write is logged
// and dropped; local state stays authoritative.
//
// Later payloads are ignored unless FollowRemote is set, in which case a
// payload whose hash differs from the last one written or loaded replaces
// the persisted collections.
//
// The cart is saved separately to a LocalStore tied to the device rather
// than the account, and can be restored before anyone signs in.
package syncer
