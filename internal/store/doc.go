// Package store provides the SQLite backend of a terminal.
//
// One database file holds:
//   - Account snapshots, one row per entity per account, replaced wholesale
//     on every save. The Store is also a syncer.RemoteStore, with
//     subscriptions fed by saves made through the same Store.
//   - Device-local values: the persisted cart and the sound preference.
//   - The action journal, keyed by (account, seq).
//
// The database runs in WAL mode with a 5 second busy timeout and foreign
// keys enforced. Schema changes after the base tables are listed in
// migrations and tracked in PRAGMA user_version.
package store
