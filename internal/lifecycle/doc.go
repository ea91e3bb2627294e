// Package lifecycle is the policy layer above the reducer.
//
// The reducer applies whatever it is told. The functions here decide what it
// should be told: they check order and table state, enforce the order status
// machine and return the sequence of actions a caller dispatches in order.
// Nothing in this package mutates state; callers own the dispatch.
//
// Order status machine:
//
//	PENDING -> COOKING -> READY -> COMPLETED
//	PENDING | COOKING | READY -> CANCELLED
//
// COMPLETED and CANCELLED are terminal. Leaving an order in a terminal
// status frees its table as a separate UPDATE_TABLE_STATUS action.
package lifecycle
