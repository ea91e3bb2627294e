// Package pos implements the order/table/cart state reducer.
//
// Reduce is a pure, total function: it never blocks, never performs I/O and
// never returns an error. Every mutation goes through an Action, and every
// Action carries its own transition, so adding a variant without a
// transition does not compile.
//
// Collections are copy-on-write. A reducer step builds fresh slices for
// whatever it touches and leaves the input State readable by anyone still
// holding it (observers compare the before and after values).
//
// The reducer is deliberately permissive: it applies any status or table
// change it is handed. Transition legality lives one layer up, in the
// lifecycle package, which turns operator intents into action sequences.
package pos
