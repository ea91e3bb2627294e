package engine

import (
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// Replay folds journal entries over base in sequence order and returns the
// resulting state and the last sequence number seen.
//
// The reducer is pure, so replaying the same entries over the same base
// always yields the same state. Entries must already be sorted by Seq; a
// gap or an out-of-order entry is not an error, it is applied as read.
func Replay(base pos.State, entries []Entry) (pos.State, int64, error) {
	s := base
	var last int64
	for _, e := range entries {
		a, err := pos.DecodeAction(e.Action)
		if err != nil {
			return base, 0, &ReplayError{Seq: e.Seq, Type: e.Action.Type, Err: err}
		}
		s = pos.Reduce(s, a)
		last = e.Seq
	}
	return s, last, nil
}
