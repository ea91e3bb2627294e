package engine

import (
	"errors"
	"fmt"

	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// ReplayError reports a journal entry that could not be replayed.
type ReplayError struct {
	Seq  int64
	Type pos.Kind
	Err  error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay seq %d (%s): %v", e.Seq, e.Type, e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// IsReplayError reports whether err came from Replay.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
