package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// Journal persists dispatched actions in sequence order.
type Journal interface {
	Append(ctx context.Context, e Entry) error
}

// Observer is told about every dispatch after the state has moved on.
// prev and next are immutable values; comparing them is safe.
type Observer func(prev, next pos.State, a pos.Action)

// Engine is the single writer of a terminal's pos.State.
//
// Thread-safety model:
//   - Dispatch, Apply: safe from any goroutine; serialized internally
//   - State, Seq: safe from any goroutine, including observers
//   - Run: call from exactly one goroutine
type Engine struct {
	// dispatchMu serializes Dispatch including observer notification, so
	// observers see actions in the same order the reducer applied them.
	dispatchMu sync.Mutex

	stateMu sync.RWMutex
	state   pos.State

	clock     *Clock
	now       func() time.Time
	journal   Journal
	account   func() string
	queue     *entryQueue
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock resumes sequence numbering from an existing clock.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithJournal queues every dispatched action for j. Entries are written by
// Run.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithAccount stamps each journal entry with the account current at
// dispatch, so a later account switch cannot move queued entries.
func WithAccount(account func() string) Option {
	return func(e *Engine) { e.account = account }
}

// WithObserver registers o before the first dispatch.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithNow sets the wall clock used to stamp journal entries.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine holding initial.
func New(initial pos.State, opts ...Option) *Engine {
	e := &Engine{
		state: initial,
		clock: NewClock(),
		now:   time.Now,
		queue: newEntryQueue(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Observe registers another observer. Observers run in registration order.
func (e *Engine) Observe(o Observer) {
	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()
	e.observers = append(e.observers, o)
}

// State returns the current state.
func (e *Engine) State() pos.State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Seq returns the sequence number of the last dispatched action.
func (e *Engine) Seq() int64 {
	return e.clock.Current()
}

// Dispatch reduces a into the current state and returns the result.
// A nil action is ignored.
func (e *Engine) Dispatch(a pos.Action) pos.State {
	if a == nil {
		return e.State()
	}

	e.dispatchMu.Lock()
	defer e.dispatchMu.Unlock()

	e.stateMu.Lock()
	prev := e.state
	next := pos.Reduce(prev, a)
	e.state = next
	seq := e.clock.Next()
	e.stateMu.Unlock()

	slog.Debug("action dispatched", "seq", seq, "type", a.Kind())

	if e.journal != nil {
		e.record(seq, a)
	}
	for _, o := range e.observers {
		o(prev, next, a)
	}
	return next
}

// Apply dispatches actions in order and returns the final state. Other
// dispatches may run between two of them.
func (e *Engine) Apply(actions ...pos.Action) pos.State {
	s := e.State()
	for _, a := range actions {
		s = e.Dispatch(a)
	}
	return s
}

func (e *Engine) record(seq int64, a pos.Action) {
	env, err := pos.EncodeAction(a)
	if err != nil {
		slog.Error("journal encode failed", "seq", seq, "type", a.Kind(), "error", err)
		return
	}
	entry := Entry{Seq: seq, At: e.now(), Action: env}
	if e.account != nil {
		entry.Account = e.account()
	}
	if !e.queue.Enqueue(entry) {
		slog.Warn("journal closed, action not recorded", "seq", seq, "type", a.Kind())
	}
}

// Run writes queued journal entries until ctx is cancelled or Stop is
// called. Entries already queued when Stop is called are still written.
// Without a journal Run just waits.
//
// On a write failure the entry is logged and dropped, and the loop moves on.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())

	for {
		if entry, ok := e.queue.TryDequeue(); ok {
			e.write(ctx, entry)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			if e.queue.Drained() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the journal queue; Run returns once it has drained.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) write(ctx context.Context, entry Entry) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Append(ctx, entry); err != nil {
		slog.Error("journal write failed",
			"seq", entry.Seq,
			"type", entry.Action.Type,
			"error", err,
		)
	}
}
