package engine

import (
	"sync"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// Entry is one journaled action.
type Entry struct {
	Seq    int64        `json:"seq"`
	At     time.Time    `json:"at"`
	Action pos.Envelope `json:"action"`

	// Account is the account signed in when the action was dispatched.
	Account string `json:"-"`
}

// entryQueue is an unbounded FIFO of journal entries.
//
// Dispatch enqueues while holding the engine lock, so it must never block;
// the Run loop dequeues. The signal channel (buffered, size 1) coalesces
// wake-ups and lets Run select on it together with ctx.Done.
type entryQueue struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
	signal  chan struct{}
}

func newEntryQueue() *entryQueue {
	return &entryQueue{
		entries: make([]Entry, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends e. Returns false once the queue is closed.
func (q *entryQueue) Enqueue(e Entry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.entries = append(q.entries, e)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue pops the oldest entry without blocking.
func (q *entryQueue) TryDequeue() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == 0 {
		return Entry{}, false
	}
	e := q.entries[0]
	// Drop the payload reference held by the backing array.
	q.entries[0] = Entry{}
	if len(q.entries) == 1 {
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[1:]
	}
	return e, true
}

// Wait returns a channel that fires when entries may be available. It is
// closed by Close.
func (q *entryQueue) Wait() <-chan struct{} {
	return q.signal
}

// Drained reports whether the queue is closed and empty.
func (q *entryQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.entries) == 0
}

func (q *entryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close stops further enqueues and wakes the waiter.
func (q *entryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
