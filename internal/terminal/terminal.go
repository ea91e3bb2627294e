// Package terminal assembles one point-of-sale terminal: the engine that
// owns the state, the sync adapter that mirrors it to the account's store,
// and the lifecycle planner that turns requests into actions.
//
// Every policy helper reads the current state, asks the lifecycle package
// for the actions, dispatches them and renders the matching ticket. The
// helpers are serialized so two requests never plan against the same
// state.
package terminal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/engine"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/session"
	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/store"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
)

// Options wires a Terminal. Remote is required; everything else is
// optional.
type Options struct {
	Remote  syncer.RemoteStore
	Local   syncer.LocalStore
	Journal engine.Journal

	// StartSeq resumes the engine's sequence numbers after a journal.
	StartSeq int64

	IDs lifecycle.IDGenerator
	Now func() time.Time

	Debounce     time.Duration
	FollowRemote bool
}

// Terminal is one running point-of-sale terminal.
type Terminal struct {
	engine  *engine.Engine
	adapter *syncer.Adapter
	planner *lifecycle.Planner
	now     func() time.Time

	// mu serializes the policy helpers.
	mu sync.Mutex

	// local is set when the terminal was built by Open.
	local *store.Store

	lifeMu     sync.Mutex
	cancel     context.CancelFunc
	engineDone chan struct{}
	cartDone   chan struct{}
	closers    []io.Closer
}

// New builds a terminal holding the default state. Call Start before use.
func New(opts Options) *Terminal {
	if opts.IDs == nil {
		opts.IDs = engine.UUIDv7Generator{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	engOpts := []engine.Option{
		engine.WithNow(opts.Now),
		engine.WithClock(engine.NewClockAt(opts.StartSeq)),
	}
	t := &Terminal{
		planner: lifecycle.NewPlanner(opts.IDs, opts.Now),
		now:     opts.Now,
	}
	if opts.Journal != nil {
		engOpts = append(engOpts, engine.WithJournal(opts.Journal), engine.WithAccount(t.Account))
	}
	initial := pos.Initial().WithPersisted(snapshot.Default().WithSeededAdmin().Persisted())
	eng := engine.New(initial, engOpts...)

	syncOpts := []syncer.Option{syncer.WithFollowRemote(opts.FollowRemote)}
	if opts.Debounce > 0 {
		syncOpts = append(syncOpts, syncer.WithDebounce(opts.Debounce))
	}
	if opts.Local != nil {
		syncOpts = append(syncOpts, syncer.WithLocalStore(opts.Local))
	}

	t.engine = eng
	t.adapter = syncer.New(eng, opts.Remote, syncOpts...)
	return t
}

// Start runs the journal writer and the cart saver, restores the device
// cart and enters the signed-out state. The goroutines stop when ctx is
// done or Close is called.
func (t *Terminal) Start(ctx context.Context) error {
	t.lifeMu.Lock()
	if t.cancel != nil {
		t.lifeMu.Unlock()
		return errors.New("terminal already started")
	}
	cartCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.engineDone = make(chan struct{})
	t.cartDone = make(chan struct{})
	engineDone, cartDone := t.engineDone, t.cartDone
	t.lifeMu.Unlock()

	go func() {
		defer close(engineDone)
		if err := t.engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("engine stopped", "error", err)
		}
	}()

	if err := t.adapter.RestoreCart(ctx); err != nil {
		slog.Error("restore cart", "error", err)
	}
	go func() {
		defer close(cartDone)
		t.adapter.RunCart(cartCtx)
	}()

	return t.adapter.Start(ctx, nil)
}

// SignIn ends the current session and starts one for account. The session
// lives until SignOut, Close or the end of ctx.
func (t *Terminal) SignIn(ctx context.Context, account string) error {
	if account == "" {
		return errors.New("account is required")
	}
	t.adapter.Stop()
	return t.adapter.Start(ctx, session.New(account, t.now()))
}

// SignOut flushes and ends the current session, locks the terminal and
// resets it to the default state.
func (t *Terminal) SignOut(ctx context.Context) error {
	t.adapter.Stop()
	t.engine.Dispatch(pos.LogoutStaff{})
	return t.adapter.Start(ctx, nil)
}

// Close drains the journal, ends the session, saves the cart and releases
// the stores opened for the terminal.
func (t *Terminal) Close() error {
	t.lifeMu.Lock()
	cancel, engineDone, cartDone := t.cancel, t.engineDone, t.cartDone
	t.lifeMu.Unlock()

	t.engine.Stop()
	if engineDone != nil {
		<-engineDone
	}
	t.adapter.Stop()
	if cancel != nil {
		cancel()
		<-cartDone
	}

	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	t.closers = nil
	return errors.Join(errs...)
}

// Ready is closed once the current session has its snapshot.
func (t *Terminal) Ready() <-chan struct{} {
	return t.adapter.Ready()
}

// WaitReady blocks until Ready is closed or ctx is done.
func (t *Terminal) WaitReady(ctx context.Context) error {
	return t.adapter.WaitReady(ctx)
}

// Session returns the signed-in session, or nil.
func (t *Terminal) Session() *session.Session {
	return t.adapter.Session()
}

// Account is the signed-in account, or "".
func (t *Terminal) Account() string {
	if s := t.adapter.Session(); s != nil {
		return s.Account
	}
	return ""
}

// State returns the current state.
func (t *Terminal) State() pos.State {
	return t.engine.State()
}

// Seq is the sequence number of the last dispatched action.
func (t *Terminal) Seq() int64 {
	return t.engine.Seq()
}

// Dispatch applies a raw action with no policy checks.
func (t *Terminal) Dispatch(a pos.Action) pos.State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Dispatch(a)
}

func (t *Terminal) apply(actions []pos.Action) pos.State {
	return t.engine.Apply(actions...)
}
