package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/engine"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/session"
	"github.com/azairamail/EASYAiPOS/internal/snapshot"
)

// Payload is one delivery from a remote subscription. A nil Snapshot means
// the account has no record yet.
type Payload struct {
	Snapshot *snapshot.Snapshot
	Err      error
}

// RemoteStore is the hosted per-account snapshot store.
type RemoteStore interface {
	// Subscribe delivers the current record, then every later change,
	// until ctx is done.
	Subscribe(ctx context.Context, account string) (<-chan Payload, error)
	Save(ctx context.Context, account string, s snapshot.Snapshot) error
}

// LocalStore keeps device-scoped data.
type LocalStore interface {
	LoadCart(ctx context.Context) ([]domain.CartItem, error)
	SaveCart(ctx context.Context, items []domain.CartItem) error
}

// Host is the engine the adapter reads from and dispatches into.
type Host interface {
	Dispatch(a pos.Action) pos.State
	State() pos.State
	Observe(o engine.Observer)
}

// DefaultDebounce is how long the persisted state must be quiet before it
// is written.
const DefaultDebounce = 500 * time.Millisecond

// maxWaitFactor bounds how long steady changes can postpone a write, as a
// multiple of the debounce interval.
const maxWaitFactor = 4

// finalFlushTimeout bounds the write made while a session shuts down.
const finalFlushTimeout = 5 * time.Second

// Option configures an Adapter.
type Option func(*Adapter)

func WithDebounce(d time.Duration) Option {
	return func(a *Adapter) { a.debounce = d }
}

// WithMaxWait caps the delay between the first unsaved change and its
// write. It defaults to four debounce intervals.
func WithMaxWait(d time.Duration) Option {
	return func(a *Adapter) { a.maxWait = d }
}

// WithFollowRemote applies remote changes made by other terminals after
// hydration.
func WithFollowRemote(follow bool) Option {
	return func(a *Adapter) { a.followRemote = follow }
}

// WithLocalStore enables cart persistence.
func WithLocalStore(l LocalStore) Option {
	return func(a *Adapter) { a.local = l }
}

// Adapter bridges one engine to a remote store.
type Adapter struct {
	host         Host
	remote       RemoteStore
	local        LocalStore
	debounce     time.Duration
	maxWait      time.Duration
	followRemote bool

	dirty     chan struct{}
	cartDirty chan struct{}

	// lifecycleMu serializes Start and Stop.
	lifecycleMu sync.Mutex
	stop        context.CancelFunc
	done        chan struct{}

	mu       sync.Mutex
	sess     *session.Session
	hydrated bool
	lastHash string
	cartHash string
	ready    chan struct{}
}

// New creates an adapter and registers it as an observer of host.
func New(host Host, remote RemoteStore, opts ...Option) *Adapter {
	a := &Adapter{
		host:      host,
		remote:    remote,
		debounce:  DefaultDebounce,
		dirty:     make(chan struct{}, 1),
		cartDirty: make(chan struct{}, 1),
		ready:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxWait <= 0 {
		a.maxWait = maxWaitFactor * a.debounce
	}
	host.Observe(a.observe)
	return a
}

// Ready is closed once the current session's first snapshot is applied.
func (a *Adapter) Ready() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// WaitReady blocks until Ready is closed or ctx is done.
func (a *Adapter) WaitReady(ctx context.Context) error {
	select {
	case <-a.Ready():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Hydrated reports whether the current session has loaded its snapshot.
func (a *Adapter) Hydrated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hydrated
}

// Session returns the current session, or nil when signed out.
func (a *Adapter) Session() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess
}

// Start begins syncing for sess. A session without an account is the
// signed-out state: the engine gets the default snapshot, Ready closes at
// once and nothing is written remotely.
func (a *Adapter) Start(ctx context.Context, sess *session.Session) error {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	if a.stop != nil {
		return errors.New("sync already started; stop the current session first")
	}

	ready := make(chan struct{})
	a.mu.Lock()
	a.sess = sess
	a.hydrated = false
	a.lastHash = ""
	a.ready = ready
	a.mu.Unlock()

	if !sess.Authenticated() {
		a.host.Dispatch(snapshot.Default().Hydrate())
		close(ready)
		slog.Info("sync idle: no account")
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	payloads, err := a.remote.Subscribe(ctx, sess.Account)
	if err != nil {
		cancel()
		a.mu.Lock()
		a.sess = nil
		a.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", sess.Account, err)
	}

	done := make(chan struct{})
	a.stop = cancel
	a.done = done
	go a.run(ctx, sess.Account, payloads, done)

	slog.Info("sync started", "account", sess.Account)
	return nil
}

// Stop ends the current session. A pending debounced write is flushed
// first. Safe to call when no session is running.
func (a *Adapter) Stop() {
	a.lifecycleMu.Lock()
	defer a.lifecycleMu.Unlock()

	if a.stop == nil {
		a.mu.Lock()
		a.sess = nil
		a.mu.Unlock()
		return
	}
	a.stop()
	<-a.done
	a.stop = nil
	a.done = nil

	a.mu.Lock()
	account := ""
	if a.sess != nil {
		account = a.sess.Account
	}
	a.sess = nil
	a.hydrated = false
	a.mu.Unlock()

	slog.Info("sync stopped", "account", account)
}

func (a *Adapter) run(ctx context.Context, account string, payloads <-chan Payload, done chan struct{}) {
	defer close(done)

	var (
		fire  <-chan time.Time
		since time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if fire != nil {
				flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
				a.flush(flushCtx, account)
				cancel()
			}
			return

		case p, ok := <-payloads:
			if !ok {
				slog.Warn("remote subscription closed", "account", account)
				payloads = nil
				continue
			}
			a.receive(account, p)

		case <-a.dirty:
			if fire == nil {
				since = time.Now()
			}
			fire = time.After(a.wait(since))

		case <-fire:
			fire = nil
			a.flush(ctx, account)
		}
	}
}

// wait is the delay before the next write: the debounce interval, cut short
// so that nothing stays unsaved longer than maxWait after since.
func (a *Adapter) wait(since time.Time) time.Duration {
	left := a.maxWait - time.Since(since)
	if left < 0 {
		return 0
	}
	return min(a.debounce, left)
}

// receive handles one subscription payload.
func (a *Adapter) receive(account string, p Payload) {
	if p.Err != nil {
		slog.Error("remote snapshot error", "account", account, "error", p.Err)
		return
	}

	snap := snapshot.Default()
	remoteHash := ""
	if p.Snapshot != nil {
		snap = *p.Snapshot
		h, err := snapshot.Hash(snap)
		if err != nil {
			slog.Error("hash remote snapshot", "account", account, "error", err)
			return
		}
		remoteHash = h
	}

	a.mu.Lock()
	hydrated, last := a.hydrated, a.lastHash
	a.mu.Unlock()

	if hydrated {
		if !a.followRemote || p.Snapshot == nil || remoteHash == last {
			slog.Debug("remote update ignored", "account", account)
			return
		}
	}

	a.host.Dispatch(snap.Hydrate())

	a.mu.Lock()
	a.lastHash = remoteHash
	first := !a.hydrated
	a.hydrated = true
	if first {
		close(a.ready)
	}
	a.mu.Unlock()

	if first {
		slog.Info("snapshot hydrated", "account", account, "fresh", p.Snapshot == nil)
	} else {
		slog.Info("remote changes applied", "account", account)
	}
	// A seeded admin or a fresh default record still has to be written.
	signal(a.dirty)
}

// flush writes the persisted collections when they differ from what the
// remote store last held.
func (a *Adapter) flush(ctx context.Context, account string) {
	snap := snapshot.FromState(a.host.State())
	h, err := snapshot.Hash(snap)
	if err != nil {
		slog.Error("hash local snapshot", "account", account, "error", err)
		return
	}

	a.mu.Lock()
	unchanged := h == a.lastHash
	a.mu.Unlock()
	if unchanged {
		return
	}

	if err := a.remote.Save(ctx, account, snap); err != nil {
		slog.Error("remote save failed", "account", account, "error", err)
		return
	}

	a.mu.Lock()
	a.lastHash = h
	a.mu.Unlock()
	slog.Debug("snapshot saved", "account", account, "hash", h)
}

func (a *Adapter) observe(_, _ pos.State, act pos.Action) {
	kind := act.Kind()
	if touchesCart(kind) {
		signal(a.cartDirty)
	}
	if localOnly(kind) {
		return
	}
	a.mu.Lock()
	live := a.hydrated && a.sess.Authenticated()
	a.mu.Unlock()
	if live {
		signal(a.dirty)
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func touchesCart(k pos.Kind) bool {
	switch k {
	case pos.KindAddToCart, pos.KindUpdateCartItem, pos.KindRemoveFromCart,
		pos.KindClearCart, pos.KindSetCart, pos.KindReplaceState:
		return true
	}
	return false
}

// localOnly kinds never change the persisted collections.
func localOnly(k pos.Kind) bool {
	switch k {
	case pos.KindAddToCart, pos.KindUpdateCartItem, pos.KindRemoveFromCart,
		pos.KindClearCart, pos.KindSetCart, pos.KindLoginStaff, pos.KindLogoutStaff:
		return true
	}
	return false
}
