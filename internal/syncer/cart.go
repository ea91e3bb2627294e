package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// RestoreCart loads the device cart into the engine. It does not depend
// on a session.
func (a *Adapter) RestoreCart(ctx context.Context) error {
	if a.local == nil {
		return nil
	}
	items, err := a.local.LoadCart(ctx)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	st := a.host.Dispatch(pos.SetCart{Items: items})
	if h, err := st.CartHash(); err == nil {
		a.mu.Lock()
		a.cartHash = h
		a.mu.Unlock()
	}
	slog.Debug("cart restored", "lines", len(st.Cart))
	return nil
}

// RunCart saves the cart to the local store, debounced, until ctx is done.
// Without a local store it returns at once.
func (a *Adapter) RunCart(ctx context.Context) {
	if a.local == nil {
		return
	}
	var (
		fire  <-chan time.Time
		since time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if fire != nil {
				flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
				a.saveCart(flushCtx)
				cancel()
			}
			return
		case <-a.cartDirty:
			if fire == nil {
				since = time.Now()
			}
			fire = time.After(a.wait(since))
		case <-fire:
			fire = nil
			a.saveCart(ctx)
		}
	}
}

func (a *Adapter) saveCart(ctx context.Context) {
	st := a.host.State()
	h, err := st.CartHash()
	if err != nil {
		slog.Error("hash cart", "error", err)
		return
	}
	a.mu.Lock()
	unchanged := h == a.cartHash
	a.mu.Unlock()
	if unchanged {
		return
	}
	if err := a.local.SaveCart(ctx, st.Cart); err != nil {
		slog.Error("local cart save failed", "error", err)
		return
	}
	a.mu.Lock()
	a.cartHash = h
	a.mu.Unlock()
}
