package terminal

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/azairamail/EASYAiPOS/internal/config"
	"github.com/azairamail/EASYAiPOS/internal/pgstore"
	"github.com/azairamail/EASYAiPOS/internal/redisstore"
	"github.com/azairamail/EASYAiPOS/internal/store"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
)

// Open builds a terminal from cfg. The device store at cfg.LocalPath holds
// the cart and the action journal; cfg.Store picks the account store.
// Close releases both.
func Open(ctx context.Context, cfg config.Config) (*Terminal, error) {
	local, err := store.Open(cfg.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	closers := []io.Closer{local}
	fail := func(err error) (*Terminal, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
		return nil, err
	}

	remote, closer, err := OpenRemote(ctx, cfg, local)
	if err != nil {
		return fail(err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	seq, err := local.LastSeq(ctx)
	if err != nil {
		return fail(err)
	}

	t := New(Options{
		Remote:       remote,
		Local:        local,
		Journal:      local.Journal(),
		StartSeq:     seq,
		Debounce:     cfg.Sync.Debounce.Std(),
		FollowRemote: cfg.Sync.FollowRemote,
	})
	t.local = local
	t.closers = closers

	slog.Info("terminal opened", "driver", cfg.Store.Driver, "local", cfg.LocalPath, "seq", seq)
	return t, nil
}

// Local is the device store, or nil when the terminal was not built by
// Open.
func (t *Terminal) Local() *store.Store {
	return t.local
}

// OpenRemote opens the account store cfg.Store selects. The sqlite driver
// shares local when both paths agree; the returned closer is nil then.
func OpenRemote(ctx context.Context, cfg config.Config, local *store.Store) (syncer.RemoteStore, io.Closer, error) {
	switch cfg.Store.Driver {
	case "", "sqlite":
		if cfg.Store.SQLitePath == "" || cfg.Store.SQLitePath == cfg.LocalPath {
			return local, nil, nil
		}
		st, err := store.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open account store: %w", err)
		}
		return st, st, nil

	case "redis":
		rdb, err := redisstore.NewClient(ctx, redisstore.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(rdb), rdb, nil

	case "postgres":
		db, err := pgstore.Open(cfg.Store.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("get sql.DB: %w", err)
		}
		return pgstore.New(db, cfg.Store.Postgres.PollInterval.Std()), sqlDB, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
