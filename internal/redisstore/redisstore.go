// Package redisstore keeps account snapshots in Redis.
//
// Each account is one JSON value at easypos:restaurants:{account}. Every
// save also publishes the new value on the account's updates channel, which
// is what Subscribe streams to other terminals.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
)

const keyPrefix = "easypos:restaurants:"

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}
	slog.Info("redis connected", "addr", opts.Addr, "reply", pong)
	return rdb, nil
}

// Store is a syncer.RemoteStore backed by Redis.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Key is where the record of account lives.
func Key(account string) string {
	return keyPrefix + account
}

// Channel is where saves of account are published.
func Channel(account string) string {
	return Key(account) + ":updates"
}

// Load returns the record of account, or nil when there is none.
func (s *Store) Load(ctx context.Context, account string) (*snapshot.Snapshot, error) {
	data, err := s.rdb.Get(ctx, Key(account)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", Key(account), err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save overwrites the record of account and publishes it.
func (s *Store) Save(ctx context.Context, account string, snap snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, Key(account), data, 0)
		pipe.Publish(ctx, Channel(account), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", Key(account), err)
	}
	return nil
}

// Subscribe listens on the updates channel first and only then reads the
// current value, so no save made in between is missed.
func (s *Store) Subscribe(ctx context.Context, account string) (<-chan syncer.Payload, error) {
	ps := s.rdb.Subscribe(ctx, Channel(account))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", Channel(account), err)
	}

	current, err := s.Load(ctx, account)
	if err != nil {
		ps.Close()
		return nil, err
	}

	out := make(chan syncer.Payload, 1)
	out <- syncer.Payload{Snapshot: current}

	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var p syncer.Payload
				snap, err := snapshot.Decode([]byte(msg.Payload))
				if err != nil {
					p.Err = err
				} else {
					p.Snapshot = &snap
				}
				select {
				case out <- p:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

var _ syncer.RemoteStore = (*Store)(nil)
