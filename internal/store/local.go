package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// Keys of the local_kv table.
const (
	keyCart         = "cart"
	keySoundEnabled = "sound_enabled"
)

// LoadCart returns the cart saved on this device, or nil when none was saved.
func (s *Store) LoadCart(ctx context.Context) ([]domain.CartItem, error) {
	raw, ok, err := s.getLocal(ctx, keyCart)
	if err != nil || !ok {
		return nil, err
	}
	var items []domain.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, nil
}

// SaveCart stores the cart on this device.
func (s *Store) SaveCart(ctx context.Context, items []domain.CartItem) error {
	if items == nil {
		items = []domain.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	return s.putLocal(ctx, keyCart, string(data))
}

// SoundEnabled reports the notification sound preference. Defaults to true.
func (s *Store) SoundEnabled(ctx context.Context) (bool, error) {
	raw, ok, err := s.getLocal(ctx, keySoundEnabled)
	if err != nil || !ok {
		return true, err
	}
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		return true, fmt.Errorf("parse %s: %w", keySoundEnabled, err)
	}
	return enabled, nil
}

func (s *Store) SetSoundEnabled(ctx context.Context, enabled bool) error {
	return s.putLocal(ctx, keySoundEnabled, strconv.FormatBool(enabled))
}

func (s *Store) getLocal(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) putLocal(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
