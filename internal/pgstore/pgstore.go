// Package pgstore keeps account snapshots in PostgreSQL through gorm.
//
// Each account is one row holding the snapshot JSON and a revision that the
// database increments on every save. Subscribe polls the revision.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
)

// DefaultPollInterval is how often Subscribe checks for a new revision.
const DefaultPollInterval = 2 * time.Second

// Restaurant is the stored record of one account.
type Restaurant struct {
	Account   string    `gorm:"primaryKey"`
	Body      string    `gorm:"type:jsonb;not null"`
	Revision  int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Open connects to PostgreSQL and migrates the restaurants table.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	if err := db.AutoMigrate(&Restaurant{}); err != nil {
		return nil, fmt.Errorf("migrate restaurants: %w", err)
	}
	return db, nil
}

// Store is a syncer.RemoteStore backed by PostgreSQL.
type Store struct {
	db   *gorm.DB
	poll time.Duration
}

func New(db *gorm.DB, poll time.Duration) *Store {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Store{db: db, poll: poll}
}

// Load returns the record of account, or nil when there is none.
func (s *Store) Load(ctx context.Context, account string) (*snapshot.Snapshot, error) {
	rec, err := s.find(ctx, account)
	if err != nil || rec == nil {
		return nil, err
	}
	snap, err := snapshot.Decode([]byte(rec.Body))
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Save overwrites the record of account and bumps its revision.
func (s *Store) Save(ctx context.Context, account string, snap snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return err
	}
	rec := Restaurant{Account: account, Body: string(data), Revision: 1}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]any{
			"body":       string(data),
			"revision":   gorm.Expr("restaurants.revision + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save restaurant %s: %w", account, err)
	}
	return nil
}

// Revision returns the save counter of account, 0 when it has no record.
func (s *Store) Revision(ctx context.Context, account string) (int64, error) {
	rec, err := s.find(ctx, account)
	if err != nil || rec == nil {
		return 0, err
	}
	return rec.Revision, nil
}

// Subscribe delivers the current record, then a new payload whenever the
// revision moves.
func (s *Store) Subscribe(ctx context.Context, account string) (<-chan syncer.Payload, error) {
	rec, err := s.find(ctx, account)
	if err != nil {
		return nil, err
	}

	out := make(chan syncer.Payload, 1)
	var seen int64
	if rec != nil {
		seen = rec.Revision
	}
	out <- payloadOf(rec)

	go func() {
		defer close(out)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			rec, err := s.find(ctx, account)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("poll restaurant failed", "account", account, "error", err)
				continue
			}
			if rec == nil || rec.Revision == seen {
				continue
			}
			seen = rec.Revision

			select {
			case out <- payloadOf(rec):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *Store) find(ctx context.Context, account string) (*Restaurant, error) {
	var rec Restaurant
	err := s.db.WithContext(ctx).First(&rec, "account = ?", account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read restaurant %s: %w", account, err)
	}
	return &rec, nil
}

func payloadOf(rec *Restaurant) syncer.Payload {
	if rec == nil {
		return syncer.Payload{}
	}
	snap, err := snapshot.Decode([]byte(rec.Body))
	if err != nil {
		return syncer.Payload{Err: err}
	}
	return syncer.Payload{Snapshot: &snap}
}

var _ syncer.RemoteStore = (*Store)(nil)
