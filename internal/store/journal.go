package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/engine"
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// AppendJournal records one dispatched action for account.
// Idempotent: a second entry with the same (account, seq) is ignored.
func (s *Store) AppendJournal(ctx context.Context, account string, e engine.Entry) error {
	payload := string(e.Action.Payload)
	if payload == "" {
		payload = "null"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (account, seq, type, payload, at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account, seq) DO NOTHING
	`, account, e.Seq, string(e.Action.Type), payload, e.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write journal entry %d: %w", e.Seq, err)
	}
	return nil
}

// ReadJournal returns the journal of account in seq order.
func (s *Store) ReadJournal(ctx context.Context, account string) ([]engine.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, type, payload, at
		FROM journal
		WHERE account = ?
		ORDER BY seq ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("read journal %s: %w", account, err)
	}
	defer rows.Close()

	entries := []engine.Entry{}
	for rows.Next() {
		var (
			e       engine.Entry
			kind    string
			payload string
			at      string
		)
		if err := rows.Scan(&e.Seq, &kind, &payload, &at); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.At, err = time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse journal time %d: %w", e.Seq, err)
		}
		e.Account = account
		e.Action = pos.Envelope{Type: pos.Kind(kind)}
		if payload != "null" {
			e.Action.Payload = json.RawMessage(payload)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// LastSeq is the highest seq journaled for any account, 0 when empty.
// Engines resume their clock from it so seqs never repeat.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("read last seq: %w", err)
	}
	return seq, nil
}

// Journal returns an engine.Journal that files every entry under the account
// it was stamped with at dispatch.
func (s *Store) Journal() engine.Journal {
	return journalWriter{store: s}
}

type journalWriter struct {
	store *Store
}

func (w journalWriter) Append(ctx context.Context, e engine.Entry) error {
	return w.store.AppendJournal(ctx, e.Account, e)
}
