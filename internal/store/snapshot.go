package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/azairamail/EASYAiPOS/internal/snapshot"
	"github.com/azairamail/EASYAiPOS/internal/syncer"
)

// collections names the entity maps of a snapshot as stored in entities.collection.
var collections = []string{"orders", "menu", "tables", "inventory", "teamMembers"}

type entityRow struct {
	collection string
	id         string
	body       []byte
}

// LoadSnapshot reads the record of account. It returns nil when the account
// has never been saved.
func (s *Store) LoadSnapshot(ctx context.Context, account string) (*snapshot.Snapshot, error) {
	var settings string
	err := s.db.QueryRowContext(ctx,
		`SELECT settings FROM accounts WHERE account = ?`, account,
	).Scan(&settings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", account, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT collection, id, body
		FROM entities
		WHERE account = ?
		ORDER BY collection ASC, id COLLATE BINARY ASC
	`, account)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", account, err)
	}
	defer rows.Close()

	doc := make(map[string]any, len(collections)+1)
	grouped := make(map[string]map[string]json.RawMessage, len(collections))
	for _, c := range collections {
		grouped[c] = map[string]json.RawMessage{}
		doc[c] = grouped[c]
	}
	doc["settings"] = json.RawMessage(settings)

	for rows.Next() {
		var collection, id, body string
		if err := rows.Scan(&collection, &id, &body); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		group, ok := grouped[collection]
		if !ok {
			return nil, fmt.Errorf("load snapshot %s: unknown collection %q", account, collection)
		}
		group[id] = json.RawMessage(body)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", account, err)
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", account, err)
	}
	return &snap, nil
}

// SaveSnapshot replaces the whole record of account in one transaction and
// returns the account's new revision. Subscribers of the account are
// notified after commit.
func (s *Store) SaveSnapshot(ctx context.Context, account string, snap snapshot.Snapshot) (int64, error) {
	settings, err := json.Marshal(snap.Settings)
	if err != nil {
		return 0, fmt.Errorf("marshal settings: %w", err)
	}
	entities, err := entityRows(snap)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save snapshot %s: %w", account, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (account, settings, revision, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(account) DO UPDATE SET
			settings = excluded.settings,
			revision = accounts.revision + 1,
			updated_at = excluded.updated_at
	`, account, string(settings), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("write account %s: %w", account, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE account = ?`, account); err != nil {
		return 0, fmt.Errorf("clear entities %s: %w", account, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (account, collection, id, body)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		if _, err := stmt.ExecContext(ctx, account, e.collection, e.id, string(e.body)); err != nil {
			return 0, fmt.Errorf("write %s %s: %w", e.collection, e.id, err)
		}
	}

	var revision int64
	if err := tx.QueryRowContext(ctx,
		`SELECT revision FROM accounts WHERE account = ?`, account,
	).Scan(&revision); err != nil {
		return 0, fmt.Errorf("read revision %s: %w", account, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot %s: %w", account, err)
	}

	s.notify(account, snap)
	return revision, nil
}

// Save implements syncer.RemoteStore.
func (s *Store) Save(ctx context.Context, account string, snap snapshot.Snapshot) error {
	_, err := s.SaveSnapshot(ctx, account, snap)
	return err
}

// Revision returns how many times account has been saved (0 if never).
func (s *Store) Revision(ctx context.Context, account string) (int64, error) {
	var revision int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revision FROM accounts WHERE account = ?`, account,
	).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read revision %s: %w", account, err)
	}
	return revision, nil
}

// Accounts lists every account with a saved record.
func (s *Store) Accounts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT account FROM accounts ORDER BY account ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	if accounts == nil {
		return []string{}, nil
	}
	return accounts, nil
}

// Subscribe delivers the current record of account, then every later save
// made through this Store, until ctx is done or the Store is closed. A slow
// reader only ever misses intermediate records, never the latest one.
func (s *Store) Subscribe(ctx context.Context, account string) (<-chan syncer.Payload, error) {
	sub := &subscriber{ch: make(chan syncer.Payload, 1)}

	s.mu.Lock()
	current, err := s.LoadSnapshot(ctx, account)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.subs[account] == nil {
		s.subs[account] = make(map[*subscriber]struct{})
	}
	s.subs[account][sub] = struct{}{}
	sub.deliver(syncer.Payload{Snapshot: current})
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs[account], sub)
		if len(s.subs[account]) == 0 {
			delete(s.subs, account)
		}
		s.mu.Unlock()
		sub.close()
	}()

	return sub.ch, nil
}

func (s *Store) notify(account string, snap snapshot.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs[account] {
		snap := snap
		sub.deliver(syncer.Payload{Snapshot: &snap})
	}
}

// subscriber is one Subscribe channel. Deliveries replace an unread value.
type subscriber struct {
	mu     sync.Mutex
	ch     chan syncer.Payload
	closed bool
}

func (sub *subscriber) deliver(p syncer.Payload) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- p:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}

func (sub *subscriber) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// entityRows flattens the entity maps of snap in a stable order.
func entityRows(snap snapshot.Snapshot) ([]entityRow, error) {
	var out []entityRow
	add := func(collection, id string, v any) error {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", collection, id, err)
		}
		out = append(out, entityRow{collection: collection, id: id, body: body})
		return nil
	}
	for id, v := range snap.Orders {
		if err := add("orders", id, v); err != nil {
			return nil, err
		}
	}
	for id, v := range snap.Menu {
		if err := add("menu", id, v); err != nil {
			return nil, err
		}
	}
	for id, v := range snap.Tables {
		if err := add("tables", id, v); err != nil {
			return nil, err
		}
	}
	for id, v := range snap.Inventory {
		if err := add("inventory", id, v); err != nil {
			return nil, err
		}
	}
	for id, v := range snap.TeamMembers {
		if err := add("teamMembers", id, v); err != nil {
			return nil, err
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].collection != out[j].collection {
			return out[i].collection < out[j].collection
		}
		return out[i].id < out[j].id
	})
	return out, nil
}
