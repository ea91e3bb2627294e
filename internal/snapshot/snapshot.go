// Package snapshot is the persisted shape of one restaurant account.
//
// Remote stores keep entities in maps keyed by id. The in-memory model keeps
// ordered lists. This package converts between the two and computes the
// content hash the sync adapter uses to detect changes. The hash is taken
// over the map form, so it does not depend on list order.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// Snapshot is the remote record of one account.
type Snapshot struct {
	Orders      map[string]domain.Order         `json:"orders"`
	Menu        map[string]domain.MenuItem      `json:"menu"`
	Tables      map[string]domain.Table         `json:"tables"`
	Inventory   map[string]domain.InventoryItem `json:"inventory"`
	Settings    domain.StoreSettings            `json:"settings"`
	TeamMembers map[string]domain.TeamMember    `json:"teamMembers"`
}

// UnmarshalJSON fills settings keys missing from the record with defaults.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		Orders      map[string]domain.Order         `json:"orders"`
		Menu        map[string]domain.MenuItem      `json:"menu"`
		Tables      map[string]domain.Table         `json:"tables"`
		Inventory   map[string]domain.InventoryItem `json:"inventory"`
		Settings    json.RawMessage                 `json:"settings"`
		TeamMembers map[string]domain.TeamMember    `json:"teamMembers"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	settings := domain.DefaultSettings()
	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		var err error
		if settings, err = domain.DecodeSettings(raw.Settings); err != nil {
			return err
		}
	}
	*s = Snapshot{
		Orders:      raw.Orders,
		Menu:        raw.Menu,
		Tables:      raw.Tables,
		Inventory:   raw.Inventory,
		Settings:    settings,
		TeamMembers: raw.TeamMembers,
	}
	return nil
}

// Decode parses a stored snapshot.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Encode serializes s for storage.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s.normalized())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// FromState projects the persisted collections of st into map form.
// Cart and ActiveStaff are never part of a snapshot.
func FromState(st pos.State) Snapshot {
	return Snapshot{
		Orders:      byID(st.Orders, func(o domain.Order) string { return o.ID }),
		Menu:        byID(st.Menu, func(m domain.MenuItem) string { return m.ID }),
		Tables:      byID(st.Tables, func(t domain.Table) string { return t.ID }),
		Inventory:   byID(st.Inventory, func(i domain.InventoryItem) string { return i.ID }),
		Settings:    st.Settings,
		TeamMembers: byID(st.TeamMembers, func(m domain.TeamMember) string { return m.ID }),
	}
}

// Default is the record of an account that has never been saved: default
// settings and the seeded admin.
func Default() Snapshot {
	return FromState(pos.Initial()).WithSeededAdmin()
}

// WithSeededAdmin adds the default admin when the snapshot has no team
// members, so the lock screen always has someone to log in as.
func (s Snapshot) WithSeededAdmin() Snapshot {
	if len(s.TeamMembers) > 0 {
		return s
	}
	admin := domain.DefaultAdmin()
	s.TeamMembers = map[string]domain.TeamMember{admin.ID: admin}
	return s
}

// Persisted converts s to list form. Orders are newest first (timestamp,
// then id, descending); every other list is sorted by id.
func (s Snapshot) Persisted() pos.Persisted {
	orders := values(s.Orders)
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID > b.ID
	})
	menu := values(s.Menu)
	sort.Slice(menu, func(i, j int) bool { return menu[i].ID < menu[j].ID })
	tables := values(s.Tables)
	sort.Slice(tables, func(i, j int) bool { return tables[i].ID < tables[j].ID })
	inventory := values(s.Inventory)
	sort.Slice(inventory, func(i, j int) bool { return inventory[i].ID < inventory[j].ID })
	members := values(s.TeamMembers)
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	return pos.Persisted{
		Orders:      orders,
		Menu:        menu,
		Tables:      tables,
		Inventory:   inventory,
		Settings:    s.Settings,
		TeamMembers: members,
	}
}

// Hydrate is the action that loads s into a running engine. The default
// admin is seeded when s has no team members. The terminal's cart and
// logged-in staff member are kept.
func (s Snapshot) Hydrate() pos.Action {
	st := pos.Initial().WithPersisted(s.WithSeededAdmin().Persisted())
	st.Cart = nil
	return pos.ReplaceState{State: st}
}

// Hash is the canonical content hash of s.
func Hash(s Snapshot) (string, error) {
	return domain.Hash(domain.DomainSnapshot, s.normalized())
}

// StateHash is Hash(FromState(st)).
func StateHash(st pos.State) (string, error) {
	return Hash(FromState(st))
}

// normalized replaces nil maps with empty ones so a missing collection and
// an empty one encode and hash the same.
func (s Snapshot) normalized() Snapshot {
	s.Orders = orEmpty(s.Orders)
	s.Menu = orEmpty(s.Menu)
	s.Tables = orEmpty(s.Tables)
	s.Inventory = orEmpty(s.Inventory)
	s.TeamMembers = orEmpty(s.TeamMembers)
	return s
}

func byID[T any](xs []T, id func(T) string) map[string]T {
	m := make(map[string]T, len(xs))
	for _, x := range xs {
		m[id(x)] = x
	}
	return m
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

func orEmpty[T any](m map[string]T) map[string]T {
	if m == nil {
		return map[string]T{}
	}
	return m
}
