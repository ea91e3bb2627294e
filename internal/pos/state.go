package pos

import (
	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// State is the whole in-memory model of one restaurant terminal.
//
// Orders are kept most recent first. Cart and ActiveStaff are local to the
// terminal and never part of the persisted projection.
type State struct {
	Orders      []domain.Order         `json:"orders"`
	Menu        []domain.MenuItem      `json:"menu"`
	Tables      []domain.Table         `json:"tables"`
	Inventory   []domain.InventoryItem `json:"inventory"`
	Cart        []domain.CartItem      `json:"cart"`
	Settings    domain.StoreSettings   `json:"settings"`
	TeamMembers []domain.TeamMember    `json:"teamMembers"`
	ActiveStaff *domain.TeamMember     `json:"activeStaff,omitempty"`
}

// Initial returns an empty restaurant with default settings.
func Initial() State {
	return State{
		Orders:      []domain.Order{},
		Menu:        []domain.MenuItem{},
		Tables:      []domain.Table{},
		Inventory:   []domain.InventoryItem{},
		Cart:        []domain.CartItem{},
		Settings:    domain.DefaultSettings(),
		TeamMembers: []domain.TeamMember{},
	}
}

// Order returns the order with the given id.
func (s State) Order(id string) (domain.Order, bool) {
	for _, o := range s.Orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}

// Table returns the table with the given id.
func (s State) Table(id string) (domain.Table, bool) {
	for _, t := range s.Tables {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Table{}, false
}

// MenuItem returns the menu item with the given id.
func (s State) MenuItem(id string) (domain.MenuItem, bool) {
	for _, m := range s.Menu {
		if m.ID == id {
			return m, true
		}
	}
	return domain.MenuItem{}, false
}

// TeamMember returns the team member with the given id.
func (s State) TeamMember(id string) (domain.TeamMember, bool) {
	for _, m := range s.TeamMembers {
		if m.ID == id {
			return m, true
		}
	}
	return domain.TeamMember{}, false
}

// ActiveOrderForTable returns the non-terminal order the table points at.
func (s State) ActiveOrderForTable(tableID string) (domain.Order, bool) {
	t, ok := s.Table(tableID)
	if !ok || t.CurrentOrderID == "" {
		return domain.Order{}, false
	}
	o, ok := s.Order(t.CurrentOrderID)
	if !ok || !o.IsActive() {
		return domain.Order{}, false
	}
	return o, true
}

// Persisted is the part of State written to the remote snapshot store.
type Persisted struct {
	Orders      []domain.Order         `json:"orders"`
	Menu        []domain.MenuItem      `json:"menu"`
	Tables      []domain.Table         `json:"tables"`
	Inventory   []domain.InventoryItem `json:"inventory"`
	Settings    domain.StoreSettings   `json:"settings"`
	TeamMembers []domain.TeamMember    `json:"teamMembers"`
}

// Persisted projects the remote-persisted fields of s.
func (s State) Persisted() Persisted {
	return Persisted{
		Orders:      orEmpty(s.Orders),
		Menu:        orEmpty(s.Menu),
		Tables:      orEmpty(s.Tables),
		Inventory:   orEmpty(s.Inventory),
		Settings:    s.Settings,
		TeamMembers: orEmpty(s.TeamMembers),
	}
}

// PersistedHash is the canonical hash of the persisted projection. Two states
// with the same hash need no remote write between them.
func (s State) PersistedHash() (string, error) {
	return domain.Hash(domain.DomainSnapshot, s.Persisted())
}

// CartHash is the canonical hash of the cart.
func (s State) CartHash() (string, error) {
	return domain.Hash(domain.DomainCart, orEmpty(s.Cart))
}

// WithPersisted returns s with the persisted fields replaced by p.
func (s State) WithPersisted(p Persisted) State {
	s.Orders = p.Orders
	s.Menu = p.Menu
	s.Tables = p.Tables
	s.Inventory = p.Inventory
	s.Settings = p.Settings
	s.TeamMembers = p.TeamMembers
	return s
}
