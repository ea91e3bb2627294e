package pos

import (
	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// ReplaceState swaps in a whole new state, as on hydration from the remote
// store. The current ActiveStaff always survives. A nil Cart in the incoming
// state keeps the current cart as well.
type ReplaceState struct {
	State State `json:"state"`
}

func (ReplaceState) Kind() Kind { return KindReplaceState }

func (a ReplaceState) apply(s State) State {
	next := a.State
	next.ActiveStaff = s.ActiveStaff
	if next.Cart == nil {
		next.Cart = s.Cart
	}
	return next
}

// RestoreData replaces the collections present in a backup. Nil fields keep
// the current value; an empty slice clears the collection. The two encode
// as null and [] so a journaled restore replays the same way. Cart and
// ActiveStaff are never touched.
type RestoreData struct {
	Orders      []domain.Order         `json:"orders"`
	Menu        []domain.MenuItem      `json:"menu"`
	Tables      []domain.Table         `json:"tables"`
	Inventory   []domain.InventoryItem `json:"inventory"`
	Settings    *domain.StoreSettings  `json:"settings,omitempty"`
	TeamMembers []domain.TeamMember    `json:"teamMembers"`
}

func (RestoreData) Kind() Kind { return KindRestoreData }

// ClearBusinessData is the restore that empties orders, menu, tables and
// inventory while keeping settings and team members.
func ClearBusinessData() RestoreData {
	return RestoreData{
		Orders:    []domain.Order{},
		Menu:      []domain.MenuItem{},
		Tables:    []domain.Table{},
		Inventory: []domain.InventoryItem{},
	}
}

func (a RestoreData) apply(s State) State {
	if a.Orders != nil {
		s.Orders = a.Orders
	}
	if a.Menu != nil {
		s.Menu = a.Menu
	}
	if a.Tables != nil {
		s.Tables = a.Tables
	}
	if a.Inventory != nil {
		s.Inventory = a.Inventory
	}
	if a.Settings != nil {
		s.Settings = *a.Settings
	}
	if a.TeamMembers != nil {
		s.TeamMembers = a.TeamMembers
	}
	return s
}

// UpdateSettings applies a partial settings patch.
type UpdateSettings struct {
	Patch domain.SettingsPatch `json:"patch"`
}

func (UpdateSettings) Kind() Kind { return KindUpdateSettings }

func (a UpdateSettings) apply(s State) State {
	s.Settings = a.Patch.Apply(s.Settings)
	return s
}

// AddTeamMember appends a staff account.
type AddTeamMember struct {
	Member domain.TeamMember `json:"member"`
}

func (AddTeamMember) Kind() Kind { return KindAddTeamMember }

func (a AddTeamMember) apply(s State) State {
	s.TeamMembers = appendCopy(s.TeamMembers, a.Member)
	return s
}

// UpdateTeamMember replaces the staff account with the same id.
type UpdateTeamMember struct {
	Member domain.TeamMember `json:"member"`
}

func (UpdateTeamMember) Kind() Kind { return KindUpdateTeamMember }

func (a UpdateTeamMember) apply(s State) State {
	if _, ok := s.TeamMember(a.Member.ID); !ok {
		return s
	}
	s.TeamMembers = mapWhere(s.TeamMembers,
		func(m domain.TeamMember) bool { return m.ID == a.Member.ID },
		func(domain.TeamMember) domain.TeamMember { return a.Member })
	return s
}

// DeleteTeamMember removes a staff account.
type DeleteTeamMember struct {
	MemberID string `json:"memberId"`
}

func (DeleteTeamMember) Kind() Kind { return KindDeleteTeamMember }

func (a DeleteTeamMember) apply(s State) State {
	if _, ok := s.TeamMember(a.MemberID); !ok {
		return s
	}
	s.TeamMembers = removeWhere(s.TeamMembers, func(m domain.TeamMember) bool { return m.ID == a.MemberID })
	return s
}

// LoginStaff unlocks the terminal for a staff member. Session only.
type LoginStaff struct {
	Member domain.TeamMember `json:"member"`
}

func (LoginStaff) Kind() Kind { return KindLoginStaff }

func (a LoginStaff) apply(s State) State {
	m := a.Member
	s.ActiveStaff = &m
	return s
}

// LogoutStaff locks the terminal.
type LogoutStaff struct{}

func (LogoutStaff) Kind() Kind { return KindLogoutStaff }

func (LogoutStaff) apply(s State) State {
	s.ActiveStaff = nil
	return s
}
