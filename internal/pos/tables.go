package pos

import (
	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// UpdateTableStatus sets a table's status and current order. An empty
// OrderID clears the pointer.
type UpdateTableStatus struct {
	TableID string             `json:"tableId"`
	Status  domain.TableStatus `json:"status"`
	OrderID string             `json:"orderId,omitempty"`
}

func (UpdateTableStatus) Kind() Kind { return KindUpdateTableStatus }

func (a UpdateTableStatus) apply(s State) State {
	if _, ok := s.Table(a.TableID); !ok {
		return s
	}
	s.Tables = mapWhere(s.Tables, tableID(a.TableID), func(t domain.Table) domain.Table {
		t.Status = a.Status
		t.CurrentOrderID = a.OrderID
		return t
	})
	return s
}

// AddTable appends a table.
type AddTable struct {
	Table domain.Table `json:"table"`
}

func (AddTable) Kind() Kind { return KindAddTable }

func (a AddTable) apply(s State) State {
	s.Tables = appendCopy(s.Tables, a.Table)
	return s
}

// UpdateTable merges the set fields into an existing table.
type UpdateTable struct {
	ID     string              `json:"id"`
	Name   *string             `json:"name,omitempty"`
	Status *domain.TableStatus `json:"status,omitempty"`
}

func (UpdateTable) Kind() Kind { return KindUpdateTable }

func (a UpdateTable) apply(s State) State {
	if _, ok := s.Table(a.ID); !ok {
		return s
	}
	s.Tables = mapWhere(s.Tables, tableID(a.ID), func(t domain.Table) domain.Table {
		if a.Name != nil {
			t.Name = *a.Name
		}
		if a.Status != nil {
			t.Status = *a.Status
		}
		return t
	})
	return s
}

// DeleteTable removes a table and releases any tables merged into it.
type DeleteTable struct {
	TableID string `json:"tableId"`
}

func (DeleteTable) Kind() Kind { return KindDeleteTable }

func (a DeleteTable) apply(s State) State {
	if _, ok := s.Table(a.TableID); !ok {
		return s
	}
	tables := removeWhere(s.Tables, tableID(a.TableID))
	s.Tables = mapWhere(tables,
		func(t domain.Table) bool { return t.MergedInto == a.TableID },
		release)
	return s
}

// MergeTables makes ChildIDs the complete merge set of ParentID. Listed
// children point at the parent and become OCCUPIED; former children missing
// from the list are released to AVAILABLE. The parent itself is untouched.
type MergeTables struct {
	ParentID string   `json:"parentId"`
	ChildIDs []string `json:"childIds"`
}

func (MergeTables) Kind() Kind { return KindMergeTables }

func (a MergeTables) apply(s State) State {
	s.Tables = mapWhere(s.Tables,
		func(t domain.Table) bool {
			if t.ID == a.ParentID {
				return false
			}
			return contains(a.ChildIDs, t.ID) || t.MergedInto == a.ParentID
		},
		func(t domain.Table) domain.Table {
			if contains(a.ChildIDs, t.ID) {
				t.MergedInto = a.ParentID
				t.Status = domain.TableOccupied
				return t
			}
			return release(t)
		})
	return s
}

// ToggleTableReservation flips a table between RESERVED and AVAILABLE,
// whether or not it holds any reservations.
type ToggleTableReservation struct {
	TableID  string `json:"tableId"`
	Reserved bool   `json:"isReserved"`
}

func (ToggleTableReservation) Kind() Kind { return KindToggleReservation }

func (a ToggleTableReservation) apply(s State) State {
	if _, ok := s.Table(a.TableID); !ok {
		return s
	}
	s.Tables = mapWhere(s.Tables, tableID(a.TableID), func(t domain.Table) domain.Table {
		if a.Reserved {
			t.Status = domain.TableReserved
		} else {
			t.Status = domain.TableAvailable
		}
		return t
	})
	return s
}

// AddReservation appends a booking to a table.
type AddReservation struct {
	TableID     string             `json:"tableId"`
	Reservation domain.Reservation `json:"reservation"`
}

func (AddReservation) Kind() Kind { return KindAddReservation }

func (a AddReservation) apply(s State) State {
	if _, ok := s.Table(a.TableID); !ok {
		return s
	}
	s.Tables = mapWhere(s.Tables, tableID(a.TableID), func(t domain.Table) domain.Table {
		t.Reservations = appendCopy(t.Reservations, a.Reservation)
		return t
	})
	return s
}

// RemoveReservation drops a booking from a table.
type RemoveReservation struct {
	TableID       string `json:"tableId"`
	ReservationID string `json:"reservationId"`
}

func (RemoveReservation) Kind() Kind { return KindRemoveReservation }

func (a RemoveReservation) apply(s State) State {
	if _, ok := s.Table(a.TableID); !ok {
		return s
	}
	s.Tables = mapWhere(s.Tables, tableID(a.TableID), func(t domain.Table) domain.Table {
		t.Reservations = removeWhere(t.Reservations, func(r domain.Reservation) bool {
			return r.ID == a.ReservationID
		})
		return t
	})
	return s
}

func tableID(id string) func(domain.Table) bool {
	return func(t domain.Table) bool { return t.ID == id }
}

func release(t domain.Table) domain.Table {
	t.MergedInto = ""
	t.Status = domain.TableAvailable
	return t
}
