package pos

import (
	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// AddMenuItem appends a menu item.
type AddMenuItem struct {
	Item domain.MenuItem `json:"item"`
}

func (AddMenuItem) Kind() Kind { return KindAddMenuItem }

func (a AddMenuItem) apply(s State) State {
	s.Menu = appendCopy(s.Menu, a.Item)
	return s
}

// UpdateMenuItem replaces the menu item with the same id. Existing cart and
// order lines keep their own copy and do not change.
type UpdateMenuItem struct {
	Item domain.MenuItem `json:"item"`
}

func (UpdateMenuItem) Kind() Kind { return KindUpdateMenuItem }

func (a UpdateMenuItem) apply(s State) State {
	if _, ok := s.MenuItem(a.Item.ID); !ok {
		return s
	}
	s.Menu = mapWhere(s.Menu,
		func(m domain.MenuItem) bool { return m.ID == a.Item.ID },
		func(domain.MenuItem) domain.MenuItem { return a.Item })
	return s
}

// DeleteMenuItem removes a menu item.
type DeleteMenuItem struct {
	ItemID string `json:"itemId"`
}

func (DeleteMenuItem) Kind() Kind { return KindDeleteMenuItem }

func (a DeleteMenuItem) apply(s State) State {
	if _, ok := s.MenuItem(a.ItemID); !ok {
		return s
	}
	s.Menu = removeWhere(s.Menu, func(m domain.MenuItem) bool { return m.ID == a.ItemID })
	return s
}

// AddInventory appends a stock item.
type AddInventory struct {
	Item domain.InventoryItem `json:"item"`
}

func (AddInventory) Kind() Kind { return KindAddInventory }

func (a AddInventory) apply(s State) State {
	s.Inventory = appendCopy(s.Inventory, a.Item)
	return s
}

// UpdateInventory replaces the stock item with the same id.
type UpdateInventory struct {
	Item domain.InventoryItem `json:"item"`
}

func (UpdateInventory) Kind() Kind { return KindUpdateInventory }

func (a UpdateInventory) apply(s State) State {
	if !hasInventory(s, a.Item.ID) {
		return s
	}
	s.Inventory = mapWhere(s.Inventory, inventoryID(a.Item.ID),
		func(domain.InventoryItem) domain.InventoryItem { return a.Item })
	return s
}

// DeleteInventory removes a stock item.
type DeleteInventory struct {
	ItemID string `json:"itemId"`
}

func (DeleteInventory) Kind() Kind { return KindDeleteInventory }

func (a DeleteInventory) apply(s State) State {
	if !hasInventory(s, a.ItemID) {
		return s
	}
	s.Inventory = removeWhere(s.Inventory, inventoryID(a.ItemID))
	return s
}

// DeductInventory lowers a stock quantity. The quantity never goes below zero.
type DeductInventory struct {
	ItemID string          `json:"itemId"`
	Amount decimal.Decimal `json:"amount"`
}

func (DeductInventory) Kind() Kind { return KindDeductInventory }

func (a DeductInventory) apply(s State) State {
	if !hasInventory(s, a.ItemID) || !a.Amount.IsPositive() {
		return s
	}
	s.Inventory = mapWhere(s.Inventory, inventoryID(a.ItemID), func(i domain.InventoryItem) domain.InventoryItem {
		i.Quantity = decimal.Max(decimal.Zero, i.Quantity.Sub(a.Amount))
		return i
	})
	return s
}

func inventoryID(id string) func(domain.InventoryItem) bool {
	return func(i domain.InventoryItem) bool { return i.ID == id }
}

func hasInventory(s State, id string) bool {
	for _, i := range s.Inventory {
		if i.ID == id {
			return true
		}
	}
	return false
}
