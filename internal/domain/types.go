package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the kitchen/settlement status of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusCooking   OrderStatus = "COOKING"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCooking, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// OrderType is how the order is served.
type OrderType string

const (
	OrderDineIn   OrderType = "DINE_IN"
	OrderTakeAway OrderType = "TAKE_AWAY"
	OrderDelivery OrderType = "DELIVERY"
)

// Valid reports whether t is a known order type.
func (t OrderType) Valid() bool {
	switch t {
	case OrderDineIn, OrderTakeAway, OrderDelivery:
		return true
	}
	return false
}

// PaymentMethod is a label recorded at settlement. The empty value means unpaid.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "CASH"
	PaymentCard  PaymentMethod = "CARD"
	PaymentBkash PaymentMethod = "BKASH"
	PaymentNagad PaymentMethod = "NAGAD"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentBkash, PaymentNagad:
		return true
	}
	return false
}

// TableStatus is the occupancy of a table.
type TableStatus string

const (
	TableAvailable TableStatus = "AVAILABLE"
	TableOccupied  TableStatus = "OCCUPIED"
	TableReserved  TableStatus = "RESERVED"
)

// Valid reports whether s is a known table status.
func (s TableStatus) Valid() bool {
	switch s {
	case TableAvailable, TableOccupied, TableReserved:
		return true
	}
	return false
}

// Role is a staff role.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleCashier Role = "CASHIER"
	RoleKitchen Role = "KITCHEN"
	RoleWaiter  Role = "WAITER"
)

// Modifier is an add-on selectable for a menu item.
// Names are unique within a modifier set.
type Modifier struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is a sellable item.
type MenuItem struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Price              decimal.Decimal `json:"price"`
	Description        string          `json:"description,omitempty"`
	Image              string          `json:"image,omitempty"`
	InStock            bool            `json:"inStock"`
	Quantity           *int            `json:"quantity,omitempty"`
	AvailableModifiers []Modifier      `json:"availableModifiers,omitempty"`
}

// FindModifier returns the modifier offered under name.
func (m MenuItem) FindModifier(name string) (Modifier, bool) {
	for _, mod := range m.AvailableModifiers {
		if mod.Name == name {
			return mod, true
		}
	}
	return Modifier{}, false
}

// CartItem is a line in the cart or in an order. It carries its own copy of
// the menu item's name, category and price, so later menu edits never change
// an existing line.
type CartItem struct {
	CartItemID string          `json:"cartItemId"`
	ItemID     string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	Modifiers  []Modifier      `json:"modifiers,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	IsPrinted  bool            `json:"isPrinted,omitempty"`
}

// CartItemFromMenu snapshots a menu item into a new line.
func CartItemFromMenu(item MenuItem, lineID string, quantity int, modifiers []Modifier, notes string) CartItem {
	var mods []Modifier
	if len(modifiers) > 0 {
		mods = append([]Modifier(nil), modifiers...)
	}
	return CartItem{
		CartItemID: lineID,
		ItemID:     item.ID,
		Name:       item.Name,
		Category:   item.Category,
		Price:      item.Price,
		Quantity:   quantity,
		Modifiers:  mods,
		Notes:      notes,
	}
}

// Order is a placed order.
type Order struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber,omitempty"`
	TableID       string          `json:"tableId,omitempty"`
	Items         []CartItem      `json:"items"`
	Status        OrderStatus     `json:"status"`
	Type          OrderType       `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	CustomerName  string          `json:"customerName,omitempty"`
	CustomerPhone string          `json:"customerPhone,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
}

// IsPaid reports whether a payment label has been recorded.
func (o Order) IsPaid() bool {
	return o.PaymentMethod != ""
}

// IsActive reports whether the order can still change status.
func (o Order) IsActive() bool {
	return !o.Status.Terminal()
}

// Reservation is a booking attached to a table.
type Reservation struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	DateTime      time.Time `json:"dateTime"`
	Guests        int       `json:"guests"`
}

// Table is a dining table. A table with MergedInto set is a merge child and
// shares the parent's active order.
type Table struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Status         TableStatus   `json:"status"`
	CurrentOrderID string        `json:"currentOrderId,omitempty"`
	MergedInto     string        `json:"mergedInto,omitempty"`
	Reservations   []Reservation `json:"reservations,omitempty"`
}

// IsMergeChild reports whether the table is merged into another table.
func (t Table) IsMergeChild() bool {
	return t.MergedInto != ""
}

// InventoryItem is a stock-tracked ingredient or supply.
type InventoryItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	Threshold decimal.Decimal `json:"threshold"`
}

// LowStock reports whether quantity has fallen to the alert threshold.
func (i InventoryItem) LowStock() bool {
	return i.Quantity.LessThanOrEqual(i.Threshold)
}

// TeamMember is a staff account that can unlock the terminal with a PIN.
type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	PIN   string `json:"pin"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// DefaultAdmin is seeded when an account has no team members.
func DefaultAdmin() TeamMember {
	return TeamMember{
		ID:   "ADMIN-001",
		Name: "Admin",
		Role: RoleAdmin,
		PIN:  "1234",
	}
}
