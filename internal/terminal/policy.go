package terminal

import (
	"time"

	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
	"github.com/azairamail/EASYAiPOS/internal/pos"
	"github.com/azairamail/EASYAiPOS/internal/receipt"
)

const reservationIDPrefix = "RES-"

// Placed is the outcome of PlaceOrder: the placement, the kitchen ticket for
// the lines sent (empty when nothing went to the kitchen) and the state
// after the actions.
type Placed struct {
	lifecycle.Placement
	Kitchen string    `json:"kitchen,omitempty"`
	State   pos.State `json:"-"`
}

// PlaceOrder sends the cart to the kitchen, appending to the table's running
// order when there is one.
func (t *Terminal) PlaceOrder(req lifecycle.PlaceRequest) (Placed, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.engine.State()
	p, err := t.planner.PlaceOrder(s, req)
	if err != nil {
		return Placed{}, err
	}
	next := t.apply(p.Actions)

	out := Placed{Placement: p, State: next}
	if len(p.Lines) > 0 {
		orderType := req.Type
		if o, ok := next.Order(p.OrderID); ok {
			orderType = o.Type
		}
		out.Kitchen = receipt.CartKitchen(p.Lines, tableRef(next, req.TableID), orderType, p.OrderID, p.Ticket, next.Settings, t.now())
	}
	return out, nil
}

// AddToCart adds a menu item to the cart.
func (t *Terminal) AddToCart(itemID string, quantity int, modifiers []string, notes string) (pos.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.engine.State()
	item, ok := s.MenuItem(itemID)
	if !ok {
		return s, &lifecycle.Error{Code: lifecycle.ErrCodeMenuItemNotFound, Message: "menu item not found: " + itemID}
	}
	a, err := t.planner.AddToCart(item, quantity, modifiers, notes)
	if err != nil {
		return s, err
	}
	return t.engine.Dispatch(a), nil
}

// Advance moves an order one kitchen step forward.
func (t *Terminal) Advance(orderID string) (pos.State, error) {
	return t.run(func(s pos.State) ([]pos.Action, error) { return lifecycle.Advance(s, orderID) })
}

// Void cancels an order and frees its table.
func (t *Terminal) Void(orderID string) (pos.State, error) {
	return t.run(func(s pos.State) ([]pos.Action, error) { return lifecycle.Void(s, orderID) })
}

// Settle records the payment and completes an order.
func (t *Terminal) Settle(orderID string, method domain.PaymentMethod) (pos.State, error) {
	return t.run(func(s pos.State) ([]pos.Action, error) { return lifecycle.Settle(s, orderID, method) })
}

// Split moves lines of an order to another table.
func (t *Terminal) Split(orderID, targetTableID string, lineIDs []string) (pos.State, error) {
	return t.run(func(s pos.State) ([]pos.Action, error) {
		return t.planner.Split(s, orderID, targetTableID, lineIDs)
	})
}

// ReleaseTable frees a table by hand.
func (t *Terminal) ReleaseTable(tableID string) (pos.State, error) {
	return t.run(func(s pos.State) ([]pos.Action, error) { return lifecycle.ReleaseTable(s, tableID) })
}

// Reserve books a table. A reservation without an id gets one.
func (t *Terminal) Reserve(tableID string, r domain.Reservation) (pos.State, error) {
	if r.ID == "" {
		r.ID = reservationIDPrefix + t.planner.IDs.Generate()
	}
	return t.run(func(s pos.State) ([]pos.Action, error) { return lifecycle.Reserve(s, tableID, r, t.now()) })
}

// StaffLogin unlocks the terminal for a team member.
func (t *Terminal) StaffLogin(memberID, pin string) (pos.State, error) {
	return t.run(func(s pos.State) ([]pos.Action, error) {
		a, err := lifecycle.StaffLogin(s, memberID, pin)
		if err != nil {
			return nil, err
		}
		return []pos.Action{a}, nil
	})
}

// StaffLogout locks the terminal.
func (t *Terminal) StaffLogout() pos.State {
	return t.Dispatch(pos.LogoutStaff{})
}

// KitchenTicket prints the unsent lines of an order and marks them printed.
// With nothing unsent it returns the full ticket as a reprint.
func (t *Terminal) KitchenTicket(orderID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.engine.State()
	o, ok := s.Order(orderID)
	if !ok {
		return "", orderNotFound(orderID)
	}
	text, fresh := receipt.RunningKitchen(o, tableRef(s, o.TableID), s.Settings, t.now())
	if fresh {
		t.engine.Dispatch(pos.MarkItemsPrinted{OrderID: o.ID})
	}
	return text, nil
}

// Bill prints the bill of a stored order.
func (t *Terminal) Bill(orderID string) (string, error) {
	s := t.engine.State()
	o, ok := s.Order(orderID)
	if !ok {
		return "", orderNotFound(orderID)
	}
	return receipt.OrderBill(o, tableRef(s, o.TableID), s.Settings, t.now()), nil
}

// CartBill previews the bill of the current cart.
func (t *Terminal) CartBill(tableID string, orderType domain.OrderType, discount cart.Discount) (string, error) {
	if err := discount.Validate(); err != nil {
		return "", &lifecycle.Error{Code: lifecycle.ErrCodeInvalidDiscount, Message: err.Error()}
	}
	if orderType == "" {
		orderType = domain.OrderDineIn
	}
	s := t.engine.State()
	return receipt.CartBill(cart.Positive(s.Cart), tableRef(s, tableID), orderType, discount, s.Settings, t.now()), nil
}

// CartKitchen previews the kitchen ticket of the current cart.
func (t *Terminal) CartKitchen(tableID string, orderType domain.OrderType) string {
	if orderType == "" {
		orderType = domain.OrderDineIn
	}
	s := t.engine.State()
	return receipt.CartKitchen(cart.Unprinted(cart.Positive(s.Cart)), tableRef(s, tableID), orderType, "", receipt.TitlePreview, s.Settings, t.now())
}

// Now is the terminal's wall clock.
func (t *Terminal) Now() time.Time {
	return t.now()
}

func (t *Terminal) run(plan func(pos.State) ([]pos.Action, error)) (pos.State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.engine.State()
	actions, err := plan(s)
	if err != nil {
		return s, err
	}
	return t.apply(actions), nil
}

func tableRef(s pos.State, id string) *domain.Table {
	if id == "" {
		return nil
	}
	tb, ok := s.Table(id)
	if !ok {
		return nil
	}
	return &tb
}

func orderNotFound(id string) error {
	return &lifecycle.Error{Code: lifecycle.ErrCodeOrderNotFound, Message: "order not found", OrderID: id}
}
