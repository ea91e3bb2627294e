package lifecycle

import (
	"time"

	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// IDGenerator hands out unique id suffixes.
type IDGenerator interface {
	Generate() string
}

// Kitchen ticket titles.
const (
	TicketNewOrder  = "KOT (NEW ORDER)"
	TicketAddOn     = "KOT (ADD-ON)"
	TicketLastAddOn = "KOT (LAST ADD-ON)"
	TicketRunning   = "KOT (RUNNING ORDER)"
)

const (
	orderIDPrefix    = "ORD-"
	cartLineIDPrefix = "CART-"
)

// Planner builds the action sequences that need fresh ids or the current
// time. Everything else in this package is a plain function of state.
type Planner struct {
	IDs IDGenerator
	Now func() time.Time
}

// NewPlanner returns a planner. A nil now uses time.Now.
func NewPlanner(ids IDGenerator, now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{IDs: ids, Now: now}
}

// PlaceRequest is a "send to kitchen" or "pay now" request for the current
// cart.
type PlaceRequest struct {
	TableID       string               `json:"tableId,omitempty"`
	Type          domain.OrderType     `json:"type,omitempty"`
	Discount      cart.Discount        `json:"discount"`
	CustomerName  string               `json:"customerName,omitempty"`
	CustomerPhone string               `json:"customerPhone,omitempty"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod,omitempty"`
}

// Placement is the outcome of PlaceOrder.
type Placement struct {
	OrderID string `json:"orderId"`

	// InvoiceNumber is the label the order carries after the actions are
	// applied.
	InvoiceNumber string `json:"invoiceNumber,omitempty"`

	// Appended is set when the cart went onto the table's running order.
	Appended bool `json:"appended"`
	Settled  bool `json:"settled"`

	// Lines are the cart lines sent to the kitchen, and Totals their bill.
	Lines  []domain.CartItem `json:"lines"`
	Totals cart.Totals       `json:"totals"`

	Ticket  string       `json:"ticket,omitempty"`
	Actions []pos.Action `json:"-"`
}

// PlaceOrder turns the cart into an order.
//
// When the request's table is OCCUPIED by an active order, the cart is
// appended to that order and its grand total added to the stored amount.
// Otherwise a PENDING order is created for the cart's grand total. Either
// way the items are stamped printed (a kitchen ticket goes out), a new order
// occupies its table and the cart is cleared.
//
// With a PaymentMethod, a running table order is settled on the spot and its
// table freed. A new order only records the payment label and stays PENDING
// so the kitchen still receives it.
func (p *Planner) PlaceOrder(s pos.State, req PlaceRequest) (Placement, error) {
	if req.Type == "" {
		req.Type = domain.OrderDineIn
	}
	if !req.Type.Valid() {
		return Placement{}, &Error{Code: ErrCodeInvalidOrderType, Message: "unknown order type " + string(req.Type)}
	}
	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return Placement{}, &Error{Code: ErrCodeInvalidPayment, Message: "unknown payment method " + string(req.PaymentMethod)}
	}
	if err := req.Discount.Validate(); err != nil {
		return Placement{}, &Error{Code: ErrCodeInvalidDiscount, Message: err.Error()}
	}

	var (
		table    domain.Table
		running  domain.Order
		appendTo bool
	)
	if req.TableID != "" {
		t, ok := s.Table(req.TableID)
		if !ok {
			return Placement{}, tableNotFound(req.TableID)
		}
		table = t
		if t.Status == domain.TableOccupied {
			running, appendTo = s.ActiveOrderForTable(t.ID)
		}
	} else if req.Type == domain.OrderDineIn {
		return Placement{}, &Error{Code: ErrCodeTableRequired, Message: "dine-in orders need a table"}
	}

	lines := cart.Positive(s.Cart)
	if len(lines) == 0 {
		if appendTo && req.PaymentMethod != "" {
			actions, err := Settle(s, running.ID, req.PaymentMethod)
			if err != nil {
				return Placement{}, err
			}
			return Placement{
				OrderID:       running.ID,
				InvoiceNumber: running.InvoiceNumber,
				Settled:       true,
				Lines:         []domain.CartItem{},
				Totals:        cart.Reconstruct(running, s.Settings),
				Actions:       append(actions, pos.ClearCart{}),
			}, nil
		}
		return Placement{}, &Error{Code: ErrCodeEmptyCart, Message: "cart is empty", TableID: req.TableID}
	}

	if appendTo {
		return p.appendRunning(s, running, table, lines, req), nil
	}
	return p.newOrder(s, table, lines, req), nil
}

func (p *Planner) appendRunning(s pos.State, running domain.Order, table domain.Table, lines []domain.CartItem, req PlaceRequest) Placement {
	totals := cart.Compute(lines, s.Settings, running.Type, req.Discount)
	pl := Placement{
		OrderID:       running.ID,
		InvoiceNumber: running.InvoiceNumber,
		Appended:      true,
		Lines:         lines,
		Totals:        totals,
		Ticket:        TicketAddOn,
		Actions: []pos.Action{
			pos.AppendToOrder{OrderID: running.ID, Items: lines, AdditionalAmount: totals.Total},
			pos.MarkItemsPrinted{OrderID: running.ID},
		},
	}
	if req.PaymentMethod != "" {
		pl.Settled = true
		pl.Ticket = TicketLastAddOn
		pl.Actions = append(pl.Actions,
			pos.UpdateOrderPayment{OrderID: running.ID, PaymentMethod: req.PaymentMethod},
			pos.UpdateOrderStatus{OrderID: running.ID, Status: domain.StatusCompleted},
			pos.UpdateTableStatus{TableID: table.ID, Status: domain.TableAvailable},
		)
	}
	pl.Actions = append(pl.Actions, pos.ClearCart{})
	return pl
}

func (p *Planner) newOrder(s pos.State, table domain.Table, lines []domain.CartItem, req PlaceRequest) Placement {
	totals := cart.Compute(lines, s.Settings, req.Type, req.Discount)
	order := domain.Order{
		ID:            p.newID(orderIDPrefix),
		TableID:       table.ID,
		Items:         lines,
		Status:        domain.StatusPending,
		Type:          req.Type,
		Timestamp:     p.Now(),
		TotalAmount:   totals.Total,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		PaymentMethod: req.PaymentMethod,
	}
	actions := []pos.Action{
		pos.AddOrder{Order: order},
		pos.MarkItemsPrinted{OrderID: order.ID},
	}
	if table.ID != "" {
		actions = append(actions, pos.UpdateTableStatus{TableID: table.ID, Status: domain.TableOccupied, OrderID: order.ID})
	}
	return Placement{
		OrderID:       order.ID,
		InvoiceNumber: InvoiceLabel(s.Settings),
		Settled:       req.PaymentMethod != "",
		Lines:         lines,
		Totals:        totals,
		Ticket:        TicketNewOrder,
		Actions:       append(actions, pos.ClearCart{}),
	}
}

// Split moves the named lines of an active order to another table.
func (p *Planner) Split(s pos.State, orderID, targetTableID string, lineIDs []string) ([]pos.Action, error) {
	o, ok := s.Order(orderID)
	if !ok {
		return nil, orderNotFound(orderID)
	}
	if o.Status.Terminal() {
		return nil, invalidTransition(o, o.Status)
	}
	if _, ok := s.Table(targetTableID); !ok {
		return nil, tableNotFound(targetTableID)
	}
	if o.TableID == targetTableID {
		return nil, &Error{Code: ErrCodeNothingToSplit, Message: "target is the order's own table", OrderID: o.ID, TableID: targetTableID}
	}
	matched := 0
	for _, it := range o.Items {
		for _, id := range lineIDs {
			if it.CartItemID == id {
				matched++
				break
			}
		}
	}
	if matched == 0 {
		return nil, &Error{Code: ErrCodeNothingToSplit, Message: "no selected line belongs to the order", OrderID: o.ID}
	}
	return []pos.Action{pos.SplitOrder{
		OrderID:       o.ID,
		TargetTableID: targetTableID,
		CartItemIDs:   append([]string(nil), lineIDs...),
		NewOrderID:    p.newID(orderIDPrefix),
		Timestamp:     p.Now(),
	}}, nil
}

// AddToCart builds a cart line for a menu item. Modifiers are named and must
// be offered by the item; their prices come from the menu.
func (p *Planner) AddToCart(item domain.MenuItem, quantity int, modifiers []string, notes string) (pos.Action, error) {
	if quantity <= 0 {
		return nil, &Error{Code: ErrCodeInvalidQuantity, Message: "quantity must be positive"}
	}
	if !item.InStock {
		return nil, &Error{Code: ErrCodeOutOfStock, Message: item.Name + " is out of stock"}
	}
	mods := make([]domain.Modifier, 0, len(modifiers))
	seen := make(map[string]bool, len(modifiers))
	for _, name := range modifiers {
		m, ok := item.FindModifier(name)
		if !ok {
			return nil, &Error{Code: ErrCodeInvalidModifier, Message: item.Name + " has no modifier " + name}
		}
		if seen[name] {
			return nil, &Error{Code: ErrCodeInvalidModifier, Message: "modifier " + name + " chosen twice"}
		}
		seen[name] = true
		mods = append(mods, m)
	}
	line := domain.CartItemFromMenu(item, p.newID(cartLineIDPrefix), quantity, mods, notes)
	return pos.AddToCart{Item: line}, nil
}

func (p *Planner) newID(prefix string) string {
	return prefix + p.IDs.Generate()
}
