package pos

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// AddOrder records a new order. The reducer assigns the invoice label from
// the settings counter, bumps the counter by one, marks every item unprinted
// and puts the order first.
type AddOrder struct {
	Order domain.Order `json:"order"`
}

func (AddOrder) Kind() Kind { return KindAddOrder }

func (a AddOrder) apply(s State) State {
	o := a.Order
	o.InvoiceNumber = s.Settings.InvoiceLabel()
	o.Items = withPrinted(o.Items, false)
	s.Orders = appendCopy([]domain.Order{o}, s.Orders...)
	s.Settings.InvoiceStartingNumber++
	return s
}

// AppendToOrder adds unprinted items to an existing order. The caller prices
// the new items; the reducer adds AdditionalAmount to the stored total as is.
// A READY order goes back to COOKING.
type AppendToOrder struct {
	OrderID          string            `json:"orderId"`
	Items            []domain.CartItem `json:"newItems"`
	AdditionalAmount decimal.Decimal   `json:"additionalAmount"`
}

func (AppendToOrder) Kind() Kind { return KindAppendToOrder }

func (a AppendToOrder) apply(s State) State {
	if _, ok := s.Order(a.OrderID); !ok {
		return s
	}
	s.Orders = mapWhere(s.Orders, orderID(a.OrderID), func(o domain.Order) domain.Order {
		o.Items = appendCopy(o.Items, withPrinted(a.Items, false)...)
		o.TotalAmount = o.TotalAmount.Add(a.AdditionalAmount)
		if o.Status == domain.StatusReady {
			o.Status = domain.StatusCooking
		}
		return o
	})
	return s
}

// MarkItemsPrinted stamps every item of one order as sent to the kitchen.
type MarkItemsPrinted struct {
	OrderID string `json:"orderId"`
}

func (MarkItemsPrinted) Kind() Kind { return KindMarkItemsPrinted }

func (a MarkItemsPrinted) apply(s State) State {
	if _, ok := s.Order(a.OrderID); !ok {
		return s
	}
	s.Orders = mapWhere(s.Orders, orderID(a.OrderID), func(o domain.Order) domain.Order {
		o.Items = withPrinted(o.Items, true)
		return o
	})
	return s
}

// UpdateOrderStatus sets an order's status. No transition check is made here.
type UpdateOrderStatus struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

func (UpdateOrderStatus) Kind() Kind { return KindUpdateOrderStatus }

func (a UpdateOrderStatus) apply(s State) State {
	if _, ok := s.Order(a.OrderID); !ok {
		return s
	}
	s.Orders = mapWhere(s.Orders, orderID(a.OrderID), func(o domain.Order) domain.Order {
		o.Status = a.Status
		return o
	})
	return s
}

// UpdateOrderPayment records the payment label of an order.
type UpdateOrderPayment struct {
	OrderID       string               `json:"orderId"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

func (UpdateOrderPayment) Kind() Kind { return KindUpdatePayment }

func (a UpdateOrderPayment) apply(s State) State {
	if _, ok := s.Order(a.OrderID); !ok {
		return s
	}
	s.Orders = mapWhere(s.Orders, orderID(a.OrderID), func(o domain.Order) domain.Order {
		o.PaymentMethod = a.PaymentMethod
		return o
	})
	return s
}

// SplitOrder moves the lines named by CartItemIDs from an order to the
// target table.
//
// Both sides are re-totalled from their items. When the target table already
// has an active order the lines are appended to it; otherwise a COOKING
// DINE_IN order is created with id NewOrderID, stamped Timestamp and labelled
// with the current invoice label plus "-S" (the counter does not move).
// A source order left empty is COMPLETED and its table freed.
//
// Nothing happens when the order is missing, no line matches, or the target
// is the order's own table.
type SplitOrder struct {
	OrderID       string    `json:"originalOrderId"`
	TargetTableID string    `json:"targetTableId"`
	CartItemIDs   []string  `json:"cartItemIds"`
	NewOrderID    string    `json:"newOrderId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (SplitOrder) Kind() Kind { return KindSplitOrder }

func (a SplitOrder) apply(s State) State {
	src, ok := s.Order(a.OrderID)
	if !ok || (src.TableID != "" && src.TableID == a.TargetTableID) {
		return s
	}

	var kept, moved []domain.CartItem
	for _, item := range src.Items {
		if contains(a.CartItemIDs, item.CartItemID) {
			moved = append(moved, item)
		} else {
			kept = append(kept, item)
		}
	}
	if len(moved) == 0 {
		return s
	}

	source := src
	source.Items = orEmpty(kept)
	source.TotalAmount = cart.Subtotal(kept)
	if len(kept) == 0 {
		source.Status = domain.StatusCompleted
	}

	target, existing := s.ActiveOrderForTable(a.TargetTableID)
	if existing && target.ID == src.ID {
		return s
	}
	if existing {
		target.Items = appendCopy(target.Items, moved...)
		target.TotalAmount = cart.Subtotal(target.Items)
	} else {
		id := a.NewOrderID
		if id == "" {
			id = src.ID + "-S"
		}
		target = domain.Order{
			ID:            id,
			InvoiceNumber: s.Settings.InvoiceLabel() + "-S",
			TableID:       a.TargetTableID,
			Items:         moved,
			Status:        domain.StatusCooking,
			Type:          domain.OrderDineIn,
			Timestamp:     a.Timestamp,
			TotalAmount:   cart.Subtotal(moved),
		}
	}

	orders := make([]domain.Order, 0, len(s.Orders)+1)
	if !existing {
		orders = append(orders, target)
	}
	for _, o := range s.Orders {
		switch {
		case o.ID == source.ID:
			o = source
		case existing && o.ID == target.ID:
			o = target
		}
		orders = append(orders, o)
	}
	s.Orders = orders

	s.Tables = mapWhere(s.Tables,
		func(t domain.Table) bool {
			return t.ID == a.TargetTableID || (len(kept) == 0 && t.ID == src.TableID)
		},
		func(t domain.Table) domain.Table {
			if t.ID == a.TargetTableID {
				t.Status = domain.TableOccupied
				t.CurrentOrderID = target.ID
				return t
			}
			t.Status = domain.TableAvailable
			t.CurrentOrderID = ""
			return t
		})
	return s
}

func orderID(id string) func(domain.Order) bool {
	return func(o domain.Order) bool { return o.ID == id }
}

func withPrinted(items []domain.CartItem, printed bool) []domain.CartItem {
	out := make([]domain.CartItem, len(items))
	for i, item := range items {
		item.IsPrinted = printed
		out[i] = item
	}
	return out
}
