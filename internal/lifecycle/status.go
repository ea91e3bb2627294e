package lifecycle

import (
	"time"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

var forward = map[domain.OrderStatus]domain.OrderStatus{
	domain.StatusPending: domain.StatusCooking,
	domain.StatusCooking: domain.StatusReady,
	domain.StatusReady:   domain.StatusCompleted,
}

// Next returns the status that follows from in the kitchen progression.
func Next(from domain.OrderStatus) (domain.OrderStatus, bool) {
	to, ok := forward[from]
	return to, ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to domain.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == domain.StatusCancelled {
		return true
	}
	next, ok := Next(from)
	return ok && next == to
}

// Advance moves an order one step along the kitchen progression. Reaching
// COMPLETED also frees the order's table when the table still points at it.
func Advance(s pos.State, orderID string) ([]pos.Action, error) {
	o, ok := s.Order(orderID)
	if !ok {
		return nil, orderNotFound(orderID)
	}
	next, ok := Next(o.Status)
	if !ok {
		return nil, &Error{Code: ErrCodeInvalidTransition, Message: "order is " + string(o.Status) + " and cannot advance", OrderID: o.ID}
	}
	actions := []pos.Action{pos.UpdateOrderStatus{OrderID: o.ID, Status: next}}
	if next == domain.StatusCompleted {
		actions = append(actions, freeTable(s, o)...)
	}
	return actions, nil
}

// Void cancels a non-terminal order and frees its table.
func Void(s pos.State, orderID string) ([]pos.Action, error) {
	o, ok := s.Order(orderID)
	if !ok {
		return nil, orderNotFound(orderID)
	}
	if !CanTransition(o.Status, domain.StatusCancelled) {
		return nil, invalidTransition(o, domain.StatusCancelled)
	}
	actions := []pos.Action{pos.UpdateOrderStatus{OrderID: o.ID, Status: domain.StatusCancelled}}
	return append(actions, freeTable(s, o)...), nil
}

// Settle records the payment method and completes the order. Settling an
// already COMPLETED order only relabels the payment. Cancelled orders cannot
// be settled.
func Settle(s pos.State, orderID string, method domain.PaymentMethod) ([]pos.Action, error) {
	o, ok := s.Order(orderID)
	if !ok {
		return nil, orderNotFound(orderID)
	}
	if !method.Valid() {
		return nil, &Error{Code: ErrCodeInvalidPayment, Message: "unknown payment method " + string(method), OrderID: o.ID}
	}
	if o.Status == domain.StatusCancelled {
		return nil, invalidTransition(o, domain.StatusCompleted)
	}
	actions := []pos.Action{pos.UpdateOrderPayment{OrderID: o.ID, PaymentMethod: method}}
	if o.Status != domain.StatusCompleted {
		actions = append(actions, pos.UpdateOrderStatus{OrderID: o.ID, Status: domain.StatusCompleted})
	}
	return append(actions, freeTable(s, o)...), nil
}

// ReleaseTable frees a table by hand.
func ReleaseTable(s pos.State, tableID string) ([]pos.Action, error) {
	if _, ok := s.Table(tableID); !ok {
		return nil, tableNotFound(tableID)
	}
	return []pos.Action{pos.UpdateTableStatus{TableID: tableID, Status: domain.TableAvailable}}, nil
}

// ReservationWindow is how far ahead a booking marks its table RESERVED.
const ReservationWindow = time.Hour

// Reserve books a table. When the booking starts within ReservationWindow of
// now the table is also marked RESERVED.
func Reserve(s pos.State, tableID string, r domain.Reservation, now time.Time) ([]pos.Action, error) {
	if _, ok := s.Table(tableID); !ok {
		return nil, tableNotFound(tableID)
	}
	actions := []pos.Action{pos.AddReservation{TableID: tableID, Reservation: r}}
	if d := r.DateTime.Sub(now); d >= 0 && d <= ReservationWindow {
		actions = append(actions, pos.ToggleTableReservation{TableID: tableID, Reserved: true})
	}
	return actions, nil
}

// StaffLogin checks a PIN against a team member.
func StaffLogin(s pos.State, memberID, pin string) (pos.Action, error) {
	m, ok := s.TeamMember(memberID)
	if !ok {
		return nil, &Error{Code: ErrCodeMemberNotFound, Message: "team member not found: " + memberID}
	}
	if m.PIN != pin {
		return nil, &Error{Code: ErrCodeInvalidPIN, Message: "incorrect PIN"}
	}
	return pos.LoginStaff{Member: m}, nil
}

// InvoiceLabel is the label the next new order will receive.
func InvoiceLabel(settings domain.StoreSettings) string {
	return settings.InvoiceLabel()
}

// SplitInvoiceLabel is the label a split creates for its new order. It
// borrows the next label without drawing from the counter.
func SplitInvoiceLabel(settings domain.StoreSettings) string {
	return settings.InvoiceLabel() + "-S"
}

// freeTable returns the action releasing o's table, if the table still
// holds o.
func freeTable(s pos.State, o domain.Order) []pos.Action {
	if o.TableID == "" {
		return nil
	}
	t, ok := s.Table(o.TableID)
	if !ok || t.CurrentOrderID != o.ID {
		return nil
	}
	return []pos.Action{pos.UpdateTableStatus{TableID: t.ID, Status: domain.TableAvailable}}
}

func invalidTransition(o domain.Order, to domain.OrderStatus) *Error {
	return &Error{
		Code:    ErrCodeInvalidTransition,
		Message: "cannot move order from " + string(o.Status) + " to " + string(to),
		OrderID: o.ID,
	}
}
