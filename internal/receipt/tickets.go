package receipt

import (
	"time"

	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/lifecycle"
)

// CartKitchen is the kitchen ticket for lines that have just been sent.
func CartKitchen(lines []domain.CartItem, table *domain.Table, orderType domain.OrderType, orderID, title string, settings domain.StoreSettings, at time.Time) string {
	return Render(Ticket{
		Kind:      KindKitchen,
		Title:     title,
		Items:     lines,
		Table:     table,
		OrderType: orderType,
		OrderID:   orderID,
		Settings:  settings,
		At:        at,
	})
}

// CartBill previews the bill of the current cart under the next invoice
// label.
func CartBill(lines []domain.CartItem, table *domain.Table, orderType domain.OrderType, discount cart.Discount, settings domain.StoreSettings, at time.Time) string {
	return Render(Ticket{
		Kind:          KindBill,
		Items:         lines,
		Table:         table,
		OrderType:     orderType,
		InvoiceNumber: settings.InvoiceLabel(),
		Totals:        cart.Compute(lines, settings, orderType, discount),
		NetSubtotal:   true,
		Settings:      settings,
		At:            at,
	})
}

// OrderBill reprints the bill of a stored order. The discount is read back
// from the stored total.
func OrderBill(order domain.Order, table *domain.Table, settings domain.StoreSettings, at time.Time) string {
	return Render(Ticket{
		Kind:          KindBill,
		Items:         order.Items,
		Table:         table,
		OrderType:     order.Type,
		OrderID:       order.ID,
		InvoiceNumber: order.InvoiceNumber,
		Totals:        cart.Reconstruct(order, settings),
		Settings:      settings,
		At:            at,
	})
}

// RunningKitchen prints the lines of order not yet sent to the kitchen. When
// every line has been sent it prints the full ticket as a reprint instead.
// fresh reports whether unsent lines were printed, in which case the caller
// marks them printed.
func RunningKitchen(order domain.Order, table *domain.Table, settings domain.StoreSettings, at time.Time) (text string, fresh bool) {
	var unsent []domain.CartItem
	for _, item := range order.Items {
		if !item.IsPrinted {
			unsent = append(unsent, item)
		}
	}

	t := Ticket{
		Kind:          KindKitchen,
		Table:         table,
		OrderType:     order.Type,
		OrderID:       order.ID,
		InvoiceNumber: order.InvoiceNumber,
		Settings:      settings,
		At:            at,
	}
	if len(unsent) > 0 {
		t.Title = lifecycle.TicketRunning
		t.Items = unsent
		return Render(t), true
	}
	t.Title = TitleReprint
	t.Items = order.Items
	return Render(t), false
}
