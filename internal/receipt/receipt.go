// Package receipt renders 32-column thermal printer text for kitchen
// tickets (KOT) and customer bills.
package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// Width is the printer line width in characters.
const Width = 32

// DateLayout renders e.g. "01/03/2024, 6:45:00 pm".
const DateLayout = "02/01/2006, 3:04:05 pm"

type Kind string

const (
	KindKitchen Kind = "KOT"
	KindBill    Kind = "BILL"
)

// Kitchen ticket titles used outside order placement.
const (
	TitlePreview = "KOT (PREVIEW)"
	TitleReprint = "KOT (DUPLICATE / REPRINT)"
)

// Ticket is everything a printout shows.
type Ticket struct {
	Kind Kind
	// Title replaces the settings header when set.
	Title         string
	Items         []domain.CartItem
	Table         *domain.Table
	OrderType     domain.OrderType
	OrderID       string
	InvoiceNumber string
	Totals        cart.Totals
	// NetSubtotal prints the discounted subtotal on the Subtotal line, as
	// the cart preview does. Reprints show the gross subtotal.
	NetSubtotal bool
	Settings    domain.StoreSettings
	At          time.Time
}

var rule = strings.Repeat("-", Width)

// Render lays t out as printer text. Every line ends with a newline.
func Render(t Ticket) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", center(t.title()))
	if t.Kind == KindBill {
		line("%s", center(t.Settings.StoreName))
		if t.Settings.Address != "" {
			line("%s", center(t.Settings.Address))
		}
		if t.Settings.Phone != "" {
			line("%s", center(t.Settings.Phone))
		}
	}
	line("%s", rule)

	line("Date: %s", t.At.Format(DateLayout))
	switch {
	case t.InvoiceNumber != "":
		line("Invoice: #%s", t.InvoiceNumber)
	case t.OrderID != "":
		line("Order: #%s", ShortID(t.OrderID))
	default:
		line("Order: [New]")
	}
	line("Type: %s", t.OrderType)
	if t.Table != nil {
		line("Table: %s", t.Table.Name)
	}
	line("%s", rule)

	if t.Kind == KindKitchen {
		for _, item := range t.Items {
			line("%d x %s", item.Quantity, item.Name)
			if len(item.Modifiers) > 0 {
				names := make([]string, len(item.Modifiers))
				for i, m := range item.Modifiers {
					names[i] = m.Name
				}
				line("   [%s]", strings.Join(names, ", "))
			}
			if item.Notes != "" {
				line("   Note: %s", item.Notes)
			}
		}
	} else {
		line("Qty Item             Price")
		for _, item := range t.Items {
			qty := padRight(fmt.Sprint(item.Quantity), 3)
			name := padRight(truncate(item.Name, 16), 16)
			line("%s %s %s", qty, name, padLeft(money(cart.LineTotal(item)), 8))
		}
		line("%s", rule)

		s := t.Settings
		subtotal := t.Totals.Subtotal
		if t.NetSubtotal {
			subtotal = t.Totals.NetSubtotal
		}
		line("Subtotal:    %s", padLeft(money(subtotal), 10))
		if t.Totals.Discount.IsPositive() {
			line("Discount:   -%s", padLeft(money(t.Totals.Discount), 10))
		}
		if s.VATEnabled {
			line("VAT (%s%%):    %s", s.VATRate, padLeft(money(t.Totals.Tax), 10))
		}
		if s.ServiceChargeEnabled && t.Totals.ServiceCharge.IsPositive() {
			line("S.Charge (%s%%):%s", s.ServiceChargeRate, padLeft(money(t.Totals.ServiceCharge), 10))
		}
		line("%s", rule)
		line("TOTAL:       %s%s", s.CurrencySymbol, padLeft(money(t.Totals.Total), 9))
	}

	line("%s", rule)
	if t.Kind == KindBill {
		footer := t.Settings.InvoiceFooter
		if footer == "" {
			footer = "Thank You!"
		}
		line("%s", center(footer))
	}
	return b.String()
}

func (t Ticket) title() string {
	if t.Title != "" {
		return t.Title
	}
	if t.Settings.InvoiceHeader != "" {
		return t.Settings.InvoiceHeader
	}
	if t.Kind == KindKitchen {
		return "KITCHEN TICKET"
	}
	return "POS"
}

// ShortID is the last six characters of id, upper-cased.
func ShortID(id string) string {
	r := []rune(id)
	if len(r) > 6 {
		r = r[len(r)-6:]
	}
	return strings.ToUpper(string(r))
}

func center(s string) string {
	pad := (Width - utf8.RuneCountInString(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func padRight(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

func padLeft(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return strings.Repeat(" ", n-c) + s
	}
	return s
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
