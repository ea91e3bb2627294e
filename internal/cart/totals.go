package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// DiscountMode selects how Discount.Value is read.
type DiscountMode string

const (
	DiscountPercent DiscountMode = "PERCENT"
	DiscountFixed   DiscountMode = "FIXED"
)

// Discount is an order-level discount. The zero value is no discount.
type Discount struct {
	Mode  DiscountMode    `json:"mode"`
	Value decimal.Decimal `json:"value"`
}

// Validate rejects unknown modes and negative values.
func (d Discount) Validate() error {
	switch d.Mode {
	case "", DiscountPercent, DiscountFixed:
	default:
		return fmt.Errorf("unknown discount mode %q", d.Mode)
	}
	if d.Value.IsNegative() {
		return fmt.Errorf("discount must not be negative: %s", d.Value)
	}
	return nil
}

// Totals is the full breakdown of a bill. Every amount is rounded to cents.
type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	NetSubtotal   decimal.Decimal `json:"netSubtotal"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Total         decimal.Decimal `json:"total"`
}

var hundred = decimal.NewFromInt(100)

func cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal is (price + sum of modifier prices) x quantity.
func LineTotal(item domain.CartItem) decimal.Decimal {
	unit := item.Price
	for _, m := range item.Modifiers {
		unit = unit.Add(m.Price)
	}
	return unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Subtotal sums the line totals.
func Subtotal(lines []domain.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(LineTotal(line))
	}
	return sum
}

// Compute runs the totals pipeline:
//
//	subtotal      = sum of line totals
//	discount      = subtotal x pct / 100, or the fixed amount; clamped to subtotal
//	netSubtotal   = subtotal - discount
//	tax           = netSubtotal x vatRate / 100 when VAT is enabled
//	serviceCharge = netSubtotal x serviceRate / 100 when enabled and DINE_IN
//	total         = netSubtotal + tax + serviceCharge
func Compute(lines []domain.CartItem, settings domain.StoreSettings, orderType domain.OrderType, discount Discount) Totals {
	subtotal := cents(Subtotal(lines))

	off := decimal.Zero
	switch discount.Mode {
	case DiscountPercent:
		off = subtotal.Mul(discount.Value).Div(hundred)
	case DiscountFixed:
		off = discount.Value
	}
	if off.IsNegative() {
		off = decimal.Zero
	}
	off = cents(off)
	if off.GreaterThan(subtotal) {
		off = subtotal
	}
	net := subtotal.Sub(off)

	tax := decimal.Zero
	if settings.VATEnabled {
		tax = cents(net.Mul(settings.VATRate).Div(hundred))
	}
	service := decimal.Zero
	if settings.ServiceChargeEnabled && orderType == domain.OrderDineIn {
		service = cents(net.Mul(settings.ServiceChargeRate).Div(hundred))
	}

	return Totals{
		Subtotal:      subtotal,
		Discount:      off,
		NetSubtotal:   net,
		Tax:           tax,
		ServiceCharge: service,
		Total:         net.Add(tax).Add(service),
	}
}

// reprintTolerance is how far below the undiscounted gross a stored total
// may sit before the difference is read as a discount.
var reprintTolerance = decimal.RequireFromString("0.10")

// Reconstruct rebuilds the breakdown of a stored order for a bill reprint.
//
// Orders keep only their final total. When that total is more than
// reprintTolerance below what the items would cost without a discount, the
// gap is read back as a fixed discount on the subtotal. The stored total
// stays authoritative.
func Reconstruct(order domain.Order, settings domain.StoreSettings) Totals {
	gross := Compute(order.Items, settings, order.Type, Discount{})
	if !order.TotalAmount.Add(reprintTolerance).LessThan(gross.Total) {
		gross.Total = order.TotalAmount
		return gross
	}

	rate := decimal.Zero
	if settings.VATEnabled {
		rate = rate.Add(settings.VATRate)
	}
	if settings.ServiceChargeEnabled && order.Type == domain.OrderDineIn {
		rate = rate.Add(settings.ServiceChargeRate)
	}
	factor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	net := order.TotalAmount.DivRound(factor, 4)
	off := gross.Subtotal.Sub(net)

	t := Compute(order.Items, settings, order.Type, Discount{Mode: DiscountFixed, Value: off})
	t.Total = order.TotalAmount
	return t
}
