package harness

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// AssertionError describes one assertion that did not hold.
type AssertionError struct {
	Index     int
	Assertion Assertion
	Message   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion[%d] %s: %s", e.Index, e.Assertion.Type, e.Message)
}

// EvaluateAssertions checks every assertion against state and returns the
// failures as messages.
func EvaluateAssertions(state pos.State, assertions []Assertion, refs map[string]string) []string {
	var out []string
	for i, a := range assertions {
		if err := evaluate(state, i, a, refs); err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

func evaluate(state pos.State, index int, a Assertion, refs map[string]string) error {
	fail := func(format string, args ...any) error {
		return &AssertionError{Index: index, Assertion: a, Message: fmt.Sprintf(format, args...)}
	}

	orderID, err := resolveRef(a.Order, refs)
	if err != nil {
		return fail("%v", err)
	}
	tableID, err := resolveRef(a.Table, refs)
	if err != nil {
		return fail("%v", err)
	}

	switch a.Type {
	case AssertOrderCount:
		if got := len(state.Orders); got != *a.Count {
			return fail("expected %d orders, got %d", *a.Count, got)
		}

	case AssertCartLines:
		if got := len(state.Cart); got != *a.Count {
			return fail("expected %d cart lines, got %d", *a.Count, got)
		}

	case AssertInvoiceCounter:
		if got := state.Settings.InvoiceStartingNumber; got != *a.Value {
			return fail("expected next invoice number %d, got %d", *a.Value, got)
		}

	case AssertOrderStatus, AssertOrderTotal, AssertOrderItems:
		o, ok := state.Order(orderID)
		if !ok {
			return fail("order %s not found", orderID)
		}
		switch a.Type {
		case AssertOrderStatus:
			if string(o.Status) != a.Status {
				return fail("order %s: expected status %s, got %s", orderID, a.Status, o.Status)
			}
		case AssertOrderTotal:
			want, err := decimal.NewFromString(a.Total)
			if err != nil {
				return fail("bad total %q: %v", a.Total, err)
			}
			if !o.TotalAmount.Equal(want) {
				return fail("order %s: expected total %s, got %s", orderID, want.StringFixed(2), o.TotalAmount.StringFixed(2))
			}
		case AssertOrderItems:
			if got := len(o.Items); got != *a.Count {
				return fail("order %s: expected %d lines, got %d", orderID, *a.Count, got)
			}
		}

	case AssertTableStatus:
		t, ok := state.Table(tableID)
		if !ok {
			return fail("table %s not found", tableID)
		}
		if a.Status != "" && string(t.Status) != a.Status {
			return fail("table %s: expected status %s, got %s", tableID, a.Status, t.Status)
		}
		if a.CurrentOrder != nil {
			want, err := resolveRef(*a.CurrentOrder, refs)
			if err != nil {
				return fail("%v", err)
			}
			if t.CurrentOrderID != want {
				return fail("table %s: expected current order %q, got %q", tableID, want, t.CurrentOrderID)
			}
		}
		if a.MergedInto != nil {
			want, err := resolveRef(*a.MergedInto, refs)
			if err != nil {
				return fail("%v", err)
			}
			if t.MergedInto != want {
				return fail("table %s: expected merged into %q, got %q", tableID, want, t.MergedInto)
			}
		}

	default:
		return fail("unknown assertion type")
	}
	return nil
}
