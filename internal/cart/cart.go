// Package cart holds the cart line rules and the totals pipeline.
//
// Compute is the only place totals are derived. Order placement, the
// append flow, bill printing and bill reprints all go through it, so a
// reprinted bill always agrees with the amount charged at placement.
package cart

import (
	"sort"

	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// SameModifiers reports whether a and b are the same modifier set.
// Order does not matter. Names and prices must match.
func SameModifiers(a, b []domain.Modifier) bool {
	if len(a) != len(b) {
		return false
	}
	sa := sortedModifiers(a)
	sb := sortedModifiers(b)
	for i := range sa {
		if sa[i].Name != sb[i].Name || !sa[i].Price.Equal(sb[i].Price) {
			return false
		}
	}
	return true
}

func sortedModifiers(mods []domain.Modifier) []domain.Modifier {
	out := append([]domain.Modifier(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Add merges item into lines. A line with the same menu item id and the same
// modifier set absorbs the quantity; otherwise item is appended. Notes do
// not take part in the match. The input slice is never modified.
func Add(lines []domain.CartItem, item domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, len(lines), len(lines)+1)
	copy(out, lines)
	for i := range out {
		if out[i].ItemID == item.ItemID && SameModifiers(out[i].Modifiers, item.Modifiers) {
			out[i].Quantity += item.Quantity
			return out
		}
	}
	return append(out, item)
}

// Patch is a partial line update. Nil fields are left unchanged.
type Patch struct {
	Quantity  *int               `json:"quantity,omitempty"`
	Notes     *string            `json:"notes,omitempty"`
	Modifiers *[]domain.Modifier `json:"modifiers,omitempty"`
}

// Update applies p to the line with the given cart line id, then drops any
// line whose quantity is not positive.
func Update(lines []domain.CartItem, cartItemID string, p Patch) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		if line.CartItemID == cartItemID {
			if p.Quantity != nil {
				line.Quantity = *p.Quantity
			}
			if p.Notes != nil {
				line.Notes = *p.Notes
			}
			if p.Modifiers != nil {
				line.Modifiers = append([]domain.Modifier(nil), (*p.Modifiers)...)
			}
		}
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Remove drops the line with the given cart line id.
func Remove(lines []domain.CartItem, cartItemID string) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		if line.CartItemID != cartItemID {
			out = append(out, line)
		}
	}
	return out
}

// Positive drops lines whose quantity is not positive.
func Positive(lines []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		if line.Quantity > 0 {
			out = append(out, line)
		}
	}
	return out
}

// Unprinted returns the lines that have not yet been sent to the kitchen.
func Unprinted(lines []domain.CartItem) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(lines))
	for _, line := range lines {
		if !line.IsPrinted {
			out = append(out, line)
		}
	}
	return out
}
