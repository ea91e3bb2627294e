package pos

import (
	"github.com/azairamail/EASYAiPOS/internal/cart"
	"github.com/azairamail/EASYAiPOS/internal/domain"
)

// AddToCart merges a line into the cart (same item and modifier set) or
// appends it.
type AddToCart struct {
	Item domain.CartItem `json:"item"`
}

func (AddToCart) Kind() Kind { return KindAddToCart }

func (a AddToCart) apply(s State) State {
	s.Cart = cart.Add(s.Cart, a.Item)
	return s
}

// UpdateCartItem patches one cart line. A line whose quantity ends up at zero
// or below is dropped.
type UpdateCartItem struct {
	CartItemID string `json:"cartItemId"`
	cart.Patch
}

func (UpdateCartItem) Kind() Kind { return KindUpdateCartItem }

func (a UpdateCartItem) apply(s State) State {
	s.Cart = cart.Update(s.Cart, a.CartItemID, a.Patch)
	return s
}

// RemoveFromCart drops one cart line.
type RemoveFromCart struct {
	CartItemID string `json:"cartItemId"`
}

func (RemoveFromCart) Kind() Kind { return KindRemoveFromCart }

func (a RemoveFromCart) apply(s State) State {
	s.Cart = cart.Remove(s.Cart, a.CartItemID)
	return s
}

// ClearCart empties the cart.
type ClearCart struct{}

func (ClearCart) Kind() Kind { return KindClearCart }

func (ClearCart) apply(s State) State {
	s.Cart = []domain.CartItem{}
	return s
}

// SetCart replaces the cart wholesale, as on local rehydration.
type SetCart struct {
	Items []domain.CartItem `json:"items"`
}

func (SetCart) Kind() Kind { return KindSetCart }

func (a SetCart) apply(s State) State {
	s.Cart = cart.Positive(a.Items)
	return s
}
