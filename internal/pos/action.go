package pos

// Kind is the wire name of an action variant.
type Kind string

const (
	KindReplaceState      Kind = "SET_FULL_STATE"
	KindRestoreData       Kind = "RESTORE_DATA"
	KindAddOrder          Kind = "ADD_ORDER"
	KindAppendToOrder     Kind = "APPEND_TO_ORDER"
	KindMarkItemsPrinted  Kind = "MARK_ITEMS_AS_PRINTED"
	KindUpdateOrderStatus Kind = "UPDATE_ORDER_STATUS"
	KindUpdatePayment     Kind = "UPDATE_ORDER_PAYMENT"
	KindSplitOrder        Kind = "SPLIT_ORDER"
	KindUpdateTableStatus Kind = "UPDATE_TABLE_STATUS"
	KindAddTable          Kind = "ADD_TABLE"
	KindUpdateTable       Kind = "UPDATE_TABLE"
	KindDeleteTable       Kind = "DELETE_TABLE"
	KindMergeTables       Kind = "MERGE_TABLES"
	KindToggleReservation Kind = "TOGGLE_TABLE_RESERVATION"
	KindAddReservation    Kind = "ADD_RESERVATION"
	KindRemoveReservation Kind = "REMOVE_RESERVATION"
	KindAddMenuItem       Kind = "ADD_MENU_ITEM"
	KindUpdateMenuItem    Kind = "UPDATE_MENU_ITEM"
	KindDeleteMenuItem    Kind = "DELETE_MENU_ITEM"
	KindAddInventory      Kind = "ADD_INVENTORY"
	KindUpdateInventory   Kind = "UPDATE_INVENTORY"
	KindDeleteInventory   Kind = "DELETE_INVENTORY"
	KindDeductInventory   Kind = "DEDUCT_INVENTORY"
	KindAddToCart         Kind = "ADD_TO_CART"
	KindUpdateCartItem    Kind = "UPDATE_CART_ITEM"
	KindRemoveFromCart    Kind = "REMOVE_FROM_CART"
	KindClearCart         Kind = "CLEAR_CART"
	KindSetCart           Kind = "SET_CART"
	KindUpdateSettings    Kind = "UPDATE_SETTINGS"
	KindAddTeamMember     Kind = "ADD_TEAM_MEMBER"
	KindUpdateTeamMember  Kind = "UPDATE_TEAM_MEMBER"
	KindDeleteTeamMember  Kind = "DELETE_TEAM_MEMBER"
	KindLoginStaff        Kind = "LOGIN_STAFF"
	KindLogoutStaff       Kind = "LOGOUT_STAFF"
)

// Action is a state transition. The set of implementations is closed:
// apply is unexported, so only this package can declare variants.
type Action interface {
	Kind() Kind
	apply(State) State
}

// Reduce applies a to s and returns the next state. A nil action returns s.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// ReduceAll folds actions over s in order.
func ReduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// mapWhere returns a copy of xs with f applied to every element matching.
func mapWhere[T any](xs []T, match func(T) bool, f func(T) T) []T {
	out := make([]T, len(xs))
	for i, x := range xs {
		if match(x) {
			x = f(x)
		}
		out[i] = x
	}
	return out
}

// removeWhere returns a copy of xs without the elements matching.
func removeWhere[T any](xs []T, match func(T) bool) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if !match(x) {
			out = append(out, x)
		}
	}
	return out
}

// appendCopy returns a new slice holding xs followed by more.
func appendCopy[T any](xs []T, more ...T) []T {
	out := make([]T, 0, len(xs)+len(more))
	out = append(out, xs...)
	return append(out, more...)
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
