package pos

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Envelope is the wire form of an action: its kind plus a JSON payload.
// It is what the HTTP API accepts, what the CLI builds from --args and what
// the action journal stores.
type Envelope struct {
	Type    Kind            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type decodeFunc func(json.RawMessage) (Action, error)

var registry = map[Kind]decodeFunc{
	KindReplaceState:      decodeAs[ReplaceState],
	KindRestoreData:       decodeAs[RestoreData],
	KindAddOrder:          decodeAs[AddOrder],
	KindAppendToOrder:     decodeAs[AppendToOrder],
	KindMarkItemsPrinted:  decodeAs[MarkItemsPrinted],
	KindUpdateOrderStatus: decodeAs[UpdateOrderStatus],
	KindUpdatePayment:     decodeAs[UpdateOrderPayment],
	KindSplitOrder:        decodeAs[SplitOrder],
	KindUpdateTableStatus: decodeAs[UpdateTableStatus],
	KindAddTable:          decodeAs[AddTable],
	KindUpdateTable:       decodeAs[UpdateTable],
	KindDeleteTable:       decodeAs[DeleteTable],
	KindMergeTables:       decodeAs[MergeTables],
	KindToggleReservation: decodeAs[ToggleTableReservation],
	KindAddReservation:    decodeAs[AddReservation],
	KindRemoveReservation: decodeAs[RemoveReservation],
	KindAddMenuItem:       decodeAs[AddMenuItem],
	KindUpdateMenuItem:    decodeAs[UpdateMenuItem],
	KindDeleteMenuItem:    decodeAs[DeleteMenuItem],
	KindAddInventory:      decodeAs[AddInventory],
	KindUpdateInventory:   decodeAs[UpdateInventory],
	KindDeleteInventory:   decodeAs[DeleteInventory],
	KindDeductInventory:   decodeAs[DeductInventory],
	KindAddToCart:         decodeAs[AddToCart],
	KindUpdateCartItem:    decodeAs[UpdateCartItem],
	KindRemoveFromCart:    decodeAs[RemoveFromCart],
	KindClearCart:         decodeAs[ClearCart],
	KindSetCart:           decodeAs[SetCart],
	KindUpdateSettings:    decodeAs[UpdateSettings],
	KindAddTeamMember:     decodeAs[AddTeamMember],
	KindUpdateTeamMember:  decodeAs[UpdateTeamMember],
	KindDeleteTeamMember:  decodeAs[DeleteTeamMember],
	KindLoginStaff:        decodeAs[LoginStaff],
	KindLogoutStaff:       decodeAs[LogoutStaff],
}

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var a T
	if len(raw) == 0 || string(raw) == "null" {
		return a, nil
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	return a, nil
}

// Kinds lists every registered action kind in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// EncodeAction wraps a in an envelope.
func EncodeAction(a Action) (Envelope, error) {
	if a == nil {
		return Envelope{}, fmt.Errorf("encode action: nil action")
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode action %s: %w", a.Kind(), err)
	}
	return Envelope{Type: a.Kind(), Payload: payload}, nil
}

// DecodeAction turns an envelope back into a typed action.
func DecodeAction(env Envelope) (Action, error) {
	decode, ok := registry[env.Type]
	if !ok {
		return nil, fmt.Errorf("decode action: unknown type %q", env.Type)
	}
	a, err := decode(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode action %s: %w", env.Type, err)
	}
	return a, nil
}

// ParseAction decodes a kind name and a JSON payload.
func ParseAction(kind string, payload []byte) (Action, error) {
	return DecodeAction(Envelope{Type: Kind(kind), Payload: payload})
}
