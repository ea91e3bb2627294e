package lifecycle

import (
	"errors"
	"fmt"
)

// Error is a rejected policy request.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	OrderID string
	TableID string
}

// ErrorCode categorizes policy errors.
type ErrorCode string

const (
	ErrCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeTableNotFound     ErrorCode = "TABLE_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeEmptyCart         ErrorCode = "EMPTY_CART"
	ErrCodeTableRequired     ErrorCode = "TABLE_REQUIRED"
	ErrCodeInvalidModifier   ErrorCode = "INVALID_MODIFIER"
	ErrCodeInvalidPIN        ErrorCode = "INVALID_PIN"
	ErrCodeMemberNotFound    ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeMenuItemNotFound  ErrorCode = "MENU_ITEM_NOT_FOUND"
	ErrCodeNothingToSplit    ErrorCode = "NOTHING_TO_SPLIT"
	ErrCodeInvalidPayment    ErrorCode = "INVALID_PAYMENT_METHOD"
	ErrCodeInvalidDiscount   ErrorCode = "INVALID_DISCOUNT"
	ErrCodeInvalidQuantity   ErrorCode = "INVALID_QUANTITY"
	ErrCodeOutOfStock        ErrorCode = "OUT_OF_STOCK"
	ErrCodeInvalidOrderType  ErrorCode = "INVALID_ORDER_TYPE"
)

func (e *Error) Error() string {
	switch {
	case e.OrderID != "":
		return fmt.Sprintf("%s: %s (order=%s)", e.Code, e.Message, e.OrderID)
	case e.TableID != "":
		return fmt.Sprintf("%s: %s (table=%s)", e.Code, e.Message, e.TableID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the policy error code of err, or "" when err is not a
// policy error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case ErrCodeOrderNotFound, ErrCodeTableNotFound, ErrCodeMemberNotFound, ErrCodeMenuItemNotFound:
		return true
	}
	return false
}

// IsInvalidTransition reports whether err rejects an order status change.
func IsInvalidTransition(err error) bool {
	return CodeOf(err) == ErrCodeInvalidTransition
}

// IsInvalidRequest reports whether err rejects malformed caller input
// such as an empty cart or an unknown modifier.
func IsInvalidRequest(err error) bool {
	switch CodeOf(err) {
	case ErrCodeEmptyCart, ErrCodeTableRequired, ErrCodeInvalidModifier, ErrCodeNothingToSplit,
		ErrCodeInvalidPayment, ErrCodeInvalidDiscount, ErrCodeInvalidQuantity, ErrCodeOutOfStock, ErrCodeInvalidOrderType:
		return true
	}
	return false
}

func IsInvalidPIN(err error) bool {
	return CodeOf(err) == ErrCodeInvalidPIN
}

func orderNotFound(id string) *Error {
	return &Error{Code: ErrCodeOrderNotFound, Message: "order not found", OrderID: id}
}

func tableNotFound(id string) *Error {
	return &Error{Code: ErrCodeTableNotFound, Message: "table not found", TableID: id}
}
