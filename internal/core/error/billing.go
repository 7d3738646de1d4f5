package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Billing error kinds. All of them are recoverable: the caller asks the
// operator again and the ledger is left unchanged.
var (
	ErrUnknownItem     = errors.New("unknown item")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyBill       = errors.New("empty bill")
	ErrMissingCustomer = errors.New("missing customer name")
)

// UnknownItem reports a token that matches neither a display index nor a catalog name.
func UnknownItem(token string) *AppError {
	return New(fmt.Errorf("%w: %q", ErrUnknownItem, token), http.StatusUnprocessableEntity,
		"Invalid product number or name")
}

// InvalidQuantity reports a quantity that is not a positive finite number.
func InvalidQuantity(raw string) *AppError {
	return New(fmt.Errorf("%w: %q", ErrInvalidQuantity, raw), http.StatusUnprocessableEntity,
		"Enter a valid quantity (positive number of kg)")
}

// EmptyBill reports an attempt to render a bill without line items.
func EmptyBill() *AppError {
	return New(ErrEmptyBill, http.StatusUnprocessableEntity, "Please add items to the bill")
}

// MissingCustomer reports an attempt to finalize a bill without a customer name.
func MissingCustomer() *AppError {
	return New(ErrMissingCustomer, http.StatusUnprocessableEntity, "Please enter customer name")
}

// IsRecoverable reports whether err is an input error the operator can fix by
// answering again.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrEmptyBill) ||
		errors.Is(err, ErrMissingCustomer)
}
