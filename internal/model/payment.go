package model

import "strings"

// PaymentMode is the closed set of payment selections on a bill.
type PaymentMode int

const (
	PaymentInvalid PaymentMode = iota
	PaymentCash
	PaymentUPI
	PaymentCard
	PaymentPending
)

// PaymentModes lists the selectable modes in menu order (1..4).
var PaymentModes = []PaymentMode{PaymentCash, PaymentUPI, PaymentCard, PaymentPending}

func (m PaymentMode) String() string {
	switch m {
	case PaymentCash:
		return "Cash"
	case PaymentUPI:
		return "UPI"
	case PaymentCard:
		return "Card"
	case PaymentPending:
		return "Payment Pending"
	default:
		return "Invalid / Not Selected"
	}
}

// ParsePaymentMode maps a menu code ("1".."4") or a mode name to a
// PaymentMode. Anything else maps to PaymentInvalid.
func ParsePaymentMode(selection string) PaymentMode {
	s := strings.ToLower(strings.TrimSpace(selection))
	switch s {
	case "1", "cash":
		return PaymentCash
	case "2", "upi":
		return PaymentUPI
	case "3", "card":
		return PaymentCard
	case "4", "pending", "payment pending":
		return PaymentPending
	default:
		return PaymentInvalid
	}
}
