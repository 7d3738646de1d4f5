package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill is a finalized, immutable bill. It is produced once from a ledger and
// never mutated afterwards.
type Bill struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone,omitempty"`
	Lines        []LineItem      `json:"lines"`
	PaymentMode  PaymentMode     `json:"payment_mode"`
	CreatedAt    time.Time       `json:"created_at"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
	Text         string          `json:"text"`
}

// HasPhone reports whether a phone number was captured for the bill.
func (b *Bill) HasPhone() bool {
	return b.Phone != ""
}
