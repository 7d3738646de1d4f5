package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/model"
)

// DefaultTaxRate is the flat GST rate applied to every bill.
var DefaultTaxRate = decimal.RequireFromString("0.05")

// Options configures how a ledger taxes and prints a bill.
type Options struct {
	ShopName       string
	TaxLabel       string
	CurrencySymbol string
	TaxRate        decimal.Decimal
	Width          int
}

// DefaultOptions returns the reference shop settings.
func DefaultOptions() Options {
	return Options{
		ShopName:       "VIJAY LAXMI FLOUR MILL",
		TaxLabel:       "GST",
		CurrencySymbol: "₹",
		TaxRate:        DefaultTaxRate,
		Width:          50,
	}
}

// OptionsFromConfig maps environment configuration onto ledger options.
func OptionsFromConfig(cfg model.BillingConfig) Options {
	opts := DefaultOptions()
	if cfg.ShopName != "" {
		opts.ShopName = cfg.ShopName
	}
	if cfg.TaxLabel != "" {
		opts.TaxLabel = cfg.TaxLabel
	}
	if cfg.CurrencySymbol != "" {
		opts.CurrencySymbol = cfg.CurrencySymbol
	}
	if cfg.TaxRate >= 0 {
		opts.TaxRate = cfg.Rate()
	}
	if cfg.Width > 0 {
		opts.Width = cfg.Width
	}
	return opts
}

// Ledger accumulates the line items of one bill. It is owned by a single
// session and is not safe for concurrent use.
type Ledger struct {
	catalog *Catalog
	opts    Options
	lines   []model.LineItem
}

func NewLedger(catalog *Catalog, opts Options) *Ledger {
	if opts.Width <= 0 {
		opts.Width = DefaultOptions().Width
	}
	return &Ledger{catalog: catalog, opts: opts}
}

// Catalog returns the price list the ledger resolves items against.
func (l *Ledger) Catalog() *Catalog {
	return l.catalog
}

// Quantity bounds. A quantity is at most MaxQuantityKg with at most
// MaxQuantityScale fractional digits (milligram precision).
const (
	MaxQuantityKg    = 10000
	MaxQuantityScale = 6
)

// maxQuantityExp is the largest exponent a coefficient >= 1 can carry
// without exceeding MaxQuantityKg.
const maxQuantityExp = 4

var maxQuantity = decimal.NewFromInt(MaxQuantityKg)

// ValidQuantity reports whether q is a positive quantity within bounds. The
// exponent is checked before any arithmetic: decimal rescaling of extreme
// exponents overflows or runs unbounded.
func ValidQuantity(q decimal.Decimal) bool {
	exp := q.Exponent()
	if exp < -MaxQuantityScale || exp > maxQuantityExp {
		return false
	}
	return q.IsPositive() && q.LessThanOrEqual(maxQuantity)
}

// ParseQuantity parses an operator-supplied quantity in kg. Only positive
// numbers within the quantity bounds are accepted.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !ValidQuantity(q) {
		return decimal.Zero, errx.InvalidQuantity(raw)
	}
	return q, nil
}

// AddLine resolves the item token, prices the quantity and appends the line.
// On error the ledger is unchanged.
func (l *Ledger) AddLine(itemToken string, quantityKg decimal.Decimal) (model.LineItem, error) {
	name, err := l.catalog.Resolve(itemToken)
	if err != nil {
		return model.LineItem{}, err
	}
	if !ValidQuantity(quantityKg) {
		return model.LineItem{}, errx.InvalidQuantity(safeQuantityText(quantityKg))
	}
	price, err := l.catalog.PriceOf(name)
	if err != nil {
		return model.LineItem{}, err
	}

	item := model.LineItem{
		ItemName:   name,
		QuantityKg: quantityKg,
		UnitPrice:  price,
		LineTotal:  quantityKg.Mul(price),
	}
	l.lines = append(l.lines, item)
	return item, nil
}

// AddEntry is AddLine for raw input strings. The item is resolved before the
// quantity is parsed.
func (l *Ledger) AddEntry(e model.OrderEntry) (model.LineItem, error) {
	if _, err := l.catalog.Resolve(e.Token); err != nil {
		return model.LineItem{}, err
	}
	q, err := ParseQuantity(e.Quantity)
	if err != nil {
		return model.LineItem{}, err
	}
	return l.AddLine(e.Token, q)
}

// Lines returns the line items in insertion order.
func (l *Ledger) Lines() []model.LineItem {
	out := make([]model.LineItem, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// TaxRate is the rate Render and Finalize apply.
func (l *Ledger) TaxRate() decimal.Decimal {
	return l.opts.TaxRate
}

// Subtotal is the sum of all line totals; zero for an empty ledger.
func (l *Ledger) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range l.lines {
		sum = sum.Add(item.LineTotal)
	}
	return sum
}

func (l *Ledger) Tax(rate decimal.Decimal) decimal.Decimal {
	return l.Subtotal().Mul(rate)
}

func (l *Ledger) GrandTotal(rate decimal.Decimal) decimal.Decimal {
	return l.Subtotal().Add(l.Tax(rate))
}

// Render produces the printable bill text. It does not mutate the ledger and
// returns identical text for identical state. Empty bills are rejected.
func (l *Ledger) Render(customerName string, mode model.PaymentMode) (string, error) {
	if l.IsEmpty() {
		return "", errx.EmptyBill()
	}
	return l.render(customerName, mode, time.Time{}), nil
}

// Finalize freezes the ledger state into an immutable Bill stamped with at.
func (l *Ledger) Finalize(customerName, phone string, mode model.PaymentMode, at time.Time) (*model.Bill, error) {
	if strings.TrimSpace(customerName) == "" {
		return nil, errx.MissingCustomer()
	}
	if l.IsEmpty() {
		return nil, errx.EmptyBill()
	}

	rate := l.opts.TaxRate
	return &model.Bill{
		ID:           uuid.NewString(),
		CustomerName: strings.TrimSpace(customerName),
		Phone:        strings.TrimSpace(phone),
		Lines:        l.Lines(),
		PaymentMode:  mode,
		CreatedAt:    at,
		TaxRate:      rate,
		Subtotal:     l.Subtotal(),
		Tax:          l.Tax(rate),
		GrandTotal:   l.GrandTotal(rate),
		Text:         l.render(customerName, mode, at),
	}, nil
}

// safeQuantityText formats a rejected quantity without expanding its exponent.
func safeQuantityText(q decimal.Decimal) string {
	return fmt.Sprintf("%se%d", q.Coefficient().String(), q.Exponent())
}
