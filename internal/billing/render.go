package billing

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vijaylaxmi/flourmill/internal/model"
)

// DateLayout is the timestamp format printed on bills and records.
const DateLayout = "02-01-2006 15:04"

const (
	colItem   = 15
	colQty    = 10
	colPrice  = 10
	colLabel  = 35
	colAmount = 10
)

// DisplayName title-cases a customer or item name for printing.
func DisplayName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "N/A"
	}
	return cases.Title(language.Und).String(s)
}

// render is a pure function of the ledger state; a zero at omits the date line.
func (l *Ledger) render(customerName string, mode model.PaymentMode, at time.Time) string {
	w := l.opts.Width
	cur := l.opts.CurrencySymbol
	rate := l.opts.TaxRate
	var b strings.Builder

	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	heavy := strings.Repeat("=", w)
	light := strings.Repeat("-", w)

	line(heavy)
	line(center(l.opts.ShopName, w))
	line(heavy)
	line("Customer Name : " + DisplayName(customerName))
	if !at.IsZero() {
		line("Date          : " + at.Format(DateLayout))
	}
	line(light)
	line(padRight("Item", colItem) + " " + padRight("Qty(kg)", colQty) + " " +
		padRight("Price/kg", colPrice) + " " + "Total(" + cur + ")")
	line(light)
	for _, item := range l.lines {
		line(padRight(item.ItemName, colItem) + " " +
			padRight(money(item.QuantityKg), colQty) + " " +
			padRight(money(item.UnitPrice), colPrice) + " " +
			money(item.LineTotal))
	}
	line(light)
	line(amountRow("Subtotal", cur, l.Subtotal()))
	line(amountRow(l.opts.TaxLabel+" ("+rate.Mul(decimal.NewFromInt(100)).String()+"%)", cur, l.Tax(rate)))
	line(amountRow("Grand Total", cur, l.GrandTotal(rate)))
	line(padRight("Payment Mode", colLabel) + " " + mode.String())
	line(heavy)
	line(center("Thank you for visiting our Flour Mill!", w))
	b.WriteString(heavy)
	return b.String()
}

func amountRow(label, cur string, amount decimal.Decimal) string {
	return padRight(label, colLabel) + " " + cur + padLeft(money(amount), colAmount)
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}
