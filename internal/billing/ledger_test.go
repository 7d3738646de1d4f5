package billing

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/model"
)

func newTestLedger() *Ledger {
	return NewLedger(MustNewCatalog(referenceEntries()), DefaultOptions())
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_WheatAndRiceScenario(t *testing.T) {
	l := NewLedger(MustNewCatalog([]model.CatalogEntry{
		{Name: "wheat", Price: dec("3.0")},
		{Name: "rice", Price: dec("4.0")},
	}), DefaultOptions())

	wheat, err := l.AddLine("wheat", dec("2"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !wheat.LineTotal.Equal(dec("6.0")) {
		t.Errorf("expected wheat line total 6.0, got %s", wheat.LineTotal)
	}

	rice, err := l.AddLine("rice", dec("1.5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rice.LineTotal.Equal(dec("6.0")) {
		t.Errorf("expected rice line total 6.0, got %s", rice.LineTotal)
	}

	if !l.Subtotal().Equal(dec("12.0")) {
		t.Errorf("expected subtotal 12.0, got %s", l.Subtotal())
	}
	if !l.Tax(dec("0.05")).Equal(dec("0.6")) {
		t.Errorf("expected tax 0.6, got %s", l.Tax(dec("0.05")))
	}
	if !l.GrandTotal(dec("0.05")).Equal(dec("12.6")) {
		t.Errorf("expected grand total 12.6, got %s", l.GrandTotal(dec("0.05")))
	}
}

func TestLedger_EmptyTotalsAreZero(t *testing.T) {
	l := newTestLedger()

	if !l.Subtotal().IsZero() || !l.Tax(DefaultTaxRate).IsZero() || !l.GrandTotal(DefaultTaxRate).IsZero() {
		t.Errorf("expected zero totals, got %s %s %s", l.Subtotal(), l.Tax(DefaultTaxRate), l.GrandTotal(DefaultTaxRate))
	}
}

func TestLedger_EmptyBillIsRejected(t *testing.T) {
	l := newTestLedger()

	if _, err := l.Render("Ramesh", model.PaymentCash); !errors.Is(err, errx.ErrEmptyBill) {
		t.Errorf("expected ErrEmptyBill from Render, got %v", err)
	}
	if _, err := l.Finalize("Ramesh", "", model.PaymentCash, time.Now()); !errors.Is(err, errx.ErrEmptyBill) {
		t.Errorf("expected ErrEmptyBill from Finalize, got %v", err)
	}
}

func TestLedger_AddLineInvalidQuantity(t *testing.T) {
	l := newTestLedger()

	for _, q := range []decimal.Decimal{
		dec("0"), dec("-1"), dec("-0.5"), dec("10001"),
		decimal.New(1, -2147483648),
		decimal.New(1, 50000000),
		decimal.New(15, -7),
	} {
		if _, err := l.AddLine("wheat", q); !errors.Is(err, errx.ErrInvalidQuantity) {
			t.Errorf("AddLine(%se%d): expected ErrInvalidQuantity, got %v", q.Coefficient(), q.Exponent(), err)
		}
	}
	if l.Len() != 0 {
		t.Errorf("expected ledger unchanged, got %d lines", l.Len())
	}
}

func TestValidQuantity(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, q := range []decimal.Decimal{
			decimal.New(1, -2147483648),
			decimal.New(1, 2147483647),
			decimal.New(-1, 2147483647),
		} {
			if ValidQuantity(q) {
				t.Errorf("ValidQuantity(%se%d) = true", q.Coefficient(), q.Exponent())
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ValidQuantity did not return for extreme exponents")
	}
}

func TestLedger_AddEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   model.OrderEntry
		wantErr error
	}{
		{"index and decimal", model.OrderEntry{Token: "2", Quantity: "1.5"}, nil},
		{"name with spaces", model.OrderEntry{Token: " Besan ", Quantity: " 3 "}, nil},
		{"negative", model.OrderEntry{Token: "wheat", Quantity: "-1"}, errx.ErrInvalidQuantity},
		{"zero", model.OrderEntry{Token: "wheat", Quantity: "0"}, errx.ErrInvalidQuantity},
		{"not a number", model.OrderEntry{Token: "wheat", Quantity: "abc"}, errx.ErrInvalidQuantity},
		{"empty quantity", model.OrderEntry{Token: "wheat", Quantity: ""}, errx.ErrInvalidQuantity},
		{"nan", model.OrderEntry{Token: "wheat", Quantity: "NaN"}, errx.ErrInvalidQuantity},
		{"infinity", model.OrderEntry{Token: "wheat", Quantity: "Inf"}, errx.ErrInvalidQuantity},
		{"tiny exponent", model.OrderEntry{Token: "wheat", Quantity: "1e-2147483648"}, errx.ErrInvalidQuantity},
		{"huge exponent", model.OrderEntry{Token: "wheat", Quantity: "1e2000000000"}, errx.ErrInvalidQuantity},
		{"large exponent", model.OrderEntry{Token: "wheat", Quantity: "1e50000000"}, errx.ErrInvalidQuantity},
		{"above maximum", model.OrderEntry{Token: "wheat", Quantity: "10000.5"}, errx.ErrInvalidQuantity},
		{"too many fractional digits", model.OrderEntry{Token: "wheat", Quantity: "0.0000001"}, errx.ErrInvalidQuantity},
		{"maximum", model.OrderEntry{Token: "wheat", Quantity: "10000"}, nil},
		{"maximum in exponent form", model.OrderEntry{Token: "wheat", Quantity: "1e4"}, nil},
		{"finest fraction", model.OrderEntry{Token: "wheat", Quantity: "0.000001"}, nil},
		{"out of range index", model.OrderEntry{Token: "99", Quantity: "1"}, errx.ErrUnknownItem},
		{"unknown item checked first", model.OrderEntry{Token: "sugar", Quantity: "abc"}, errx.ErrUnknownItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger()
			_, err := l.AddEntry(tt.entry)

			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if l.Len() != 1 {
					t.Errorf("expected 1 line, got %d", l.Len())
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if l.Len() != 0 {
				t.Errorf("expected ledger unchanged, got %d lines", l.Len())
			}
		})
	}
}

func TestLedger_IndexAndNameGiveSamePrice(t *testing.T) {
	c := MustNewCatalog(referenceEntries())

	for i, e := range c.Entries() {
		l := NewLedger(c, DefaultOptions())
		byIndex, err := l.AddLine(string(rune('1'+i)), dec("1"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		byName, err := l.AddLine(strings.ToUpper(e.Name), dec("1"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !byIndex.UnitPrice.Equal(byName.UnitPrice) {
			t.Errorf("%s: index price %s != name price %s", e.Name, byIndex.UnitPrice, byName.UnitPrice)
		}
	}
}

func TestLedger_SubtotalMatchesSumOfLines(t *testing.T) {
	c := MustNewCatalog(referenceEntries())
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		l := NewLedger(c, DefaultOptions())
		want := decimal.Zero
		for n := rng.Intn(10); n > 0; n-- {
			entry := c.Entries()[rng.Intn(c.Len())]
			qty := decimal.New(int64(rng.Intn(5000)+1), -2)
			if _, err := l.AddLine(entry.Name, qty); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want = want.Add(qty.Mul(entry.Price))
		}

		if !l.Subtotal().Equal(want) {
			t.Fatalf("round %d: subtotal %s, want %s", round, l.Subtotal(), want)
		}
		rate := dec("0.05")
		if !l.Tax(rate).Equal(l.Subtotal().Mul(rate)) {
			t.Fatalf("round %d: tax mismatch", round)
		}
		if !l.GrandTotal(rate).Equal(l.Subtotal().Add(l.Tax(rate))) {
			t.Fatalf("round %d: grand total mismatch", round)
		}
	}
}

func TestLedger_LinesIsACopy(t *testing.T) {
	l := newTestLedger()
	if _, err := l.AddLine("wheat", dec("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := l.Lines()
	lines[0].ItemName = "Changed"

	if l.Lines()[0].ItemName != "Wheat" {
		t.Error("expected ledger lines to be unaffected by caller mutation")
	}
}

func TestLedger_Finalize(t *testing.T) {
	l := newTestLedger()
	if _, err := l.AddLine("1", dec("2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	at := time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC)

	bill, err := l.Finalize(" ramesh kumar ", " 9876543210 ", model.PaymentUPI, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bill.ID == "" {
		t.Error("expected bill ID")
	}
	if bill.CustomerName != "ramesh kumar" || bill.Phone != "9876543210" {
		t.Errorf("unexpected customer fields %q %q", bill.CustomerName, bill.Phone)
	}
	if !bill.Subtotal.Equal(dec("6")) || !bill.Tax.Equal(dec("0.3")) || !bill.GrandTotal.Equal(dec("6.3")) {
		t.Errorf("unexpected totals %s %s %s", bill.Subtotal, bill.Tax, bill.GrandTotal)
	}
	if !strings.Contains(bill.Text, "Date          : 18-10-2026 15:04") {
		t.Errorf("expected date line in bill text:\n%s", bill.Text)
	}
	if !strings.Contains(bill.Text, "Ramesh Kumar") {
		t.Errorf("expected title-cased customer in bill text:\n%s", bill.Text)
	}

	// Later additions must not leak into the finalized bill.
	if _, err := l.AddLine("rice", dec("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bill.Lines) != 1 {
		t.Errorf("expected finalized bill to keep 1 line, got %d", len(bill.Lines))
	}
}

func TestLedger_FinalizeRequiresCustomer(t *testing.T) {
	l := newTestLedger()
	if _, err := l.AddLine("1", dec("2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := l.Finalize("  ", "", model.PaymentCash, time.Now()); !errors.Is(err, errx.ErrMissingCustomer) {
		t.Errorf("expected ErrMissingCustomer, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(model.BillingConfig{
		ShopName:       "TEST MILL",
		TaxRate:        0.12,
		TaxLabel:       "VAT",
		CurrencySymbol: "Rs.",
		Width:          60,
	})

	if opts.ShopName != "TEST MILL" || opts.TaxLabel != "VAT" || opts.CurrencySymbol != "Rs." || opts.Width != 60 {
		t.Errorf("unexpected options %+v", opts)
	}
	if !opts.TaxRate.Equal(dec("0.12")) {
		t.Errorf("expected rate 0.12, got %s", opts.TaxRate)
	}
}
