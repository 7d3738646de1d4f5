package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	"github.com/vijaylaxmi/flourmill/internal/model"
	"github.com/vijaylaxmi/flourmill/internal/repo"
)

func finalizedBill(t *testing.T, customer string, lines int) *model.Bill {
	t.Helper()
	l := billing.NewLedger(billing.MustNewCatalog(repo.BuiltinCatalog()), billing.DefaultOptions())
	for i := 0; i < lines; i++ {
		if _, err := l.AddLine("wheat", decimal.NewFromInt(1)); err != nil {
			t.Fatalf("add line: %v", err)
		}
	}
	bill, err := l.Finalize(customer, "", model.PaymentCash, time.Date(2026, 10, 18, 15, 4, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	return bill
}

func TestPDFExporter_Bytes(t *testing.T) {
	b, err := NewPDFExporter("").Bytes(finalizedBill(t, "Ramesh", 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Errorf("expected PDF header, got %q", b[:8])
	}
}

func TestPDFExporter_MultiPage(t *testing.T) {
	pdf := layout(finalizedBill(t, "Ramesh", 80))
	if pdf.Err() {
		t.Fatalf("unexpected error: %v", pdf.Error())
	}
	if n := pdf.PageCount(); n < 2 {
		t.Errorf("expected at least 2 pages, got %d", n)
	}
}

func TestFileName(t *testing.T) {
	got := FileName(finalizedBill(t, "ramesh kumar", 1))
	if got != "Bill_20261018_1504_Ramesh_Kumar.pdf" {
		t.Errorf("unexpected file name %q", got)
	}
}

func TestPDFExporter_SaveFile(t *testing.T) {
	dir := t.TempDir()
	path, err := NewPDFExporter(dir).SaveFile(finalizedBill(t, "Sita", 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected file in %s, got %s", dir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty pdf file")
	}
}
