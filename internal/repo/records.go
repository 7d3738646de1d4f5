package repo

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// RecordHeader is the first row of a new record file.
var RecordHeader = []string{"Date", "Customer Name", "Phone", "Items", "Subtotal", "GST", "Grand Total", "Payment Mode"}

// RecordStore persists a summary row for every finalized bill.
type RecordStore interface {
	Append(bill *model.Bill) error
}

// CSVRecordStore appends rows to a flat CSV file. There is no read-back.
type CSVRecordStore struct {
	mu   sync.Mutex
	path string
}

func NewCSVRecordStore(path string) *CSVRecordStore {
	return &CSVRecordStore{path: path}
}

func (s *CSVRecordStore) Path() string {
	return s.path
}

func (s *CSVRecordStore) Append(bill *model.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(RecordHeader); err != nil {
			return fmt.Errorf("write record header: %w", err)
		}
	}
	if err := w.Write(RecordRow(bill)); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}

	logx.Debug().Str("component", "records").Str("bill_id", bill.ID).Str("path", s.path).Msg("bill record appended")
	return nil
}

// RecordRow flattens a bill into one record row.
func RecordRow(bill *model.Bill) []string {
	return []string{
		bill.CreatedAt.Format(billing.DateLayout),
		bill.CustomerName,
		bill.Phone,
		ItemSummary(bill.Lines),
		bill.Subtotal.StringFixed(2),
		bill.Tax.StringFixed(2),
		bill.GrandTotal.StringFixed(2),
		bill.PaymentMode.String(),
	}
}

// ItemSummary renders lines as "Wheat(2kg); Rice(1.5kg)".
func ItemSummary(lines []model.LineItem) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s(%skg)", l.ItemName, l.QuantityKg.String()))
	}
	return strings.Join(parts, "; ")
}
