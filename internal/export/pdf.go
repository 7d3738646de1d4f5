// Package export writes finalized bills to PDF.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

const (
	margin     = 50.0
	lineHeight = 15.0
	fontSize   = 10.0
)

// The core PDF fonts are cp1252; the rupee sign has no glyph there.
var pdfReplacer = strings.NewReplacer("₹", "Rs.")

// PDFExporter lays out the rendered bill text one line per text line in a
// monospace font, so the columns keep their alignment.
type PDFExporter struct {
	dir string
}

func NewPDFExporter(dir string) *PDFExporter {
	if dir == "" {
		dir = "."
	}
	return &PDFExporter{dir: dir}
}

func layout(bill *model.Bill) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Bill "+bill.ID, true)
	pdf.SetAuthor(billing.DisplayName(bill.CustomerName), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Courier", "", fontSize)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	_, pageHeight := pdf.GetPageSize()
	pdf.AddPage()
	y := margin
	for _, line := range strings.Split(bill.Text, "\n") {
		pdf.Text(margin, y, tr(pdfReplacer.Replace(line)))
		y += lineHeight
		if y > pageHeight-margin {
			pdf.AddPage()
			y = margin
		}
	}
	return pdf
}

// Write renders bill as a PDF document into w.
func (e *PDFExporter) Write(w io.Writer, bill *model.Bill) error {
	pdf := layout(bill)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// Bytes renders bill as an in-memory PDF document.
func (e *PDFExporter) Bytes(bill *model.Bill) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, bill); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName is the suggested file name for a bill: Bill_<yyyymmdd_hhmm>_<Customer>.pdf.
func FileName(bill *model.Bill) string {
	customer := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, billing.DisplayName(bill.CustomerName))
	return fmt.Sprintf("Bill_%s_%s.pdf", bill.CreatedAt.Format("20060102_1504"), customer)
}

// SaveFile writes the bill PDF into the exporter directory and returns its path.
func (e *PDFExporter) SaveFile(bill *model.Bill) (string, error) {
	path := filepath.Join(e.dir, FileName(bill))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create pdf file: %w", err)
	}
	if err := e.Write(f, bill); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close pdf file: %w", err)
	}

	logx.Info().Str("component", "export").Str("bill_id", bill.ID).Str("path", path).Msg("bill saved as pdf")
	return path, nil
}
