package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/export"
	"github.com/vijaylaxmi/flourmill/internal/model"
	"github.com/vijaylaxmi/flourmill/internal/notify"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// maxFormBytes bounds the posted form; a bill has a handful of fields per line.
const maxFormBytes = 64 * 1024

type paymentOption struct {
	Value   int
	Label   string
	Checked bool
}

type formView struct {
	Shop     string
	Currency string
	Catalog  []model.CatalogEntry
	Customer string
	Phone    string
	NewItem  string
	NewQty   string
	Lines    []model.LineItem
	Payments []paymentOption
	Error    string
	BillText string
	WhatsApp string
}

// formState is what one request carries: the bill so far plus the operator's
// pending input.
type formState struct {
	customer string
	phone    string
	payment  model.PaymentMode
	newItem  string
	newQty   string
	ledger   *billing.Ledger
}

func (s *Server) view(st *formState) formView {
	v := formView{
		Shop:     billing.DisplayName(s.deps.Options.ShopName),
		Currency: s.deps.Options.CurrencySymbol,
		Catalog:  s.deps.Catalog.Entries(),
		Customer: st.customer,
		Phone:    st.phone,
		NewItem:  st.newItem,
		NewQty:   st.newQty,
		Lines:    st.ledger.Lines(),
	}
	for _, m := range model.PaymentModes {
		v.Payments = append(v.Payments, paymentOption{Value: int(m), Label: m.String(), Checked: m == st.payment})
	}
	return v
}

// readForm rebuilds the ledger from the posted hidden fields. Tampered lines
// fail the same validation as new ones.
func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (*formState, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return nil, errx.New(fmt.Errorf("parse form: %w", err), http.StatusBadRequest, "Malformed form")
	}

	st := &formState{
		customer: strings.TrimSpace(r.PostForm.Get("customer")),
		phone:    strings.TrimSpace(r.PostForm.Get("phone")),
		payment:  model.PaymentCash,
		newItem:  r.PostForm.Get("new_item"),
		newQty:   strings.TrimSpace(r.PostForm.Get("new_qty")),
		ledger:   billing.NewLedger(s.deps.Catalog, s.deps.Options),
	}
	if p := r.PostForm.Get("payment"); p != "" {
		st.payment = model.ParsePaymentMode(p)
	}

	items, qtys := r.PostForm["item"], r.PostForm["qty"]
	if len(items) != len(qtys) {
		return st, errx.New(fmt.Errorf("form has %d items and %d quantities", len(items), len(qtys)), http.StatusBadRequest, "Malformed form")
	}
	for i := range items {
		if _, err := st.ledger.AddEntry(model.OrderEntry{Token: items[i], Quantity: qtys[i]}); err != nil {
			return st, err
		}
	}
	return st, nil
}

func (s *Server) render(w http.ResponseWriter, status int, v formView) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, v); err != nil {
		logx.Error().Err(err).Str("component", "web").Msg("render form")
		http.Error(w, errx.SystemErrorMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError re-renders the form with the operator message and the prior
// state kept, or answers plainly when there is no state to show.
func (s *Server) renderError(w http.ResponseWriter, st *formState, err error) {
	status := errx.StatusOf(err, http.StatusInternalServerError)
	if status >= http.StatusInternalServerError {
		logx.Error().Err(err).Str("component", "web").Msg("request failed")
	}
	if st == nil {
		http.Error(w, errx.MessageOf(err), status)
		return
	}
	v := s.view(st)
	v.Error = errx.MessageOf(err)
	s.render(w, status, v)
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	st := &formState{payment: model.PaymentCash, ledger: billing.NewLedger(s.deps.Catalog, s.deps.Options)}
	s.render(w, http.StatusOK, s.view(st))
}

func (s *Server) addItemHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.readForm(w, r)
	if err != nil {
		s.renderError(w, st, err)
		return
	}
	if _, err := st.ledger.AddEntry(model.OrderEntry{Token: st.newItem, Quantity: st.newQty}); err != nil {
		s.renderError(w, st, err)
		return
	}
	st.newQty = ""
	s.render(w, http.StatusOK, s.view(st))
}

func (s *Server) finalize(st *formState) (*model.Bill, error) {
	return st.ledger.Finalize(st.customer, st.phone, st.payment, s.deps.Now())
}

func (s *Server) billHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.readForm(w, r)
	if err != nil {
		s.renderError(w, st, err)
		return
	}
	bill, err := s.finalize(st)
	if err != nil {
		s.renderError(w, st, err)
		return
	}

	v := s.view(st)
	v.BillText = bill.Text
	if bill.HasPhone() {
		if link, err := notify.WhatsAppLink(bill.Phone, bill.CustomerName, s.deps.Options.ShopName, s.deps.Notify.CountryCode); err == nil {
			v.WhatsApp = link
		}
	}
	s.render(w, http.StatusOK, v)
}

func (s *Server) pdfHandler(w http.ResponseWriter, r *http.Request) {
	st, err := s.readForm(w, r)
	if err != nil {
		s.renderError(w, st, err)
		return
	}
	bill, err := s.finalize(st)
	if err != nil {
		s.renderError(w, st, err)
		return
	}
	if s.deps.PDF == nil {
		http.Error(w, "PDF export is disabled", http.StatusNotImplemented)
		return
	}

	var buf bytes.Buffer
	if err := s.deps.PDF.Write(&buf, bill); err != nil {
		s.renderError(w, st, err)
		return
	}
	if s.deps.Records != nil {
		if err := s.deps.Records.Append(bill); err != nil {
			logx.Error().Err(err).Str("component", "web").Str("bill_id", bill.ID).Msg("record append failed")
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(bill)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Bill-Id", bill.ID)
	_, _ = buf.WriteTo(w)
}

type catalogItem struct {
	Number int             `json:"number"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

func (s *Server) catalogHandler(w http.ResponseWriter, r *http.Request) {
	entries := s.deps.Catalog.Entries()
	out := make([]catalogItem, 0, len(entries))
	for i, e := range entries {
		out = append(out, catalogItem{Number: i + 1, Name: e.Name, Price: e.Price})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"currency": s.deps.Options.CurrencySymbol,
		"items":    out,
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Str("component", "web").Msg("encode json")
	}
}
