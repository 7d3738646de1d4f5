// Package console is the counter operator's prompt loop: it collects one bill
// at a time from an input stream and prints the result.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/model"
	"github.com/vijaylaxmi/flourmill/internal/voice"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

var (
	ErrAbandoned = errors.New("bill abandoned by operator")
	ErrNoInput   = errors.New("input closed")

	errLineTooLong = errors.New("input line too long")
)

// maxLineBytes bounds a single answer; longer lines are discarded and asked again.
const maxLineBytes = 4096

type RecordAppender interface {
	Append(bill *model.Bill) error
}

type PDFSaver interface {
	SaveFile(bill *model.Bill) (string, error)
}

type BillSender interface {
	Send(ctx context.Context, bill *model.Bill) (string, error)
}

type SpeechListener interface {
	Listen(ctx context.Context, prompt string) (string, error)
}

type OrderDictation interface {
	Parse(ctx context.Context, utterance string) (*voice.Order, error)
}

// Deps wires the optional side effects of a finished bill. Nil fields are
// skipped; voice input is offered only when both Listener and Orders are set.
type Deps struct {
	Catalog  *billing.Catalog
	Options  billing.Options
	Records  RecordAppender
	PDF      PDFSaver
	Notifier BillSender
	Listener SpeechListener
	Orders   OrderDictation
	Now      func() time.Time
}

type Session struct {
	deps Deps
	in   *bufio.Reader
	out  io.Writer
}

func New(in io.Reader, out io.Writer, deps Deps) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Session{deps: deps, in: bufio.NewReaderSize(in, maxLineBytes), out: out}
}

func (s *Session) voiceEnabled() bool {
	return s.deps.Listener != nil && s.deps.Orders != nil
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Session) ask(prompt string) (string, error) {
	for {
		s.printf("%s", prompt)
		line, err := s.readLine()
		switch {
		case err == nil:
			return strings.TrimSpace(line), nil
		case errors.Is(err, errLineTooLong):
			s.printf("❌ Input too long, please try again.\n")
		case errors.Is(err, io.EOF):
			return "", ErrNoInput
		default:
			return "", fmt.Errorf("read input: %w", err)
		}
	}
}

// readLine returns the next line without its terminator. A final line with no
// newline still counts; an oversized line is drained up to its newline.
func (s *Session) readLine() (string, error) {
	line, err := s.in.ReadSlice('\n')
	switch {
	case err == nil:
		return string(line), nil
	case errors.Is(err, bufio.ErrBufferFull):
		for errors.Is(err, bufio.ErrBufferFull) {
			_, err = s.in.ReadSlice('\n')
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return "", errLineTooLong
	case errors.Is(err, io.EOF) && len(line) > 0:
		return string(line), nil
	default:
		return "", err
	}
}

func (s *Session) fail(err error) {
	s.printf("❌ %s\n", errx.MessageOf(err))
}

// RunLoop bills customers one after another until the operator stops or the
// input ends.
func (s *Session) RunLoop(ctx context.Context) error {
	for {
		_, err := s.Run(ctx)
		switch {
		case errors.Is(err, ErrAbandoned):
			s.printf("Bill abandoned.\n")
		case errors.Is(err, ErrNoInput):
			return nil
		case err != nil:
			return err
		}

		again, err := s.ask("\nStart a new bill? (y/N): ")
		if err != nil || !strings.EqualFold(again, "y") {
			return nil
		}
	}
}

// Run collects and finalizes one bill.
func (s *Session) Run(ctx context.Context) (*model.Bill, error) {
	ledger := billing.NewLedger(s.deps.Catalog, s.deps.Options)

	s.printCatalog()

	customer, err := s.askCustomer(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.collectItems(ctx, ledger); err != nil {
		return nil, err
	}
	mode, err := s.askPayment()
	if err != nil {
		return nil, err
	}
	phone, err := s.ask("Enter customer phone number (optional, press Enter to skip): ")
	if err != nil {
		return nil, err
	}

	bill, err := ledger.Finalize(customer, phone, mode, s.deps.Now())
	if err != nil {
		return nil, err
	}
	s.printf("\n%s\n", bill.Text)

	s.deliver(ctx, bill)
	return bill, nil
}

func (s *Session) printCatalog() {
	width := s.deps.Options.Width
	s.printf("%s\n", strings.Repeat("=", width))
	title := "FLOUR MILL BILLING SYSTEM"
	if pad := (width - len(title)) / 2; pad > 0 {
		title = strings.Repeat(" ", pad) + title
	}
	s.printf("%s\n%s\n", title, strings.Repeat("=", width))

	s.printf("\nAvailable Items (%s per kg):\n", s.deps.Options.CurrencySymbol)
	for i, e := range s.deps.Catalog.Entries() {
		s.printf("%d. %s : %s%s per kg\n", i+1, billing.DisplayName(e.Name), s.deps.Options.CurrencySymbol, e.Price.StringFixed(2))
	}
}

func (s *Session) askCustomer(ctx context.Context) (string, error) {
	useVoice := false
	if s.voiceEnabled() {
		s.printf("\nCustomer Name Input Method:\n1. Type\n2. Voice\n")
		choice, err := s.ask("Enter choice (1 or 2): ")
		if err != nil {
			return "", err
		}
		useVoice = choice == "2"
	}

	for {
		var name string
		var err error
		if useVoice {
			name, err = s.deps.Listener.Listen(ctx, "Please say the customer name:")
			if errors.Is(err, voice.ErrNotUnderstood) {
				s.printf("❌ Could not understand audio, please type the name.\n")
				useVoice = false
				continue
			}
			if err != nil {
				logx.Warn().Err(err).Str("component", "console").Msg("voice input failed")
				s.printf("❌ Voice recognition service error.\n")
				useVoice = false
				continue
			}
		} else {
			name, err = s.ask("Enter customer name: ")
			if err != nil {
				return "", err
			}
		}
		if strings.TrimSpace(name) != "" {
			return name, nil
		}
		s.fail(errx.MissingCustomer())
	}
}

func (s *Session) itemPrompt() string {
	if s.voiceEnabled() {
		return "\nEnter product number or name (Enter to finish, v to dictate, q to cancel): "
	}
	return "\nEnter product number or name (Enter to finish, q to cancel): "
}

func (s *Session) collectItems(ctx context.Context, ledger *billing.Ledger) error {
	for {
		token, err := s.ask(s.itemPrompt())
		if err != nil {
			return err
		}

		switch {
		case token == "":
			if ledger.IsEmpty() {
				s.fail(errx.EmptyBill())
				continue
			}
			return nil
		case strings.EqualFold(token, "q"):
			return ErrAbandoned
		case strings.EqualFold(token, "v") && s.voiceEnabled():
			s.dictate(ctx, ledger)
			continue
		}

		if _, err := ledger.Catalog().Resolve(token); err != nil {
			s.fail(err)
			continue
		}
		qty, err := s.ask("Enter quantity (in kg): ")
		if err != nil {
			return err
		}
		line, err := ledger.AddEntry(model.OrderEntry{Token: token, Quantity: qty})
		if err != nil {
			if !errx.IsRecoverable(err) {
				return err
			}
			s.fail(err)
			continue
		}
		s.printf("Added %s %s kg = %s%s\n", line.ItemName, line.QuantityKg.StringFixed(2), s.deps.Options.CurrencySymbol, line.LineTotal.StringFixed(2))
	}
}

// dictate adds every line of a spoken order; lines that fail validation are
// reported and skipped.
func (s *Session) dictate(ctx context.Context, ledger *billing.Ledger) {
	utterance, err := s.deps.Listener.Listen(ctx, "Say the order (item and quantity in kg):")
	if err != nil {
		if errors.Is(err, voice.ErrNotUnderstood) {
			s.printf("❌ Could not understand audio, please type the item.\n")
		} else {
			logx.Warn().Err(err).Str("component", "console").Msg("voice input failed")
			s.printf("❌ Voice recognition service error.\n")
		}
		return
	}

	order, err := s.deps.Orders.Parse(ctx, utterance)
	if err != nil {
		logx.Warn().Err(err).Str("component", "console").Msg("dictation parse failed")
		s.printf("❌ Could not read the order, please type it.\n")
		return
	}
	for _, e := range order.Entries {
		line, err := ledger.AddEntry(e)
		if err != nil {
			s.printf("❌ %s: %s\n", e.Token, errx.MessageOf(err))
			continue
		}
		s.printf("Added %s %s kg = %s%s\n", line.ItemName, line.QuantityKg.StringFixed(2), s.deps.Options.CurrencySymbol, line.LineTotal.StringFixed(2))
	}
	for _, u := range order.Unmatched {
		s.printf("❌ Not on the price list: %s\n", u)
	}
}

func (s *Session) askPayment() (model.PaymentMode, error) {
	s.printf("\nSelect Payment Mode:\n")
	for i, m := range model.PaymentModes {
		label := m.String()
		if m == model.PaymentPending {
			label = "Pending"
		}
		s.printf("%d. %s\n", i+1, label)
	}
	choice, err := s.ask("Enter choice (1-4): ")
	if err != nil {
		return model.PaymentInvalid, err
	}
	return model.ParsePaymentMode(choice), nil
}

// deliver runs the post-bill side effects. Failures are reported but never
// undo the bill, which has already been shown.
func (s *Session) deliver(ctx context.Context, bill *model.Bill) {
	if s.deps.Records != nil {
		if err := s.deps.Records.Append(bill); err != nil {
			logx.Error().Err(err).Str("component", "console").Str("bill_id", bill.ID).Msg("record append failed")
			s.printf("❌ Could not save the bill record: %v\n", err)
		}
	}
	if s.deps.PDF != nil {
		path, err := s.deps.PDF.SaveFile(bill)
		if err != nil {
			logx.Error().Err(err).Str("component", "console").Str("bill_id", bill.ID).Msg("pdf export failed")
			s.printf("❌ Could not save the PDF: %v\n", err)
		} else {
			s.printf("Bill saved as %s\n", path)
		}
	}
	if s.deps.Notifier != nil && bill.HasPhone() {
		link, err := s.deps.Notifier.Send(ctx, bill)
		if err != nil {
			logx.Warn().Err(err).Str("component", "console").Str("bill_id", bill.ID).Msg("whatsapp send failed")
		}
		if link != "" {
			s.printf("WhatsApp message ready: %s\nPlease attach the PDF manually.\n", link)
		}
	}
}
