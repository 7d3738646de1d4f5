// Package notify hands a finalized bill to the customer over WhatsApp.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/pkg/browser"

	"github.com/vijaylaxmi/flourmill/internal/billing"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

var ErrNoPhone = errors.New("no phone number on bill")

const waBase = "https://wa.me/"

// Opener opens a URL for the operator.
type Opener interface {
	Open(ctx context.Context, link string) error
}

// BrowserOpener opens links in the system browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(_ context.Context, link string) error {
	return browser.OpenURL(link)
}

// NopOpener only records the last link, for headless runs.
type NopOpener struct {
	Last string
}

func (o *NopOpener) Open(_ context.Context, link string) error {
	o.Last = link
	return nil
}

// NormalizePhone prefixes digits-only numbers with the country code.
func NormalizePhone(phone, countryCode string) string {
	number := strings.TrimSpace(phone)
	if number == "" || strings.HasPrefix(number, countryCode) {
		return number
	}
	for _, r := range number {
		if !unicode.IsDigit(r) {
			return number
		}
	}
	return countryCode + number
}

// Message is the greeting sent with the bill.
func Message(customer, shop string) string {
	return fmt.Sprintf("Hello %s, here is your Flour Mill Bill.\nThank you for visiting %s.",
		billing.DisplayName(customer), billing.DisplayName(shop))
}

// WhatsAppLink builds the wa.me deep link for phone.
func WhatsAppLink(phone, customer, shop, countryCode string) (string, error) {
	number := NormalizePhone(phone, countryCode)
	if number == "" {
		return "", ErrNoPhone
	}
	text := strings.ReplaceAll(url.QueryEscape(Message(customer, shop)), "+", "%20")
	return waBase + url.PathEscape(number) + "?text=" + text, nil
}

type Notifier struct {
	shop   string
	cfg    model.NotifyConfig
	opener Opener
}

func NewNotifier(shop string, cfg model.NotifyConfig, opener Opener) *Notifier {
	if opener == nil {
		opener = &NopOpener{}
	}
	return &Notifier{shop: shop, cfg: cfg, opener: opener}
}

// Send opens the WhatsApp chat for the bill's phone and returns the link.
// The PDF has to be attached by hand; wa.me links carry text only.
func (n *Notifier) Send(ctx context.Context, bill *model.Bill) (string, error) {
	if !bill.HasPhone() {
		return "", ErrNoPhone
	}
	link, err := WhatsAppLink(bill.Phone, bill.CustomerName, n.shop, n.cfg.CountryCode)
	if err != nil {
		return "", err
	}

	if n.cfg.OpenBrowser {
		if err := n.opener.Open(ctx, link); err != nil {
			return link, fmt.Errorf("open whatsapp link: %w", err)
		}
	}

	logx.Info().Str("component", "notify").Str("bill_id", bill.ID).Str("phone", NormalizePhone(bill.Phone, n.cfg.CountryCode)).Msg("whatsapp message prepared")
	return link, nil
}
