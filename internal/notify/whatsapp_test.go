package notify

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/vijaylaxmi/flourmill/internal/model"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"9876543210":    "+919876543210",
		" 9876543210 ":  "+919876543210",
		"+919876543210": "+919876543210",
		"+1 555 0100":   "+1 555 0100",
		"98765-43210":   "98765-43210",
		"":              "",
	}
	for in, want := range cases {
		if got := NormalizePhone(in, "+91"); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("9876543210", "ramesh", "VIJAY LAXMI FLOUR MILL", "+91")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://wa.me/+919876543210?text=Hello%20Ramesh%2C%20here%20is%20your%20Flour%20Mill%20Bill.%0AThank%20you%20for%20visiting%20Vijay%20Laxmi%20Flour%20Mill."
	if link != want {
		t.Errorf("unexpected link:\n got %s\nwant %s", link, want)
	}
}

func TestWhatsAppLink_QueryReservedCharacters(t *testing.T) {
	customer, shop := "sita & gita+1", "Bhai=Bhai Mill #2?"
	link, err := WhatsAppLink("9876543210", customer, shop, "+91")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("link does not parse: %v", err)
	}
	q := u.Query()
	if len(q) != 1 {
		t.Errorf("expected a single query parameter, got %v", q)
	}
	if got, want := q.Get("text"), Message(customer, shop); got != want {
		t.Errorf("decoded text mismatch:\n got %q\nwant %q", got, want)
	}
	if u.Fragment != "" {
		t.Errorf("message leaked into fragment %q", u.Fragment)
	}
}

func TestWhatsAppLink_NoPhone(t *testing.T) {
	if _, err := WhatsAppLink("  ", "ramesh", "shop", "+91"); !errors.Is(err, ErrNoPhone) {
		t.Fatalf("expected ErrNoPhone, got %v", err)
	}
}

type failingOpener struct{}

func (failingOpener) Open(context.Context, string) error { return errors.New("no display") }

func TestNotifier_Send(t *testing.T) {
	opener := &NopOpener{}
	n := NewNotifier("Vijay Laxmi Flour Mill", model.NotifyConfig{CountryCode: "+91", OpenBrowser: true}, opener)

	link, err := n.Send(context.Background(), &model.Bill{ID: "b1", CustomerName: "Sita", Phone: "9000000001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opener.Last != link {
		t.Errorf("expected opener to receive %q, got %q", link, opener.Last)
	}
	if !strings.HasPrefix(link, "https://wa.me/+919000000001?text=Hello%20Sita") {
		t.Errorf("unexpected link %q", link)
	}
}

func TestNotifier_SendWithoutBrowser(t *testing.T) {
	opener := &NopOpener{}
	n := NewNotifier("shop", model.NotifyConfig{CountryCode: "+91"}, opener)

	if _, err := n.Send(context.Background(), &model.Bill{CustomerName: "Sita", Phone: "9000000001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opener.Last != "" {
		t.Errorf("browser should not be opened, got %q", opener.Last)
	}
}

func TestNotifier_Errors(t *testing.T) {
	n := NewNotifier("shop", model.NotifyConfig{CountryCode: "+91", OpenBrowser: true}, failingOpener{})

	if _, err := n.Send(context.Background(), &model.Bill{CustomerName: "Sita"}); !errors.Is(err, ErrNoPhone) {
		t.Errorf("expected ErrNoPhone, got %v", err)
	}
	link, err := n.Send(context.Background(), &model.Bill{CustomerName: "Sita", Phone: "9000000001"})
	if err == nil {
		t.Fatal("expected opener error")
	}
	if link == "" {
		t.Error("link should still be returned when the browser fails")
	}
}
