package model

import (
	"math"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestParsePaymentMode(t *testing.T) {
	tests := []struct {
		in   string
		want PaymentMode
	}{
		{"1", PaymentCash},
		{"2", PaymentUPI},
		{"3", PaymentCard},
		{"4", PaymentPending},
		{" cash ", PaymentCash},
		{"UPI", PaymentUPI},
		{"Payment Pending", PaymentPending},
		{"5", PaymentInvalid},
		{"", PaymentInvalid},
		{"bitcoin", PaymentInvalid},
	}

	for _, tt := range tests {
		if got := ParsePaymentMode(tt.in); got != tt.want {
			t.Errorf("ParsePaymentMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPaymentModeString(t *testing.T) {
	if PaymentPending.String() != "Payment Pending" {
		t.Errorf("unexpected %q", PaymentPending.String())
	}
	if PaymentMode(42).String() != "Invalid / Not Selected" {
		t.Errorf("unexpected %q", PaymentMode(42).String())
	}
	if len(PaymentModes) != 4 {
		t.Errorf("expected 4 selectable modes, got %d", len(PaymentModes))
	}
}

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 2_000_000}
	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))

	if math.Abs(in-0.30) > 1e-9 || math.Abs(out-5.0) > 1e-9 || math.Abs(total-5.30) > 1e-9 {
		t.Errorf("unexpected cost %v %v %v", in, out, total)
	}

	if _, _, total := ComputeCost(nil, ResolvePricing("gemini-2.5-flash")); total != 0 {
		t.Errorf("expected zero cost for nil usage, got %v", total)
	}
	if ResolvePricing("unknown") != (Pricing{}) {
		t.Error("expected zero pricing for unknown model")
	}
}

func TestBillingConfigRate(t *testing.T) {
	cfg := BillingConfig{TaxRate: 0.05}
	if cfg.Rate().String() != "0.05" {
		t.Errorf("unexpected rate %s", cfg.Rate())
	}
}
