package booking

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeAmounts(t *testing.T) {
	invoice, tip, errs := normalizeAmounts(decimal.RequireFromString("12.345"), decimal.RequireFromString("0.004"))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if invoice.StringFixed(2) != "12.35" || !tip.Equal(decimal.Zero) {
		t.Fatalf("unexpected rounding: %s %s", invoice, tip)
	}

	cases := []struct {
		invoice, tip string
		codes        []string
	}{
		{"0", "0", []string{CodeInvoiceInvalid}},
		{"-3", "0", []string{CodeInvoiceInvalid}},
		{"10000", "0", []string{CodeInvoiceInvalid}},
		{"0.001", "0", []string{CodeInvoiceInvalid}},
		{"20", "-0.5", []string{CodeTipInvalid}},
		{"0", "-1", []string{CodeInvoiceInvalid, CodeTipInvalid}},
	}
	for _, tc := range cases {
		_, _, errs := normalizeAmounts(decimal.RequireFromString(tc.invoice), decimal.RequireFromString(tc.tip))
		if len(errs) != len(tc.codes) {
			t.Fatalf("invoice=%s tip=%s: expected %v, got %v", tc.invoice, tc.tip, tc.codes, errs)
		}
		for i, code := range tc.codes {
			if errs[i].Code != code {
				t.Fatalf("invoice=%s tip=%s: expected %s at %d, got %s", tc.invoice, tc.tip, code, i, errs[i].Code)
			}
		}
	}
}
