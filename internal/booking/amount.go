package booking

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const currencyScale = 2

var maxInvoice = decimal.NewFromInt(10000)

// CompleteInput is what a volunteer reports when a delivery is done.
type CompleteInput struct {
	Invoice    decimal.Decimal `json:"invoice"`
	Tip        decimal.Decimal `json:"tip"`
	ReceiptRef string          `json:"receiptUrl"`
}

// normalizeAmounts rounds invoice and tip to cents and checks their ranges:
// the invoice must be > 0 and below maxInvoice, the tip must not be negative.
func normalizeAmounts(invoice, tip decimal.Decimal) (decimal.Decimal, decimal.Decimal, ValidationErrors) {
	var errs ValidationErrors

	invoice = invoice.Round(currencyScale)
	tip = tip.Round(currencyScale)

	if invoice.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, ValidationError{Code: CodeInvoiceInvalid, Message: "invoice amount is required and must be > 0"})
	} else if invoice.GreaterThanOrEqual(maxInvoice) {
		errs = append(errs, ValidationError{Code: CodeInvoiceInvalid, Message: fmt.Sprintf("invoice amount must be below %s", maxInvoice.StringFixed(currencyScale))})
	}
	if tip.IsNegative() {
		errs = append(errs, ValidationError{Code: CodeTipInvalid, Message: "tip cannot be negative"})
	}
	return invoice, tip, errs
}
