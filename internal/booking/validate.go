package booking

import (
	"context"
	"strings"
	"time"

	"deliveries/internal/schedule"
)

// Validator decides whether a delivery date may be booked or moved to.
type Validator struct {
	Policy schedule.Policy
}

// Validate runs every booking window rule for recipientID and returns all violations.
// excludeID is the transaction being edited; it is empty for new bookings. The one-per-week query
// runs through q, so callers that go on to write should hold the recipient lock first.
func (v Validator) Validate(ctx context.Context, q Queries, recipientID string, date, now time.Time, excludeID string) (ValidationErrors, error) {
	errs := fromViolations(v.Policy.Check(date, now))

	from, to := v.Policy.Window(date)
	n, err := q.CountInWindow(ctx, recipientID, from, to, excludeID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		errs = append(errs, errOnePerWeek())
	}
	return errs, nil
}

func checkPaymentType(allowed []string, paymentType string) ValidationErrors {
	if len(allowed) == 0 || strings.TrimSpace(paymentType) == "" {
		return nil
	}
	for _, p := range allowed {
		if strings.EqualFold(p, strings.TrimSpace(paymentType)) {
			return nil
		}
	}
	return ValidationErrors{{
		Code:    CodePaymentTypeInvalid,
		Message: "payment type must be one of: " + strings.Join(allowed, ", "),
	}}
}
