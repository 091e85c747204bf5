package booking

import (
	"fmt"
	"strings"

	"deliveries/internal/schedule"
)

// ValidationError is a rule violation that is shown to the end user as is.
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationErrors carries every violated rule of one request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

func fromViolations(vs []schedule.Violation) ValidationErrors {
	var out ValidationErrors
	for _, v := range vs {
		out = append(out, ValidationError{Code: v.Code, Message: v.Message})
	}
	return out
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConflictError means the transaction is not in a state that allows the action, usually because
// another request changed it first.
type ConflictError struct {
	Code    string
	Message string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type LimitExceededError struct {
	Limit int
}

func (e LimitExceededError) Error() string {
	return fmt.Sprintf("you've exceeded the %d allowable modifications on this delivery", e.Limit)
}

// ForbiddenError means the actor has the wrong role or does not own the transaction.
type ForbiddenError struct {
	Message string
}

func (e ForbiddenError) Error() string {
	return e.Message
}

const (
	CodeOnePerWeek         = "ONE_PER_WEEK"
	CodePaymentTypeInvalid = "PAYMENT_TYPE_INVALID"
	CodeCancelDeadline     = "CANCEL_DEADLINE_PASSED"
	CodeInvoiceInvalid     = "INVOICE_INVALID"
	CodeTipInvalid         = "TIP_INVALID"
	CodeReceiptRequired    = "RECEIPT_REQUIRED"

	CodeNoLongerAvailable = "NO_LONGER_AVAILABLE"
	CodeInvalidState      = "INVALID_STATE_TRANSITION"
)

func errNotFound(id string) error {
	return NotFoundError{Resource: "transaction", ID: id}
}

func errOnePerWeek() ValidationError {
	return ValidationError{Code: CodeOnePerWeek, Message: "only one delivery allowed per week"}
}
