package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Transaction is one delivery request and its fulfillment record.
// Dates are calendar days at midnight in the schedule's time zone.
type Transaction struct {
	ID                string
	RecipientID       string
	VolunteerID       string // empty while unclaimed
	Store             string
	BookingDate       time.Time
	DeliveryDate      time.Time
	GroceryList       string
	Notes             string
	PaymentType       string
	PaymentNotes      string
	Claimed           bool
	Completed         bool
	Paid              bool
	Invoice           *decimal.Decimal
	Tip               *decimal.Decimal
	ModificationCount int
	ReceiptRef        string
	CancelledAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t *Transaction) Status() Status {
	switch {
	case t.CancelledAt != nil:
		return StatusCancelled
	case t.Completed:
		return StatusCompleted
	case t.Claimed:
		return StatusClaimed
	default:
		return StatusOpen
	}
}

// Details are the recipient-editable fields of a booking.
type Details struct {
	Store        string `json:"store"`
	GroceryList  string `json:"list"`
	Notes        string `json:"notes"`
	PaymentType  string `json:"paymentType"`
	PaymentNotes string `json:"paymentNotes"`
}

func (t *Transaction) apply(d Details) {
	t.Store = d.Store
	t.GroceryList = d.GroceryList
	t.Notes = d.Notes
	t.PaymentType = d.PaymentType
	t.PaymentNotes = d.PaymentNotes
}

// View is the JSON shape of a transaction.
type View struct {
	ID                string     `json:"id"`
	Status            Status     `json:"status"`
	RecipientID       string     `json:"recipientId"`
	VolunteerID       string     `json:"volunteerId,omitempty"`
	Store             string     `json:"store"`
	BookingDate       string     `json:"bookingDate"`
	DeliveryDate      string     `json:"deliveryDate"`
	DeliveryDay       string     `json:"deliveryDay"`
	GroceryList       string     `json:"list"`
	Notes             string     `json:"notes"`
	PaymentType       string     `json:"paymentType,omitempty"`
	PaymentNotes      string     `json:"paymentNotes,omitempty"`
	Claimed           bool       `json:"claimed"`
	Completed         bool       `json:"completed"`
	Paid              bool       `json:"paid"`
	Invoice           string     `json:"invoice,omitempty"`
	Tip               string     `json:"tip,omitempty"`
	ModificationCount int        `json:"modificationCount"`
	ReceiptRef        string     `json:"receiptRef,omitempty"`
	CancelledAt       *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (t *Transaction) View() View {
	v := View{
		ID:                t.ID,
		Status:            t.Status(),
		RecipientID:       t.RecipientID,
		VolunteerID:       t.VolunteerID,
		Store:             t.Store,
		BookingDate:       t.BookingDate.Format(dateLayout),
		DeliveryDate:      t.DeliveryDate.Format(dateLayout),
		DeliveryDay:       t.DeliveryDate.Weekday().String(),
		GroceryList:       t.GroceryList,
		Notes:             t.Notes,
		PaymentType:       t.PaymentType,
		PaymentNotes:      t.PaymentNotes,
		Claimed:           t.Claimed,
		Completed:         t.Completed,
		Paid:              t.Paid,
		ModificationCount: t.ModificationCount,
		ReceiptRef:        t.ReceiptRef,
		CancelledAt:       t.CancelledAt,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
	if t.Invoice != nil {
		v.Invoice = t.Invoice.StringFixed(currencyScale)
	}
	if t.Tip != nil {
		v.Tip = t.Tip.StringFixed(currencyScale)
	}
	return v
}

func views(ts []Transaction) []View {
	out := make([]View, 0, len(ts))
	for i := range ts {
		out = append(out, ts[i].View())
	}
	return out
}
