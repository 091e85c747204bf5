package booking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"deliveries/internal/events"
	"deliveries/internal/schedule"
	"deliveries/internal/user"
	"deliveries/pkg/notify"
)

// Service runs the transaction lifecycle. Every operation executes inside one Store transaction;
// a rejected operation leaves the transaction unchanged.
type Service struct {
	Store     Store
	Users     user.Directory
	Validator Validator
	Notifier  notify.Sender

	// PaymentTypes restricts Details.PaymentType when non-empty.
	PaymentTypes []string

	// Clock stamps events. Defaults to time.Now.
	Clock func() time.Time
	// NotifyTimeout bounds each outbound notification. Defaults to 15s.
	NotifyTimeout time.Duration
}

func NewService(store Store, users user.Directory, policy schedule.Policy, notifier notify.Sender, paymentTypes []string) *Service {
	return &Service{
		Store:        store,
		Users:        users,
		Validator:    Validator{Policy: policy},
		Notifier:     notifier,
		PaymentTypes: paymentTypes,
	}
}

func (s *Service) policy() schedule.Policy { return s.Validator.Policy }

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// ValidateBookingDate reports every rule a proposed date breaks for u. editingID names the
// transaction being edited (its own date never conflicts with itself) and is empty for new bookings.
func (s *Service) ValidateBookingDate(ctx context.Context, u *user.User, date, now time.Time, editingID string) error {
	if !u.IsRecipient() {
		return ForbiddenError{Message: "only recipients can book deliveries"}
	}
	return s.Store.InTx(ctx, func(q Queries) error {
		errs, err := s.Validator.Validate(ctx, q, u.ID, date, now, editingID)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return errs
		}
		return nil
	})
}

func (s *Service) Book(ctx context.Context, u *user.User, date time.Time, d Details, now time.Time) (*Transaction, error) {
	if !u.IsRecipient() {
		return nil, ForbiddenError{Message: "only recipients can book deliveries"}
	}

	var out *Transaction
	err := s.Store.InTx(ctx, func(q Queries) error {
		if err := q.LockRecipient(ctx, u.ID); err != nil {
			return err
		}
		errs, err := s.Validator.Validate(ctx, q, u.ID, date, now, "")
		if err != nil {
			return err
		}
		errs = append(errs, checkPaymentType(s.PaymentTypes, d.PaymentType)...)
		if len(errs) > 0 {
			return errs
		}

		t := &Transaction{
			ID:           uuid.NewString(),
			RecipientID:  u.ID,
			BookingDate:  s.policy().Day(now),
			DeliveryDate: s.policy().Day(date),
		}
		t.apply(d)
		if err := q.Insert(ctx, t); err != nil {
			return err
		}
		if err := s.record(ctx, q, t, events.TypeBooked, "Delivery booked", u.Username, map[string]any{
			"deliveryDate": t.DeliveryDate.Format(dateLayout),
		}); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAsync(notify.KindBookingConfirmed, out.RecipientID, "Delivery confirmed for "+dayLabel(out.DeliveryDate), out)
	return out, nil
}

// Claim assigns an open transaction to volunteer v. Of two concurrent claims at most one wins; the
// loser gets a ConflictError. The delivery date is not re-validated.
func (s *Service) Claim(ctx context.Context, id string, v *user.User) (*Transaction, error) {
	if !v.IsVolunteer() {
		return nil, ForbiddenError{Message: "only volunteers can claim deliveries"}
	}

	var out *Transaction
	err := s.Store.InTx(ctx, func(q Queries) error {
		ok, err := q.Claim(ctx, id, v.ID)
		if err != nil {
			return err
		}
		t, err := q.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ConflictError{Code: CodeNoLongerAvailable, Message: "this delivery is no longer available"}
		}
		if err := s.record(ctx, q, t, events.TypeClaimed, "Delivery claimed", v.Username, nil); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAsync(notify.KindClaimConfirmed, v.ID, "Delivery claimed for "+dayLabel(out.DeliveryDate), out)
	return out, nil
}

// Drop releases a claimed transaction back to Open. Only the assigned volunteer may drop it.
func (s *Service) Drop(ctx context.Context, id string, v *user.User) (*Transaction, error) {
	return s.mutate(ctx, id, func(t *Transaction) (events.Type, string, map[string]any, error) {
		if !CanTransition(t.Status(), StatusOpen) {
			return "", "", nil, ConflictError{Code: CodeInvalidState, Message: "only claimed deliveries can be dropped"}
		}
		if !v.IsVolunteer() || t.VolunteerID != v.ID {
			return "", "", nil, ForbiddenError{Message: "only the assigned volunteer can drop this delivery"}
		}
		t.VolunteerID = ""
		t.Claimed = false
		return events.TypeDropped, "Delivery dropped", nil, nil
	}, v.Username)
}

// Edit moves an open booking to a new date and replaces its details. Each successful edit counts
// against the modification limit.
func (s *Service) Edit(ctx context.Context, id string, u *user.User, date time.Time, d Details, now time.Time) (*Transaction, error) {
	var out *Transaction
	err := s.Store.InTx(ctx, func(q Queries) error {
		t, err := q.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !u.IsRecipient() || t.RecipientID != u.ID {
			return ForbiddenError{Message: "only the recipient who booked this delivery can edit it"}
		}
		if t.Status() != StatusOpen {
			return ConflictError{Code: CodeInvalidState, Message: "only unclaimed deliveries can be edited"}
		}
		if limit := s.policy().MaxModifications; t.ModificationCount >= limit {
			return LimitExceededError{Limit: limit}
		}

		if err := q.LockRecipient(ctx, u.ID); err != nil {
			return err
		}
		errs, err := s.Validator.Validate(ctx, q, u.ID, date, now, t.ID)
		if err != nil {
			return err
		}
		errs = append(errs, checkPaymentType(s.PaymentTypes, d.PaymentType)...)
		if len(errs) > 0 {
			return errs
		}

		prev := t.DeliveryDate
		t.apply(d)
		t.DeliveryDate = s.policy().Day(date)
		t.BookingDate = s.policy().Day(now)
		t.ModificationCount++
		if err := q.Update(ctx, t); err != nil {
			return err
		}
		if err := s.record(ctx, q, t, events.TypeEdited, "Delivery modified", u.Username, map[string]any{
			"from":              prev.Format(dateLayout),
			"to":                t.DeliveryDate.Format(dateLayout),
			"modificationCount": t.ModificationCount,
		}); err != nil {
			return err
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel withdraws a booking. It is only possible strictly before the weekly cutoff; after that the
// recipient has to ask an administrator.
func (s *Service) Cancel(ctx context.Context, id string, u *user.User, now time.Time) (*Transaction, error) {
	out, err := s.mutate(ctx, id, func(t *Transaction) (events.Type, string, map[string]any, error) {
		if !u.IsRecipient() || t.RecipientID != u.ID {
			return "", "", nil, ForbiddenError{Message: "only the recipient who booked this delivery can cancel it"}
		}
		if !CanTransition(t.Status(), StatusCancelled) {
			return "", "", nil, ConflictError{Code: CodeInvalidState, Message: "this delivery can no longer be cancelled"}
		}
		if !s.policy().BeforeCutoff(now) {
			return "", "", nil, ValidationErrors{{
				Code:    CodeCancelDeadline,
				Message: "the cancellation deadline has passed; please contact an administrator to cancel this delivery",
			}}
		}
		at := now
		t.CancelledAt = &at
		return events.TypeCancelled, "Delivery cancelled", map[string]any{"claimed": t.Claimed}, nil
	}, u.Username)
	if err != nil {
		return nil, err
	}

	if out.VolunteerID != "" {
		s.notifyAsync(notify.KindDeliveryCancelled, out.VolunteerID, "Delivery cancelled for "+dayLabel(out.DeliveryDate), out)
	}
	return out, nil
}

// MarkComplete records the invoice for a claimed delivery. Only the assigned volunteer may do it.
func (s *Service) MarkComplete(ctx context.Context, id string, v *user.User, in CompleteInput) (*Transaction, error) {
	return s.mutate(ctx, id, func(t *Transaction) (events.Type, string, map[string]any, error) {
		if !CanTransition(t.Status(), StatusCompleted) {
			return "", "", nil, ConflictError{Code: CodeInvalidState, Message: "only claimed deliveries can be completed"}
		}
		if !v.IsVolunteer() || t.VolunteerID != v.ID {
			return "", "", nil, ForbiddenError{Message: "only the assigned volunteer can complete this delivery"}
		}
		invoice, tip, errs := normalizeAmounts(in.Invoice, in.Tip)
		if len(errs) > 0 {
			return "", "", nil, errs
		}
		t.Completed = true
		t.Invoice = &invoice
		t.Tip = &tip
		if ref := strings.TrimSpace(in.ReceiptRef); ref != "" {
			t.ReceiptRef = ref
		}
		return events.TypeCompleted, "Delivery completed", map[string]any{
			"invoice": invoice.StringFixed(currencyScale),
			"tip":     tip.StringFixed(currencyScale),
		}, nil
	}, v.Username)
}

// MarkPaid flags the transaction as paid. Any state is accepted; the actor must be the recipient or
// the assigned volunteer. Marking an already paid transaction is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id string, actor *user.User) (*Transaction, error) {
	return s.mutate(ctx, id, func(t *Transaction) (events.Type, string, map[string]any, error) {
		if !isParty(t, actor) {
			return "", "", nil, ForbiddenError{Message: "only the recipient or the assigned volunteer can mark this delivery paid"}
		}
		if t.Paid {
			return "", "", nil, nil
		}
		t.Paid = true
		return events.TypePaid, "Delivery marked paid", nil, nil
	}, actor.Username)
}

// AttachReceipt stores a reference to an already uploaded receipt image.
func (s *Service) AttachReceipt(ctx context.Context, id string, v *user.User, ref string) (*Transaction, error) {
	ref = strings.TrimSpace(ref)
	return s.mutate(ctx, id, func(t *Transaction) (events.Type, string, map[string]any, error) {
		if st := t.Status(); st != StatusClaimed && st != StatusCompleted {
			return "", "", nil, ConflictError{Code: CodeInvalidState, Message: "receipts can only be attached to claimed deliveries"}
		}
		if !v.IsVolunteer() || t.VolunteerID != v.ID {
			return "", "", nil, ForbiddenError{Message: "only the assigned volunteer can attach a receipt"}
		}
		if ref == "" {
			return "", "", nil, ValidationErrors{{Code: CodeReceiptRequired, Message: "receipt reference is required"}}
		}
		t.ReceiptRef = ref
		return events.TypeReceiptAttached, "Receipt attached", map[string]any{"receiptRef": ref}, nil
	}, v.Username)
}

// mutate loads id for update, applies fn and persists the result with its event. fn returning an
// empty event type means nothing changed.
func (s *Service) mutate(ctx context.Context, id string, fn func(t *Transaction) (events.Type, string, map[string]any, error), actor string) (*Transaction, error) {
	var out *Transaction
	err := s.Store.InTx(ctx, func(q Queries) error {
		t, err := q.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		eventType, summary, data, err := fn(t)
		if err != nil {
			return err
		}
		if eventType != "" {
			if err := q.Update(ctx, t); err != nil {
				return err
			}
			if err := s.record(ctx, q, t, eventType, summary, actor, data); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, q Queries, t *Transaction, eventType events.Type, summary, actor string, data map[string]any) error {
	e := events.Event{
		TransactionID: t.ID,
		EventType:     eventType,
		Summary:       summary,
		Actor:         actor,
		OccurredAt:    s.now(),
	}
	if data != nil {
		e.Data = data
	}
	return q.RecordEvent(ctx, e)
}

// Get returns a transaction visible to actor: its recipient, its volunteer, or any volunteer while
// it is still open.
func (s *Service) Get(ctx context.Context, id string, actor *user.User) (*Transaction, error) {
	t, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(t, actor) {
		return nil, errNotFound(id)
	}
	return t, nil
}

func (s *Service) Events(ctx context.Context, id string, actor *user.User) ([]events.Event, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	return s.Store.Events(ctx, id)
}

// ListOpen is the volunteer sign-up board.
func (s *Service) ListOpen(ctx context.Context, actor *user.User, from, to time.Time) ([]Transaction, error) {
	if !actor.IsVolunteer() {
		return nil, ForbiddenError{Message: "only volunteers can browse open deliveries"}
	}
	return s.Store.ListOpen(ctx, s.policy().Day(from), s.policy().Day(to))
}

func (s *Service) ListForUser(ctx context.Context, u *user.User, completed bool) ([]Transaction, error) {
	switch {
	case u.IsRecipient():
		return s.Store.ListByRecipient(ctx, u.ID, completed)
	case u.IsVolunteer():
		return s.Store.ListByVolunteer(ctx, u.ID, completed)
	default:
		return nil, ForbiddenError{Message: "unknown role"}
	}
}

func isParty(t *Transaction, u *user.User) bool {
	if u == nil {
		return false
	}
	return (u.IsRecipient() && t.RecipientID == u.ID) || (u.IsVolunteer() && t.VolunteerID != "" && t.VolunteerID == u.ID)
}

func canView(t *Transaction, u *user.User) bool {
	return isParty(t, u) || (u.IsVolunteer() && t.Status() == StatusOpen)
}

// notifyAsync sends a notification about t to userID after the state change has committed.
// Failures are logged and never affect the transition.
func (s *Service) notifyAsync(kind notify.Kind, userID, subject string, t *Transaction) {
	if s.Notifier == nil || s.Users == nil {
		return
	}
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	snapshot := t.View()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		u, err := s.Users.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, user.ErrNotFound) {
				log.Printf("notify lookup failed kind=%s user=%s err=%v", kind, userID, err)
			}
			return
		}
		if u.Email == "" {
			log.Printf("notify skipped kind=%s user=%s reason=no_email", kind, u.Username)
			return
		}
		msg := notify.Message{
			Kind:    kind,
			To:      []string{u.Email},
			Subject: subject,
			Data:    map[string]any{"user": u.Name, "transaction": snapshot},
		}
		if err := s.Notifier.Send(ctx, msg); err != nil {
			log.Printf("notify failed kind=%s transaction=%s err=%v", kind, snapshot.ID, err)
		}
	}()
}

// dayLabel formats a delivery date like "Friday, 10/23".
func dayLabel(d time.Time) string {
	return d.Format("Monday, 01/02")
}
