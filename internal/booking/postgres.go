package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"deliveries/internal/events"
	"deliveries/pkg/db"
)

// PGStore is the Postgres Store. Dates travel as 'YYYY-MM-DD' text and are read back in loc.
type PGStore struct {
	db  *pgxpool.Pool
	loc *time.Location
}

func NewPGStore(pool *pgxpool.Pool, loc *time.Location) *PGStore {
	if loc == nil {
		loc = time.UTC
	}
	return &PGStore{db: pool, loc: loc}
}

const selectTransaction = `
SELECT id, recipient_id, volunteer_id, store, booking_date::text, delivery_date::text,
       grocery_list, notes, payment_type, payment_notes, claimed, completed, paid,
       invoice::text, tip::text, modification_count, receipt_ref, cancelled_at, created_at, updated_at
FROM transactions
`

func scanTransaction(row pgx.Row, loc *time.Location) (*Transaction, error) {
	var t Transaction
	var volunteerID, invoice, tip, receiptRef *string
	var bookingDate, deliveryDate string
	if err := row.Scan(
		&t.ID, &t.RecipientID, &volunteerID, &t.Store, &bookingDate, &deliveryDate,
		&t.GroceryList, &t.Notes, &t.PaymentType, &t.PaymentNotes, &t.Claimed, &t.Completed, &t.Paid,
		&invoice, &tip, &t.ModificationCount, &receiptRef, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if t.BookingDate, err = time.ParseInLocation(dateLayout, bookingDate, loc); err != nil {
		return nil, fmt.Errorf("parse booking_date: %w", err)
	}
	if t.DeliveryDate, err = time.ParseInLocation(dateLayout, deliveryDate, loc); err != nil {
		return nil, fmt.Errorf("parse delivery_date: %w", err)
	}
	if volunteerID != nil {
		t.VolunteerID = *volunteerID
	}
	if receiptRef != nil {
		t.ReceiptRef = *receiptRef
	}
	if t.Invoice, err = parseAmount(invoice); err != nil {
		return nil, fmt.Errorf("parse invoice: %w", err)
	}
	if t.Tip, err = parseAmount(tip); err != nil {
		return nil, fmt.Errorf("parse tip: %w", err)
	}
	return &t, nil
}

func parseAmount(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func amountParam(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(currencyScale)
	return &s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *PGStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	return db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		return fn(pgQueries{tx: tx, loc: s.loc})
	})
}

// validID keeps malformed ids from reaching a uuid column, where they would fail the cast.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *PGStore) Get(ctx context.Context, id string) (*Transaction, error) {
	if !validID(id) {
		return nil, errNotFound(id)
	}
	t, err := scanTransaction(s.db.QueryRow(ctx, selectTransaction+`WHERE id = $1`, id), s.loc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound(id)
	}
	return t, err
}

func (s *PGStore) list(ctx context.Context, q string, args ...any) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows, s.loc)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PGStore) ListOpen(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return s.list(ctx, selectTransaction+`
WHERE NOT claimed AND cancelled_at IS NULL
  AND delivery_date BETWEEN $1::date AND $2::date
ORDER BY delivery_date ASC, created_at ASC
`, from.Format(dateLayout), to.Format(dateLayout))
}

func (s *PGStore) ListByRecipient(ctx context.Context, recipientID string, completed bool) ([]Transaction, error) {
	return s.list(ctx, selectTransaction+`
WHERE recipient_id = $1 AND completed = $2 AND cancelled_at IS NULL
ORDER BY delivery_date DESC
`, recipientID, completed)
}

func (s *PGStore) ListByVolunteer(ctx context.Context, volunteerID string, completed bool) ([]Transaction, error) {
	return s.list(ctx, selectTransaction+`
WHERE volunteer_id = $1 AND completed = $2 AND cancelled_at IS NULL
ORDER BY delivery_date DESC
`, volunteerID, completed)
}

func (s *PGStore) ListClaimedBetween(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return s.list(ctx, selectTransaction+`
WHERE claimed AND NOT completed AND cancelled_at IS NULL
  AND delivery_date >= $1::date AND delivery_date < $2::date
ORDER BY delivery_date ASC
`, from.Format(dateLayout), to.Format(dateLayout))
}

func (s *PGStore) Events(ctx context.Context, transactionID string) ([]events.Event, error) {
	return events.ListByTransaction(ctx, s.db, transactionID)
}

type pgQueries struct {
	tx  pgx.Tx
	loc *time.Location
}

func (q pgQueries) LockRecipient(ctx context.Context, recipientID string) error {
	_, err := q.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('booking:' || $1::text))`, recipientID)
	return err
}

func (q pgQueries) CountInWindow(ctx context.Context, recipientID string, from, to time.Time, excludeID string) (int, error) {
	const sql = `
SELECT COUNT(*)
FROM transactions
WHERE recipient_id = $1
  AND cancelled_at IS NULL
  AND delivery_date BETWEEN $2::date AND $3::date
  AND id::text <> $4
`
	var n int
	err := q.tx.QueryRow(ctx, sql, recipientID, from.Format(dateLayout), to.Format(dateLayout), excludeID).Scan(&n)
	return n, err
}

func (q pgQueries) Insert(ctx context.Context, t *Transaction) error {
	const sql = `
INSERT INTO transactions (id, recipient_id, store, booking_date, delivery_date, grocery_list, notes, payment_type, payment_notes)
VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9)
RETURNING created_at, updated_at
`
	err := q.tx.QueryRow(ctx, sql,
		t.ID, t.RecipientID, t.Store, t.BookingDate.Format(dateLayout), t.DeliveryDate.Format(dateLayout),
		t.GroceryList, t.Notes, t.PaymentType, t.PaymentNotes,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ValidationErrors{errOnePerWeek()}
	}
	return err
}

func (q pgQueries) GetForUpdate(ctx context.Context, id string) (*Transaction, error) {
	if !validID(id) {
		return nil, errNotFound(id)
	}
	t, err := scanTransaction(q.tx.QueryRow(ctx, selectTransaction+`WHERE id = $1 FOR UPDATE`, id), q.loc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound(id)
	}
	return t, err
}

func (q pgQueries) Update(ctx context.Context, t *Transaction) error {
	const sql = `
UPDATE transactions
SET volunteer_id = $2,
    store = $3,
    booking_date = $4::date,
    delivery_date = $5::date,
    grocery_list = $6,
    notes = $7,
    payment_type = $8,
    payment_notes = $9,
    claimed = $10,
    completed = $11,
    paid = $12,
    invoice = $13::numeric,
    tip = $14::numeric,
    modification_count = $15,
    receipt_ref = $16,
    cancelled_at = $17,
    updated_at = NOW()
WHERE id = $1
RETURNING updated_at
`
	err := q.tx.QueryRow(ctx, sql,
		t.ID, nullString(t.VolunteerID), t.Store, t.BookingDate.Format(dateLayout), t.DeliveryDate.Format(dateLayout),
		t.GroceryList, t.Notes, t.PaymentType, t.PaymentNotes,
		t.Claimed, t.Completed, t.Paid, amountParam(t.Invoice), amountParam(t.Tip),
		t.ModificationCount, nullString(t.ReceiptRef), t.CancelledAt,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return errNotFound(t.ID)
	}
	if db.IsUniqueViolation(err) {
		return ValidationErrors{errOnePerWeek()}
	}
	return err
}

func (q pgQueries) Claim(ctx context.Context, id, volunteerID string) (bool, error) {
	const sql = `
UPDATE transactions
SET volunteer_id = $2, claimed = TRUE, updated_at = NOW()
WHERE id = $1 AND NOT claimed AND cancelled_at IS NULL
`
	if !validID(id) {
		return false, nil
	}
	tag, err := q.tx.Exec(ctx, sql, id, volunteerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (q pgQueries) RecordEvent(ctx context.Context, e events.Event) error {
	return events.Insert(ctx, q.tx, e)
}
