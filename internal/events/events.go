package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Type string

const (
	TypeBooked          Type = "BOOKED"
	TypeClaimed         Type = "CLAIMED"
	TypeDropped         Type = "DROPPED"
	TypeEdited          Type = "EDITED"
	TypeCancelled       Type = "CANCELLED"
	TypeCompleted       Type = "COMPLETED"
	TypePaid            Type = "PAID"
	TypeReceiptAttached Type = "RECEIPT_ATTACHED"
)

type Event struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId"`
	EventType     Type      `json:"eventType"`
	Summary       string    `json:"summary"`
	Actor         string    `json:"actor"`
	OccurredAt    time.Time `json:"occurredAt"`
	Data          any       `json:"data,omitempty"`
}

// EncodeData renders Data for the jsonb column. A nil Data stays NULL.
func EncodeData(data any) (*string, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	s := string(b)
	return &s, nil
}

func Insert(ctx context.Context, tx pgx.Tx, e Event) error {
	s, err := EncodeData(e.Data)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO transaction_events (transaction_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err = tx.Exec(ctx, q, e.TransactionID, string(e.EventType), e.Summary, e.Actor, e.OccurredAt, s)
	return err
}

func ListByTransaction(ctx context.Context, db *pgxpool.Pool, transactionID string) ([]Event, error) {
	const q = `
SELECT id, transaction_id, event_type, summary, actor, occurred_at, COALESCE(data, '{}'::jsonb)
FROM transaction_events
WHERE transaction_id = $1
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
