package booking

import (
	"context"
	"time"

	"deliveries/internal/events"
)

// Store persists transactions. Writes happen through InTx so that the checks an operation makes
// and the rows it writes commit or roll back together.
type Store interface {
	InTx(ctx context.Context, fn func(q Queries) error) error

	Get(ctx context.Context, id string) (*Transaction, error)
	// ListOpen returns unclaimed, non-cancelled transactions with a delivery date in [from, to].
	ListOpen(ctx context.Context, from, to time.Time) ([]Transaction, error)
	ListByRecipient(ctx context.Context, recipientID string, completed bool) ([]Transaction, error)
	ListByVolunteer(ctx context.Context, volunteerID string, completed bool) ([]Transaction, error)
	// ListClaimedBetween returns claimed, uncompleted, non-cancelled transactions with a delivery
	// date in [from, to).
	ListClaimedBetween(ctx context.Context, from, to time.Time) ([]Transaction, error)
	Events(ctx context.Context, transactionID string) ([]events.Event, error)
}

// Queries is the transaction-scoped view of a Store.
type Queries interface {
	// LockRecipient serialises booking writes of one recipient until the transaction ends.
	LockRecipient(ctx context.Context, recipientID string) error
	// CountInWindow counts the recipient's non-cancelled transactions delivered within [from, to],
	// ignoring excludeID.
	CountInWindow(ctx context.Context, recipientID string, from, to time.Time, excludeID string) (int, error)
	Insert(ctx context.Context, t *Transaction) error
	GetForUpdate(ctx context.Context, id string) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error
	// Claim assigns the volunteer only if the transaction is still open and reports whether it did.
	Claim(ctx context.Context, id, volunteerID string) (bool, error)
	RecordEvent(ctx context.Context, e events.Event) error
}
