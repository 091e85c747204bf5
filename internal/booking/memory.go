package booking

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"deliveries/internal/events"
)

// MemoryStore keeps transactions in process. InTx runs one function at a time and restores the
// previous state when it fails, so it behaves like the Postgres store for a single instance.
type MemoryStore struct {
	mu     sync.RWMutex
	txs    map[string]Transaction
	events []events.Event
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: map[string]Transaction{}}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := make(map[string]Transaction, len(s.txs))
	for k, v := range s.txs {
		txs[k] = v
	}
	evs := len(s.events)
	nextID := s.nextID

	if err := fn(memQueries{s: s}); err != nil {
		s.txs = txs
		s.events = s.events[:evs]
		s.nextID = nextID
		return err
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.txs[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return &t, nil
}

func (s *MemoryStore) filter(keep func(t Transaction) bool) []Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, t := range s.txs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *MemoryStore) ListOpen(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	out := s.filter(func(t Transaction) bool {
		return t.Status() == StatusOpen && !t.DeliveryDate.Before(from) && !t.DeliveryDate.After(to)
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DeliveryDate.Equal(out[j].DeliveryDate) {
			return out[i].DeliveryDate.Before(out[j].DeliveryDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListByRecipient(ctx context.Context, recipientID string, completed bool) ([]Transaction, error) {
	out := s.filter(func(t Transaction) bool {
		return t.RecipientID == recipientID && t.Completed == completed && t.CancelledAt == nil
	})
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListByVolunteer(ctx context.Context, volunteerID string, completed bool) ([]Transaction, error) {
	out := s.filter(func(t Transaction) bool {
		return t.VolunteerID == volunteerID && t.Completed == completed && t.CancelledAt == nil
	})
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListClaimedBetween(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	out := s.filter(func(t Transaction) bool {
		return t.Status() == StatusClaimed && !t.DeliveryDate.Before(from) && t.DeliveryDate.Before(to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DeliveryDate.Before(out[j].DeliveryDate) })
	return out, nil
}

func (s *MemoryStore) Events(ctx context.Context, transactionID string) ([]events.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []events.Event
	for _, e := range s.events {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func sortNewestFirst(ts []Transaction) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].DeliveryDate.After(ts[j].DeliveryDate) })
}

// memQueries runs with MemoryStore.mu held by InTx.
type memQueries struct {
	s *MemoryStore
}

func (q memQueries) LockRecipient(ctx context.Context, recipientID string) error { return nil }

func (q memQueries) CountInWindow(ctx context.Context, recipientID string, from, to time.Time, excludeID string) (int, error) {
	n := 0
	for _, t := range q.s.txs {
		if t.RecipientID != recipientID || t.CancelledAt != nil || t.ID == excludeID {
			continue
		}
		if !t.DeliveryDate.Before(from) && !t.DeliveryDate.After(to) {
			n++
		}
	}
	return n, nil
}

// sameDayTaken mirrors the partial unique index on (recipient_id, delivery_date).
func (q memQueries) sameDayTaken(t *Transaction) bool {
	for _, o := range q.s.txs {
		if o.ID != t.ID && o.RecipientID == t.RecipientID && o.CancelledAt == nil && o.DeliveryDate.Equal(t.DeliveryDate) {
			return true
		}
	}
	return false
}

func (q memQueries) Insert(ctx context.Context, t *Transaction) error {
	if t.CancelledAt == nil && q.sameDayTaken(t) {
		return ValidationErrors{errOnePerWeek()}
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	q.s.txs[t.ID] = *t
	return nil
}

func (q memQueries) GetForUpdate(ctx context.Context, id string) (*Transaction, error) {
	t, ok := q.s.txs[id]
	if !ok {
		return nil, errNotFound(id)
	}
	return &t, nil
}

func (q memQueries) Update(ctx context.Context, t *Transaction) error {
	if _, ok := q.s.txs[t.ID]; !ok {
		return errNotFound(t.ID)
	}
	if t.CancelledAt == nil && q.sameDayTaken(t) {
		return ValidationErrors{errOnePerWeek()}
	}
	t.UpdatedAt = time.Now()
	q.s.txs[t.ID] = *t
	return nil
}

func (q memQueries) Claim(ctx context.Context, id, volunteerID string) (bool, error) {
	t, ok := q.s.txs[id]
	if !ok || t.Claimed || t.CancelledAt != nil {
		return false, nil
	}
	t.VolunteerID = volunteerID
	t.Claimed = true
	t.UpdatedAt = time.Now()
	q.s.txs[id] = t
	return true, nil
}

func (q memQueries) RecordEvent(ctx context.Context, e events.Event) error {
	if _, err := events.EncodeData(e.Data); err != nil {
		return err
	}
	q.s.nextID++
	e.ID = strconv.FormatInt(q.s.nextID, 10)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	q.s.events = append(q.s.events, e)
	return nil
}
