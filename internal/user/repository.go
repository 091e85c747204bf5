package user

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"deliveries/pkg/db"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, role, name, email, phone, address, created_at,
       store, grocery_list, dropoff_day, dropoff_notes, payment_notes`

const selectUser = `SELECT ` + userColumns + `
FROM users
`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	p := &u.Preferences
	if err := row.Scan(
		&u.ID, &u.Username, &u.Role, &u.Name, &u.Email, &u.Phone, &u.Address, &u.CreatedAt,
		&p.Store, &p.GroceryList, &p.DropoffDay, &p.DropoffNotes, &p.PaymentNotes,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) Lookup(ctx context.Context, username string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUser+`WHERE username = $1`, username))
}

func (r *Repository) Get(ctx context.Context, id string) (*User, error) {
	return scanUser(r.db.QueryRow(ctx, selectUser+`WHERE id = $1`, id))
}

// Upsert creates the user or refreshes its profile. The role of an existing user is never changed.
func (r *Repository) Upsert(ctx context.Context, u User) (*User, error) {
	const q = `
INSERT INTO users (username, role, name, email, phone, address)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (username) DO UPDATE SET
  name = EXCLUDED.name,
  email = EXCLUDED.email,
  phone = EXCLUDED.phone,
  address = EXCLUDED.address
RETURNING ` + userColumns
	return scanUser(r.db.QueryRow(ctx, q, u.Username, string(u.Role), u.Name, u.Email, u.Phone, u.Address))
}

// UpdateProfile applies p to the stored row under a row lock.
func (r *Repository) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*User, error) {
	var out *User
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, selectUser+`WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		p.Apply(u)

		const q = `
UPDATE users
SET name = $2, email = $3, phone = $4, address = $5,
    store = $6, grocery_list = $7, dropoff_day = $8, dropoff_notes = $9, payment_notes = $10
WHERE id = $1
RETURNING ` + userColumns
		prefs := u.Preferences
		out, err = scanUser(tx.QueryRow(ctx, q,
			u.ID, u.Name, u.Email, u.Phone, u.Address,
			prefs.Store, prefs.GroceryList, prefs.DropoffDay, prefs.DropoffNotes, prefs.PaymentNotes,
		))
		return err
	})
	return out, err
}
