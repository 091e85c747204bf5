package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-process Directory used with the memory store driver and in tests.
type MemoryDirectory struct {
	mu     sync.RWMutex
	byName map[string]*User
	byID   map[string]*User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byName: make(map[string]*User),
		byID:   make(map[string]*User),
	}
}

// Put stores u, assigning an id when it has none, and returns the stored copy.
func (d *MemoryDirectory) Put(u User) *User {
	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.byName[u.Username]; ok {
		u.ID = existing.ID
		u.Role = existing.Role
		u.CreatedAt = existing.CreatedAt
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	stored := u
	d.byName[u.Username] = &stored
	d.byID[u.ID] = &stored
	out := stored
	return &out
}

func (d *MemoryDirectory) Lookup(_ context.Context, username string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byName[username]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (d *MemoryDirectory) Get(_ context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (d *MemoryDirectory) UpdateProfile(_ context.Context, id string, p ProfileUpdate) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Apply(u)
	out := *u
	return &out, nil
}
