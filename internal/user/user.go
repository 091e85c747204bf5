package user

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleRecipient Role = "recipient"
	RoleVolunteer Role = "volunteer"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRecipient, RoleVolunteer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	Preferences Preferences `json:"preferences"`
}

// Preferences are a recipient's defaults for new bookings.
type Preferences struct {
	Store        string `json:"store"`
	GroceryList  string `json:"list"`
	DropoffDay   string `json:"dropoffDay"`
	DropoffNotes string `json:"dropoffNotes"`
	PaymentNotes string `json:"paymentNotes"`
}

func (u *User) IsRecipient() bool { return u != nil && u.Role == RoleRecipient }
func (u *User) IsVolunteer() bool { return u != nil && u.Role == RoleVolunteer }

var ErrNotFound = errors.New("user not found")

// Directory resolves users by their unique handle or id.
type Directory interface {
	Lookup(ctx context.Context, username string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
}

// Profiles is a Directory whose users can edit their own profile.
type Profiles interface {
	Directory
	UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (*User, error)
}
