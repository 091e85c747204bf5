package user

import (
	"net/mail"
	"strings"
	"time"

	"deliveries/internal/schedule"
)

// ProfileUpdate changes only the fields that are set. Preferences are replaced as a whole.
type ProfileUpdate struct {
	Name        *string      `json:"name"`
	Email       *string      `json:"email"`
	Phone       *string      `json:"phone"`
	Address     *string      `json:"address"`
	Preferences *Preferences `json:"preferences"`
}

const (
	CodeRecipientOnly     = "RECIPIENT_ONLY"
	CodeInvalidEmail      = "INVALID_EMAIL"
	CodeInvalidDropoffDay = "INVALID_DROPOFF_DAY"
)

type FieldError struct {
	Field   string
	Code    string
	Message string
}

// Normalize checks p for a user of the given role and returns it with the dropoff day spelled
// canonically. deliveryDays are the weekdays a dropoff day may name.
func (p ProfileUpdate) Normalize(role Role, deliveryDays []time.Weekday) (ProfileUpdate, []FieldError) {
	var errs []FieldError

	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				errs = append(errs, FieldError{Field: "email", Code: CodeInvalidEmail, Message: "email is not a valid address"})
			}
		}
		p.Email = &email
	}

	if role != RoleRecipient {
		if p.Address != nil {
			errs = append(errs, FieldError{Field: "address", Code: CodeRecipientOnly, Message: "only recipients have a delivery address"})
		}
		if p.Preferences != nil {
			errs = append(errs, FieldError{Field: "preferences", Code: CodeRecipientOnly, Message: "only recipients have delivery preferences"})
		}
		return p, errs
	}

	if p.Preferences != nil && strings.TrimSpace(p.Preferences.DropoffDay) != "" {
		prefs := *p.Preferences
		d, err := schedule.ParseWeekday(prefs.DropoffDay)
		if err != nil || !containsWeekday(deliveryDays, d) {
			errs = append(errs, FieldError{Field: "preferences.dropoffDay", Code: CodeInvalidDropoffDay, Message: "dropoff day must be a delivery day"})
		} else {
			prefs.DropoffDay = d.String()
		}
		p.Preferences = &prefs
	}
	return p, errs
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	if p.Preferences != nil {
		u.Preferences = *p.Preferences
	}
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, x := range days {
		if x == d {
			return true
		}
	}
	return false
}
