package booking

import (
	"time"

	"deliveries/internal/user"
)

// Defaults prefill a recipient's booking form from their saved preferences.
type Defaults struct {
	Date string `json:"date"`
	Details
}

func (s *Service) Defaults(u *user.User, now time.Time) Defaults {
	prefs := u.Preferences
	return Defaults{
		Date: s.policy().SuggestDate(now, prefs.DropoffDay).Format(dateLayout),
		Details: Details{
			Store:        prefs.Store,
			GroceryList:  prefs.GroceryList,
			Notes:        prefs.DropoffNotes,
			PaymentNotes: prefs.PaymentNotes,
		},
	}
}
