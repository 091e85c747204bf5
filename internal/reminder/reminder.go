package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"deliveries/internal/booking"
	"deliveries/internal/schedule"
	"deliveries/internal/user"
	"deliveries/pkg/notify"
)

// Job mails each volunteer the details of their claimed deliveries that fall between today and the
// next cutoff. It is meant to run once a week, the morning after the cutoff.
type Job struct {
	Store    booking.Store
	Users    user.Directory
	Policy   schedule.Policy
	Notifier notify.Sender
}

type Result struct {
	Sent    int
	Skipped int
	Failed  int
}

func (j Job) Run(ctx context.Context, now time.Time) (Result, error) {
	var res Result

	from := j.Policy.Day(now)
	// Dates are whole days, so the cutoff day itself is included.
	to := j.Policy.Day(j.Policy.NextCutoff(now)).AddDate(0, 0, 1)

	txs, err := j.Store.ListClaimedBetween(ctx, from, to)
	if err != nil {
		return res, fmt.Errorf("list claimed: %w", err)
	}

	for i := range txs {
		t := &txs[i]
		volunteer, err := j.Users.Get(ctx, t.VolunteerID)
		if err != nil {
			log.Printf("reminder lookup failed transaction=%s volunteer=%s err=%v", t.ID, t.VolunteerID, err)
			res.Failed++
			continue
		}
		if volunteer.Email == "" {
			res.Skipped++
			continue
		}
		recipientName := t.RecipientID
		if recipient, err := j.Users.Get(ctx, t.RecipientID); err == nil && recipient.Name != "" {
			recipientName = recipient.Name
		}

		msg := notify.Message{
			Kind:    notify.KindVolunteerReminder,
			To:      []string{volunteer.Email},
			Subject: fmt.Sprintf("Delivery for %s on %s", recipientName, t.DeliveryDate.Format("Monday, 01/02")),
			Data:    map[string]any{"user": volunteer.Name, "transaction": t.View()},
		}
		if err := j.Notifier.Send(ctx, msg); err != nil {
			log.Printf("reminder send failed transaction=%s err=%v", t.ID, err)
			res.Failed++
			continue
		}
		res.Sent++
	}

	log.Printf("reminders done from=%s to=%s sent=%d skipped=%d failed=%d",
		from.Format("2006-01-02"), to.Format("2006-01-02"), res.Sent, res.Skipped, res.Failed)
	return res, nil
}
