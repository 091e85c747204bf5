package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"deliveries/internal/booking"
	"deliveries/internal/reminder"
	"deliveries/internal/schedule"
	"deliveries/internal/user"
	"deliveries/pkg/config"
	"deliveries/pkg/db"
	"deliveries/pkg/notify"
)

// remind is run by an external scheduler (cron) the morning after the weekly cutoff.
func main() {
	cfg := config.Load()

	policy, err := schedule.NewPolicy(cfg.Schedule)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedule: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	job := reminder.Job{
		Store:    booking.NewPGStore(pool, policy.Location),
		Users:    user.NewRepository(pool),
		Policy:   policy,
		Notifier: notify.New(cfg.Notify),
	}
	res, err := job.Run(ctx, time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "remind: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("reminders sent=%d skipped=%d failed=%d\n", res.Sent, res.Skipped, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}
