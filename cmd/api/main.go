package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deliveries/internal/booking"
	"deliveries/internal/httpapi"
	"deliveries/internal/schedule"
	"deliveries/internal/user"
	"deliveries/pkg/config"
	"deliveries/pkg/db"
	"deliveries/pkg/notify"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := schedule.NewPolicy(cfg.Schedule)
	if err != nil {
		log.Fatalf("schedule: %v", err)
	}

	var (
		store booking.Store
		users user.Profiles
	)
	switch cfg.StoreDriver {
	case "memory":
		if cfg.AppEnv == "prod" {
			log.Fatalf("store driver memory is not allowed in prod")
		}
		dir := user.NewMemoryDirectory()
		for _, u := range demoUsers() {
			dir.Put(u)
		}
		store, users = booking.NewMemoryStore(), dir
		log.Printf("store driver=memory users=%d", len(demoUsers()))
	default:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer conn.Close()

		if cfg.MigrationsPath != "" {
			if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
				log.Fatalf("migrate: %v", err)
			}
		}
		store, users = booking.NewPGStore(conn, policy.Location), user.NewRepository(conn)
	}

	svc := booking.NewService(store, users, policy, notify.New(cfg.Notify), cfg.PaymentTypes)

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:     cfg,
		Service: svc,
		Users:   users,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}

// demoUsers seed the in-memory directory so the API is usable with X-Username right away.
func demoUsers() []user.User {
	return []user.User{
		{Username: "recipient", Role: user.RoleRecipient, Name: "Demo Recipient", Email: "recipient@localhost"},
		{Username: "volunteer", Role: user.RoleVolunteer, Name: "Demo Volunteer", Email: "volunteer@localhost"},
	}
}
