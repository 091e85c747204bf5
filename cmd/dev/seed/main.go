package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"deliveries/internal/user"
	"deliveries/pkg/config"
	"deliveries/pkg/db"
	"deliveries/pkg/session"
)

func main() {
	var (
		username = flag.String("username", "", "user handle")
		role     = flag.String("role", "recipient", "recipient or volunteer")
		name     = flag.String("name", "", "display name")
		email    = flag.String("email", "", "email used for notifications")
		ttl      = flag.Duration("ttl", 24*time.Hour, "session token lifetime")
		apiURL   = flag.String("api-url", "", "API base url (defaults to http://localhost<HTTP_ADDR>)")
		bookDate = flag.String("book", "", "optionally book a delivery on this date (YYYY-MM-DD) through the API")
		store    = flag.String("store", "Hanover Coop", "store for -book")
	)
	flag.Parse()

	if *username == "" {
		fmt.Fprintln(os.Stderr, "missing -username")
		os.Exit(2)
	}
	r, err := user.ParseRole(*role)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.Session.Secret == "" {
		fmt.Fprintln(os.Stderr, "missing SESSION_SECRET (in env/.env)")
		os.Exit(2)
	}
	if *apiURL == "" {
		*apiURL = defaultAPIURL(cfg.HTTPAddr)
	}

	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	u, err := user.NewRepository(pool).Upsert(ctx, user.User{
		Username: *username,
		Role:     r,
		Name:     *name,
		Email:    *email,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "upsert user: %v\n", err)
		os.Exit(1)
	}

	token, err := session.Sign(u.Username, u.Role, cfg.Session.Secret, cfg.Session.Issuer, time.Now(), *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seed complete.\n")
	fmt.Printf("user_id=%s username=%s role=%s\n", u.ID, u.Username, u.Role)
	fmt.Printf("token=%s\n", token)

	if *bookDate == "" {
		return
	}

	body, _ := json.Marshal(map[string]any{"date": *bookDate, "store": *store})
	req, err := http.NewRequest(http.MethodPost, *apiURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post booking: %v\n", err)
		fmt.Fprintf(os.Stderr, "tip: is the API running, and is HTTP_ADDR set correctly? api_url=%s\n", *apiURL)
		os.Exit(1)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Fprintf(os.Stderr, "booking status=%d body=%s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("booking=%s\n", strings.TrimSpace(string(b)))
}

func defaultAPIURL(httpAddr string) string {
	if strings.HasPrefix(httpAddr, ":") {
		return "http://localhost" + httpAddr
	}
	return "http://" + httpAddr
}
