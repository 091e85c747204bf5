package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MigrationsPath string

	// StoreDriver selects the transaction store: "postgres" (default) or "memory" for local poking
	// around without a database. The memory store loses everything on restart.
	StoreDriver string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often PgBouncer/pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Schedule ScheduleConfig

	Session SessionConfig

	Notify NotifyConfig

	// AllowedOrigins is a comma-separated allowlist of browser origins allowed to call the API.
	AllowedOrigins []string

	// Stores and PaymentTypes are the choices offered to recipients when booking.
	// An empty PaymentTypes list disables payment type validation.
	Stores       []string
	PaymentTypes []string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// ScheduleConfig holds the raw booking window settings. Weekdays are names ("thursday", "thu") or
// numbers (0 = Sunday); schedule.NewPolicy parses them.
type ScheduleConfig struct {
	CutoffWeekday     string
	CutoffHour        int
	DeliveryWeekdays  []string
	MaxModifications  int
	BookingWindowDays int
	Timezone          string
}

type SessionConfig struct {
	Secret string
	Issuer string
}

type NotifyConfig struct {
	// URL receives signed JSON notifications (booking confirmations, claim confirmations, reminders).
	// Empty means notifications are only logged.
	URL    string
	Secret string
	Sender string
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		StoreDriver:    env("STORE_DRIVER", "postgres"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "deliveries"),
			User:     env("DB_USER", "deliveries"),
			Password: env("DB_PASSWORD", "deliveries"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Schedule: ScheduleConfig{
			CutoffWeekday:     env("CUTOFF_WEEKDAY", "thursday"),
			CutoffHour:        envInt("CUTOFF_HOUR", 18),
			DeliveryWeekdays:  envList("DELIVERY_WEEKDAYS", "friday,saturday,sunday"),
			MaxModifications:  envInt("MAX_MODIFICATIONS", 2),
			BookingWindowDays: envInt("BOOKING_WINDOW_DAYS", 2),
			Timezone:          env("TIMEZONE", "America/New_York"),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Issuer: env("SESSION_ISSUER", "deliveries"),
		},
		Notify: NotifyConfig{
			URL:    os.Getenv("NOTIFY_URL"),
			Secret: os.Getenv("NOTIFY_SECRET"),
			Sender: env("NOTIFY_SENDER", "deliveries@localhost"),
		},

		AllowedOrigins: envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
		Stores:         envList("STORES", "Hanover Coop,Lebanon Coop,Hannaford's,CVS,BJ's"),
		PaymentTypes:   envList("PAYMENT_TYPES", "Check,Paypal,Coop Charge Account,Other"),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
