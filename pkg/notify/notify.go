package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"deliveries/pkg/config"
)

type Kind string

const (
	KindBookingConfirmed  Kind = "booking_confirmed"
	KindClaimConfirmed    Kind = "claim_confirmed"
	KindDeliveryCancelled Kind = "delivery_cancelled"
	KindVolunteerReminder Kind = "volunteer_reminder"
)

// SignatureHeader carries base64(HMAC_SHA256(body)) keyed with the shared secret.
const SignatureHeader = "X-Deliveries-Signature"

type Message struct {
	Kind    Kind     `json:"kind"`
	From    string   `json:"from,omitempty"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Data    any      `json:"data,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// New returns an HTTP sender when a relay URL is configured and a logging sender otherwise.
func New(cfg config.NotifyConfig) Sender {
	if strings.TrimSpace(cfg.URL) == "" {
		return LogSender{}
	}
	return Client{URL: cfg.URL, Secret: cfg.Secret, Sender: cfg.Sender}
}

// Client posts messages as JSON to a relay (for example a mail gateway).
type Client struct {
	HTTPClient *http.Client
	URL        string
	Secret     string
	Sender     string
}

func (c Client) Send(ctx context.Context, m Message) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.URL == "" {
		return fmt.Errorf("missing notify url")
	}
	if len(m.To) == 0 {
		return fmt.Errorf("message %s has no recipients", m.Kind)
	}
	if m.From == "" {
		m.From = c.Sender
	}

	body, err := json.Marshal(m)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, c.Secret))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(b) > 0 {
			return fmt.Errorf("notify relay error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return fmt.Errorf("notify relay error: status=%d", resp.StatusCode)
	}
	return nil
}

// LogSender only logs; used when no relay is configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m Message) error {
	log.Printf("notify kind=%s to=%s subject=%q", m.Kind, strings.Join(m.To, ","), m.Subject)
	return nil
}

func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign. Relays use it to authenticate requests.
func Verify(body []byte, signature string, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}
