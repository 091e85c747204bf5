package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"deliveries/pkg/config"
)

func TestClientSend_SignsBody(t *testing.T) {
	const secret = "shh"
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !Verify(body, r.Header.Get(SignatureHeader), secret) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := Client{URL: srv.URL, Secret: secret, Sender: "helpers@example.com"}
	err := c.Send(context.Background(), Message{Kind: KindBookingConfirmed, To: []string{"r@example.com"}, Subject: "Delivery confirmed"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.From != "helpers@example.com" || got.Kind != KindBookingConfirmed {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestClientSend_RelayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mailbox full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := Client{URL: srv.URL}.Send(context.Background(), Message{Kind: KindClaimConfirmed, To: []string{"v@example.com"}})
	if err == nil {
		t.Fatalf("expected error for 503")
	}
}

func TestClientSend_NoRecipients(t *testing.T) {
	if err := (Client{URL: "http://127.0.0.1:1"}).Send(context.Background(), Message{Kind: KindClaimConfirmed}); err == nil {
		t.Fatalf("expected error without recipients")
	}
}

func TestVerify_RejectsTampering(t *testing.T) {
	sig := Sign([]byte(`{"a":1}`), "k")
	if Verify([]byte(`{"a":2}`), sig, "k") {
		t.Fatalf("tampered body must not verify")
	}
	if Verify([]byte(`{"a":1}`), sig, "") {
		t.Fatalf("empty secret must not verify")
	}
}

func TestNew_PicksSender(t *testing.T) {
	if _, ok := New(config.NotifyConfig{}).(LogSender); !ok {
		t.Fatalf("expected LogSender without url")
	}
	if _, ok := New(config.NotifyConfig{URL: "http://relay"}).(Client); !ok {
		t.Fatalf("expected Client with url")
	}
}
