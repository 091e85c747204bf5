package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deliveries/internal/user"
	"deliveries/pkg/config"
	"deliveries/pkg/session"
)

func testDirectory() *user.MemoryDirectory {
	d := user.NewMemoryDirectory()
	d.Put(user.User{Username: "alice", Role: user.RoleRecipient})
	d.Put(user.User{Username: "victor", Role: user.RoleVolunteer})
	return d
}

func serve(cfg config.Config, req *http.Request) (*httptest.ResponseRecorder, *user.User) {
	var got *user.User
	h := SessionAuth(cfg, testDirectory())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, got
}

func TestSessionAuth_BearerToken(t *testing.T) {
	cfg := config.Config{AppEnv: "prod", Session: config.SessionConfig{Secret: "s3cret", Issuer: "deliveries"}}
	tok, err := session.Sign("victor", user.RoleVolunteer, "s3cret", "deliveries", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec, u := serve(cfg, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if u == nil || u.Username != "victor" || !u.IsVolunteer() {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestSessionAuth_StaleRole(t *testing.T) {
	cfg := config.Config{AppEnv: "prod", Session: config.SessionConfig{Secret: "s3cret", Issuer: "deliveries"}}
	tok, _ := session.Sign("alice", user.RoleVolunteer, "s3cret", "deliveries", time.Now(), time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	if rec, _ := serve(cfg, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSessionAuth_DevHeaderFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-Username", "alice")

	rec, u := serve(config.Config{AppEnv: "dev"}, req)
	if rec.Code != http.StatusNoContent || u == nil || u.Username != "alice" {
		t.Fatalf("dev fallback failed: %d %+v", rec.Code, u)
	}

	rec, _ = serve(config.Config{AppEnv: "prod"}, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("prod must ignore X-Username, got %d", rec.Code)
	}
}

func TestSessionAuth_UnknownUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("X-Username", "mallory")
	if rec, _ := serve(config.Config{AppEnv: "dev"}, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
