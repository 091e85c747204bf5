package booking

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"deliveries/internal/api"
	"deliveries/internal/user"
	"deliveries/pkg/config"
)

func newTestRouter(f *fixture) http.Handler {
	cfg := config.Config{AppEnv: "dev", Stores: []string{"Hanover Coop", "CVS"}}
	h := Handlers{Service: f.svc, Cfg: cfg}

	r := chi.NewRouter()
	r.Use(api.SessionAuth(cfg, f.svc.Users))
	r.Get("/v1/bookings/options", h.Options)
	r.Post("/v1/bookings/validate", h.Validate)
	r.Get("/v1/transactions", h.List)
	r.Post("/v1/transactions", h.Create)
	r.Get("/v1/transactions/open", h.Open)
	r.Get("/v1/transactions/{id}", h.Get)
	r.Patch("/v1/transactions/{id}", h.Edit)
	r.Post("/v1/transactions/{id}/claim", h.Claim)
	r.Post("/v1/transactions/{id}/complete", h.Complete)
	return r
}

func do(t *testing.T, h http.Handler, u *user.User, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Username", u.Username)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHandlers_BookClaimComplete(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)

	rec, body := do(t, h, f.alice, http.MethodPost, "/v1/transactions",
		`{"date":"2026-10-23","store":"Hanover Coop","list":"eggs","paymentType":"Check"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	tx := body["transaction"].(map[string]any)
	id := tx["id"].(string)
	if tx["status"] != "Open" || tx["deliveryDay"] != "Friday" || tx["list"] != "eggs" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	rec, body = do(t, h, f.victor, http.MethodGet, "/v1/transactions/open?from=2026-10-19&to=2026-10-25", "")
	if rec.Code != http.StatusOK || len(body["items"].([]any)) != 1 {
		t.Fatalf("open: %d %s", rec.Code, rec.Body.String())
	}

	if rec, _ = do(t, h, f.victor, http.MethodPost, "/v1/transactions/"+id+"/claim", ""); rec.Code != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec, body = do(t, h, f.vera, http.MethodPost, "/v1/transactions/"+id+"/claim", "")
	if rec.Code != http.StatusConflict || errorCode(body) != CodeNoLongerAvailable {
		t.Fatalf("second claim: expected 409 %s, got %d: %s", CodeNoLongerAvailable, rec.Code, rec.Body.String())
	}

	rec, body = do(t, h, f.victor, http.MethodPost, "/v1/transactions/"+id+"/complete", `{"invoice":"48.2","tip":"5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	tx = body["transaction"].(map[string]any)
	if tx["status"] != "Completed" || tx["invoice"] != "48.20" || tx["tip"] != "5.00" {
		t.Fatalf("unexpected completed transaction: %+v", tx)
	}

	rec, body = do(t, h, f.alice, http.MethodGet, "/v1/transactions?completed=true", "")
	if rec.Code != http.StatusOK || len(body["items"].([]any)) != 1 {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
}

func TestHandlers_ValidationDetails(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)
	f.book(t, f.alice, f.friday)

	// Wednesday, and inside the window of the Friday booking.
	rec, body := do(t, h, f.alice, http.MethodPost, "/v1/bookings/validate", `{"date":"2026-10-21"}`)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(body) != "VALIDATION_FAILED" {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	details := body["error"].(map[string]any)["details"].([]any)
	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %+v", details)
	}

	rec, _ = do(t, h, f.alice, http.MethodPost, "/v1/bookings/validate", `{"date":"2026-10-30"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for next Friday, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, h, f.alice, http.MethodPost, "/v1/transactions", `{"date":"23/10/2026"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestHandlers_ErrorMapping(t *testing.T) {
	f := newFixture(t)
	h := newTestRouter(f)
	tx := f.book(t, f.alice, f.friday)

	rec, body := do(t, h, f.victor, http.MethodPost, "/v1/transactions", `{"date":"2026-10-23"}`)
	if rec.Code != http.StatusForbidden || errorCode(body) != "FORBIDDEN" {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, h, f.bob, http.MethodGet, "/v1/transactions/"+tx.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	for i := 0; i < 2; i++ {
		if rec, _ = do(t, h, f.alice, http.MethodPatch, "/v1/transactions/"+tx.ID, `{"date":"2026-10-24"}`); rec.Code != http.StatusOK {
			t.Fatalf("edit %d: %d %s", i+1, rec.Code, rec.Body.String())
		}
	}
	rec, body = do(t, h, f.alice, http.MethodPatch, "/v1/transactions/"+tx.ID, `{"date":"2026-10-25"}`)
	if rec.Code != http.StatusConflict || errorCode(body) != "MODIFICATION_LIMIT" {
		t.Fatalf("expected 409 MODIFICATION_LIMIT, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlers_Options(t *testing.T) {
	f := newFixture(t)
	rec, body := do(t, newTestRouter(f), f.alice, http.MethodGet, "/v1/bookings/options", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(body["stores"].([]any)) != 2 || len(body["deliveryDays"].([]any)) != 3 {
		t.Fatalf("unexpected options: %+v", body)
	}
	if body["nextCutoff"] != "2026-10-22T18:00:00Z" {
		t.Fatalf("unexpected cutoff %v", body["nextCutoff"])
	}
}

func TestHandlers_OptionsDefaultsFromPreferences(t *testing.T) {
	f := newFixture(t)
	f.users.Put(user.User{
		Username: "alice",
		Role:     user.RoleRecipient,
		Preferences: user.Preferences{
			Store:        "CVS",
			GroceryList:  "oat milk",
			DropoffDay:   "Saturday",
			DropoffNotes: "side door",
		},
	})
	h := newTestRouter(f)

	rec, body := do(t, h, f.alice, http.MethodGet, "/v1/bookings/options", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	defaults, ok := body["defaults"].(map[string]any)
	if !ok {
		t.Fatalf("expected defaults for a recipient, got %+v", body)
	}
	if defaults["date"] != "2026-10-24" || defaults["store"] != "CVS" || defaults["list"] != "oat milk" || defaults["notes"] != "side door" {
		t.Fatalf("unexpected defaults %+v", defaults)
	}

	// The suggested date is bookable as is.
	rec, _ = do(t, h, f.alice, http.MethodPost, "/v1/transactions", `{"date":"2026-10-24","store":"CVS"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("booking the suggested date: %d %s", rec.Code, rec.Body.String())
	}

	_, body = do(t, h, f.victor, http.MethodGet, "/v1/bookings/options", "")
	if _, ok := body["defaults"]; ok {
		t.Fatalf("volunteers get no booking defaults, got %+v", body)
	}
}
