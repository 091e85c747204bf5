package booking

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"deliveries/internal/api"
	"deliveries/internal/events"
	"deliveries/internal/user"
	"deliveries/pkg/config"
)

type Handlers struct {
	Service *Service
	Cfg     config.Config
}

type bookingRequest struct {
	Date string `json:"date"`
	Details
}

type receiptRequest struct {
	ReceiptRef string `json:"receiptUrl"`
}

func (h Handlers) caller(w http.ResponseWriter, r *http.Request) *user.User {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
	}
	return u
}

func (h Handlers) parseDate(s string) (time.Time, error) {
	return h.Service.policy().ParseDate(s)
}

// Options are the choices a booking form offers. Recipients also get defaults from their
// delivery preferences.
func (h Handlers) Options(w http.ResponseWriter, r *http.Request) {
	p := h.Service.policy()
	now := h.Service.now()
	days := make([]string, len(p.DeliveryDays))
	for i, d := range p.DeliveryDays {
		days[i] = d.String()
	}
	out := map[string]any{
		"stores":           h.Cfg.Stores,
		"paymentTypes":     h.Service.PaymentTypes,
		"deliveryDays":     days,
		"nextCutoff":       p.NextCutoff(now),
		"maxModifications": p.MaxModifications,
	}
	if u := api.UserFromContext(r.Context()); u.IsRecipient() {
		out["defaults"] = h.Service.Defaults(u, now)
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	completed := false
	if v := r.URL.Query().Get("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "completed must be true or false")
			return
		}
		completed = b
	}

	items, err := h.Service.ListForUser(r.Context(), u, completed)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": views(items)})
}

// Open lists unclaimed deliveries. The range defaults to today through two weeks out.
func (h Handlers) Open(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	from := h.Service.policy().Day(h.Service.now())
	to := from.AddDate(0, 0, 14)

	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = h.parseDate(v); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "from must be YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = h.parseDate(v); err != nil {
			api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "to must be YYYY-MM-DD")
			return
		}
	}

	items, err := h.Service.ListOpen(r.Context(), u, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": views(items)})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	t, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"transaction": t.View()})
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	items, err := h.Service.Events(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []events.Event{}
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Validate checks a date without booking it. An optional transactionId validates it as an edit.
func (h Handlers) Validate(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	var req struct {
		Date          string `json:"date"`
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be YYYY-MM-DD")
		return
	}

	if err := h.Service.ValidateBookingDate(r.Context(), u, date, h.Service.now(), req.TransactionID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be YYYY-MM-DD")
		return
	}

	t, err := h.Service.Book(r.Context(), u, date, req.Details, h.Service.now())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, map[string]any{"transaction": t.View()})
}

func (h Handlers) Edit(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	date, err := h.parseDate(req.Date)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "date must be YYYY-MM-DD")
		return
	}

	t, err := h.Service.Edit(r.Context(), chi.URLParam(r, "id"), u, date, req.Details, h.Service.now())
	h.respond(w, t, err)
}

func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	t, err := h.Service.Cancel(r.Context(), chi.URLParam(r, "id"), u, h.Service.now())
	h.respond(w, t, err)
}

func (h Handlers) Claim(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	t, err := h.Service.Claim(r.Context(), chi.URLParam(r, "id"), u)
	h.respond(w, t, err)
}

func (h Handlers) Drop(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	t, err := h.Service.Drop(r.Context(), chi.URLParam(r, "id"), u)
	h.respond(w, t, err)
}

func (h Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	var req CompleteInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	t, err := h.Service.MarkComplete(r.Context(), chi.URLParam(r, "id"), u, req)
	h.respond(w, t, err)
}

func (h Handlers) Paid(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	t, err := h.Service.MarkPaid(r.Context(), chi.URLParam(r, "id"), u)
	h.respond(w, t, err)
}

func (h Handlers) Receipt(w http.ResponseWriter, r *http.Request) {
	u := h.caller(w, r)
	if u == nil {
		return
	}
	var req receiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	t, err := h.Service.AttachReceipt(r.Context(), chi.URLParam(r, "id"), u, req.ReceiptRef)
	h.respond(w, t, err)
}

func (h Handlers) respond(w http.ResponseWriter, t *Transaction, err error) {
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"transaction": t.View()})
}

func (h Handlers) writeServiceError(w http.ResponseWriter, err error) {
	var (
		verrs     ValidationErrors
		verr      ValidationError
		notFound  NotFoundError
		conflict  ConflictError
		limit     LimitExceededError
		forbidden ForbiddenError
	)
	switch {
	case errors.As(err, &verrs):
		details := make([]api.APIError, len(verrs))
		for i, v := range verrs {
			details[i] = api.APIError{Code: v.Code, Message: v.Message}
		}
		api.WriteErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verrs.Error(), details)
	case errors.As(err, &verr):
		api.WriteErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", verr.Message,
			[]api.APIError{{Code: verr.Code, Message: verr.Message}})
	case errors.As(err, &notFound):
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", notFound.Error())
	case errors.As(err, &conflict):
		api.WriteError(w, http.StatusConflict, conflict.Code, conflict.Message)
	case errors.As(err, &limit):
		api.WriteError(w, http.StatusConflict, "MODIFICATION_LIMIT", limit.Error())
	case errors.As(err, &forbidden):
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", forbidden.Message)
	default:
		log.Printf("booking handler error err=%v", err)
		msg := "internal error"
		if h.Cfg.AppEnv != "prod" {
			msg = err.Error()
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", msg)
	}
}
