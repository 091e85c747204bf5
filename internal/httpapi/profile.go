package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"deliveries/internal/api"
	"deliveries/internal/schedule"
	"deliveries/internal/user"
)

// profileHandlers serve the caller's own profile and delivery preferences.
type profileHandlers struct {
	Users  user.Profiles
	Policy schedule.Policy
}

func (h profileHandlers) Me(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h profileHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return
	}

	var req user.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	req, errs := req.Normalize(u.Role, h.Policy.DeliveryDays)
	if len(errs) > 0 {
		details := make([]api.APIError, len(errs))
		for i, e := range errs {
			details[i] = api.APIError{Code: e.Code, Message: e.Field + ": " + e.Message}
		}
		api.WriteErrorDetails(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "profile update rejected", details)
		return
	}

	updated, err := h.Users.UpdateProfile(r.Context(), u.ID, req)
	if errors.Is(err, user.ErrNotFound) {
		api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
		return
	}
	if err != nil {
		log.Printf("profile update failed user=%s err=%v", u.Username, err)
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to update profile")
		return
	}
	log.Printf("profile updated user=%s", u.Username)
	api.WriteJSON(w, http.StatusOK, map[string]any{"user": updated})
}
