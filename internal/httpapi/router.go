package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"deliveries/internal/api"
	"deliveries/internal/booking"
	"deliveries/internal/user"
	"deliveries/pkg/config"
)

type Dependencies struct {
	Cfg     config.Config
	Service *booking.Service
	Users   user.Profiles
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	bookingHandlers := booking.Handlers{Service: deps.Service, Cfg: deps.Cfg}
	profile := profileHandlers{Users: deps.Users, Policy: deps.Service.Validator.Policy}

	r.Route("/v1", func(r chi.Router) {
		// Browser clients live on a separate origin.
		r.Use(api.CORSMiddleware(api.CORSOptions{
			AllowedOrigins: deps.Cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Username"},
			MaxAgeSeconds:  600,
		}))

		r.Group(func(r chi.Router) {
			// Production: Bearer session token
			// Dev: falls back to X-Username if Authorization is missing.
			r.Use(api.SessionAuth(deps.Cfg, deps.Users))

			r.Get("/me", profile.Me)
			r.Patch("/me", profile.UpdateMe)

			r.Get("/bookings/options", bookingHandlers.Options)
			r.Post("/bookings/validate", bookingHandlers.Validate)

			r.Get("/transactions", bookingHandlers.List)
			r.Post("/transactions", bookingHandlers.Create)
			r.Get("/transactions/open", bookingHandlers.Open)
			r.Get("/transactions/{id}", bookingHandlers.Get)
			r.Patch("/transactions/{id}", bookingHandlers.Edit)
			r.Get("/transactions/{id}/events", bookingHandlers.Events)
			r.Post("/transactions/{id}/cancel", bookingHandlers.Cancel)
			r.Post("/transactions/{id}/claim", bookingHandlers.Claim)
			r.Post("/transactions/{id}/drop", bookingHandlers.Drop)
			r.Post("/transactions/{id}/complete", bookingHandlers.Complete)
			r.Post("/transactions/{id}/paid", bookingHandlers.Paid)
			r.Post("/transactions/{id}/receipt", bookingHandlers.Receipt)
		})
	})

	return r
}
