package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"deliveries/internal/user"
	"deliveries/pkg/config"
	"deliveries/pkg/session"
)

// SessionAuth resolves the caller from a Bearer session token and attaches the user to the request
// context.
//
// Outside prod a request without a token may name its user with X-Username instead, which keeps
// local testing simple.
func SessionAuth(cfg config.Config, users user.Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var username string
			var role user.Role

			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			switch {
			case strings.HasPrefix(strings.ToLower(authz), "bearer "):
				vs, err := session.Verify(strings.TrimSpace(authz[7:]), cfg.Session.Secret, cfg.Session.Issuer, time.Now())
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				username, role = vs.Username, vs.Role
			case cfg.AppEnv != "prod":
				username = strings.TrimSpace(r.Header.Get("X-Username"))
			}
			if username == "" {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
				return
			}

			u, err := users.Lookup(r.Context(), username)
			if err != nil {
				if errors.Is(err, user.ErrNotFound) {
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unknown user")
					return
				}
				log.Printf("session lookup failed username=%s err=%v", username, err)
				WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
				return
			}
			// Role changes invalidate outstanding tokens.
			if role != "" && role != u.Role {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "stale session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
