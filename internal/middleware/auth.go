package middleware

import (
	"errors"
	"net/http"

	"github.com/Frans06/website/internal/auth"
	"github.com/Frans06/website/internal/logger"
)

// RequireAuth is middleware that validates the session cookie and
// injects the author's user id into the request context.
func RequireAuth(sessions *auth.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			userID, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, auth.ErrSessionNotFound) {
					logger.FromContext(r.Context()).Error("Session lookup failed", "error", err)
				}
				http.Error(w, `{"error":"session expired"}`, http.StatusUnauthorized)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
