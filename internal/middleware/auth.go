package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/store"
)

const SessionCookieName = "chorely_session"

// SessionToken returns the bearer token from the Authorization header, or
// the session cookie when no header is present.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuth validates the session token and populates AuthContext.
// Tokens for users that no longer exist are rejected. A failed user lookup
// is logged and answered with 500.
func RequireAuth(issuer *auth.Issuer, userStore *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			claims, err := issuer.Parse(token)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := userStore.GetByID(claims.UserID)
			if err != nil {
				logger.Error("load session user", "user_id", claims.UserID, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if user == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    user.ID,
				Email:     user.Email,
				SessionID: claims.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "unauthorized")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
