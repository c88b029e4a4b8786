package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dukerupert/chorely/internal/apperr"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

type AuthHandler struct {
	userStore    *store.UserStore
	issuer       *auth.Issuer
	devSignin    bool
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, issuer *auth.Issuer, devSignin, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		issuer:       issuer,
		devSignin:    devSignin,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type signinRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type signinResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// SignIn upserts the user by email and starts a session. It stands in for
// the identity provider and is only served when dev sign-in is enabled.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if !h.devSignin {
		writeError(w, h.logger, r, apperr.NotFound("sign-in is not enabled"))
		return
	}

	var req signinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		writeError(w, h.logger, r, apperr.InvalidInput("a valid email is required"))
		return
	}

	user, err := h.userStore.Upsert(email, strings.TrimSpace(req.Name), strings.TrimSpace(req.Image))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	token, claims, err := h.issuer.Issue(user.ID, user.Email)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.issuer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("user signed in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, signinResponse{User: user, Token: token, ExpiresAt: claims.ExpiresAt.Time})
}

// SignOut clears the session cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
