package middleware

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/store"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func setupAuthMiddleware(t *testing.T) (*auth.Issuer, *store.UserStore) {
	t.Helper()
	issuer, us, _ := setupAuthMiddlewareDB(t)
	return issuer, us
}

func setupAuthMiddlewareDB(t *testing.T) (*auth.Issuer, *store.UserStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	issuer, err := auth.NewIssuer("middleware-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer, store.NewUserStore(db), db
}

func rejectHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func TestRequireAuthNoToken(t *testing.T) {
	issuer, us := setupAuthMiddleware(t)

	handler := RequireAuth(issuer, us, discardLogger)(rejectHandler(t))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	issuer, us := setupAuthMiddleware(t)

	handler := RequireAuth(issuer, us, discardLogger)(rejectHandler(t))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthDeletedUser(t *testing.T) {
	issuer, us := setupAuthMiddleware(t)

	user, err := us.Create("gone@example.com", "Gone", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := issuer.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := us.Delete(user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	handler := RequireAuth(issuer, us, discardLogger)(rejectHandler(t))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthUserLookupFailure(t *testing.T) {
	issuer, us, db := setupAuthMiddlewareDB(t)

	user, err := us.Create("alice@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, _, err := issuer.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	handler := RequireAuth(issuer, us, logger)(rejectHandler(t))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Errorf("error = %q, want %q", body["error"], "internal server error")
	}
	if !strings.Contains(buf.String(), "load session user") {
		t.Errorf("expected lookup failure to be logged, got %q", buf.String())
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	issuer, us := setupAuthMiddleware(t)

	user, err := us.Create("alice@example.com", "Alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, claims, err := issuer.Issue(user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(issuer, us, discardLogger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	for _, viaCookie := range []bool{true, false} {
		req := httptest.NewRequest("GET", "/", nil)
		if viaCookie {
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("cookie=%v: status = %d, want %d", viaCookie, rec.Code, http.StatusOK)
		}
		if gotAC.UserID != user.ID {
			t.Errorf("UserID = %d, want %d", gotAC.UserID, user.ID)
		}
		if gotAC.SessionID != claims.ID {
			t.Errorf("SessionID = %q, want %q", gotAC.SessionID, claims.ID)
		}
	}
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	if got := SessionToken(req); got != "" {
		t.Errorf("non-bearer header: token = %q, want empty", got)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})
	if got := SessionToken(req); got != "cookie-token" {
		t.Errorf("cookie token = %q", got)
	}
}
