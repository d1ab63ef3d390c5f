package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/auth"
	"authgate/internal/config"
	"authgate/internal/kv"
)

func newTestRouter(t *testing.T) (http.Handler, *auth.SessionManager, *auth.Directory) {
	t.Helper()

	cfg := config.Config{
		Environment: "development",
		Auth: config.AuthConfig{
			Domain:      "example.auth",
			ClientID:    "client123",
			RedirectURI: "http://localhost:8080/callback",
		},
	}
	store := kv.NewMemoryStore()
	users := auth.NewDirectory(store)
	sessions := auth.NewSessionManager(store, users)
	router := NewRouter(cfg, store, &fakeExchanger{}, users, sessions, discardLogger())
	return router, sessions, users
}

func TestRouterHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouterForwardsAnonymousHome(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect to login, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected /login, got %q", loc)
	}
}

func TestRouterServesHomeWithSession(t *testing.T) {
	router, sessions, users := newTestRouter(t)
	ctx := context.Background()

	if _, err := users.GetOrCreate(ctx, "auth0|1", "alice@example.com"); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	sessionKey, err := sessions.Create(ctx, "auth0|1", time.Now().Add(time.Hour).Unix(), []byte("token"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 for authenticated home, got %d", rec.Code)
	}
}

func TestRouterExpiredSessionForwards(t *testing.T) {
	router, sessions, users := newTestRouter(t)
	ctx := context.Background()

	if _, err := users.GetOrCreate(ctx, "auth0|1", "alice@example.com"); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	sessionKey, err := sessions.Create(ctx, "auth0|1", time.Now().Add(-time.Minute).Unix(), []byte("stale"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionKey})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected expired session to forward to login, got %d", rec.Code)
	}
}
