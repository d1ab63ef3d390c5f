package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"authgate/internal/auth"
	"authgate/internal/kv"
)

type resolverStub struct {
	resolve func(ctx context.Context, sessionKey string) (*auth.User, error)
}

func (r *resolverStub) Resolve(ctx context.Context, sessionKey string) (*auth.User, error) {
	if r.resolve != nil {
		return r.resolve(ctx, sessionKey)
	}
	return nil, nil
}

func contextUserProbe(t *testing.T) (http.Handler, **auth.User) {
	t.Helper()

	var seen *auth.User
	handler := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	})
	return handler, &seen
}

func TestSessionGuardNoCookie(t *testing.T) {
	probe, seen := contextUserProbe(t)
	guard := newSessionGuard(&resolverStub{}, discardLogger())(probe)

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous request must pass through, got %d", rec.Code)
	}
	if *seen != nil {
		t.Fatalf("expected anonymous context, got %+v", *seen)
	}
}

func TestSessionGuardValidSession(t *testing.T) {
	probe, seen := contextUserProbe(t)
	resolver := &resolverStub{
		resolve: func(_ context.Context, sessionKey string) (*auth.User, error) {
			if sessionKey != "deadbeef" {
				t.Errorf("unexpected session key %q", sessionKey)
			}
			return &auth.User{UserID: "auth0|1", Email: "alice@example.com"}, nil
		},
	}
	guard := newSessionGuard(resolver, discardLogger())(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if *seen == nil || (*seen).UserID != "auth0|1" {
		t.Fatalf("expected user in context, got %+v", *seen)
	}
}

func TestSessionGuardResolveErrorForwardsAnonymous(t *testing.T) {
	probe, seen := contextUserProbe(t)
	resolver := &resolverStub{
		resolve: func(context.Context, string) (*auth.User, error) {
			return nil, errors.New("store down")
		},
	}
	guard := newSessionGuard(resolver, discardLogger())(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "deadbeef"})
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("resolver failure must not surface to the client, got %d", rec.Code)
	}
	if *seen != nil {
		t.Fatalf("expected anonymous context on resolver failure, got %+v", *seen)
	}
}

func TestSessionGuardEndToEnd(t *testing.T) {
	store := kv.NewMemoryStore()
	users := auth.NewDirectory(store)
	sessions := auth.NewSessionManager(store, users)
	ctx := context.Background()

	if _, err := users.GetOrCreate(ctx, "auth0|1", "alice@example.com"); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	sessionKey, err := sessions.Create(ctx, "auth0|1", time.Now().Add(time.Hour).Unix(), []byte("raw-token"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	probe, seen := contextUserProbe(t)
	guard := newSessionGuard(sessions, discardLogger())(probe)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sessionKey})
	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, req)

	if *seen == nil || (*seen).Email != "alice@example.com" {
		t.Fatalf("expected session to authenticate the user, got %+v", *seen)
	}
}

func TestRequireUserRedirectsAnonymous(t *testing.T) {
	handler := requireUser(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestRequireUserPassesAuthenticated(t *testing.T) {
	handler := requireUser(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), userContextKey, &auth.User{UserID: "auth0|1"})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected handler to run, got %d", rec.Code)
	}
}
