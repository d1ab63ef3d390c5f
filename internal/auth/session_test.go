package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"authgate/internal/kv"
)

func newTestSessionManager(t *testing.T) (*SessionManager, *Directory, *kv.MemoryStore) {
	t.Helper()

	store := kv.NewMemoryStore()
	dir := NewDirectory(store)
	return NewSessionManager(store, dir), dir, store
}

func TestSessionCreateResolve(t *testing.T) {
	manager, dir, _ := newTestSessionManager(t)
	ctx := context.Background()

	if _, err := dir.GetOrCreate(ctx, "auth0|1", "alice@example.com"); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}

	rawToken := []byte("header.payload.signature")
	expires := time.Now().Add(time.Hour).Unix()
	key, err := manager.Create(ctx, "auth0|1", expires, rawToken)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	sum := sha256.Sum256(rawToken)
	if key != hex.EncodeToString(sum[:]) {
		t.Fatalf("session key is not the token hash: %q", key)
	}

	user, err := manager.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if user == nil || user.UserID != "auth0|1" {
		t.Fatalf("expected user auth0|1, got %+v", user)
	}
}

func TestSessionExpiresMatchesTokenExpiry(t *testing.T) {
	manager, _, store := newTestSessionManager(t)
	ctx := context.Background()

	rawToken := []byte("raw-id-token")
	expires := time.Now().Add(time.Hour).Unix()
	key, err := manager.Create(ctx, "auth0|1", expires, rawToken)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	raw, err := store.Get(ctx, kv.SessionKey(key))
	if err != nil {
		t.Fatalf("session record missing: %v", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		t.Fatalf("session record does not decode: %v", err)
	}
	if session.Expires != expires {
		t.Fatalf("expected session expiry %d, got %d", expires, session.Expires)
	}
	if string(session.RawToken) != string(rawToken) {
		t.Fatalf("raw token did not round-trip: %q", session.RawToken)
	}
}

func TestSessionResolveAbsent(t *testing.T) {
	manager, _, _ := newTestSessionManager(t)

	user, err := manager.Resolve(context.Background(), "0000000000000000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected anonymous for absent session, got %+v", user)
	}
}

func TestSessionResolveExpired(t *testing.T) {
	manager, dir, _ := newTestSessionManager(t)
	ctx := context.Background()

	if _, err := dir.GetOrCreate(ctx, "auth0|1", "alice@example.com"); err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	key, err := manager.Create(ctx, "auth0|1", time.Now().Add(-time.Minute).Unix(), []byte("stale-token"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	user, err := manager.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected expired session to resolve anonymous, got %+v", user)
	}
}

func TestSessionResolveMissingUserFailsOpen(t *testing.T) {
	manager, _, _ := newTestSessionManager(t)
	ctx := context.Background()

	// Session exists but the user record it references does not.
	key, err := manager.Create(ctx, "auth0|ghost", time.Now().Add(time.Hour).Unix(), []byte("orphan-token"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	user, err := manager.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("expected fail-open, got error: %v", err)
	}
	if user != nil {
		t.Fatalf("expected anonymous for orphaned session, got %+v", user)
	}
}

func TestSessionExpiredBoundary(t *testing.T) {
	session := Session{Expires: time.Now().Unix()}
	if !session.Expired() {
		t.Fatal("session expiring now must already count as expired")
	}
}
