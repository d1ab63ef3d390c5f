package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"authgate/internal/kv"
)

// Session records an authenticated login. Sessions are keyed by the
// hex-encoded SHA-256 hash of the raw ID token and expire exactly when the
// token does.
type Session struct {
	UserID   string `json:"user_id"`
	Expires  int64  `json:"expires"`
	RawToken []byte `json:"raw_token"`
}

// Expired reports whether the session's lifetime has passed.
func (s *Session) Expired() bool {
	return s.Expires <= time.Now().Unix()
}

// SessionManager creates and resolves sessions in the store.
type SessionManager struct {
	store     kv.Store
	directory *Directory
}

// NewSessionManager creates a SessionManager backed by the given store and
// user directory.
func NewSessionManager(store kv.Store, directory *Directory) *SessionManager {
	return &SessionManager{store: store, directory: directory}
}

// Create persists a session for userID and returns the session key used as
// the session cookie value. Expires must be the exp claim of the originating
// token so the session never outlives token validity.
func (m *SessionManager) Create(ctx context.Context, userID string, expires int64, rawToken []byte) (string, error) {
	sum := sha256.Sum256(rawToken)
	sessionKey := hex.EncodeToString(sum[:])

	session := Session{UserID: userID, Expires: expires, RawToken: rawToken}
	encoded, err := json.Marshal(session)
	if err != nil {
		return "", &SerializationError{Name: "session"}
	}
	if err := m.store.Set(ctx, kv.SessionKey(sessionKey), encoded); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return sessionKey, nil
}

// Resolve returns the user owning the session, or nil when the session is
// absent or expired. A session referencing a missing user record also
// resolves to nil: data inconsistency fails open to "not authenticated"
// rather than erroring. Expired sessions are left in place; expiry is
// enforced lazily at read time.
func (m *SessionManager) Resolve(ctx context.Context, sessionKey string) (*User, error) {
	raw, err := m.store.Get(ctx, kv.SessionKey(sessionKey))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, &DeserializationError{Name: "session"}
	}
	if session.Expired() {
		return nil, nil
	}

	return m.directory.Get(ctx, session.UserID)
}
