package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"authgate/internal/kv"
)

// Directory resolves provider user identifiers to local User records.
type Directory struct {
	store kv.Store
}

// NewDirectory creates a Directory backed by the given store.
func NewDirectory(store kv.Store) *Directory {
	return &Directory{store: store}
}

// GetOrCreate returns the stored User for userID, creating one on first
// sight. First write wins: a stored record's email is never updated, even if
// the provider reports a new one.
func (d *Directory) GetOrCreate(ctx context.Context, userID, email string) (*User, error) {
	key := kv.UserKey(userID)

	raw, err := d.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		user := &User{UserID: userID, Email: email}
		encoded, err := json.Marshal(user)
		if err != nil {
			return nil, &SerializationError{Name: "user"}
		}
		if err := d.store.Set(ctx, key, encoded); err != nil {
			return nil, fmt.Errorf("store user: %w", err)
		}
		return user, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, &DeserializationError{Name: "user"}
	}
	return &user, nil
}

// Get returns the stored User for userID, or nil when no record exists.
func (d *Directory) Get(ctx context.Context, userID string) (*User, error) {
	raw, err := d.store.Get(ctx, kv.UserKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, &DeserializationError{Name: "user"}
	}
	return &user, nil
}
