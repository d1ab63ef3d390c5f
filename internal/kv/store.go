// Package kv provides the byte-keyed persistence layer shared by the
// authentication components. Keys are namespaced by entity type so that
// users, sessions, and signing-key material coexist in one store.
package kv

import (
	"context"
	"errors"
)

// Fixed keys for the provisioned signing-key material.
const (
	KeyPubKeyPEM = "jwt_pub_key_pem"
	KeyPubKeyDER = "jwt_pub_key_der"
	KeyCertDER   = "jwt_cert_der"
)

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable byte-keyed store safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// UserKey returns the namespaced store key for a user record.
func UserKey(userID string) string {
	return "users/" + userID
}

// SessionKey returns the namespaced store key for a session record.
func SessionKey(hash string) string {
	return "sessions/" + hash
}
