package auth

import (
	"errors"
	"fmt"
)

// The closed set of validation failures. Handlers map these onto coarse HTTP
// statuses with errors.Is/As; no other inspection is needed.
var (
	ErrTokenExpired     = errors.New("auth: token expired")
	ErrAudienceMismatch = errors.New("auth: audience mismatch")
	ErrIssuerMismatch   = errors.New("auth: issuer mismatch")
)

// MalformedJWTError reports a token that failed structural, signature, or
// required-claim checks. Repr is logged, never returned to clients.
type MalformedJWTError struct {
	Repr string
}

func (e *MalformedJWTError) Error() string {
	return fmt.Sprintf("auth: malformed jwt: %s", e.Repr)
}

// SerializationError reports a record that could not be encoded for storage.
type SerializationError struct {
	Name string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("auth: could not serialize %s", e.Name)
}

// DeserializationError reports stored or received bytes that could not be
// decoded into a record.
type DeserializationError struct {
	Name string
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("auth: could not deserialize %s", e.Name)
}
