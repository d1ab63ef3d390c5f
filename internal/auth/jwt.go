package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Payload carries the validated claims from a provider ID token. It exists
// only transiently during validation.
type Payload struct {
	Email  string
	UserID string
	Exp    int64
	Iss    string
	Aud    string
}

// rs256Parser pins the accepted algorithm to RS256. Claim validation is
// disabled here so the ordered checks below own the error taxonomy, with no
// clock-skew leeway.
var rs256Parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
	jwt.WithoutClaimsValidation(),
)

// ValidateToken verifies the token's RS256 signature against the PEM-encoded
// public key, then enforces the claim constraints in order: presence of all
// required claims, expiry against the current time (exact, no leeway),
// audience equality, and issuer equality against https://{domain}/.
func ValidateToken(pubKeyPEM []byte, token, audience, domain string) (*Payload, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}

	claims := jwt.MapClaims{}
	if _, err := rs256Parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}); err != nil {
		return nil, &MalformedJWTError{Repr: token}
	}

	payload, err := payloadFromClaims(claims, token)
	if err != nil {
		return nil, err
	}

	if payload.Exp < time.Now().Unix() {
		return nil, ErrTokenExpired
	}
	if payload.Aud != audience {
		return nil, ErrAudienceMismatch
	}
	if payload.Iss != fmt.Sprintf("https://%s/", domain) {
		return nil, ErrIssuerMismatch
	}

	return payload, nil
}

func payloadFromClaims(claims jwt.MapClaims, raw string) (*Payload, error) {
	email, okEmail := claims["email"].(string)
	userID, okUser := claims["user_id"].(string)
	exp, okExp := claims["exp"].(float64)
	iss, okIss := claims["iss"].(string)
	aud, okAud := claims["aud"].(string)

	if !okEmail || !okUser || !okExp || !okIss || !okAud {
		return nil, &MalformedJWTError{Repr: raw}
	}

	return &Payload{
		Email:  email,
		UserID: userID,
		Exp:    int64(exp),
		Iss:    iss,
		Aud:    aud,
	}, nil
}
