// Package auth issues and verifies reconnect tokens. A reconnect token
// is a signed claim over a persistent participant id; a client presenting
// a valid token on re-registration is rebound to that identity. Invalid
// or absent tokens never produce an error at the router level: the claim
// is simply not trusted and handling falls back to the bare claimed id.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: ttl}
}

// ReconnectClaims binds a persistent participant id and its role.
type ReconnectClaims struct {
	PersistentID string `json:"persistent_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates a signed reconnect token for a participant.
func (i *TokenIssuer) Issue(persistentID, role string) (string, error) {
	claims := &ReconnectClaims{
		PersistentID: persistentID,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-desk",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.key)
}

// Verify parses and checks signature and expiry, returning the embedded
// persistent id. Any failure returns the zero value; callers treat that
// as "claim not trusted", never as a fatal condition.
func (i *TokenIssuer) Verify(tokenString string) (string, bool) {
	token, err := jwt.ParseWithClaims(tokenString, &ReconnectClaims{}, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", false
	}
	claims, ok := token.Claims.(*ReconnectClaims)
	if !ok || !token.Valid || claims.PersistentID == "" {
		return "", false
	}
	return claims.PersistentID, true
}
