package indieauth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSigner signs and verifies compact tokens with a symmetric secret
// shared by the issuing and verifying sides of this process.
type TokenSigner struct {
	method jwt.SigningMethod
	secret []byte
}

// NewTokenSigner creates a new HMAC token signer over secret. The secret is
// injected configuration; it must never be compiled in.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{
		method: jwt.SigningMethodHS256,
		secret: []byte(secret),
	}
}

// Sign produces the signed compact serialization of claims.
func (s *TokenSigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Keyfunc exposes the verification key in the shape jwt.ParseWithClaims
// expects. Method validation happens separately via jwt.WithValidMethods.
func (s *TokenSigner) Keyfunc(_ *jwt.Token) (any, error) {
	return s.secret, nil
}
