package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs HS256 access tokens for the built-in login endpoint.
type TokenIssuer struct {
	issuer     string
	audience   string
	signingKey []byte
	ttl        time.Duration
}

// NewTokenIssuer creates a TokenIssuer. A zero ttl defaults to 8 hours, the
// length of a clinic shift.
func NewTokenIssuer(issuer, audience string, signingKey []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &TokenIssuer{issuer: issuer, audience: audience, signingKey: signingKey, ttl: ttl}
}

// Issue returns a signed token for the given subject, email, and roles.
func (ti *TokenIssuer) Issue(subject, email string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ti.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{ti.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Email: email,
		Roles: roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
