package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestTokenOptions describes a token minted by SignTestToken.
type TestTokenOptions struct {
	UserID    uuid.UUID
	Email     string
	Audience  string        // defaults to Audience
	Lifetime  time.Duration // defaults to one hour, negative yields an expired token
	NotBefore time.Time
	IssuedAt  time.Time // defaults to now
}

// SignTestToken mints an HS256 token shaped like the hosted auth API's.
// Tests and local development use it in place of a real sign-in.
func SignTestToken(secret string, opts TestTokenOptions) (string, error) {
	issued := opts.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}
	lifetime := opts.Lifetime
	if lifetime == 0 {
		lifetime = time.Hour
	}
	audience := opts.Audience
	if audience == "" {
		audience = Audience
	}

	claims := hostedClaims{
		Email:     opts.Email,
		Role:      Audience,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   opts.UserID.String(),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(lifetime)),
		},
	}
	if !opts.NotBefore.IsZero() {
		claims.NotBefore = jwt.NewNumericDate(opts.NotBefore)
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
