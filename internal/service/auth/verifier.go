package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenVerifier checks hosted-issued access tokens.
type TokenVerifier interface {
	// Verify validates tokenString and returns the identity it carries.
	// Returns ErrInvalidToken, ErrExpiredToken, ErrTokenNotYetValid or
	// ErrWrongAudience for bad tokens, ErrAuthUnavailable when verification
	// itself could not be performed.
	Verify(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the identity extracted from a verified access token.
type Claims struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	SessionID string
	ExpiresAt time.Time
}
