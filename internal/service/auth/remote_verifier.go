package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/platform/hosted"
	"github.com/phrazzld/taskboard/internal/platform/logger"
)

// UserLookup resolves an access token to its user via the hosted auth API.
type UserLookup interface {
	GetUser(ctx context.Context, accessToken string) (*hosted.User, error)
}

// remoteTokenVerifier asks the hosted service about every token. It is used
// when the project's JWT secret is not configured.
type remoteTokenVerifier struct {
	users UserLookup
}

// Ensure remoteTokenVerifier implements TokenVerifier interface
var _ TokenVerifier = (*remoteTokenVerifier)(nil)

// NewRemoteVerifier creates a verifier backed by the hosted user endpoint.
func NewRemoteVerifier(users UserLookup) TokenVerifier {
	return &remoteTokenVerifier{users: users}
}

// Verify implements TokenVerifier.
func (v *remoteTokenVerifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	user, err := v.users.GetUser(ctx, tokenString)
	if err != nil {
		var apiErr *hosted.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
			logger.FromContext(ctx).Debug("token rejected by hosted service", "status", apiErr.StatusCode)
			if isExpiredRejection(apiErr) {
				return nil, ErrExpiredToken
			}
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
	}

	if user.Aud != "" && user.Aud != Audience {
		return nil, ErrWrongAudience
	}

	userID, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID: userID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

// isExpiredRejection reports whether the hosted auth API refused a token
// only because it has expired. It answers 401 or 403 with a bad_jwt code and
// a message naming the expiry.
func isExpiredRejection(apiErr *hosted.Error) bool {
	if !apiErr.IsUnauthorized() {
		return false
	}
	if apiErr.Code != "" && apiErr.Code != "bad_jwt" {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "expired")
}
