package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/principal"
	"github.com/phrazzld/taskboard/internal/service/auth"
)

// AuthMiddleware authenticates requests with hosted-issued access tokens.
type AuthMiddleware struct {
	verifier   auth.TokenVerifier
	cookieName string
}

// NewAuthMiddleware creates an AuthMiddleware. Tokens are read from the
// Authorization header, falling back to the session cookie named cookieName
// so the browser's event stream can authenticate.
func NewAuthMiddleware(verifier auth.TokenVerifier, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		cookieName: cookieName,
	}
}

// errMalformedHeader is returned for an Authorization header that is not a
// bearer credential.
var errMalformedHeader = errors.New("invalid authorization format")

// TokenFromRequest returns the access token presented by r, if any.
func (m *AuthMiddleware) TokenFromRequest(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errMalformedHeader
		}
		return strings.TrimSpace(token), nil
	}
	if m.cookieName != "" {
		if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", auth.ErrMissingToken
}

// Identify verifies the token presented by r and returns the caller.
func (m *AuthMiddleware) Identify(r *http.Request) (principal.Principal, error) {
	token, err := m.TokenFromRequest(r)
	if err != nil {
		return principal.Principal{}, err
	}
	claims, err := m.verifier.Verify(r.Context(), token)
	if err != nil {
		return principal.Principal{}, err
	}
	return principal.Principal{
		UserID:      claims.UserID,
		Email:       claims.Email,
		AccessToken: token,
	}, nil
}

// Authenticate rejects requests without a valid token and stores the caller
// in the request context for the rest.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := m.Identify(r)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization required")
			case errors.Is(err, errMalformedHeader):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrAuthUnavailable):
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
					"Authentication service unavailable", err)
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrWrongAudience):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Authentication error", err)
			}
			return
		}

		ctx := principal.WithPrincipal(r.Context(), p)
		log := logger.FromContext(ctx).With(slog.String("user_id", p.UserID.String()))
		ctx = logger.WithContext(ctx, log)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
