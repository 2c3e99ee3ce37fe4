package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/hosted"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/redact"
)

// HostedAuth is the subset of the hosted auth client the Authenticator uses.
type HostedAuth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*hosted.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*hosted.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Authenticator manages user sessions through the hosted auth API.
type Authenticator interface {
	// SignIn exchanges email and password for a session.
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)

	// Refresh exchanges a refresh token for a new session.
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)

	// SignOut revokes the session the access token belongs to.
	SignOut(ctx context.Context, accessToken string) error
}

type hostedAuthenticator struct {
	auth   HostedAuth
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator over the hosted auth API.
func NewAuthenticator(auth HostedAuth, logger *slog.Logger) Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &hostedAuthenticator{
		auth:   auth,
		logger: logger.With(slog.String("component", "authenticator")),
	}
}

// SignIn implements Authenticator.
func (a *hostedAuthenticator) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)

	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := a.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		mapped := mapAuthError(err)
		if errors.Is(mapped, ErrInvalidCredentials) {
			log.Info("sign-in rejected")
		} else {
			log.Error("sign-in failed", slog.String("error", redact.Error(err)))
		}
		return nil, mapped
	}

	result, err := toDomainSession(session)
	if err != nil {
		return nil, err
	}
	log.Info("user signed in", slog.String("user_id", result.User.ID.String()))
	return result, nil
}

// Refresh implements Authenticator.
func (a *hostedAuthenticator) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	session, err := a.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		logger.FromContextOrDefault(ctx, a.logger).Debug("session refresh failed", slog.String("error", redact.Error(err)))
		return nil, mapAuthError(err)
	}
	return toDomainSession(session)
}

// SignOut implements Authenticator.
func (a *hostedAuthenticator) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return ErrMissingToken
	}

	if err := a.auth.SignOut(ctx, accessToken); err != nil {
		mapped := mapAuthError(err)
		// An already-invalid session is as signed out as it gets.
		if errors.Is(mapped, ErrInvalidCredentials) {
			return nil
		}
		return mapped
	}
	return nil
}

func toDomainSession(s *hosted.Session) (*domain.Session, error) {
	if s.User == nil {
		return nil, fmt.Errorf("%w: session without user", ErrAuthUnavailable)
	}
	userID, err := uuid.Parse(s.User.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed user id", ErrAuthUnavailable)
	}
	return &domain.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.Expiry(),
		User: domain.User{
			ID:    userID,
			Email: s.User.Email,
		},
	}, nil
}

// mapAuthError classifies hosted auth failures. Client errors mean the
// credentials are wrong; everything else means the service is unusable.
func mapAuthError(err error) error {
	var apiErr *hosted.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.IsServerError():
			return fmt.Errorf("%w: %v", ErrAuthUnavailable, apiErr)
		case apiErr.StatusCode >= 400:
			return fmt.Errorf("%w: %v", ErrInvalidCredentials, apiErr)
		}
	}
	return fmt.Errorf("%w: %v", ErrAuthUnavailable, err)
}
