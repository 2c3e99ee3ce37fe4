package mocks

import (
	"context"

	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/service/auth"
)

// MockAuthenticator implements auth.Authenticator for testing
type MockAuthenticator struct {
	SignInFn  func(ctx context.Context, email, password string) (*domain.Session, error)
	RefreshFn func(ctx context.Context, refreshToken string) (*domain.Session, error)
	SignOutFn func(ctx context.Context, accessToken string) error

	// Default return values
	Session      *domain.Session
	DefaultError error
}

var _ auth.Authenticator = (*MockAuthenticator)(nil)

// SignIn implements auth.Authenticator
func (m *MockAuthenticator) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	if m.SignInFn != nil {
		return m.SignInFn(ctx, email, password)
	}
	return m.Session, m.DefaultError
}

// Refresh implements auth.Authenticator
func (m *MockAuthenticator) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return m.Session, m.DefaultError
}

// SignOut implements auth.Authenticator
func (m *MockAuthenticator) SignOut(ctx context.Context, accessToken string) error {
	if m.SignOutFn != nil {
		return m.SignOutFn(ctx, accessToken)
	}
	return m.DefaultError
}
