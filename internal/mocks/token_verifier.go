package mocks

import (
	"context"

	"github.com/phrazzld/taskboard/internal/service/auth"
)

// MockTokenVerifier implements auth.TokenVerifier for testing
type MockTokenVerifier struct {
	VerifyFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Default return values
	Claims       *auth.Claims
	DefaultError error
}

var _ auth.TokenVerifier = (*MockTokenVerifier)(nil)

// Verify implements auth.TokenVerifier
func (m *MockTokenVerifier) Verify(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, tokenString)
	}
	return m.Claims, m.DefaultError
}
