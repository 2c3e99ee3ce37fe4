package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/mocks"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(userID uuid.UUID) *domain.Session {
	return &domain.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User:         domain.User{ID: userID, Email: "a@example.com"},
	}
}

func TestAuthHandler_Login(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name           string
		body           string
		signInErr      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "success",
			body:           `{"email":"a@example.com","password":"secret"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed body",
			body:           `{"email":`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid request format",
		},
		{
			name:           "invalid email",
			body:           `{"email":"nope","password":"secret"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid Email: invalid email format",
		},
		{
			name:           "missing password",
			body:           `{"email":"a@example.com"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid Password: required field",
		},
		{
			name:           "wrong credentials",
			body:           `{"email":"a@example.com","password":"wrong"}`,
			signInErr:      auth.ErrInvalidCredentials,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid credentials",
		},
		{
			name:           "auth service down",
			body:           `{"email":"a@example.com","password":"secret"}`,
			signInErr:      auth.ErrAuthUnavailable,
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  "Authentication service unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			authenticator := &mocks.MockAuthenticator{
				SignInFn: func(_ context.Context, email, password string) (*domain.Session, error) {
					if tc.signInErr != nil {
						return nil, tc.signInErr
					}
					return testSession(userID), nil
				},
			}
			h := NewAuthHandler(authenticator, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, decodeError(t, rec).Error)
				return
			}

			var body SessionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, userID, body.UserID)
			assert.Equal(t, "access", body.AccessToken)
			assert.Equal(t, "refresh", body.RefreshToken)
			assert.Equal(t, "2030-01-01T00:00:00Z", body.ExpiresAt)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	userID := uuid.New()
	authenticator := &mocks.MockAuthenticator{
		RefreshFn: func(_ context.Context, token string) (*domain.Session, error) {
			if token != "refresh" {
				return nil, auth.ErrInvalidCredentials
			}
			return testSession(userID), nil
		},
	}
	h := NewAuthHandler(authenticator, nil)

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"refresh"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refresh_token":"stale"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	userID := uuid.New()

	t.Run("revokes caller token", func(t *testing.T) {
		var revoked string
		h := NewAuthHandler(&mocks.MockAuthenticator{
			SignOutFn: func(_ context.Context, token string) error {
				revoked = token
				return nil
			},
		}, nil)

		rec := httptest.NewRecorder()
		h.Logout(rec, newRequest(t, http.MethodPost, "/api/auth/logout", nil, userID))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "access-token", revoked)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		h := NewAuthHandler(&mocks.MockAuthenticator{}, nil)

		rec := httptest.NewRecorder()
		h.Logout(rec, newRequest(t, http.MethodPost, "/api/auth/logout", nil, uuid.Nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
