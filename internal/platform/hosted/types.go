package hosted

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config holds hosted client configuration.
type Config struct {
	// URL is the project URL, e.g. https://xyz.supabase.co
	URL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// ServiceKey bypasses row-level security. Only the realtime socket uses it.
	ServiceKey string

	// Timeout for HTTP requests. Defaults to 30s.
	Timeout time.Duration

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

// User is a user record as returned by the auth API.
type User struct {
	ID           string         `json:"id"`
	Aud          string         `json:"aud"`
	Role         string         `json:"role"`
	Email        string         `json:"email"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Session is the token bundle returned by sign-in and refresh.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Expiry returns when the access token stops being valid.
func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0).UTC()
	}
	return time.Now().UTC().Add(time.Duration(s.ExpiresIn) * time.Second)
}

// OrderDirection for query ordering.
type OrderDirection string

// Ordering directions.
const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// ErrMissingToken is returned when an operation needs a user access token
// and none is available.
var ErrMissingToken = errors.New("access token required")

// Error is an error response from the hosted service.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
	StatusCode int    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("hosted service error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("hosted service error %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the service rejected the credentials.
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsServerError reports whether the failure was on the service side.
func (e *Error) IsServerError() bool {
	return e.StatusCode >= http.StatusInternalServerError
}
