package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrMissingToken indicates a token was expected but not provided
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrWrongAudience indicates the token was issued for another audience,
	// e.g. an anon or service key presented as a user token
	ErrWrongAudience = errors.New("authentication token has wrong audience")

	// ErrInvalidCredentials indicates the hosted service rejected email/password
	// or the refresh token
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAuthUnavailable indicates the hosted auth API could not be reached
	// or failed on its side
	ErrAuthUnavailable = errors.New("authentication service unavailable")
)
