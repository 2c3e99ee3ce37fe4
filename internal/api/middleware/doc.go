// Package middleware provides the HTTP middleware of the task API:
// trace IDs, bearer/cookie authentication and login throttling.
package middleware
