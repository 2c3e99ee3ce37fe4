// Package shared holds request and response helpers used by both the JSON
// API handlers and their middleware.
package shared
