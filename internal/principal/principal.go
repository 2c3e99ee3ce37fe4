// Package principal carries the authenticated caller through a request context.
package principal

import (
	"context"

	"github.com/google/uuid"
)

// Principal identifies the authenticated caller.
// AccessToken is the hosted-service bearer token the caller presented; stores
// forward it so row-level security applies on the hosted side.
type Principal struct {
	UserID      uuid.UUID
	Email       string
	AccessToken string
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal stored in ctx.
// The boolean is false when there is none or its user ID is nil.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

// AccessToken returns the bearer token of the principal in ctx, if any.
func AccessToken(ctx context.Context) string {
	p, _ := FromContext(ctx)
	return p.AccessToken
}
