package utils

import (
	"context"

	"stadium-ticketing/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// SetIdentity stores the authenticated caller in ctx.
func SetIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the caller set by the auth middleware.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok || id.UserID <= 0 {
		return domain.Identity{}, false
	}
	return id, true
}
