package domain

import "context"

type ctxKey int

const (
	tenantKey ctxKey = iota
	userKey
)

// WithTenant returns a context scoped to the given tenant.
func WithTenant(ctx context.Context, id TenantID) context.Context {
	return context.WithValue(ctx, tenantKey, id)
}

// TenantFromContext returns the acting tenant, or ErrNoTenant.
func TenantFromContext(ctx context.Context) (TenantID, error) {
	id, ok := ctx.Value(tenantKey).(TenantID)
	if !ok || id == "" {
		return "", ErrNoTenant
	}
	return id, nil
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, id UserID) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// UserFromContext returns the authenticated user, or ErrUnauthenticated.
func UserFromContext(ctx context.Context) (UserID, error) {
	id, ok := ctx.Value(userKey).(UserID)
	if !ok || id == "" {
		return "", ErrUnauthenticated
	}
	return id, nil
}

// IsAuthenticated reports whether ctx carries a user.
func IsAuthenticated(ctx context.Context) bool {
	_, err := UserFromContext(ctx)
	return err == nil
}
