package tenant

import (
	"context"

	"stockledger/internal/core/id"
)

type tenantKey struct{}

// WithTenantID stores the tenant the request acts for.
func WithTenantID(ctx context.Context, tenantID id.ID) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// GetTenantID returns the tenant from context.
func GetTenantID(ctx context.Context) (id.ID, error) {
	v, ok := ctx.Value(tenantKey{}).(id.ID)
	if !ok || id.IsNil(v) {
		return id.Nil(), ErrNoTenantInContext
	}
	return v, nil
}
