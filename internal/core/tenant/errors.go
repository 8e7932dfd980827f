package tenant

import "errors"

var (
	// ErrNoTenantInContext is returned when a request reaches the core without a tenant.
	ErrNoTenantInContext = errors.New("tenant not found in context")

	// ErrTenantNotActive is returned when tenant exists but is suspended.
	ErrTenantNotActive = errors.New("tenant is not active")
)
