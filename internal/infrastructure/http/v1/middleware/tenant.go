package middleware

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain"
	"stockledger/pkg/logger"
)

// Tenant resolves the tenant named by the caller's token and rejects unknown
// or suspended tenants. Handlers read it back with tenant.GetTenantID.
// Must run after Auth.
func Tenant(store domain.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rawTenantID := appctx.GetTenantID(ctx)
		tenantID, err := id.Parse(rawTenantID)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("token carries no valid tenant"))
			c.Abort()
			return
		}

		profile, err := store.Tenant(tenantID).Profile(ctx)
		if err != nil {
			if apperror.IsNotFound(err) {
				_ = c.Error(apperror.NewForbidden("unknown tenant").WithDetail("tenant_id", rawTenantID))
			} else {
				logger.Warn(ctx, "tenant lookup failed", "tenant_id", rawTenantID, "error", err)
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", rawTenantID))
			}
			c.Abort()
			return
		}
		if !profile.IsActive() {
			_ = c.Error(apperror.NewForbidden(tenant.ErrTenantNotActive.Error()).WithDetail("tenant_id", rawTenantID))
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(tenant.WithTenantID(ctx, tenantID))
		c.Next()
	}
}
