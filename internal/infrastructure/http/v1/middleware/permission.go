package middleware

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/security"
)

// RequirePermission rejects callers whose role does not grant perm.
func RequirePermission(perm security.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := security.Require(c.Request.Context(), perm); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
