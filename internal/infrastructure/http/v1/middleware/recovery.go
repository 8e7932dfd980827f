// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/pkg/logger"
)

// Recovery turns a panic into the generic 500 body. The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Alert(c.Request.Context(), "panic", "handler panicked",
				"method", c.Request.Method,
				"route", c.FullPath(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
			c.Abort()
			if !c.Writer.Written() {
				renderError(c, apperror.NewInternal(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
