package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
)

// JWTValidator resolves a bearer token into the caller identity.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth requires "Authorization: Bearer <token>" on every request.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, appErr := bearerToken(c.GetHeader("Authorization"))
		if appErr == nil {
			user, err := validator.ValidateToken(token)
			if err == nil {
				c.Request = c.Request.WithContext(appctx.WithUser(c.Request.Context(), user))
				c.Next()
				return
			}
			appErr = apperror.NewUnauthorized("invalid token").WithCause(err)
		}
		_ = c.Error(appErr)
		c.Abort()
	}
}

func bearerToken(header string) (string, *apperror.AppError) {
	if header == "" {
		return "", apperror.NewUnauthorized("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", apperror.NewUnauthorized("invalid authorization header format")
	}
	return token, nil
}
