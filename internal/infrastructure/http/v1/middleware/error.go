package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/idempotency"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/pkg/logger"
)

// ErrorHandler renders the last error of the request as a JSON problem body.
// Internal causes are logged and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err)
	}
}

func renderError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	status := http.StatusInternalServerError
	body := dto.ErrorResponse{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"request_id": appctx.GetRequestID(ctx)},
	}

	if appErr, ok := apperror.AsAppError(err); ok {
		status = appErr.HTTPStatus
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", "code", appErr.Code, "error", err)
		} else if appErr.Err != nil {
			logger.Warn(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
		}
		if status < http.StatusInternalServerError {
			body = dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
		}
	} else {
		logger.Error(ctx, "unhandled error", "error", err)
	}

	payload, mErr := json.Marshal(body)
	if mErr != nil {
		logger.Error(ctx, "failed to encode error response", "error", mErr)
		c.Status(http.StatusInternalServerError)
		return
	}

	// A key whose request failed replays the same failure.
	FinishIdempotency(c, idempotency.StatusFailed, status, gin.MIMEJSON, payload)
	c.Data(status, gin.MIMEJSON, payload)
}
