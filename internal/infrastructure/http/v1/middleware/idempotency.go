package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/idempotency"
	"stockledger/internal/core/tenant"
	"stockledger/pkg/logger"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyKeyLegacy is accepted for older clients.
	HeaderIdempotencyKeyLegacy = "X-Idempotency-Key"

	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
	maxIdempotencyKeyLength = 255

	idempotencyContextKey = "idempotency"
)

type pendingKey struct {
	store    idempotency.Store
	tenantID id.ID
	key      string
	done     bool
}

// Idempotency replays the stored response when a mutating request is retried
// with the same key. Requests without a key pass through.
// Must run after Auth and Tenant.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			key = c.GetHeader(HeaderIdempotencyKeyLegacy)
		}
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			_ = c.Error(apperror.NewValidation("idempotency key is too long").
				WithDetail("max_length", maxIdempotencyKeyLength))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		tenantID, err := tenant.GetTenantID(ctx)
		if err != nil {
			_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			c.Abort()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			_ = c.Error(apperror.NewValidation("request body too large for idempotency").
				WithStatus(http.StatusRequestEntityTooLarge).
				WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)

		replay, err := store.Acquire(ctx, idempotency.Request{
			TenantID:  tenantID,
			Key:       key,
			UserID:    appctx.GetUserID(ctx),
			Operation: c.Request.Method + " " + c.Request.URL.Path,
			Hash:      hex.EncodeToString(hash[:]),
		})
		if err != nil {
			if !apperror.IsAppError(err) {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(idempotencyContextKey, &pendingKey{store: store, tenantID: tenantID, key: key})
		c.Next()
	}
}

// FinishIdempotency stores the response of a request that carried a key so a
// retry can replay it. It does nothing for requests without a key.
func FinishIdempotency(c *gin.Context, status idempotency.Status, code int, contentType string, body []byte) {
	v, ok := c.Get(idempotencyContextKey)
	if !ok {
		return
	}
	p, ok := v.(*pendingKey)
	if !ok || p.done {
		return
	}
	p.done = true

	// The response is already decided; a client disconnect must not lose it.
	ctx := context.WithoutCancel(c.Request.Context())
	err := p.store.Finish(ctx, p.tenantID, p.key, status, idempotency.Replay{
		StatusCode:  code,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		logger.Warn(ctx, "failed to store idempotent response", "key", p.key, "error", err)
	}
}
