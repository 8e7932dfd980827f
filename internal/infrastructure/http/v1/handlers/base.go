package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/idempotency"
	"stockledger/internal/core/tenant"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, dto.ValidationError("invalid request body", err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, dto.ValidationError("invalid query parameters", err))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// TenantID returns the tenant resolved by middleware.Tenant.
func (h *BaseHandler) TenantID(c *gin.Context) (id.ID, bool) {
	tenantID, err := tenant.GetTenantID(c.Request.Context())
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return id.Nil(), false
	}
	return tenantID, true
}

// PathID parses a UUID path parameter. Malformed ids are reported as NOT_FOUND
// for entity, the same answer an unknown id gets.
func (h *BaseHandler) PathID(c *gin.Context, param, entity string) (id.ID, bool) {
	raw := c.Param(param)
	v, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewNotFound(entity, raw))
		return id.Nil(), false
	}
	return v, true
}

// respond writes a JSON response and records it for idempotent replay.
func (h *BaseHandler) respond(c *gin.Context, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	middleware.FinishIdempotency(c, idempotency.StatusSuccess, status, gin.MIMEJSON, body)
	c.Data(status, gin.MIMEJSON, body)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// Created sends 201 response with the created entity.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	h.respond(c, http.StatusCreated, data)
}
