package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/movement"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReturnHandler handles HTTP requests for purchase returns.
type ReturnHandler struct {
	*BaseHandler
	engine *movement.Engine
	docs   *documents.Service
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, engine *movement.Engine, docs *documents.Service) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, engine: engine, docs: docs}
}

// List handles GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	var q dto.ReturnListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	result, err := h.docs.ListReturns(c.Request.Context(), tenantID, q.ToQuery())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /returns
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	r, err := h.engine.RequestReturn(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, r)
}

// Get handles GET /returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	returnID, ok := h.PathID(c, "id", "purchase return")
	if !ok {
		return
	}
	r, err := h.docs.GetReturn(c.Request.Context(), tenantID, returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// Approve handles POST /returns/:id/approve
func (h *ReturnHandler) Approve(c *gin.Context) {
	h.decide(c, h.engine.ApproveReturn)
}

// Reject handles POST /returns/:id/reject
func (h *ReturnHandler) Reject(c *gin.Context) {
	h.decide(c, h.engine.RejectReturn)
}

// Complete handles POST /returns/:id/complete
func (h *ReturnHandler) Complete(c *gin.Context) {
	h.decide(c, h.engine.CompleteReturn)
}

func (h *ReturnHandler) decide(c *gin.Context, step func(ctx context.Context, tenantID, returnID id.ID) (*purchasereturn.Return, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	returnID, ok := h.PathID(c, "id", "purchase return")
	if !ok {
		return
	}
	r, err := step(c.Request.Context(), tenantID, returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, r)
}

// History handles GET /returns/:id/history
func (h *ReturnHandler) History(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	returnID, ok := h.PathID(c, "id", "purchase return")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.docs.GetReturn(ctx, tenantID, returnID); err != nil {
		h.Error(c, err)
		return
	}
	trail, err := h.docs.History(ctx, tenantID, "purchase_return", returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, trail)
}
