package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/movement"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles HTTP requests for sales.
type SaleHandler struct {
	*BaseHandler
	engine *movement.Engine
	docs   *documents.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, engine *movement.Engine, docs *documents.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, engine: engine, docs: docs}
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	result, err := h.docs.ListSales(c.Request.Context(), tenantID, q.ToQuery())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	s, err := h.engine.ApplySale(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	saleID, ok := h.PathID(c, "id", "sale")
	if !ok {
		return
	}
	s, err := h.docs.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Edit handles PUT /sales/:id
func (h *SaleHandler) Edit(c *gin.Context) {
	var req dto.EditSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	saleID, ok := h.PathID(c, "id", "sale")
	if !ok {
		return
	}
	s, err := h.engine.EditSale(c.Request.Context(), tenantID, saleID, req.Lines())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Cancel handles POST /sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	saleID, ok := h.PathID(c, "id", "sale")
	if !ok {
		return
	}
	s, err := h.engine.CancelSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// History handles GET /sales/:id/history
func (h *SaleHandler) History(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	saleID, ok := h.PathID(c, "id", "sale")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.docs.GetSale(ctx, tenantID, saleID); err != nil {
		h.Error(c, err)
		return
	}
	trail, err := h.docs.History(ctx, tenantID, "sale", saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, trail)
}
