package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/movement"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles HTTP requests for purchases and their payments.
type PurchaseHandler struct {
	*BaseHandler
	engine *movement.Engine
	docs   *documents.Service
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, engine *movement.Engine, docs *documents.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, engine: engine, docs: docs}
}

// List handles GET /purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var q dto.DocumentListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	result, err := h.docs.ListPurchases(c.Request.Context(), tenantID, q.ToQuery())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	p, err := h.engine.ApplyPurchase(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p)
}

// Get handles GET /purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c, "id", "purchase")
	if !ok {
		return
	}
	p, err := h.docs.GetPurchase(c.Request.Context(), tenantID, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Cancel handles POST /purchases/:id/cancel
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c, "id", "purchase")
	if !ok {
		return
	}
	p, err := h.engine.CancelPurchase(c.Request.Context(), tenantID, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// AddPayment handles POST /purchases/:id/payments
func (h *PurchaseHandler) AddPayment(c *gin.Context) {
	var req dto.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c, "id", "purchase")
	if !ok {
		return
	}
	p, pay, err := h.engine.AddPayment(c.Request.Context(), tenantID, purchaseID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.PaymentResponse{Purchase: p, Payment: pay})
}

// Payments handles GET /purchases/:id/payments
func (h *PurchaseHandler) Payments(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c, "id", "purchase")
	if !ok {
		return
	}
	payments, err := h.docs.Payments(c.Request.Context(), tenantID, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, payments)
}

// History handles GET /purchases/:id/history
func (h *PurchaseHandler) History(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	purchaseID, ok := h.PathID(c, "id", "purchase")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.docs.GetPurchase(ctx, tenantID, purchaseID); err != nil {
		h.Error(c, err)
		return
	}
	trail, err := h.docs.History(ctx, tenantID, "purchase", purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, trail)
}
