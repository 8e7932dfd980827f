package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles HTTP requests for inventory items.
type InventoryHandler struct {
	*BaseHandler
	service *catalogs.Service
	docs    *documents.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *catalogs.Service, docs *documents.Service) *InventoryHandler {
	return &InventoryHandler{BaseHandler: base, service: service, docs: docs}
}

// List handles GET /inventories
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.ItemListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	result, err := h.service.ListItems(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /inventories
func (h *InventoryHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	item, err := h.service.CreateItem(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /inventories/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "id", "inventory")
	if !ok {
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), tenantID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Update handles PUT /inventories/:id
func (h *InventoryHandler) Update(c *gin.Context) {
	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "id", "inventory")
	if !ok {
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), tenantID, itemID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Ledger handles GET /inventories/:id/ledger
func (h *InventoryHandler) Ledger(c *gin.Context) {
	var q dto.PageQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	itemID, ok := h.PathID(c, "id", "inventory")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.service.GetItem(ctx, tenantID, itemID); err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.docs.Ledger(ctx, tenantID, ledger.Filter{InventoryID: &itemID, Page: q.ToPage()})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
