package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/catalogs"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles HTTP requests for suppliers.
type SupplierHandler struct {
	*BaseHandler
	service *catalogs.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *catalogs.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

// List handles GET /suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	var q dto.SupplierListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	result, err := h.service.ListSuppliers(c.Request.Context(), tenantID, q.Search, q.ToPage())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Create handles POST /suppliers
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	s, err := h.service.CreateSupplier(c.Request.Context(), tenantID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, s)
}

// Get handles GET /suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.PathID(c, "id", "supplier")
	if !ok {
		return
	}
	s, err := h.service.GetSupplier(c.Request.Context(), tenantID, supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}

// Update handles PUT /suppliers/:id
func (h *SupplierHandler) Update(c *gin.Context) {
	var req dto.SupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	supplierID, ok := h.PathID(c, "id", "supplier")
	if !ok {
		return
	}
	s, err := h.service.UpdateSupplier(c.Request.Context(), tenantID, supplierID, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, s)
}
