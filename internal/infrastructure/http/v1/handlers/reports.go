package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// StockValuation handles GET /reports/stock-valuation
func (h *ReportsHandler) StockValuation(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	report, err := h.service.StockValuation(c.Request.Context(), tenantID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// SalesSummary handles GET /reports/sales-summary
func (h *ReportsHandler) SalesSummary(c *gin.Context) {
	var q dto.SalesSummaryQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	report, err := h.service.SalesSummary(c.Request.Context(), tenantID, q.From, q.To)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Purchases handles GET /reports/purchases
func (h *ReportsHandler) Purchases(c *gin.Context) {
	var q dto.PurchasesReportQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	report, err := h.service.PurchasesReport(c.Request.Context(), tenantID, q.ToQuery())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// LedgerCheck handles GET /reports/ledger-check/:inventoryId
func (h *ReportsHandler) LedgerCheck(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	inventoryID, ok := h.PathID(c, "inventoryId", "inventory")
	if !ok {
		return
	}
	check, err := h.service.LedgerCheck(c.Request.Context(), tenantID, inventoryID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, check)
}
