package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/documents"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// LedgerHandler lists stock ledger records.
type LedgerHandler struct {
	*BaseHandler
	docs *documents.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, docs *documents.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, docs: docs}
}

// List handles GET /ledger
func (h *LedgerHandler) List(c *gin.Context) {
	var q dto.LedgerQuery
	if !h.BindQuery(c, &q) {
		return
	}
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	result, err := h.docs.Ledger(c.Request.Context(), tenantID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}
