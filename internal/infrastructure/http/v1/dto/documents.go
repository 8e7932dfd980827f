package dto

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/movement"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/domain/reports"
)

// Ids below are already checked by the "uuid" rule, so parsing cannot fail.

// --- Purchases ---

type PurchaseLineRequest struct {
	InventoryID string `json:"inventoryId" binding:"required,uuid"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
	UnitCost    int64  `json:"unitCost" binding:"min=0"`
}

type PaymentRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Method string `json:"method" binding:"required,paymentmethod"`
	Note   string `json:"note" binding:"max=500"`
}

func (r *PaymentRequest) ToInput() movement.PaymentInput {
	return movement.PaymentInput{Amount: r.Amount, Method: purchase.Method(r.Method), Note: r.Note}
}

// CreatePurchaseRequest records goods received. An empty invoice is minted.
type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplierId" binding:"required,uuid"`
	Invoice    string                `json:"invoice" binding:"max=50"`
	Items      []PurchaseLineRequest `json:"items" binding:"required,min=1,dive"`
	Payment    *PaymentRequest       `json:"payment"`
}

func (r *CreatePurchaseRequest) ToInput() movement.PurchaseInput {
	in := movement.PurchaseInput{
		SupplierID: id.MustParse(r.SupplierID),
		Invoice:    r.Invoice,
		Items:      make([]purchase.Line, len(r.Items)),
	}
	for i, l := range r.Items {
		in.Items[i] = purchase.Line{InventoryID: id.MustParse(l.InventoryID), Quantity: l.Quantity, UnitCost: l.UnitCost}
	}
	if r.Payment != nil {
		pay := r.Payment.ToInput()
		in.Payment = &pay
	}
	return in
}

// --- Sales ---

type SaleLineRequest struct {
	InventoryID string `json:"inventoryId" binding:"required,uuid"`
	Quantity    int64  `json:"quantity" binding:"required,gt=0"`
}

func saleLines(items []SaleLineRequest) []sale.Line {
	out := make([]sale.Line, len(items))
	for i, l := range items {
		out[i] = sale.Line{InventoryID: id.MustParse(l.InventoryID), Quantity: l.Quantity}
	}
	return out
}

// CreateSaleRequest sells items at their current price.
type CreateSaleRequest struct {
	Items  []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
	Method string            `json:"method" binding:"required,paymentmethod"`
}

func (r *CreateSaleRequest) ToInput() movement.SaleInput {
	return movement.SaleInput{Items: saleLines(r.Items), Method: purchase.Method(r.Method)}
}

// EditSaleRequest replaces every line of a sale.
type EditSaleRequest struct {
	Items []SaleLineRequest `json:"items" binding:"required,min=1,dive"`
}

func (r *EditSaleRequest) Lines() []sale.Line {
	return saleLines(r.Items)
}

// --- Returns ---

type ReturnLineRequest struct {
	PurchaseItemID string `json:"purchaseItemId" binding:"required,uuid"`
	Quantity       int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateReturnRequest asks to send purchased goods back to the supplier.
type CreateReturnRequest struct {
	PurchaseID string              `json:"purchaseId" binding:"required,uuid"`
	Reason     string              `json:"reason" binding:"max=500"`
	Items      []ReturnLineRequest `json:"items" binding:"required,min=1,dive"`
}

func (r *CreateReturnRequest) ToInput() movement.ReturnInput {
	in := movement.ReturnInput{
		PurchaseID: id.MustParse(r.PurchaseID),
		Reason:     r.Reason,
		Items:      make([]purchasereturn.Line, len(r.Items)),
	}
	for i, l := range r.Items {
		in.Items[i] = purchasereturn.Line{PurchaseItemID: id.MustParse(l.PurchaseItemID), Quantity: l.Quantity}
	}
	return in
}

// ReturnListQuery filters purchase returns.
type ReturnListQuery struct {
	PageQuery
	PeriodQuery
	PurchaseID string `form:"purchaseId" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=REQUESTED APPROVED REJECTED DONE"`
}

func (q ReturnListQuery) ToQuery() documents.ReturnQuery {
	out := documents.ReturnQuery{
		Status: purchasereturn.Status(q.Status),
		From:   q.From,
		To:     q.To,
		Page:   q.ToPage(),
	}
	if q.PurchaseID != "" {
		pid := id.MustParse(q.PurchaseID)
		out.PurchaseID = &pid
	}
	return out
}

func (q DocumentListQuery) ToQuery() documents.ListQuery {
	return documents.ListQuery{State: q.State, From: q.From, To: q.To, Page: q.ToPage()}
}

// --- Ledger ---

// LedgerQuery filters ledger listings. Dates are optional here: the ledger
// is listed whole unless a range is given.
type LedgerQuery struct {
	PageQuery
	InventoryID string    `form:"inventoryId" binding:"omitempty,uuid"`
	RefID       string    `form:"refId" binding:"omitempty,uuid"`
	Kind        string    `form:"kind" binding:"omitempty,oneof=PURCHASE SALE CANCEL_SALE CANCEL_PURCHASE RETURN ADJUST EDIT_SALE_RESTORE EDIT_SALE_APPLY"`
	From        time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To          time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
}

func (q LedgerQuery) ToFilter() ledger.Filter {
	f := ledger.Filter{Page: q.ToPage()}
	if q.InventoryID != "" {
		inv := id.MustParse(q.InventoryID)
		f.InventoryID = &inv
	}
	if q.RefID != "" {
		f.RefIDs = []id.ID{id.MustParse(q.RefID)}
	}
	if q.Kind != "" {
		f.Kinds = []ledger.Kind{ledger.Kind(q.Kind)}
	}
	if !q.From.IsZero() {
		from := q.From
		f.From = &from
	}
	if !q.To.IsZero() {
		to := q.To.Add(24*time.Hour - time.Nanosecond)
		f.To = &to
	}
	return f
}

// --- Reports ---

// SalesSummaryQuery selects the report period.
type SalesSummaryQuery struct {
	PeriodQuery
}

// PurchasesReportQuery selects the purchases report.
type PurchasesReportQuery struct {
	PageQuery
	PeriodQuery
	Search string `form:"q" binding:"max=100"`
}

func (q PurchasesReportQuery) ToQuery() reports.PurchasesQuery {
	return reports.PurchasesQuery{From: q.From, To: q.To, Search: q.Search, Page: q.ToPage()}
}

// PaymentResponse is the purchase after a payment plus the payment itself.
type PaymentResponse struct {
	Purchase *purchase.Purchase `json:"purchase"`
	Payment  *purchase.Payment  `json:"payment"`
}
