// Package ledger is the append-only stock movement register.
//
// Each Record is one applied change to an inventory item's stock and cost.
// Records for an item form a chain: every StockBefore equals the previous
// record's StockAfter, and the item's current stock equals the last
// StockAfter (or its opening stock when no records exist).
package ledger

import (
	"time"

	"stockledger/internal/core/id"
)

// Kind identifies the business event behind a record.
type Kind string

const (
	KindPurchase        Kind = "PURCHASE"
	KindSale            Kind = "SALE"
	KindCancelSale      Kind = "CANCEL_SALE"
	KindCancelPurchase  Kind = "CANCEL_PURCHASE"
	KindReturn          Kind = "RETURN"
	KindAdjust          Kind = "ADJUST"
	KindEditSaleRestore Kind = "EDIT_SALE_RESTORE"
	KindEditSaleApply   Kind = "EDIT_SALE_APPLY"
)

// Kinds lists every movement kind.
var Kinds = []Kind{
	KindPurchase, KindSale, KindCancelSale, KindCancelPurchase,
	KindReturn, KindAdjust, KindEditSaleRestore, KindEditSaleApply,
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Record is an immutable ledger row.
type Record struct {
	ID          id.ID     `db:"id" json:"id"`
	TenantID    id.ID     `db:"tenant_id" json:"-"`
	InventoryID id.ID     `db:"inventory_id" json:"inventoryId"`
	Kind        Kind      `db:"kind" json:"type"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	StockBefore int64     `db:"stock_before" json:"stockBefore"`
	StockAfter  int64     `db:"stock_after" json:"stockAfter"`
	CostBefore  int64     `db:"cost_before" json:"costBefore"`
	CostAfter   int64     `db:"cost_after" json:"costAfter"`
	RefID       id.ID     `db:"ref_id" json:"refId"`
	Note        string    `db:"note" json:"note,omitempty"`
	Seq         int64     `db:"seq" json:"seq"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Balance is the mutable projection the ledger keeps in step with an item.
type Balance struct {
	Stock int64
	Cost  int64
	Sold  int64
}
