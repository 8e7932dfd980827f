// Package reports provides read-only reports over the ledger and documents.
package reports

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

// --- Stock Valuation ---

// StockValuationItem is one item's stock valued at its current cost.
type StockValuationItem struct {
	InventoryID id.ID       `json:"inventoryId"`
	Name        string      `json:"name"`
	Code        string      `json:"code"`
	Stock       int64       `json:"stock"`
	Cost        int64       `json:"cost"`
	Value       int64       `json:"value"`
	Share       types.Money `json:"share"`
}

// StockValuation is Σ stock*cost over the tenant's items.
type StockValuation struct {
	AsOf       time.Time            `json:"asOf"`
	Items      []StockValuationItem `json:"items"`
	TotalStock int64                `json:"totalStock"`
	TotalValue types.Money          `json:"totalValue"`
}

// --- Sales Summary ---

// MethodTotal aggregates sales by payment method.
type MethodTotal struct {
	Method  string `json:"method"`
	Count   int    `json:"count"`
	Revenue int64  `json:"revenue"`
}

// SalesSummary totals the active sales of a period.
type SalesSummary struct {
	From          time.Time     `json:"from"`
	To            time.Time     `json:"to"`
	SalesCount    int           `json:"salesCount"`
	UnitsSold     int64         `json:"unitsSold"`
	Revenue       int64         `json:"revenue"`
	COGS          int64         `json:"cogs"`
	GrossProfit   int64         `json:"grossProfit"`
	MarginPercent types.Money   `json:"marginPercent"`
	AverageSale   types.Money   `json:"averageSale"`
	ByMethod      []MethodTotal `json:"byMethod"`
}

// --- Ledger Check ---

// LedgerCheck is the result of walking one item's ledger chain.
type LedgerCheck struct {
	InventoryID  id.ID              `json:"inventoryId"`
	OpeningStock int64              `json:"openingStock"`
	Stock        int64              `json:"stock"`
	Records      int                `json:"records"`
	Intact       bool               `json:"intact"`
	Break        *ledger.ChainBreak `json:"break,omitempty"`
}

// --- Purchases ---

// PurchaseLine is one purchased item line with its document context.
type PurchaseLine struct {
	PurchaseID   id.ID     `json:"purchaseId"`
	Invoice      string    `json:"invoice"`
	Date         time.Time `json:"date"`
	SupplierID   id.ID     `json:"supplierId"`
	SupplierName string    `json:"supplierName"`
	Status       string    `json:"status"`
	InventoryID  id.ID     `json:"inventoryId"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	Quantity     int64     `json:"quantity"`
	UnitCost     int64     `json:"unitCost"`
	SubTotal     int64     `json:"subTotal"`
}

// PurchasesQuery selects the purchases report. Search matches item name or
// code, case-insensitively.
type PurchasesQuery struct {
	From   time.Time
	To     time.Time
	Search string
	Page   filter.Page
}

// PurchasesReport lists purchase lines of a period, newest first. Totals cover
// every matching line, not only the returned page.
type PurchasesReport struct {
	From       time.Time                       `json:"from"`
	To         time.Time                       `json:"to"`
	Search     string                          `json:"search,omitempty"`
	Purchases  int                             `json:"purchases"`
	TotalUnits int64                           `json:"totalUnits"`
	TotalCost  int64                           `json:"totalCost"`
	Lines      filter.ListResult[PurchaseLine] `json:"lines"`
}
