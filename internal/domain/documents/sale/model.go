// Package sale provides the Sale document.
package sale

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/documents/purchase"
)

// Sale records goods sold to a walk-in customer.
type Sale struct {
	entity.Document

	TotalAmount int64           `db:"total_amount" json:"totalAmount"`
	Method      purchase.Method `db:"method" json:"method"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// Item is one sold line. UnitPrice is captured at sale time.
type Item struct {
	ID          id.ID `db:"id" json:"id"`
	SaleID      id.ID `db:"sale_id" json:"saleId"`
	InventoryID id.ID `db:"inventory_id" json:"inventoryId"`
	Quantity    int64 `db:"quantity" json:"quantity"`
	UnitPrice   int64 `db:"unit_price" json:"unitPrice"`
	SubTotal    int64 `db:"sub_total" json:"subTotal"`
}

// Line is the input for one sale line.
type Line struct {
	InventoryID id.ID
	Quantity    int64
}

// ValidateLines checks quantities and rejects an item appearing twice.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return apperror.NewValidation("invalid sale").WithField("items", "at least one item is required")
	}
	seen := make(map[id.ID]struct{}, len(lines))
	for i, l := range lines {
		if id.IsNil(l.InventoryID) {
			return apperror.NewValidation("invalid sale").
				WithField(fmt.Sprintf("items[%d].inventoryId", i), "required")
		}
		if l.Quantity <= 0 {
			return apperror.NewValidation("invalid sale").
				WithField(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if _, dup := seen[l.InventoryID]; dup {
			return apperror.NewValidation("duplicate inventory in sale").
				WithField(fmt.Sprintf("items[%d].inventoryId", i), "duplicate").
				WithDetail("inventory_id", l.InventoryID)
		}
		seen[l.InventoryID] = struct{}{}
	}
	return nil
}

// New creates an empty sale. Lines are added with SetItems once prices are known.
func New(tenantID id.ID, invoice, recordedBy string, method purchase.Method, now time.Time) *Sale {
	s := &Sale{
		Document: entity.NewDocument(tenantID, recordedBy, now),
		Method:   method,
	}
	s.Invoice = invoice
	return s
}

// SetItems replaces the lines, pricing each from prices, and recomputes the total.
func (s *Sale) SetItems(lines []Line, prices map[id.ID]int64) error {
	items := make([]Item, 0, len(lines))
	var total int64
	for _, l := range lines {
		sub, ok := types.MulChecked(l.Quantity, prices[l.InventoryID])
		if !ok {
			return apperror.NewValidation("sale line amount overflows").
				WithDetail("inventory_id", l.InventoryID)
		}
		next, ok := types.AddChecked(total, sub)
		if !ok {
			return apperror.NewValidation("sale total overflows").
				WithDetail("inventory_id", l.InventoryID)
		}
		total = next
		items = append(items, Item{
			ID:          id.New(),
			SaleID:      s.ID,
			InventoryID: l.InventoryID,
			Quantity:    l.Quantity,
			UnitPrice:   prices[l.InventoryID],
			SubTotal:    sub,
		})
	}
	s.Items = items
	s.TotalAmount = total
	return nil
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(_ context.Context) error {
	if _, ok := purchase.ParseMethod(string(s.Method)); !ok {
		return apperror.NewValidation("invalid sale").WithField("method", "unknown payment method")
	}
	lines := make([]Line, len(s.Items))
	for i, it := range s.Items {
		lines[i] = Line{InventoryID: it.InventoryID, Quantity: it.Quantity}
	}
	return ValidateLines(lines)
}

// InventoryIDs returns the items touched by the sale lines.
func (s *Sale) InventoryIDs() []id.ID {
	out := make([]id.ID, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.InventoryID
	}
	return out
}
