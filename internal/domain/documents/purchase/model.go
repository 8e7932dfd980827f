// Package purchase provides the Purchase document and its payment state machine.
package purchase

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Status is the payment state of a purchase. It only moves forward:
// UNPAID -> PARTIALLY_PAID -> PAID.
type Status string

const (
	StatusUnpaid        Status = "UNPAID"
	StatusPartiallyPaid Status = "PARTIALLY_PAID"
	StatusPaid          Status = "PAID"
)

func (s Status) rank() int {
	switch s {
	case StatusPartiallyPaid:
		return 1
	case StatusPaid:
		return 2
	}
	return 0
}

// StatusFor derives the status for paid out of total.
func StatusFor(paid, total int64) Status {
	switch {
	case paid <= 0:
		return StatusUnpaid
	case paid < total:
		return StatusPartiallyPaid
	default:
		return StatusPaid
	}
}

// Method is how a payment (or a sale) was settled.
type Method string

const (
	MethodCash       Method = "CASH"
	MethodCreditCard Method = "CREDITCARD"
	MethodTransfer   Method = "TRANSFER"
	MethodQRIS       Method = "QRIS"
)

// Methods lists the accepted payment methods.
var Methods = []Method{MethodCash, MethodCreditCard, MethodTransfer, MethodQRIS}

// ParseMethod validates a method name.
func ParseMethod(s string) (Method, bool) {
	for _, m := range Methods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Purchase records goods received from a supplier.
type Purchase struct {
	entity.Document

	SupplierID  id.ID  `db:"supplier_id" json:"supplierId"`
	TotalAmount int64  `db:"total_amount" json:"totalAmount"`
	PaidAmount  int64  `db:"paid_amount" json:"paidAmount"`
	Status      Status `db:"status" json:"status"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// Item is one purchased line.
type Item struct {
	ID          id.ID `db:"id" json:"id"`
	PurchaseID  id.ID `db:"purchase_id" json:"purchaseId"`
	InventoryID id.ID `db:"inventory_id" json:"inventoryId"`
	Quantity    int64 `db:"quantity" json:"quantity"`
	UnitCost    int64 `db:"unit_cost" json:"unitCost"`
	SubTotal    int64 `db:"sub_total" json:"subTotal"`
}

// Payment is one settlement against a purchase.
type Payment struct {
	ID         id.ID     `db:"id" json:"id"`
	TenantID   id.ID     `db:"tenant_id" json:"-"`
	PurchaseID id.ID     `db:"purchase_id" json:"purchaseId"`
	Amount     int64     `db:"amount" json:"amount"`
	Method     Method    `db:"method" json:"method"`
	Note       string    `db:"note" json:"note,omitempty"`
	RecordedBy string    `db:"recorded_by" json:"recordedBy,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Line is the input for one purchase line.
type Line struct {
	InventoryID id.ID
	Quantity    int64
	UnitCost    int64
}

// New builds an unpaid purchase with its lines and total.
func New(tenantID, supplierID id.ID, invoice, recordedBy string, lines []Line, now time.Time) (*Purchase, error) {
	p := &Purchase{
		Document:   entity.NewDocument(tenantID, recordedBy, now),
		SupplierID: supplierID,
		Status:     StatusUnpaid,
	}
	p.Invoice = invoice
	for _, l := range lines {
		sub, ok := types.MulChecked(l.Quantity, l.UnitCost)
		if !ok {
			return nil, apperror.NewValidation("purchase line amount overflows").
				WithDetail("inventory_id", l.InventoryID)
		}
		total, ok := types.AddChecked(p.TotalAmount, sub)
		if !ok {
			return nil, apperror.NewValidation("purchase total overflows").
				WithDetail("inventory_id", l.InventoryID)
		}
		p.Items = append(p.Items, Item{
			ID:          id.New(),
			PurchaseID:  p.ID,
			InventoryID: l.InventoryID,
			Quantity:    l.Quantity,
			UnitCost:    l.UnitCost,
			SubTotal:    sub,
		})
		p.TotalAmount = total
	}
	return p, nil
}

// Validate implements entity.Validatable.
func (p *Purchase) Validate(_ context.Context) error {
	if id.IsNil(p.SupplierID) {
		return apperror.NewValidation("invalid purchase").WithField("supplierId", "required")
	}
	if len(p.Items) == 0 {
		return apperror.NewValidation("invalid purchase").WithField("items", "at least one item is required")
	}
	seen := make(map[id.ID]struct{}, len(p.Items))
	for i, it := range p.Items {
		if it.Quantity <= 0 {
			return apperror.NewValidation("invalid purchase").
				WithField(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if it.UnitCost < 0 {
			return apperror.NewValidation("invalid purchase").
				WithField(fmt.Sprintf("items[%d].unitCost", i), "must not be negative")
		}
		if _, dup := seen[it.InventoryID]; dup {
			return apperror.NewValidation("duplicate inventory in purchase").
				WithField(fmt.Sprintf("items[%d].inventoryId", i), "duplicate").
				WithDetail("inventory_id", it.InventoryID)
		}
		seen[it.InventoryID] = struct{}{}
	}
	return nil
}

// Item returns the line with itemID.
func (p *Purchase) Item(itemID id.ID) (Item, bool) {
	for _, it := range p.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return Item{}, false
}

// Remaining is the unpaid balance.
func (p *Purchase) Remaining() int64 {
	return p.TotalAmount - p.PaidAmount
}

// ApplyPayment validates amount against the balance and advances the status.
func (p *Purchase) ApplyPayment(amount int64, method Method, note, recordedBy string, now time.Time) (*Payment, error) {
	if p.IsDeleted {
		return nil, apperror.NewNotFound("purchase", p.ID)
	}
	if p.Status == StatusPaid {
		return nil, apperror.NewValidation("purchase already paid").WithDetail("purchase_id", p.ID)
	}
	if amount <= 0 {
		return nil, apperror.NewValidation("invalid payment").WithField("amount", "must be positive")
	}
	if _, ok := ParseMethod(string(method)); !ok {
		return nil, apperror.NewValidation("invalid payment").WithField("method", "unknown payment method")
	}
	if amount > p.Remaining() {
		return nil, apperror.NewValidation("payment exceeds remaining balance").
			WithField("amount", fmt.Sprintf("must not exceed %d", p.Remaining())).
			WithDetail("remaining", p.Remaining())
	}

	next := StatusFor(p.PaidAmount+amount, p.TotalAmount)
	if next.rank() < p.Status.rank() {
		return nil, apperror.NewConflict("payment status cannot regress").
			WithDetail("from", p.Status).WithDetail("to", next)
	}

	p.PaidAmount += amount
	p.Status = next
	p.Touch(now)

	return &Payment{
		ID:         id.New(),
		TenantID:   p.TenantID,
		PurchaseID: p.ID,
		Amount:     amount,
		Method:     method,
		Note:       note,
		RecordedBy: recordedBy,
		CreatedAt:  now.UTC(),
	}, nil
}
