// Package purchasereturn provides the purchase return document and its workflow:
// REQUESTED -> APPROVED -> DONE, or REQUESTED -> REJECTED.
package purchasereturn

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/entity"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Status is the workflow state of a return.
type Status string

const (
	StatusRequested Status = "REQUESTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusDone      Status = "DONE"
)

// Statuses lists every workflow state.
var Statuses = []Status{StatusRequested, StatusApproved, StatusRejected, StatusDone}

// ParseStatus validates a status name.
func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Counts reports whether returns in this state consume returnable quantity.
func (s Status) Counts() bool {
	return s != StatusRejected
}

// Open reports whether the return still blocks its purchase from being canceled.
func (s Status) Open() bool {
	return s == StatusRequested || s == StatusApproved
}

var transitions = map[Status][]Status{
	StatusRequested: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusDone},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Return sends purchased goods back to the supplier.
type Return struct {
	entity.TenantEntity

	PurchaseID  id.ID      `db:"purchase_id" json:"purchaseId"`
	Reason      string     `db:"reason" json:"reason"`
	Status      Status     `db:"status" json:"status"`
	TotalAmount int64      `db:"total_amount" json:"totalAmount"`
	RequestedBy string     `db:"requested_by" json:"requestedBy,omitempty"`
	DecidedBy   string     `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt   *time.Time `db:"decided_at" json:"decidedAt,omitempty"`

	Items []Item `db:"-" json:"items,omitempty"`
}

// Item is one returned line, tied to the purchase line it came from.
type Item struct {
	ID             id.ID `db:"id" json:"id"`
	ReturnID       id.ID `db:"return_id" json:"returnId"`
	PurchaseItemID id.ID `db:"purchase_item_id" json:"purchaseItemId"`
	InventoryID    id.ID `db:"inventory_id" json:"inventoryId"`
	Quantity       int64 `db:"quantity" json:"quantity"`
	UnitCost       int64 `db:"unit_cost" json:"unitCost"`
	SubTotal       int64 `db:"sub_total" json:"subTotal"`
}

// Line is the input for one return line.
type Line struct {
	PurchaseItemID id.ID
	Quantity       int64
}

// ValidateLines checks quantities and rejects a purchase line appearing twice.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return apperror.NewValidation("invalid return").WithField("items", "at least one item is required")
	}
	seen := make(map[id.ID]struct{}, len(lines))
	for i, l := range lines {
		if l.Quantity <= 0 {
			return apperror.NewValidation("invalid return").
				WithField(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if _, dup := seen[l.PurchaseItemID]; dup {
			return apperror.NewValidation("duplicate purchase item in return").
				WithField(fmt.Sprintf("items[%d].purchaseItemId", i), "duplicate").
				WithDetail("purchase_item_id", l.PurchaseItemID)
		}
		seen[l.PurchaseItemID] = struct{}{}
	}
	return nil
}

// New creates a REQUESTED return.
func New(tenantID, purchaseID id.ID, reason, requestedBy string, now time.Time) *Return {
	return &Return{
		TenantEntity: entity.NewTenantEntity(tenantID, now),
		PurchaseID:   purchaseID,
		Reason:       reason,
		Status:       StatusRequested,
		RequestedBy:  requestedBy,
	}
}

// AddItem appends a line and adds its amount to the total.
func (r *Return) AddItem(purchaseItemID, inventoryID id.ID, qty, unitCost int64) error {
	sub, ok := types.MulChecked(qty, unitCost)
	if !ok {
		return apperror.NewValidation("return line amount overflows").WithDetail("purchase_item_id", purchaseItemID)
	}
	total, ok := types.AddChecked(r.TotalAmount, sub)
	if !ok {
		return apperror.NewValidation("return total overflows").WithDetail("purchase_item_id", purchaseItemID)
	}
	r.Items = append(r.Items, Item{
		ID:             id.New(),
		ReturnID:       r.ID,
		PurchaseItemID: purchaseItemID,
		InventoryID:    inventoryID,
		Quantity:       qty,
		UnitCost:       unitCost,
		SubTotal:       sub,
	})
	r.TotalAmount = total
	return nil
}

// Validate implements entity.Validatable.
func (r *Return) Validate(_ context.Context) error {
	if id.IsNil(r.PurchaseID) {
		return apperror.NewValidation("invalid return").WithField("purchaseId", "required")
	}
	lines := make([]Line, len(r.Items))
	for i, it := range r.Items {
		lines[i] = Line{PurchaseItemID: it.PurchaseItemID, Quantity: it.Quantity}
	}
	return ValidateLines(lines)
}

// Transition moves the return to next, recording who decided.
func (r *Return) Transition(next Status, user string, now time.Time) error {
	if !CanTransition(r.Status, next) {
		return apperror.NewConflict(fmt.Sprintf("return cannot move from %s to %s", r.Status, next)).
			WithDetail("status", r.Status)
	}
	at := now.UTC()
	r.Status = next
	r.DecidedBy = user
	r.DecidedAt = &at
	r.Touch(now)
	return nil
}

// Quantity is the total quantity of one inventory item across return lines.
type Quantity struct {
	InventoryID id.ID
	Quantity    int64
}

// ByInventory sums the lines per inventory item, in first-appearance order.
// Two purchase lines of the same item produce one entry.
func (r *Return) ByInventory() []Quantity {
	var out []Quantity
	pos := make(map[id.ID]int)
	for _, it := range r.Items {
		if i, ok := pos[it.InventoryID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.InventoryID] = len(out)
		out = append(out, Quantity{InventoryID: it.InventoryID, Quantity: it.Quantity})
	}
	return out
}

// MaxReturnableError reports a line over its returnable quantity.
func MaxReturnableError(purchaseItemID id.ID, max int64) error {
	return apperror.NewValidation(fmt.Sprintf("Max returnable quantity is %d", max)).
		WithDetail("purchase_item_id", purchaseItemID).
		WithDetail("max", max)
}
