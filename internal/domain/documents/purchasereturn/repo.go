package purchasereturn

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// Repository is the tenant-scoped return store.
type Repository interface {
	Create(ctx context.Context, r *Return) error
	GetByID(ctx context.Context, returnID id.ID) (*Return, error)

	// GetForUpdate is GetByID with the return row locked.
	GetForUpdate(ctx context.Context, returnID id.ID) (*Return, error)

	// Update writes status and decision fields.
	Update(ctx context.Context, r *Return) error

	// CountByStatus counts the returns of a purchase in any of statuses.
	CountByStatus(ctx context.Context, purchaseID id.ID, statuses ...Status) (int, error)

	// ReturnedQuantities sums line quantities per purchase item over returns
	// of the purchase that are in any of statuses.
	ReturnedQuantities(ctx context.Context, purchaseID id.ID, statuses ...Status) (map[id.ID]int64, error)

	List(ctx context.Context, f ListFilter) (filter.ListResult[*Return], error)
}

// ListFilter narrows return listings.
type ListFilter struct {
	PurchaseID *id.ID
	Status     Status
	Period     filter.Period
	Page       filter.Page
}

// Match reports whether r passes f.
func (f ListFilter) Match(r *Return) bool {
	if f.PurchaseID != nil && r.PurchaseID != *f.PurchaseID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return f.Period.Contains(r.CreatedAt)
}

// CountedStatuses are the states whose lines reduce the returnable quantity.
func CountedStatuses() []Status {
	var out []Status
	for _, s := range Statuses {
		if s.Counts() {
			out = append(out, s)
		}
	}
	return out
}
