package purchase

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// Repository is the tenant-scoped purchase store.
type Repository interface {
	// Create inserts the purchase with its items. A reused invoice is DUPLICATE_ENTRY.
	Create(ctx context.Context, p *Purchase) error

	// GetByID returns the purchase with items, deleted or not, or NOT_FOUND.
	GetByID(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	// GetForUpdate is GetByID with the purchase row locked.
	GetForUpdate(ctx context.Context, purchaseID id.ID) (*Purchase, error)

	// Update writes header fields: paid amount, status, deletion and edit flags.
	Update(ctx context.Context, p *Purchase) error

	AddPayment(ctx context.Context, pay *Payment) error
	Payments(ctx context.Context, purchaseID id.ID) ([]Payment, error)

	// List returns a page of purchases without items, newest first.
	List(ctx context.Context, f filter.Documents) (filter.ListResult[*Purchase], error)

	// Scan returns every purchase in the period with items, oldest first. Used by reports.
	Scan(ctx context.Context, period filter.Period, state filter.State) ([]*Purchase, error)
}
