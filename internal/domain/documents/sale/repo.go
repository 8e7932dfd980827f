package sale

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// Repository is the tenant-scoped sale store.
type Repository interface {
	Create(ctx context.Context, s *Sale) error

	// GetByID returns the sale with items, deleted or not, or NOT_FOUND.
	GetByID(ctx context.Context, saleID id.ID) (*Sale, error)

	// GetForUpdate is GetByID with the sale row locked.
	GetForUpdate(ctx context.Context, saleID id.ID) (*Sale, error)

	// Update writes header fields: total, deletion and edit flags.
	Update(ctx context.Context, s *Sale) error

	// ReplaceItems deletes the current lines and inserts s.Items.
	ReplaceItems(ctx context.Context, s *Sale) error

	// List returns a page of sales without items, newest first.
	List(ctx context.Context, f filter.Documents) (filter.ListResult[*Sale], error)

	// Scan returns every sale in the period with items, oldest first. Used by reports.
	Scan(ctx context.Context, period filter.Period, state filter.State) ([]*Sale, error)
}
