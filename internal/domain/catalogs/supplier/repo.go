package supplier

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// Repository is the tenant-scoped supplier store.
type Repository interface {
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error)
	List(ctx context.Context, search string, page filter.Page) (filter.ListResult[*Supplier], error)
}
