package inventory

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

// Repository is the tenant-scoped inventory store.
type Repository interface {
	// Create inserts an item. Duplicate code or name is a DUPLICATE_ENTRY error.
	Create(ctx context.Context, item *Item) error

	// Update writes name, code and price.
	Update(ctx context.Context, item *Item) error

	// GetByID returns one item or NOT_FOUND.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	// GetForUpdate reads and row-locks the items in one statement, in id order.
	// Unknown ids are absent from the result.
	GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*Item, error)

	// ApplyBalances writes the final projection of each changed item.
	ApplyBalances(ctx context.Context, changes []ledger.Change) error

	// List returns a page of items ordered by name.
	List(ctx context.Context, f ListFilter) (filter.ListResult[*Item], error)

	// All returns every item of the tenant. Used by reports.
	All(ctx context.Context) ([]*Item, error)
}

// ListFilter narrows item listings.
type ListFilter struct {
	Search string
	Page   filter.Page
}
