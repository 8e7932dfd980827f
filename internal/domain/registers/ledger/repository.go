package ledger

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
)

// Repository is the tenant-scoped ledger store. Records are only ever appended.
type Repository interface {
	// Append inserts records in order and assigns their Seq.
	Append(ctx context.Context, records []Record) error

	// Latest returns the most recent record matching q, or nil when there is none.
	Latest(ctx context.Context, q Lookup) (*Record, error)

	// History returns every record of one item, oldest first.
	History(ctx context.Context, inventoryID id.ID) ([]Record, error)

	// List returns a page of records, newest first.
	List(ctx context.Context, f Filter) (filter.ListResult[Record], error)

	// Scan returns all records matching f, oldest first. Used by reports.
	Scan(ctx context.Context, f Filter) ([]Record, error)
}

// Lookup selects records by document, item and kind. Nil RefID matches any document.
type Lookup struct {
	RefID       id.ID
	InventoryID id.ID
	Kind        Kind
}

// Filter narrows ledger listings.
type Filter struct {
	InventoryID *id.ID
	RefIDs      []id.ID
	Kinds       []Kind
	From        *time.Time
	To          *time.Time
	Page        filter.Page
}

// Match reports whether r passes f. Stores without a query language use it directly.
func (f Filter) Match(r Record) bool {
	if f.InventoryID != nil && r.InventoryID != *f.InventoryID {
		return false
	}
	if len(f.RefIDs) > 0 && !containsID(f.RefIDs, r.RefID) {
		return false
	}
	if len(f.Kinds) > 0 && !containsKind(f.Kinds, r.Kind) {
		return false
	}
	if f.From != nil && r.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && r.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// Match reports whether r satisfies the lookup.
func (q Lookup) Match(r Record) bool {
	if r.InventoryID != q.InventoryID || r.Kind != q.Kind {
		return false
	}
	return id.IsNil(q.RefID) || r.RefID == q.RefID
}

func containsID(ids []id.ID, v id.ID) bool {
	for _, x := range ids {
		if x == v {
			return true
		}
	}
	return false
}

func containsKind(kinds []Kind, v Kind) bool {
	for _, k := range kinds {
		if k == v {
			return true
		}
	}
	return false
}
