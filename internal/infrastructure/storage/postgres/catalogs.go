package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

var (
	inventoryCols = ExtractDBColumns[inventory.Item]()
	supplierCols  = ExtractDBColumns[supplier.Supplier]()
)

func search(cols []string, term string) squirrel.Sqlizer {
	or := squirrel.Or{}
	for _, c := range cols {
		or = append(or, squirrel.ILike{c: "%" + term + "%"})
	}
	return or
}

type inventoryRepo struct{ repo }

func (r inventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	if err := r.insert(ctx, "inventories", "inventory", item); err != nil {
		return r.duplicate(err, item)
	}
	return nil
}

func (r inventoryRepo) Update(ctx context.Context, item *inventory.Item) error {
	err := r.update(ctx, "inventories", "inventory", item.ID, map[string]any{
		"name":       item.Name,
		"code":       item.Code,
		"price":      item.Price,
		"updated_at": item.UpdatedAt,
	})
	if err != nil {
		return r.duplicate(err, item)
	}
	return nil
}

// duplicate reports the value of whichever unique field collided.
func (r inventoryRepo) duplicate(err error, item *inventory.Item) error {
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Details["field"] == "name" {
		return withValue(err, item.Name)
	}
	return withValue(err, item.Code)
}

func (r inventoryRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	b := r.from("inventories", inventoryCols...).Where(squirrel.Eq{"id": itemID})
	return get[inventory.Item](ctx, r.q(ctx), b, "inventory", itemID)
}

// GetForUpdate locks the rows in id order so overlapping postings cannot deadlock.
func (r inventoryRepo) GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*inventory.Item, error) {
	out := make(map[id.ID]*inventory.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	b := r.from("inventories", inventoryCols...).
		Where(squirrel.Eq{"id": id.SortedUnique(ids)}).
		OrderBy("id").
		Suffix("FOR UPDATE")
	items, err := selectAll[*inventory.Item](ctx, r.q(ctx), b)
	if err != nil {
		return nil, mapError(err, "inventory")
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

const applyBalanceSQL = `
	UPDATE inventories SET stock = $1, cost = $2, sold = $3, updated_at = now()
	WHERE id = $4 AND tenant_id = $5`

// ApplyBalances writes every change in one round-trip.
func (r inventoryRepo) ApplyBalances(ctx context.Context, changes []ledger.Change) error {
	queries := make([]BatchQuery, len(changes))
	for i, c := range changes {
		queries[i] = BatchQuery{
			SQL:  applyBalanceSQL,
			Args: []any{c.Stock, c.Cost, c.Sold, c.InventoryID, r.tenantID},
		}
	}
	if err := r.store.batch.ExecuteBatch(ctx, queries, 1); err != nil {
		return mapError(fmt.Errorf("apply balances: %w", err), "inventory")
	}
	return nil
}

func (r inventoryRepo) List(ctx context.Context, f inventory.ListFilter) (filter.ListResult[*inventory.Item], error) {
	b := r.from("inventories", inventoryCols...)
	if f.Search != "" {
		b = b.Where(search([]string{"name", "code"}, f.Search))
	}
	return page[*inventory.Item](ctx, r.q(ctx), b, f.Page, "name", "id")
}

func (r inventoryRepo) All(ctx context.Context) ([]*inventory.Item, error) {
	return selectAll[*inventory.Item](ctx, r.q(ctx), r.from("inventories", inventoryCols...).OrderBy("name", "id"))
}

type supplierRepo struct{ repo }

func (r supplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	return r.insert(ctx, "suppliers", "supplier", s)
}

func (r supplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	return r.update(ctx, "suppliers", "supplier", s.ID, map[string]any{
		"name":       s.Name,
		"phone":      s.Phone,
		"address":    s.Address,
		"updated_at": s.UpdatedAt,
	})
}

func (r supplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	b := r.from("suppliers", supplierCols...).Where(squirrel.Eq{"id": supplierID})
	return get[supplier.Supplier](ctx, r.q(ctx), b, "supplier", supplierID)
}

func (r supplierRepo) List(ctx context.Context, term string, p filter.Page) (filter.ListResult[*supplier.Supplier], error) {
	b := r.from("suppliers", supplierCols...)
	if term != "" {
		b = b.Where(search([]string{"name"}, term))
	}
	return page[*supplier.Supplier](ctx, r.q(ctx), b, p, "name", "id")
}
