package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

var ledgerCols = ExtractDBColumns[ledger.Record]()

// seq is assigned by the identity column.
var ledgerInsertCols = slices.DeleteFunc(slices.Clone(ledgerCols), func(c string) bool { return c == "seq" })

type ledgerRepo struct{ repo }

// Append inserts the records in one batch and reads back each seq.
func (r ledgerRepo) Append(ctx context.Context, records []ledger.Record) error {
	queries := make([]BatchQuery, len(records))
	for i := range records {
		records[i].TenantID = r.tenantID
		sql, args, err := builder().Insert("stock_ledger").
			Columns(ledgerInsertCols...).
			Values(StructValues(records[i], ledgerInsertCols)...).
			Suffix("RETURNING seq").
			ToSql()
		if err != nil {
			return fmt.Errorf("build ledger insert: %w", err)
		}
		queries[i] = BatchQuery{SQL: sql, Args: args}
	}
	err := r.store.batch.QueryBatch(ctx, queries, func(i int, row pgx.Row) error {
		return row.Scan(&records[i].Seq)
	})
	if err != nil {
		return mapError(fmt.Errorf("append ledger: %w", err), "ledger")
	}
	return nil
}

func (r ledgerRepo) Latest(ctx context.Context, q ledger.Lookup) (*ledger.Record, error) {
	b := r.from("stock_ledger", ledgerCols...).
		Where(squirrel.Eq{"inventory_id": q.InventoryID, "kind": string(q.Kind)}).
		OrderBy("seq DESC").
		Limit(1)
	if !id.IsNil(q.RefID) {
		b = b.Where(squirrel.Eq{"ref_id": q.RefID})
	}
	recs, err := selectAll[ledger.Record](ctx, r.q(ctx), b)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

func (r ledgerRepo) History(ctx context.Context, inventoryID id.ID) ([]ledger.Record, error) {
	return r.Scan(ctx, ledger.Filter{InventoryID: &inventoryID})
}

func (r ledgerRepo) where(f ledger.Filter) squirrel.SelectBuilder {
	b := r.from("stock_ledger", ledgerCols...)
	if f.InventoryID != nil {
		b = b.Where(squirrel.Eq{"inventory_id": *f.InventoryID})
	}
	if len(f.RefIDs) > 0 {
		b = b.Where(squirrel.Eq{"ref_id": f.RefIDs})
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		b = b.Where(squirrel.Eq{"kind": kinds})
	}
	if f.From != nil {
		b = b.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		b = b.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	return b
}

func (r ledgerRepo) Scan(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	return selectAll[ledger.Record](ctx, r.q(ctx), r.where(f).OrderBy("seq"))
}

func (r ledgerRepo) List(ctx context.Context, f ledger.Filter) (filter.ListResult[ledger.Record], error) {
	return page[ledger.Record](ctx, r.q(ctx), r.where(f), f.Page, "seq DESC")
}
