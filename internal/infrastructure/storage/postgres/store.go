package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	corenumerator "stockledger/internal/core/numerator"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/infrastructure/numerator"
)

var _ domain.Store = (*Store)(nil)

// Store is the shared-schema PostgreSQL store.
type Store struct {
	txManager *TxManager
	copier    *BatchInserter
	batch     *BatchExecutor
	codec     *auditCodec
	counter   *numerator.Counter
}

// NewStore creates a store over the transaction manager's pool.
func NewStore(txManager *TxManager) (*Store, error) {
	codec, err := newAuditCodec(defaultCompressThreshold)
	if err != nil {
		return nil, err
	}
	return &Store{
		txManager: txManager,
		copier:    NewBatchInserter(txManager),
		batch:     NewBatchExecutor(txManager),
		codec:     codec,
		counter: numerator.NewCounter(func(ctx context.Context) numerator.Querier {
			return txManager.GetQuerier(ctx)
		}),
	}, nil
}

// Tenant returns the repositories of tenantID.
func (s *Store) Tenant(tenantID id.ID) domain.TenantStore {
	return &tenantStore{repo: repo{store: s, tenantID: tenantID}}
}

// CreateTenant inserts a tenant row.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	sql, args, err := builder().Insert("tenants").SetMap(StructToMap(t)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return mapError(fmt.Errorf("insert tenant: %w", err), "tenant", t.ID.String())
	}
	return nil
}

// InvoiceCounter returns the invoice_counters upsert counter.
func (s *Store) InvoiceCounter() corenumerator.Counter {
	return s.counter
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// repo carries the tenant every statement is filtered by.
type repo struct {
	store    *Store
	tenantID id.ID
}

func (r repo) q(ctx context.Context) Querier {
	return r.store.txManager.GetQuerier(ctx)
}

// from starts a tenant-filtered select.
func (r repo) from(table string, cols ...string) squirrel.SelectBuilder {
	return builder().Select(cols...).From(table).Where(squirrel.Eq{"tenant_id": r.tenantID})
}

func (r repo) insert(ctx context.Context, table, entity string, row any) error {
	data := StructToMap(row)
	data["tenant_id"] = r.tenantID
	sql, args, err := builder().Insert(table).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.q(ctx).Exec(ctx, sql, args...); err != nil {
		return mapError(fmt.Errorf("insert %s: %w", table, err), entity)
	}
	return nil
}

// update writes set on the row id of this tenant; a missing row is NOT_FOUND.
func (r repo) update(ctx context.Context, table, entity string, rowID id.ID, set map[string]any) error {
	sql, args, err := builder().Update(table).SetMap(set).
		Where(squirrel.Eq{"id": rowID, "tenant_id": r.tenantID}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.q(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return mapError(fmt.Errorf("update %s: %w", table, err), entity)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(entity, rowID)
	}
	return nil
}

// copyLines bulk-inserts document lines, stamping the tenant on each row.
func (r repo) copyLines(ctx context.Context, table string, cols []string, n int, row func(i int) any) error {
	rows := make([][]any, n)
	for i := range rows {
		vals := StructValues(row(i), cols)
		rows[i] = append(vals, r.tenantID)
	}
	allCols := append(append([]string(nil), cols...), "tenant_id")
	if _, err := r.store.copier.CopyFromSlice(ctx, table, allCols, rows); err != nil {
		return mapError(fmt.Errorf("copy %s: %w", table, err), table)
	}
	return nil
}

func get[T any](ctx context.Context, q Querier, b squirrel.SelectBuilder, entity string, key any) (*T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	out := new(T)
	if err := pgxscan.Get(ctx, q, out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, key)
		}
		return nil, fmt.Errorf("get %s: %w", entity, err)
	}
	return out, nil
}

func selectAll[T any](ctx context.Context, q Querier, b squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var out []T
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return out, nil
}

// page counts b, then fetches one page of it in order.
func page[T any](ctx context.Context, q Querier, b squirrel.SelectBuilder, p filter.Page, order ...string) (filter.ListResult[T], error) {
	countSQL, countArgs, err := builder().Select("COUNT(*)").FromSelect(b, "sub").ToSql()
	if err != nil {
		return filter.ListResult[T]{}, fmt.Errorf("build count: %w", err)
	}
	var total int64
	if err := q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return filter.ListResult[T]{}, fmt.Errorf("count: %w", err)
	}

	p = p.Normalize()
	items, err := selectAll[T](ctx, q, b.OrderBy(order...).
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset())))
	if err != nil {
		return filter.ListResult[T]{}, err
	}
	return filter.NewListResult(items, total, p), nil
}

func stateWhere(s filter.State) squirrel.Eq {
	return squirrel.Eq{"is_deleted": s == filter.StateDeleted}
}

func periodWhere(b squirrel.SelectBuilder, col string, p filter.Period) squirrel.SelectBuilder {
	if !p.From.IsZero() {
		b = b.Where(squirrel.GtOrEq{col: p.From})
	}
	if !p.To.IsZero() {
		b = b.Where(squirrel.LtOrEq{col: p.To})
	}
	return b
}

type tenantStore struct {
	repo
}

func (t *tenantStore) TenantID() id.ID { return t.tenantID }

func (t *tenantStore) Profile(ctx context.Context) (*tenant.Tenant, error) {
	b := builder().Select(ExtractDBColumns[tenant.Tenant]()...).From("tenants").
		Where(squirrel.Eq{"id": t.tenantID})
	return get[tenant.Tenant](ctx, t.q(ctx), b, "tenant", t.tenantID)
}

func (t *tenantStore) Inventory() inventory.Repository { return inventoryRepo{t.repo} }
func (t *tenantStore) Suppliers() supplier.Repository { return supplierRepo{t.repo} }
func (t *tenantStore) Ledger() ledger.Repository { return ledgerRepo{t.repo} }
func (t *tenantStore) Purchases() purchase.Repository { return purchaseRepo{t.repo} }
func (t *tenantStore) Sales() sale.Repository { return saleRepo{t.repo} }
func (t *tenantStore) Returns() purchasereturn.Repository { return returnRepo{t.repo} }
func (t *tenantStore) Audit() audit.Repository { return auditRepo{t.repo} }
