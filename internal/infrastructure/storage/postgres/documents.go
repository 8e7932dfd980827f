package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/filter"
)

var (
	purchaseCols     = ExtractDBColumns[purchase.Purchase]()
	purchaseItemCols = ExtractDBColumns[purchase.Item]()
	paymentCols      = ExtractDBColumns[purchase.Payment]()
	saleCols         = ExtractDBColumns[sale.Sale]()
	saleItemCols     = ExtractDBColumns[sale.Item]()
	returnCols       = ExtractDBColumns[purchasereturn.Return]()
	returnItemCols   = ExtractDBColumns[purchasereturn.Item]()
)

// documentHeader is the set of header columns a document update rewrites.
func documentHeader(deleted bool, deletedAt any, edited bool, editedAt any, editedBy string) map[string]any {
	return map[string]any{
		"is_deleted": deleted,
		"deleted_at": deletedAt,
		"is_edited":  edited,
		"edited_at":  editedAt,
		"edited_by":  editedBy,
	}
}

// --- purchases ---

type purchaseRepo struct{ repo }

func (r purchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	if err := r.insert(ctx, "purchases", "purchase", p); err != nil {
		return withValue(err, p.Invoice)
	}
	return r.copyLines(ctx, "purchase_items", purchaseItemCols, len(p.Items), func(i int) any { return p.Items[i] })
}

func (r purchaseRepo) load(ctx context.Context, purchaseID id.ID, lock bool) (*purchase.Purchase, error) {
	b := r.from("purchases", purchaseCols...).Where(squirrel.Eq{"id": purchaseID})
	if lock {
		b = b.Suffix("FOR UPDATE")
	}
	p, err := get[purchase.Purchase](ctx, r.q(ctx), b, "purchase", purchaseID)
	if err != nil {
		return nil, err
	}
	p.Items, err = selectAll[purchase.Item](ctx, r.q(ctx),
		r.from("purchase_items", purchaseItemCols...).
			Where(squirrel.Eq{"purchase_id": purchaseID}).
			OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("load purchase items: %w", err)
	}
	return p, nil
}

func (r purchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.load(ctx, purchaseID, false)
}

func (r purchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.load(ctx, purchaseID, true)
}

func (r purchaseRepo) Update(ctx context.Context, p *purchase.Purchase) error {
	set := documentHeader(p.IsDeleted, p.DeletedAt, p.IsEdited, p.EditedAt, p.EditedBy)
	set["paid_amount"] = p.PaidAmount
	set["status"] = string(p.Status)
	set["updated_at"] = p.UpdatedAt
	return r.update(ctx, "purchases", "purchase", p.ID, set)
}

func (r purchaseRepo) AddPayment(ctx context.Context, pay *purchase.Payment) error {
	return r.insert(ctx, "purchase_payments", "payment", pay)
}

func (r purchaseRepo) Payments(ctx context.Context, purchaseID id.ID) ([]purchase.Payment, error) {
	if _, err := get[purchase.Purchase](ctx, r.q(ctx),
		r.from("purchases", purchaseCols...).Where(squirrel.Eq{"id": purchaseID}), "purchase", purchaseID); err != nil {
		return nil, err
	}
	return selectAll[purchase.Payment](ctx, r.q(ctx),
		r.from("purchase_payments", paymentCols...).
			Where(squirrel.Eq{"purchase_id": purchaseID}).
			OrderBy("created_at", "id"))
}

func (r purchaseRepo) where(p filter.Period, st filter.State) squirrel.SelectBuilder {
	return periodWhere(r.from("purchases", purchaseCols...).Where(stateWhere(st)), "created_at", p)
}

func (r purchaseRepo) List(ctx context.Context, f filter.Documents) (filter.ListResult[*purchase.Purchase], error) {
	return page[*purchase.Purchase](ctx, r.q(ctx), r.where(f.Period, f.State), f.Page, "created_at DESC", "id DESC")
}

func (r purchaseRepo) Scan(ctx context.Context, p filter.Period, st filter.State) ([]*purchase.Purchase, error) {
	purchases, err := selectAll[*purchase.Purchase](ctx, r.q(ctx), r.where(p, st).OrderBy("created_at", "id"))
	if err != nil || len(purchases) == 0 {
		return purchases, err
	}
	ids := make([]id.ID, len(purchases))
	byID := make(map[id.ID]*purchase.Purchase, len(purchases))
	for i, pc := range purchases {
		ids[i] = pc.ID
		byID[pc.ID] = pc
	}
	items, err := selectAll[purchase.Item](ctx, r.q(ctx),
		r.from("purchase_items", purchaseItemCols...).
			Where(squirrel.Eq{"purchase_id": ids}).
			OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("load purchase items: %w", err)
	}
	for _, it := range items {
		pc := byID[it.PurchaseID]
		pc.Items = append(pc.Items, it)
	}
	return purchases, nil
}

// --- sales ---

type saleRepo struct{ repo }

func (r saleRepo) Create(ctx context.Context, s *sale.Sale) error {
	if err := r.insert(ctx, "sales", "sale", s); err != nil {
		return withValue(err, s.Invoice)
	}
	return r.insertItems(ctx, s)
}

func (r saleRepo) insertItems(ctx context.Context, s *sale.Sale) error {
	return r.copyLines(ctx, "sale_items", saleItemCols, len(s.Items), func(i int) any { return s.Items[i] })
}

func (r saleRepo) items(ctx context.Context, saleIDs ...id.ID) (map[id.ID][]sale.Item, error) {
	out := make(map[id.ID][]sale.Item, len(saleIDs))
	if len(saleIDs) == 0 {
		return out, nil
	}
	items, err := selectAll[sale.Item](ctx, r.q(ctx),
		r.from("sale_items", saleItemCols...).
			Where(squirrel.Eq{"sale_id": saleIDs}).
			OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	for _, it := range items {
		out[it.SaleID] = append(out[it.SaleID], it)
	}
	return out, nil
}

func (r saleRepo) load(ctx context.Context, saleID id.ID, lock bool) (*sale.Sale, error) {
	b := r.from("sales", saleCols...).Where(squirrel.Eq{"id": saleID})
	if lock {
		b = b.Suffix("FOR UPDATE")
	}
	s, err := get[sale.Sale](ctx, r.q(ctx), b, "sale", saleID)
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, saleID)
	if err != nil {
		return nil, err
	}
	s.Items = items[saleID]
	return s, nil
}

func (r saleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.load(ctx, saleID, false)
}

func (r saleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.load(ctx, saleID, true)
}

func (r saleRepo) Update(ctx context.Context, s *sale.Sale) error {
	set := documentHeader(s.IsDeleted, s.DeletedAt, s.IsEdited, s.EditedAt, s.EditedBy)
	set["total_amount"] = s.TotalAmount
	set["updated_at"] = s.UpdatedAt
	return r.update(ctx, "sales", "sale", s.ID, set)
}

func (r saleRepo) ReplaceItems(ctx context.Context, s *sale.Sale) error {
	sql, args, err := builder().Delete("sale_items").
		Where(squirrel.Eq{"sale_id": s.ID, "tenant_id": r.tenantID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := r.q(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete sale items: %w", err)
	}
	return r.insertItems(ctx, s)
}

func (r saleRepo) where(p filter.Period, st filter.State) squirrel.SelectBuilder {
	return periodWhere(r.from("sales", saleCols...).Where(stateWhere(st)), "created_at", p)
}

func (r saleRepo) List(ctx context.Context, f filter.Documents) (filter.ListResult[*sale.Sale], error) {
	return page[*sale.Sale](ctx, r.q(ctx), r.where(f.Period, f.State), f.Page, "created_at DESC", "id DESC")
}

func (r saleRepo) Scan(ctx context.Context, p filter.Period, st filter.State) ([]*sale.Sale, error) {
	sales, err := selectAll[*sale.Sale](ctx, r.q(ctx), r.where(p, st).OrderBy("created_at", "id"))
	if err != nil {
		return nil, err
	}
	ids := make([]id.ID, len(sales))
	for i, s := range sales {
		ids[i] = s.ID
	}
	items, err := r.items(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for _, s := range sales {
		s.Items = items[s.ID]
	}
	return sales, nil
}

// --- returns ---

type returnRepo struct{ repo }

func (r returnRepo) Create(ctx context.Context, ret *purchasereturn.Return) error {
	if err := r.insert(ctx, "purchase_returns", "purchase return", ret); err != nil {
		return err
	}
	return r.copyLines(ctx, "purchase_return_items", returnItemCols, len(ret.Items), func(i int) any { return ret.Items[i] })
}

func (r returnRepo) load(ctx context.Context, returnID id.ID, lock bool) (*purchasereturn.Return, error) {
	b := r.from("purchase_returns", returnCols...).Where(squirrel.Eq{"id": returnID})
	if lock {
		b = b.Suffix("FOR UPDATE")
	}
	ret, err := get[purchasereturn.Return](ctx, r.q(ctx), b, "purchase return", returnID)
	if err != nil {
		return nil, err
	}
	ret.Items, err = selectAll[purchasereturn.Item](ctx, r.q(ctx),
		r.from("purchase_return_items", returnItemCols...).
			Where(squirrel.Eq{"return_id": returnID}).
			OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("load return items: %w", err)
	}
	return ret, nil
}

func (r returnRepo) GetByID(ctx context.Context, returnID id.ID) (*purchasereturn.Return, error) {
	return r.load(ctx, returnID, false)
}

func (r returnRepo) GetForUpdate(ctx context.Context, returnID id.ID) (*purchasereturn.Return, error) {
	return r.load(ctx, returnID, true)
}

func (r returnRepo) Update(ctx context.Context, ret *purchasereturn.Return) error {
	return r.update(ctx, "purchase_returns", "purchase return", ret.ID, map[string]any{
		"status":     string(ret.Status),
		"decided_by": ret.DecidedBy,
		"decided_at": ret.DecidedAt,
		"updated_at": ret.UpdatedAt,
	})
}

func statusStrings(statuses []purchasereturn.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r returnRepo) CountByStatus(ctx context.Context, purchaseID id.ID, statuses ...purchasereturn.Status) (int, error) {
	sql, args, err := r.from("purchase_returns", "COUNT(*)").
		Where(squirrel.Eq{"purchase_id": purchaseID, "status": statusStrings(statuses)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}
	var n int
	if err := r.q(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count returns: %w", err)
	}
	return n, nil
}

type returnedQuantity struct {
	PurchaseItemID id.ID `db:"purchase_item_id"`
	Quantity       int64 `db:"quantity"`
}

func (r returnRepo) ReturnedQuantities(ctx context.Context, purchaseID id.ID, statuses ...purchasereturn.Status) (map[id.ID]int64, error) {
	b := builder().
		Select("ri.purchase_item_id", "SUM(ri.quantity)::BIGINT AS quantity").
		From("purchase_return_items ri").
		Join("purchase_returns pr ON pr.id = ri.return_id AND pr.tenant_id = ri.tenant_id").
		Where(squirrel.Eq{
			"pr.tenant_id":   r.tenantID,
			"pr.purchase_id": purchaseID,
			"pr.status":      statusStrings(statuses),
		}).
		GroupBy("ri.purchase_item_id")
	rows, err := selectAll[returnedQuantity](ctx, r.q(ctx), b)
	if err != nil {
		return nil, err
	}
	out := make(map[id.ID]int64, len(rows))
	for _, row := range rows {
		out[row.PurchaseItemID] = row.Quantity
	}
	return out, nil
}

func (r returnRepo) List(ctx context.Context, f purchasereturn.ListFilter) (filter.ListResult[*purchasereturn.Return], error) {
	b := periodWhere(r.from("purchase_returns", returnCols...), "created_at", f.Period)
	if f.PurchaseID != nil {
		b = b.Where(squirrel.Eq{"purchase_id": *f.PurchaseID})
	}
	if f.Status != "" {
		b = b.Where(squirrel.Eq{"status": string(f.Status)})
	}
	return page[*purchasereturn.Return](ctx, r.q(ctx), b, f.Page, "created_at DESC", "id DESC")
}
