package memory

import (
	"context"
	"slices"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

func stateMatches(deleted bool, s filter.State) bool {
	if s == filter.StateDeleted {
		return deleted
	}
	return !deleted
}

// --- ledger ---

type ledgerRepo struct{ t *tenantStore }

func (r ledgerRepo) Append(ctx context.Context, records []ledger.Record) error {
	return r.t.store.write(ctx, func(st *state) error {
		for i := range records {
			st.seq++
			records[i].Seq = st.seq
			records[i].TenantID = r.t.tenantID
			st.ledger = append(st.ledger, records[i])
		}
		return nil
	})
}

func (r ledgerRepo) Latest(ctx context.Context, q ledger.Lookup) (*ledger.Record, error) {
	var out *ledger.Record
	err := r.t.store.read(ctx, func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0; i-- {
			rec := st.ledger[i]
			if rec.TenantID == r.t.tenantID && q.Match(rec) {
				out = &rec
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r ledgerRepo) History(ctx context.Context, inventoryID id.ID) ([]ledger.Record, error) {
	return r.Scan(ctx, ledger.Filter{InventoryID: &inventoryID})
}

func (r ledgerRepo) Scan(ctx context.Context, f ledger.Filter) ([]ledger.Record, error) {
	var out []ledger.Record
	err := r.t.store.read(ctx, func(st *state) error {
		for _, rec := range st.ledger {
			if rec.TenantID == r.t.tenantID && f.Match(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	return out, err
}

func (r ledgerRepo) List(ctx context.Context, f ledger.Filter) (filter.ListResult[ledger.Record], error) {
	all, err := r.Scan(ctx, f)
	if err != nil {
		return filter.ListResult[ledger.Record]{}, err
	}
	slices.Reverse(all)
	return filter.NewListResult(filter.Slice(all, f.Page), int64(len(all)), f.Page), nil
}

// --- purchases ---

type purchaseRepo struct{ t *tenantStore }

func (r purchaseRepo) own(st *state, purchaseID id.ID) (*purchase.Purchase, bool) {
	p, ok := st.purchases[purchaseID]
	if !ok || p.TenantID != r.t.tenantID {
		return nil, false
	}
	return p, true
}

func (r purchaseRepo) Create(ctx context.Context, p *purchase.Purchase) error {
	return r.t.store.write(ctx, func(st *state) error {
		for _, other := range st.purchases {
			if other.TenantID == r.t.tenantID && other.Invoice == p.Invoice {
				return apperror.NewDuplicate("purchase", "invoice", p.Invoice)
			}
		}
		c := copyPurchase(p)
		c.TenantID = r.t.tenantID
		st.purchases[c.ID] = c
		return nil
	})
}

func (r purchaseRepo) GetByID(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	var out *purchase.Purchase
	err := r.t.store.read(ctx, func(st *state) error {
		p, ok := r.own(st, purchaseID)
		if !ok {
			return apperror.NewNotFound("purchase", purchaseID)
		}
		out = copyPurchase(p)
		return nil
	})
	return out, err
}

func (r purchaseRepo) GetForUpdate(ctx context.Context, purchaseID id.ID) (*purchase.Purchase, error) {
	return r.GetByID(ctx, purchaseID)
}

func (r purchaseRepo) Update(ctx context.Context, p *purchase.Purchase) error {
	return r.t.store.write(ctx, func(st *state) error {
		cur, ok := r.own(st, p.ID)
		if !ok {
			return apperror.NewNotFound("purchase", p.ID)
		}
		cur.PaidAmount = p.PaidAmount
		cur.Status = p.Status
		cur.SoftDeletable = p.SoftDeletable
		cur.Editable = p.Editable
		cur.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r purchaseRepo) AddPayment(ctx context.Context, pay *purchase.Payment) error {
	return r.t.store.write(ctx, func(st *state) error {
		if _, ok := r.own(st, pay.PurchaseID); !ok {
			return apperror.NewNotFound("purchase", pay.PurchaseID)
		}
		c := *pay
		c.TenantID = r.t.tenantID
		st.payments = append(st.payments, c)
		return nil
	})
}

func (r purchaseRepo) Payments(ctx context.Context, purchaseID id.ID) ([]purchase.Payment, error) {
	var out []purchase.Payment
	err := r.t.store.read(ctx, func(st *state) error {
		if _, ok := r.own(st, purchaseID); !ok {
			return apperror.NewNotFound("purchase", purchaseID)
		}
		for _, pay := range st.payments {
			if pay.PurchaseID == purchaseID {
				out = append(out, pay)
			}
		}
		return nil
	})
	return out, err
}

func (r purchaseRepo) List(ctx context.Context, f filter.Documents) (filter.ListResult[*purchase.Purchase], error) {
	var all []*purchase.Purchase
	err := r.t.store.read(ctx, func(st *state) error {
		for _, p := range st.purchases {
			if p.TenantID == r.t.tenantID && stateMatches(p.IsDeleted, f.State) && f.Period.Contains(p.CreatedAt) {
				c := copyPurchase(p)
				c.Items = nil
				all = append(all, c)
			}
		}
		return nil
	})
	if err != nil {
		return filter.ListResult[*purchase.Purchase]{}, err
	}
	byCreated(all,
		func(p *purchase.Purchase) time.Time { return p.CreatedAt },
		func(p *purchase.Purchase) id.ID { return p.ID }, true)
	return filter.NewListResult(filter.Slice(all, f.Page), int64(len(all)), f.Page), nil
}

func (r purchaseRepo) Scan(ctx context.Context, period filter.Period, docState filter.State) ([]*purchase.Purchase, error) {
	var all []*purchase.Purchase
	err := r.t.store.read(ctx, func(st *state) error {
		for _, p := range st.purchases {
			if p.TenantID == r.t.tenantID && stateMatches(p.IsDeleted, docState) && period.Contains(p.CreatedAt) {
				all = append(all, copyPurchase(p))
			}
		}
		return nil
	})
	byCreated(all,
		func(p *purchase.Purchase) time.Time { return p.CreatedAt },
		func(p *purchase.Purchase) id.ID { return p.ID }, false)
	return all, err
}

// --- sales ---

type saleRepo struct{ t *tenantStore }

func (r saleRepo) own(st *state, saleID id.ID) (*sale.Sale, bool) {
	s, ok := st.sales[saleID]
	if !ok || s.TenantID != r.t.tenantID {
		return nil, false
	}
	return s, true
}

func (r saleRepo) Create(ctx context.Context, s *sale.Sale) error {
	return r.t.store.write(ctx, func(st *state) error {
		for _, other := range st.sales {
			if other.TenantID == r.t.tenantID && other.Invoice == s.Invoice {
				return apperror.NewDuplicate("sale", "invoice", s.Invoice)
			}
		}
		c := copySale(s)
		c.TenantID = r.t.tenantID
		st.sales[c.ID] = c
		return nil
	})
}

func (r saleRepo) GetByID(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	var out *sale.Sale
	err := r.t.store.read(ctx, func(st *state) error {
		s, ok := r.own(st, saleID)
		if !ok {
			return apperror.NewNotFound("sale", saleID)
		}
		out = copySale(s)
		return nil
	})
	return out, err
}

func (r saleRepo) GetForUpdate(ctx context.Context, saleID id.ID) (*sale.Sale, error) {
	return r.GetByID(ctx, saleID)
}

func (r saleRepo) Update(ctx context.Context, s *sale.Sale) error {
	return r.t.store.write(ctx, func(st *state) error {
		cur, ok := r.own(st, s.ID)
		if !ok {
			return apperror.NewNotFound("sale", s.ID)
		}
		cur.TotalAmount = s.TotalAmount
		cur.SoftDeletable = s.SoftDeletable
		cur.Editable = s.Editable
		cur.UpdatedAt = s.UpdatedAt
		return nil
	})
}

func (r saleRepo) ReplaceItems(ctx context.Context, s *sale.Sale) error {
	return r.t.store.write(ctx, func(st *state) error {
		cur, ok := r.own(st, s.ID)
		if !ok {
			return apperror.NewNotFound("sale", s.ID)
		}
		cur.Items = slices.Clone(s.Items)
		return nil
	})
}

func (r saleRepo) collect(ctx context.Context, keep func(*sale.Sale) bool, withItems bool) ([]*sale.Sale, error) {
	var all []*sale.Sale
	err := r.t.store.read(ctx, func(st *state) error {
		for _, s := range st.sales {
			if s.TenantID == r.t.tenantID && keep(s) {
				c := copySale(s)
				if !withItems {
					c.Items = nil
				}
				all = append(all, c)
			}
		}
		return nil
	})
	byCreated(all,
		func(s *sale.Sale) time.Time { return s.CreatedAt },
		func(s *sale.Sale) id.ID { return s.ID }, false)
	return all, err
}

func (r saleRepo) List(ctx context.Context, f filter.Documents) (filter.ListResult[*sale.Sale], error) {
	all, err := r.collect(ctx, func(s *sale.Sale) bool {
		return stateMatches(s.IsDeleted, f.State) && f.Period.Contains(s.CreatedAt)
	}, false)
	if err != nil {
		return filter.ListResult[*sale.Sale]{}, err
	}
	slices.Reverse(all)
	return filter.NewListResult(filter.Slice(all, f.Page), int64(len(all)), f.Page), nil
}

func (r saleRepo) Scan(ctx context.Context, period filter.Period, st filter.State) ([]*sale.Sale, error) {
	return r.collect(ctx, func(s *sale.Sale) bool {
		return stateMatches(s.IsDeleted, st) && period.Contains(s.CreatedAt)
	}, true)
}

// --- returns ---

type returnRepo struct{ t *tenantStore }

func (r returnRepo) own(st *state, returnID id.ID) (*purchasereturn.Return, bool) {
	ret, ok := st.returns[returnID]
	if !ok || ret.TenantID != r.t.tenantID {
		return nil, false
	}
	return ret, true
}

func (r returnRepo) Create(ctx context.Context, ret *purchasereturn.Return) error {
	return r.t.store.write(ctx, func(st *state) error {
		c := copyReturn(ret)
		c.TenantID = r.t.tenantID
		st.returns[c.ID] = c
		return nil
	})
}

func (r returnRepo) GetByID(ctx context.Context, returnID id.ID) (*purchasereturn.Return, error) {
	var out *purchasereturn.Return
	err := r.t.store.read(ctx, func(st *state) error {
		ret, ok := r.own(st, returnID)
		if !ok {
			return apperror.NewNotFound("purchase return", returnID)
		}
		out = copyReturn(ret)
		return nil
	})
	return out, err
}

func (r returnRepo) GetForUpdate(ctx context.Context, returnID id.ID) (*purchasereturn.Return, error) {
	return r.GetByID(ctx, returnID)
}

func (r returnRepo) Update(ctx context.Context, ret *purchasereturn.Return) error {
	return r.t.store.write(ctx, func(st *state) error {
		cur, ok := r.own(st, ret.ID)
		if !ok {
			return apperror.NewNotFound("purchase return", ret.ID)
		}
		cur.Status = ret.Status
		cur.DecidedBy = ret.DecidedBy
		cur.DecidedAt = ret.DecidedAt
		cur.UpdatedAt = ret.UpdatedAt
		return nil
	})
}

func (r returnRepo) CountByStatus(ctx context.Context, purchaseID id.ID, statuses ...purchasereturn.Status) (int, error) {
	n := 0
	err := r.t.store.read(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.TenantID == r.t.tenantID && ret.PurchaseID == purchaseID && slices.Contains(statuses, ret.Status) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r returnRepo) ReturnedQuantities(ctx context.Context, purchaseID id.ID, statuses ...purchasereturn.Status) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64)
	err := r.t.store.read(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.TenantID != r.t.tenantID || ret.PurchaseID != purchaseID || !slices.Contains(statuses, ret.Status) {
				continue
			}
			for _, it := range ret.Items {
				out[it.PurchaseItemID] += it.Quantity
			}
		}
		return nil
	})
	return out, err
}

func (r returnRepo) List(ctx context.Context, f purchasereturn.ListFilter) (filter.ListResult[*purchasereturn.Return], error) {
	var all []*purchasereturn.Return
	err := r.t.store.read(ctx, func(st *state) error {
		for _, ret := range st.returns {
			if ret.TenantID == r.t.tenantID && f.Match(ret) {
				c := copyReturn(ret)
				c.Items = nil
				all = append(all, c)
			}
		}
		return nil
	})
	if err != nil {
		return filter.ListResult[*purchasereturn.Return]{}, err
	}
	byCreated(all,
		func(r *purchasereturn.Return) time.Time { return r.CreatedAt },
		func(r *purchasereturn.Return) id.ID { return r.ID }, true)
	return filter.NewListResult(filter.Slice(all, f.Page), int64(len(all)), f.Page), nil
}
