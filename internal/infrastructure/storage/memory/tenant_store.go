package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
)

type tenantStore struct {
	store    *Store
	tenantID id.ID
}

func (t *tenantStore) TenantID() id.ID { return t.tenantID }

func (t *tenantStore) Profile(ctx context.Context) (*tenant.Tenant, error) {
	var out *tenant.Tenant
	err := t.store.read(ctx, func(st *state) error {
		tn, ok := st.tenants[t.tenantID]
		if !ok {
			return apperror.NewNotFound("tenant", t.tenantID)
		}
		out = copyTenant(tn)
		return nil
	})
	return out, err
}

func (t *tenantStore) Inventory() inventory.Repository { return inventoryRepo{t} }
func (t *tenantStore) Suppliers() supplier.Repository { return supplierRepo{t} }
func (t *tenantStore) Ledger() ledger.Repository { return ledgerRepo{t} }
func (t *tenantStore) Purchases() purchase.Repository { return purchaseRepo{t} }
func (t *tenantStore) Sales() sale.Repository { return saleRepo{t} }
func (t *tenantStore) Returns() purchasereturn.Repository { return returnRepo{t} }
func (t *tenantStore) Audit() audit.Repository { return auditRepo{t} }

func byCreated[T any](items []T, created func(T) time.Time, key func(T) id.ID, desc bool) {
	slices.SortFunc(items, func(a, b T) int {
		c := created(a).Compare(created(b))
		if c == 0 {
			c = id.Compare(key(a), key(b))
		}
		if desc {
			return -c
		}
		return c
	})
}

func contains(haystack, needle string) bool {
	return needle == "" || strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// --- inventory ---

type inventoryRepo struct{ t *tenantStore }

func (r inventoryRepo) own(st *state, itemID id.ID) (*inventory.Item, bool) {
	it, ok := st.items[itemID]
	if !ok || it.TenantID != r.t.tenantID {
		return nil, false
	}
	return it, true
}

func (r inventoryRepo) checkUnique(st *state, item *inventory.Item) error {
	for _, other := range st.items {
		if other.TenantID != r.t.tenantID || other.ID == item.ID {
			continue
		}
		if strings.EqualFold(other.Code, item.Code) {
			return apperror.NewDuplicate("inventory", "code", item.Code)
		}
		if strings.EqualFold(other.Name, item.Name) {
			return apperror.NewDuplicate("inventory", "name", item.Name)
		}
	}
	return nil
}

func (r inventoryRepo) Create(ctx context.Context, item *inventory.Item) error {
	return r.t.store.write(ctx, func(st *state) error {
		if err := r.checkUnique(st, item); err != nil {
			return err
		}
		c := copyItem(item)
		c.TenantID = r.t.tenantID
		st.items[c.ID] = c
		return nil
	})
}

func (r inventoryRepo) Update(ctx context.Context, item *inventory.Item) error {
	return r.t.store.write(ctx, func(st *state) error {
		cur, ok := r.own(st, item.ID)
		if !ok {
			return apperror.NewNotFound("inventory", item.ID)
		}
		if err := r.checkUnique(st, item); err != nil {
			return err
		}
		cur.Name, cur.Code, cur.Price, cur.UpdatedAt = item.Name, item.Code, item.Price, item.UpdatedAt
		return nil
	})
}

func (r inventoryRepo) GetByID(ctx context.Context, itemID id.ID) (*inventory.Item, error) {
	var out *inventory.Item
	err := r.t.store.read(ctx, func(st *state) error {
		it, ok := r.own(st, itemID)
		if !ok {
			return apperror.NewNotFound("inventory", itemID)
		}
		out = copyItem(it)
		return nil
	})
	return out, err
}

// GetForUpdate needs no row locks: callers already hold the store lock.
func (r inventoryRepo) GetForUpdate(ctx context.Context, ids []id.ID) (map[id.ID]*inventory.Item, error) {
	out := make(map[id.ID]*inventory.Item, len(ids))
	err := r.t.store.read(ctx, func(st *state) error {
		for _, itemID := range ids {
			if it, ok := r.own(st, itemID); ok {
				out[itemID] = copyItem(it)
			}
		}
		return nil
	})
	return out, err
}

func (r inventoryRepo) ApplyBalances(ctx context.Context, changes []ledger.Change) error {
	now := time.Now()
	return r.t.store.write(ctx, func(st *state) error {
		for _, c := range changes {
			it, ok := r.own(st, c.InventoryID)
			if !ok {
				return apperror.NewNotFound("inventory", c.InventoryID)
			}
			it.Apply(c.Balance, now)
		}
		return nil
	})
}

func (r inventoryRepo) List(ctx context.Context, f inventory.ListFilter) (filter.ListResult[*inventory.Item], error) {
	var all []*inventory.Item
	err := r.t.store.read(ctx, func(st *state) error {
		for _, it := range st.items {
			if it.TenantID == r.t.tenantID && (contains(it.Name, f.Search) || contains(it.Code, f.Search)) {
				all = append(all, copyItem(it))
			}
		}
		return nil
	})
	if err != nil {
		return filter.ListResult[*inventory.Item]{}, err
	}
	slices.SortFunc(all, func(a, b *inventory.Item) int { return strings.Compare(a.Name, b.Name) })
	return filter.NewListResult(filter.Slice(all, f.Page), int64(len(all)), f.Page), nil
}

func (r inventoryRepo) All(ctx context.Context) ([]*inventory.Item, error) {
	var all []*inventory.Item
	err := r.t.store.read(ctx, func(st *state) error {
		for _, it := range st.items {
			if it.TenantID == r.t.tenantID {
				all = append(all, copyItem(it))
			}
		}
		return nil
	})
	slices.SortFunc(all, func(a, b *inventory.Item) int { return strings.Compare(a.Name, b.Name) })
	return all, err
}

// --- suppliers ---

type supplierRepo struct{ t *tenantStore }

func (r supplierRepo) Create(ctx context.Context, s *supplier.Supplier) error {
	return r.t.store.write(ctx, func(st *state) error {
		c := copySupplier(s)
		c.TenantID = r.t.tenantID
		st.suppliers[c.ID] = c
		return nil
	})
}

func (r supplierRepo) Update(ctx context.Context, s *supplier.Supplier) error {
	return r.t.store.write(ctx, func(st *state) error {
		cur, ok := st.suppliers[s.ID]
		if !ok || cur.TenantID != r.t.tenantID {
			return apperror.NewNotFound("supplier", s.ID)
		}
		c := copySupplier(s)
		c.TenantID, c.CreatedAt = cur.TenantID, cur.CreatedAt
		st.suppliers[c.ID] = c
		return nil
	})
}

func (r supplierRepo) GetByID(ctx context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	var out *supplier.Supplier
	err := r.t.store.read(ctx, func(st *state) error {
		s, ok := st.suppliers[supplierID]
		if !ok || s.TenantID != r.t.tenantID {
			return apperror.NewNotFound("supplier", supplierID)
		}
		out = copySupplier(s)
		return nil
	})
	return out, err
}

func (r supplierRepo) List(ctx context.Context, search string, page filter.Page) (filter.ListResult[*supplier.Supplier], error) {
	var all []*supplier.Supplier
	err := r.t.store.read(ctx, func(st *state) error {
		for _, s := range st.suppliers {
			if s.TenantID == r.t.tenantID && contains(s.Name, search) {
				all = append(all, copySupplier(s))
			}
		}
		return nil
	})
	if err != nil {
		return filter.ListResult[*supplier.Supplier]{}, err
	}
	slices.SortFunc(all, func(a, b *supplier.Supplier) int { return strings.Compare(a.Name, b.Name) })
	return filter.NewListResult(filter.Slice(all, page), int64(len(all)), page), nil
}

// --- audit ---

type auditRepo struct{ t *tenantStore }

func (r auditRepo) Record(ctx context.Context, e audit.Entry) error {
	return r.t.store.write(ctx, func(st *state) error {
		e.TenantID = r.t.tenantID
		st.audit = append(st.audit, e)
		return nil
	})
}

func (r auditRepo) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	err := r.t.store.read(ctx, func(st *state) error {
		for i := len(st.audit) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
			e := st.audit[i]
			if e.TenantID == r.t.tenantID && e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}
