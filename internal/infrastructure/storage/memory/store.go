// Package memory is an in-process implementation of the tenant store.
//
// A write transaction holds the store-wide lock for its whole duration and
// works on the live state; if it fails, a snapshot taken at the start is put
// back. That gives the same all-or-nothing and writer-serialization guarantees
// as the postgres store, without row-level granularity.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tenant"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/registers/ledger"
)

var (
	_ domain.Store       = (*Store)(nil)
	_ tx.ReadOnlyManager = (*TxManager)(nil)
)

type counterKey struct {
	tenantID id.ID
	year     int
}

type state struct {
	tenants   map[id.ID]*tenant.Tenant
	items     map[id.ID]*inventory.Item
	suppliers map[id.ID]*supplier.Supplier
	purchases map[id.ID]*purchase.Purchase
	payments  []purchase.Payment
	sales     map[id.ID]*sale.Sale
	returns   map[id.ID]*purchasereturn.Return
	ledger    []ledger.Record
	audit     []audit.Entry
	counters  map[counterKey]int64
	seq       int64
}

func newState() *state {
	return &state{
		tenants:   make(map[id.ID]*tenant.Tenant),
		items:     make(map[id.ID]*inventory.Item),
		suppliers: make(map[id.ID]*supplier.Supplier),
		purchases: make(map[id.ID]*purchase.Purchase),
		sales:     make(map[id.ID]*sale.Sale),
		returns:   make(map[id.ID]*purchasereturn.Return),
		counters:  make(map[counterKey]int64),
	}
}

func cloneMap[T any](m map[id.ID]*T, copyFn func(*T) *T) map[id.ID]*T {
	out := make(map[id.ID]*T, len(m))
	for k, v := range m {
		out[k] = copyFn(v)
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		tenants:   cloneMap(s.tenants, copyTenant),
		items:     cloneMap(s.items, copyItem),
		suppliers: cloneMap(s.suppliers, copySupplier),
		purchases: cloneMap(s.purchases, copyPurchase),
		payments:  slices.Clone(s.payments),
		sales:     cloneMap(s.sales, copySale),
		returns:   cloneMap(s.returns, copyReturn),
		ledger:    slices.Clone(s.ledger),
		audit:     slices.Clone(s.audit),
		counters:  maps.Clone(s.counters),
		seq:       s.seq,
	}
}

// Store keeps every tenant's data in process memory.
type Store struct {
	mu   sync.RWMutex
	data *state
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

type txState struct {
	store    *Store
	readOnly bool
}

type txKey struct{}

func (s *Store) current(ctx context.Context) *txState {
	if t, ok := ctx.Value(txKey{}).(*txState); ok && t.store == s {
		return t
	}
	return nil
}

func (s *Store) read(ctx context.Context, fn func(*state) error) error {
	if s.current(ctx) != nil {
		return fn(s.data)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(*state) error) error {
	if t := s.current(ctx); t != nil {
		if t.readOnly {
			return apperror.NewInternal(errReadOnly)
		}
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Tenant returns the repositories of tenantID.
func (s *Store) Tenant(tenantID id.ID) domain.TenantStore {
	return &tenantStore{store: s, tenantID: tenantID}
}

// CreateTenant registers a tenant.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.tenants[t.ID]; ok {
			return apperror.NewDuplicate("tenant", "id", t.ID.String())
		}
		st.tenants[t.ID] = copyTenant(t)
		return nil
	})
}

// InvoiceCounter returns the in-memory invoice counter.
func (s *Store) InvoiceCounter() numerator.Counter {
	return counter{store: s}
}

type counter struct {
	store *Store
}

func (c counter) Increment(ctx context.Context, tenantID id.ID, year int) (int64, error) {
	var n int64
	err := c.store.write(ctx, func(st *state) error {
		k := counterKey{tenantID: tenantID, year: year}
		st.counters[k]++
		n = st.counters[k]
		return nil
	})
	return n, err
}

// TxManager runs transactions against a Store.
type TxManager struct {
	store *Store
}

// NewTxManager creates a transaction manager for store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// RunInTransaction runs fn holding the write lock and restores the prior state
// if fn fails or panics. A panic is re-raised after the restore.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if t := m.store.current(ctx); t != nil {
		if t.readOnly {
			return apperror.NewInternal(errReadOnly)
		}
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snapshot := m.store.data.clone()
	committed := false
	defer func() {
		if !committed {
			m.store.data = snapshot
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, &txState{store: m.store})); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReadOnly runs fn with a consistent view; concurrent writers wait.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.store.current(ctx) != nil {
		return fn(ctx)
	}
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return fn(context.WithValue(ctx, txKey{}, &txState{store: m.store, readOnly: true}))
}
