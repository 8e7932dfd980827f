package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/registers/ledger"
)

func newTenant(t *testing.T, s *Store) id.ID {
	t.Helper()
	tn := tenant.New(tenant.CreateInput{Name: "Toko", InvoicePrefix: "TKO"})
	require.NoError(t, s.CreateTenant(context.Background(), tn))
	return tn.ID
}

func TestTxManager_RollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	s := New()
	tm := NewTxManager(s)
	ts := s.Tenant(newTenant(t, s))
	item := inventory.NewItem(ts.TenantID(), "Kopi", "K1", 100, 5, 50, time.Now())

	boom := errors.New("boom")
	err := tm.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, ts.Inventory().Create(ctx, item))
		_, err := s.InvoiceCounter().Increment(ctx, ts.TenantID(), 2026)
		require.NoError(t, err)
		return boom
	})

	require.ErrorIs(t, err, boom)
	_, err = ts.Inventory().GetByID(ctx, item.ID)
	assert.True(t, apperror.IsNotFound(err))

	n, err := s.InvoiceCounter().Increment(ctx, ts.TenantID(), 2026)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "counter increment rolled back with the transaction")
}

func TestTxManager_PanicRestoresState(t *testing.T) {
	ctx := context.Background()
	s := New()
	tm := NewTxManager(s)
	ts := s.Tenant(newTenant(t, s))
	item := inventory.NewItem(ts.TenantID(), "Kopi", "K1", 100, 5, 50, time.Now())

	assert.PanicsWithValue(t, "handler bug", func() {
		_ = tm.RunInTransaction(ctx, func(ctx context.Context) error {
			require.NoError(t, ts.Inventory().Create(ctx, item))
			panic("handler bug")
		})
	})

	_, err := ts.Inventory().GetByID(ctx, item.ID)
	assert.True(t, apperror.IsNotFound(err))

	// The lock was released: a later transaction commits.
	require.NoError(t, tm.RunInTransaction(ctx, func(ctx context.Context) error {
		return ts.Inventory().Create(ctx, item)
	}))
	_, err = ts.Inventory().GetByID(ctx, item.ID)
	assert.NoError(t, err)
}

func TestTxManager_ReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	tm := NewTxManager(s)
	ts := s.Tenant(newTenant(t, s))

	err := tm.ReadOnly(ctx, func(ctx context.Context) error {
		return ts.Inventory().Create(ctx, inventory.NewItem(ts.TenantID(), "Teh", "T1", 1, 0, 0, time.Now()))
	})

	require.Error(t, err)
}

func TestInventory_DuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := New()
	ts := s.Tenant(newTenant(t, s))
	require.NoError(t, ts.Inventory().Create(ctx, inventory.NewItem(ts.TenantID(), "Kopi", "K1", 1, 0, 0, time.Now())))

	err := ts.Inventory().Create(ctx, inventory.NewItem(ts.TenantID(), "Gula", "k1", 1, 0, 0, time.Now()))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
	assert.Equal(t, "code", appErr.Details["field"])

	err = ts.Inventory().Create(ctx, inventory.NewItem(ts.TenantID(), "KOPI", "K2", 1, 0, 0, time.Now()))
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "name", appErr.Details["field"])

	// another tenant may reuse both
	other := s.Tenant(newTenant(t, s))
	assert.NoError(t, other.Inventory().Create(ctx, inventory.NewItem(other.TenantID(), "Kopi", "K1", 1, 0, 0, time.Now())))
}

func TestTenantIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := s.Tenant(newTenant(t, s))
	b := s.Tenant(newTenant(t, s))
	item := inventory.NewItem(a.TenantID(), "Kopi", "K1", 1, 3, 0, time.Now())
	require.NoError(t, a.Inventory().Create(ctx, item))

	_, err := b.Inventory().GetByID(ctx, item.ID)
	assert.True(t, apperror.IsNotFound(err))

	locked, err := b.Inventory().GetForUpdate(ctx, []id.ID{item.ID})
	require.NoError(t, err)
	assert.Empty(t, locked)

	list, err := b.Inventory().List(ctx, inventory.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestLedger_AppendAssignsSeq(t *testing.T) {
	ctx := context.Background()
	s := New()
	ts := s.Tenant(newTenant(t, s))
	invID := id.New()
	recs := []ledger.Record{
		{ID: id.New(), InventoryID: invID, Kind: ledger.KindPurchase, Quantity: 2, StockAfter: 2},
		{ID: id.New(), InventoryID: invID, Kind: ledger.KindSale, Quantity: -1, StockBefore: 2, StockAfter: 1},
	}

	require.NoError(t, ts.Ledger().Append(ctx, recs))

	assert.Less(t, recs[0].Seq, recs[1].Seq)
	hist, err := ts.Ledger().History(ctx, invID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, ledger.KindPurchase, hist[0].Kind)

	last, err := ts.Ledger().Latest(ctx, ledger.Lookup{InventoryID: invID, Kind: ledger.KindSale})
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, recs[1].ID, last.ID)
}
