package documents_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/movement"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	engine     *movement.Engine
	docs       *documents.Service
	tenantID   id.ID
	supplierID id.ID
	itemID     id.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	tn := tenant.New(tenant.CreateInput{Name: "Toko Maju", InvoicePrefix: "TM"})
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "u-1", TenantID: tn.ID.String(), Role: "OWNER"})
	require.NoError(t, store.CreateTenant(ctx, tn))

	now := time.Now()
	sup := supplier.New(tn.ID, "PT Sumber", "", "", now)
	require.NoError(t, store.Tenant(tn.ID).Suppliers().Create(ctx, sup))
	it := inventory.NewItem(tn.ID, "Kopi", "KP", 1500, 0, 0, now)
	require.NoError(t, store.Tenant(tn.ID).Inventory().Create(ctx, it))

	return &fixture{
		ctx:        ctx,
		store:      store,
		engine:     movement.NewEngine(store, memory.NewTxManager(store)),
		docs:       documents.NewService(store),
		tenantID:   tn.ID,
		supplierID: sup.ID,
		itemID:     it.ID,
	}
}

func (f *fixture) purchase(t *testing.T, qty int64, pay *movement.PaymentInput) *purchase.Purchase {
	t.Helper()
	p, err := f.engine.ApplyPurchase(f.ctx, f.tenantID, movement.PurchaseInput{
		SupplierID: f.supplierID,
		Items:      []purchase.Line{{InventoryID: f.itemID, Quantity: qty, UnitCost: 500}},
		Payment:    pay,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) sale(t *testing.T, qty int64) *sale.Sale {
	t.Helper()
	s, err := f.engine.ApplySale(f.ctx, f.tenantID, movement.SaleInput{
		Items:  []sale.Line{{InventoryID: f.itemID, Quantity: qty}},
		Method: purchase.MethodCash,
	})
	require.NoError(t, err)
	return s
}

func TestGetPurchase_IncludesItemsAndPayments(t *testing.T) {
	f := setup(t)
	p := f.purchase(t, 10, &movement.PaymentInput{Amount: 2000, Method: purchase.MethodCash})

	detail, err := f.docs.GetPurchase(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Items, 1)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, int64(2000), detail.Payments[0].Amount)

	unpaid := f.purchase(t, 1, nil)
	detail, err = f.docs.GetPurchase(f.ctx, f.tenantID, unpaid.ID)
	require.NoError(t, err)
	assert.NotNil(t, detail.Payments)
	assert.Empty(t, detail.Payments)

	_, err = f.docs.GetPurchase(f.ctx, id.New(), p.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestListSales_StateFilter(t *testing.T) {
	f := setup(t)
	f.purchase(t, 10, nil)
	kept := f.sale(t, 1)
	canceled := f.sale(t, 2)
	_, err := f.engine.CancelSale(f.ctx, f.tenantID, canceled.ID)
	require.NoError(t, err)

	active, err := f.docs.ListSales(f.ctx, f.tenantID, documents.ListQuery{})
	require.NoError(t, err)
	require.Len(t, active.Items, 1)
	assert.Equal(t, kept.ID, active.Items[0].ID)

	deleted, err := f.docs.ListSales(f.ctx, f.tenantID, documents.ListQuery{State: "deleted"})
	require.NoError(t, err)
	require.Len(t, deleted.Items, 1)
	assert.Equal(t, canceled.ID, deleted.Items[0].ID)

	// a period that ended yesterday holds nothing
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	old, err := f.docs.ListSales(f.ctx, f.tenantID, documents.ListQuery{From: yesterday, To: yesterday})
	require.NoError(t, err)
	assert.Zero(t, old.Total)
}

func TestListReturns_ByPurchase(t *testing.T) {
	f := setup(t)
	p := f.purchase(t, 10, nil)
	other := f.purchase(t, 4, nil)

	r, err := f.engine.RequestReturn(f.ctx, f.tenantID, movement.ReturnInput{
		PurchaseID: p.ID,
		Reason:     "damaged",
		Items:      []purchasereturn.Line{{PurchaseItemID: p.Items[0].ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = f.engine.RequestReturn(f.ctx, f.tenantID, movement.ReturnInput{
		PurchaseID: other.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: other.Items[0].ID, Quantity: 1}},
	})
	require.NoError(t, err)

	res, err := f.docs.ListReturns(f.ctx, f.tenantID, documents.ReturnQuery{PurchaseID: &p.ID})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, r.ID, res.Items[0].ID)

	res, err = f.docs.ListReturns(f.ctx, f.tenantID, documents.ReturnQuery{Status: purchasereturn.StatusRequested})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)

	got, err := f.docs.GetReturn(f.ctx, f.tenantID, r.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestLedgerAndHistory(t *testing.T) {
	f := setup(t)
	f.purchase(t, 10, nil)
	s := f.sale(t, 3)
	_, err := f.engine.CancelSale(f.ctx, f.tenantID, s.ID)
	require.NoError(t, err)

	all, err := f.docs.Ledger(f.ctx, f.tenantID, ledger.Filter{InventoryID: &f.itemID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	sales, err := f.docs.Ledger(f.ctx, f.tenantID, ledger.Filter{RefIDs: []id.ID{s.ID}, Kinds: []ledger.Kind{ledger.KindSale}})
	require.NoError(t, err)
	require.Len(t, sales.Items, 1)
	assert.Equal(t, int64(-3), sales.Items[0].Quantity)

	trail, err := f.docs.History(f.ctx, f.tenantID, "sale", s.ID)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	assert.Equal(t, audit.ActionCancel, trail[0].Action)
}
