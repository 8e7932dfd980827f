package movement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
	"stockledger/internal/domain/catalogs/inventory"
	"stockledger/internal/domain/catalogs/supplier"
	"stockledger/internal/domain/documents/purchase"
	"stockledger/internal/domain/documents/purchasereturn"
	"stockledger/internal/domain/documents/sale"
	"stockledger/internal/domain/filter"
	"stockledger/internal/domain/registers/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	engine     *Engine
	store      *memory.Store
	tenantID   id.ID
	supplierID id.ID
	ctx        context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	tn := tenant.New(tenant.CreateInput{Name: "Toko Maju", InvoicePrefix: "INV"})
	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:   "user-1",
		TenantID: tn.ID.String(),
		Role:     "OWNER",
	})
	require.NoError(t, store.CreateTenant(ctx, tn))

	sup := supplier.New(tn.ID, "PT Sumber", "0812", "Jakarta", fixedNow)
	require.NoError(t, store.Tenant(tn.ID).Suppliers().Create(ctx, sup))

	e := NewEngine(store, memory.NewTxManager(store))
	e.now = func() time.Time { return fixedNow }

	return &fixture{engine: e, store: store, tenantID: tn.ID, supplierID: sup.ID, ctx: ctx}
}

func (f *fixture) item(t *testing.T, name string, stock, cost, price int64) id.ID {
	t.Helper()
	it := inventory.NewItem(f.tenantID, name, "SKU-"+name, price, stock, cost, fixedNow)
	require.NoError(t, f.store.Tenant(f.tenantID).Inventory().Create(f.ctx, it))
	return it.ID
}

func (f *fixture) get(t *testing.T, invID id.ID) *inventory.Item {
	t.Helper()
	it, err := f.store.Tenant(f.tenantID).Inventory().GetByID(f.ctx, invID)
	require.NoError(t, err)
	return it
}

func (f *fixture) history(t *testing.T, invID id.ID) []ledger.Record {
	t.Helper()
	recs, err := f.store.Tenant(f.tenantID).Ledger().History(f.ctx, invID)
	require.NoError(t, err)
	return recs
}

// assertChain checks that the item agrees with its own ledger.
func (f *fixture) assertChain(t *testing.T, invID id.ID) {
	t.Helper()
	it := f.get(t, invID)
	brk := ledger.VerifyChain(invID, it.OpeningStock, it.Stock, f.history(t, invID))
	assert.Nil(t, brk)
}

func (f *fixture) purchase(t *testing.T, lines ...purchase.Line) *purchase.Purchase {
	t.Helper()
	p, err := f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{SupplierID: f.supplierID, Items: lines})
	require.NoError(t, err)
	return p
}

func TestSaleThenCancel_RestoresPosition(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Beras", 100, 9000, 12000)

	s, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 30}},
		Method: purchase.MethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-000001", s.Invoice)
	assert.Equal(t, int64(30*12000), s.TotalAmount)

	it := f.get(t, inv)
	assert.Equal(t, int64(70), it.Stock)
	assert.Equal(t, int64(30), it.Sold)

	_, err = f.engine.CancelSale(f.ctx, f.tenantID, s.ID)
	require.NoError(t, err)

	it = f.get(t, inv)
	assert.Equal(t, int64(100), it.Stock)
	assert.Equal(t, int64(0), it.Sold)

	recs := f.history(t, inv)
	require.Len(t, recs, 2)
	assert.Equal(t, ledger.KindSale, recs[0].Kind)
	assert.Equal(t, int64(-30), recs[0].Quantity)
	assert.Equal(t, int64(100), recs[0].StockBefore)
	assert.Equal(t, int64(70), recs[0].StockAfter)
	assert.Equal(t, ledger.KindCancelSale, recs[1].Kind)
	assert.Equal(t, int64(30), recs[1].Quantity)
	assert.Equal(t, int64(100), recs[1].StockAfter)
	assert.Less(t, recs[0].Seq, recs[1].Seq)
	f.assertChain(t, inv)

	_, err = f.engine.CancelSale(f.ctx, f.tenantID, s.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestSale_InsufficientStockLeavesNoTrace(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Beras", 100, 9000, 12000)

	_, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 150}},
		Method: purchase.MethodCash,
	})
	require.True(t, apperror.IsInsufficientStock(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "Insufficient stock for Beras", appErr.Message)

	assert.Equal(t, int64(100), f.get(t, inv).Stock)
	assert.Empty(t, f.history(t, inv))

	res, err := f.store.Tenant(f.tenantID).Sales().Scan(f.ctx, filter.Period{}, filter.StateActive)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestSale_NamesFirstOffendingItem(t *testing.T) {
	f := setup(t)
	a := f.item(t, "Gula", 5, 100, 200)
	b := f.item(t, "Kopi", 1, 100, 200)
	c := f.item(t, "Teh", 0, 100, 200)

	_, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items: []sale.Line{
			{InventoryID: a, Quantity: 2},
			{InventoryID: b, Quantity: 3},
			{InventoryID: c, Quantity: 1},
		},
		Method: purchase.MethodQRIS,
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, b.String(), appErr.Details["inventory_id"])
	assert.Equal(t, int64(5), f.get(t, a).Stock)
}

func TestSale_Validation(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Gula", 5, 100, 200)

	_, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 1}, {InventoryID: inv, Quantity: 1}},
		Method: purchase.MethodCash,
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: id.New(), Quantity: 1}},
		Method: purchase.MethodCash,
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 1}},
		Method: purchase.Method("GOLD"),
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestConcurrentSales_OneWins(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Minyak", 5, 100, 200)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
				Items:  []sale.Line{{InventoryID: inv, Quantity: 3}},
				Method: purchase.MethodCash,
			})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsInsufficientStock(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, int64(2), f.get(t, inv).Stock)
	assert.Len(t, f.history(t, inv), 1)
	f.assertChain(t, inv)
}

func TestInvoices_AreSequentialPerTenant(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Gula", 50, 100, 200)

	for i, want := range []string{"INV-2026-000001", "INV-2026-000002", "INV-2026-000003"} {
		s, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
			Items:  []sale.Line{{InventoryID: inv, Quantity: 1}},
			Method: purchase.MethodCash,
		})
		require.NoError(t, err, "sale %d", i)
		assert.Equal(t, want, s.Invoice)
	}

	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 1, UnitCost: 100})
	assert.Equal(t, "INV-2026-000004", p.Invoice)
}

func TestPurchase_SupplierInvoiceCannotTakeMintedNumber(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Gula", 50, 100, 200)
	line := []purchase.Line{{InventoryID: inv, Quantity: 1, UnitCost: 100}}

	_, err := f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: f.supplierID,
		Invoice:    "INV-2026-000001",
		Items:      line,
	})
	require.True(t, apperror.IsValidation(err), "got %v", err)
	assert.Equal(t, int64(50), f.get(t, inv).Stock)

	for _, want := range []string{"INV-2026-000001", "INV-2026-000002"} {
		p := f.purchase(t, line...)
		assert.Equal(t, want, p.Invoice)
	}

	p, err := f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: f.supplierID,
		Invoice:    "PT-SUMBER-2026-000001",
		Items:      line,
	})
	require.NoError(t, err)
	assert.Equal(t, "PT-SUMBER-2026-000001", p.Invoice)
}

func TestPurchase_ReplacesCostAndRaisesStock(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Susu", 10, 400, 600)

	p, err := f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: f.supplierID,
		Invoice:    "SUP-778",
		Items:      []purchase.Line{{InventoryID: inv, Quantity: 10, UnitCost: 500}},
		Payment:    &PaymentInput{Amount: 2000, Method: purchase.MethodTransfer},
	})
	require.NoError(t, err)
	assert.Equal(t, "SUP-778", p.Invoice)
	assert.Equal(t, int64(5000), p.TotalAmount)
	assert.Equal(t, purchase.StatusPartiallyPaid, p.Status)

	it := f.get(t, inv)
	assert.Equal(t, int64(20), it.Stock)
	assert.Equal(t, int64(500), it.Cost)

	recs := f.history(t, inv)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(400), recs[0].CostBefore)
	assert.Equal(t, int64(500), recs[0].CostAfter)

	pays, err := f.store.Tenant(f.tenantID).Purchases().Payments(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, pays, 1)
	assert.Equal(t, int64(2000), pays[0].Amount)

	_, err = f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: f.supplierID,
		Invoice:    "SUP-778",
		Items:      []purchase.Line{{InventoryID: inv, Quantity: 1, UnitCost: 500}},
	})
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, int64(20), f.get(t, inv).Stock)
}

func TestPurchase_RejectsUnknownReferences(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Susu", 10, 400, 600)

	_, err := f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: id.New(),
		Items:      []purchase.Line{{InventoryID: inv, Quantity: 1, UnitCost: 1}},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: f.supplierID,
		Items:      []purchase.Line{{InventoryID: id.New(), Quantity: 1, UnitCost: 1}},
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.engine.ApplyPurchase(f.ctx, f.tenantID, PurchaseInput{
		SupplierID: f.supplierID,
		Items:      []purchase.Line{{InventoryID: inv, Quantity: 1, UnitCost: 100}},
		Payment:    &PaymentInput{Amount: 101, Method: purchase.MethodCash},
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, int64(10), f.get(t, inv).Stock)
	assert.Empty(t, f.history(t, inv))
}

func TestCancelPurchase_InvertsAndIsNotRepeatable(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Kopi", 4, 700, 1000)
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 6, UnitCost: 800})

	canceled, err := f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)
	assert.True(t, canceled.IsDeleted)

	it := f.get(t, inv)
	assert.Equal(t, int64(4), it.Stock)
	assert.Equal(t, int64(700), it.Cost)

	recs := f.history(t, inv)
	require.Len(t, recs, 2)
	assert.Equal(t, ledger.KindCancelPurchase, recs[1].Kind)
	assert.Equal(t, int64(-6), recs[1].Quantity)
	f.assertChain(t, inv)

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	assert.True(t, apperror.IsConflict(err))
	assert.Len(t, f.history(t, inv), 2)

	entries, err := f.store.Tenant(f.tenantID).Audit().History(f.ctx, "purchase", p.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "user-1", entries[0].UserID)
}

func TestCancelPurchase_KeepsLaterCost(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Kopi", 0, 100, 1000)
	first := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 5, UnitCost: 200})
	second := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 5, UnitCost: 300})

	_, err := f.engine.CancelPurchase(f.ctx, f.tenantID, first.ID)
	require.NoError(t, err)
	it := f.get(t, inv)
	assert.Equal(t, int64(5), it.Stock)
	assert.Equal(t, int64(300), it.Cost)

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, second.ID)
	require.NoError(t, err)
	it = f.get(t, inv)
	assert.Equal(t, int64(0), it.Stock)
	assert.Equal(t, int64(200), it.Cost)
	f.assertChain(t, inv)
}

func TestCancelPurchase_SoldGoodsBlockCancel(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Kopi", 0, 100, 1000)
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 5, UnitCost: 200})

	_, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 3}},
		Method: purchase.MethodCash,
	})
	require.NoError(t, err)

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	assert.True(t, apperror.IsInsufficientStock(err))

	got, err := f.store.Tenant(f.tenantID).Purchases().GetByID(f.ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted)
	assert.Equal(t, int64(2), f.get(t, inv).Stock)
}

func TestCancelPurchase_MissingRecordIsConsistencyError(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Kopi", 10, 100, 1000)

	p, err := purchase.New(f.tenantID, f.supplierID, "GHOST-1", "user-1",
		[]purchase.Line{{InventoryID: inv, Quantity: 2, UnitCost: 100}}, fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.store.Tenant(f.tenantID).Purchases().Create(f.ctx, p))

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	assert.True(t, apperror.IsConsistency(err))
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, int64(10), f.get(t, inv).Stock)
}

func TestReturn_BoundedByPurchasedQuantity(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Sabun", 0, 100, 700)
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 10, UnitCost: 500})
	line := p.Items[0].ID

	_, err := f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: line, Quantity: 12}},
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "Max returnable quantity is 10", appErr.Message)

	first, err := f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Reason:     "damaged",
		Items:      []purchasereturn.Line{{PurchaseItemID: line, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), first.TotalAmount)

	_, err = f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: line, Quantity: 1}},
	})
	assert.True(t, apperror.IsConflict(err), "second open request")

	_, err = f.engine.RejectReturn(f.ctx, f.tenantID, first.ID)
	require.NoError(t, err)

	second, err := f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: line, Quantity: 7}},
	})
	require.NoError(t, err, "rejected returns do not count")
	_, err = f.engine.ApproveReturn(f.ctx, f.tenantID, second.ID)
	require.NoError(t, err)

	_, err = f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: line, Quantity: 4}},
	})
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Max returnable quantity is 3", appErr.Message)
}

func TestReturn_Workflow(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Sabun", 0, 100, 700)
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 10, UnitCost: 500})

	r, err := f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: p.Items[0].ID, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, purchasereturn.StatusRequested, r.Status)
	assert.Equal(t, int64(10), f.get(t, inv).Stock)

	_, err = f.engine.CompleteReturn(f.ctx, f.tenantID, r.ID)
	assert.True(t, apperror.IsConflict(err))

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	assert.True(t, apperror.IsConflict(err), "open return blocks cancel")

	r, err = f.engine.ApproveReturn(f.ctx, f.tenantID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasereturn.StatusApproved, r.Status)
	assert.Equal(t, "user-1", r.DecidedBy)
	assert.Equal(t, int64(6), f.get(t, inv).Stock)

	_, err = f.engine.RejectReturn(f.ctx, f.tenantID, r.ID)
	assert.True(t, apperror.IsConflict(err))

	r, err = f.engine.CompleteReturn(f.ctx, f.tenantID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasereturn.StatusDone, r.Status)
	assert.Equal(t, int64(10), f.get(t, inv).Stock)

	recs := f.history(t, inv)
	require.Len(t, recs, 3)
	assert.Equal(t, ledger.KindReturn, recs[1].Kind)
	assert.Equal(t, int64(-4), recs[1].Quantity)
	assert.Equal(t, ledger.KindAdjust, recs[2].Kind)
	assert.Equal(t, int64(4), recs[2].Quantity)
	f.assertChain(t, inv)

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err, "done returns no longer block cancel")
	f.assertChain(t, inv)
}

func TestApproveReturn_ChecksStock(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Sabun", 0, 100, 700)
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 5, UnitCost: 500})

	r, err := f.engine.RequestReturn(f.ctx, f.tenantID, ReturnInput{
		PurchaseID: p.ID,
		Items:      []purchasereturn.Line{{PurchaseItemID: p.Items[0].ID, Quantity: 5}},
	})
	require.NoError(t, err)

	_, err = f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 3}},
		Method: purchase.MethodCash,
	})
	require.NoError(t, err)

	_, err = f.engine.ApproveReturn(f.ctx, f.tenantID, r.ID)
	assert.True(t, apperror.IsInsufficientStock(err))

	got, err := f.store.Tenant(f.tenantID).Returns().GetByID(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, purchasereturn.StatusRequested, got.Status)
}

func TestEditSale(t *testing.T) {
	f := setup(t)
	a := f.item(t, "Gula", 10, 100, 200)
	b := f.item(t, "Kopi", 3, 100, 500)

	s, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: a, Quantity: 6}},
		Method: purchase.MethodCash,
	})
	require.NoError(t, err)

	// 10 on hand before the sale, so 9 fits once the original 6 are restored.
	edited, err := f.engine.EditSale(f.ctx, f.tenantID, s.ID, []sale.Line{
		{InventoryID: a, Quantity: 9},
		{InventoryID: b, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, s.Invoice, edited.Invoice)
	assert.True(t, edited.IsEdited)
	assert.Equal(t, "user-1", edited.EditedBy)
	assert.Equal(t, int64(9*200+2*500), edited.TotalAmount)

	assert.Equal(t, int64(1), f.get(t, a).Stock)
	assert.Equal(t, int64(9), f.get(t, a).Sold)
	assert.Equal(t, int64(1), f.get(t, b).Stock)

	recs := f.history(t, a)
	require.Len(t, recs, 3)
	assert.Equal(t, ledger.KindEditSaleRestore, recs[1].Kind)
	assert.Equal(t, int64(6), recs[1].Quantity)
	assert.Equal(t, ledger.KindEditSaleApply, recs[2].Kind)
	assert.Equal(t, int64(-9), recs[2].Quantity)
	f.assertChain(t, a)
	f.assertChain(t, b)

	_, err = f.engine.EditSale(f.ctx, f.tenantID, s.ID, []sale.Line{{InventoryID: a, Quantity: 11}})
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, int64(1), f.get(t, a).Stock)
	assert.Len(t, f.history(t, a), 3)

	got, err := f.store.Tenant(f.tenantID).Sales().GetByID(f.ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)

	_, err = f.engine.CancelSale(f.ctx, f.tenantID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.get(t, a).Stock)
	assert.Equal(t, int64(0), f.get(t, a).Sold)
	assert.Equal(t, int64(3), f.get(t, b).Stock)
	f.assertChain(t, a)
}

func TestAddPayment(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Gula", 0, 100, 200)
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 10, UnitCost: 100})

	statuses := []purchase.Status{p.Status}
	for _, amt := range []int64{250, 250, 500} {
		got, pay, err := f.engine.AddPayment(f.ctx, f.tenantID, p.ID, PaymentInput{Amount: amt, Method: purchase.MethodCash})
		require.NoError(t, err)
		assert.Equal(t, amt, pay.Amount)
		statuses = append(statuses, got.Status)
	}
	assert.Equal(t, []purchase.Status{
		purchase.StatusUnpaid, purchase.StatusPartiallyPaid, purchase.StatusPartiallyPaid, purchase.StatusPaid,
	}, statuses)

	_, _, err := f.engine.AddPayment(f.ctx, f.tenantID, p.ID, PaymentInput{Amount: 1, Method: purchase.MethodCash})
	assert.True(t, apperror.IsValidation(err))

	q := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 1, UnitCost: 100})
	_, _, err = f.engine.AddPayment(f.ctx, f.tenantID, q.ID, PaymentInput{Amount: 101, Method: purchase.MethodCash})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.engine.CancelPurchase(f.ctx, f.tenantID, q.ID)
	require.NoError(t, err)
	_, _, err = f.engine.AddPayment(f.ctx, f.tenantID, q.ID, PaymentInput{Amount: 10, Method: purchase.MethodCash})
	assert.True(t, apperror.IsNotFound(err))
}

func TestTenantIsolation(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Gula", 10, 100, 200)
	s, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 1}},
		Method: purchase.MethodCash,
	})
	require.NoError(t, err)

	other := tenant.New(tenant.CreateInput{Name: "Other"})
	require.NoError(t, f.store.CreateTenant(f.ctx, other))

	_, err = f.engine.CancelSale(f.ctx, other.ID, s.ID)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.engine.ApplySale(f.ctx, other.ID, SaleInput{
		Items:  []sale.Line{{InventoryID: inv, Quantity: 1}},
		Method: purchase.MethodCash,
	})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, int64(9), f.get(t, inv).Stock)
}

func TestConservation_RandomizedSequence(t *testing.T) {
	f := setup(t)
	inv := f.item(t, "Gula", 20, 100, 200)

	var sales []id.ID
	for _, qty := range []int64{3, 5, 1, 7} {
		s, err := f.engine.ApplySale(f.ctx, f.tenantID, SaleInput{
			Items:  []sale.Line{{InventoryID: inv, Quantity: qty}},
			Method: purchase.MethodCash,
		})
		require.NoError(t, err)
		sales = append(sales, s.ID)
	}
	p := f.purchase(t, purchase.Line{InventoryID: inv, Quantity: 10, UnitCost: 120})

	for _, saleID := range sales {
		_, err := f.engine.CancelSale(f.ctx, f.tenantID, saleID)
		require.NoError(t, err)
	}
	_, err := f.engine.CancelPurchase(f.ctx, f.tenantID, p.ID)
	require.NoError(t, err)

	it := f.get(t, inv)
	assert.Equal(t, int64(20), it.Stock)
	assert.Equal(t, int64(0), it.Sold)
	assert.Equal(t, int64(100), it.Cost)
	f.assertChain(t, inv)
}
