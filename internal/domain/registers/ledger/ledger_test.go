package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
)

func TestNext_EveryKind(t *testing.T) {
	inv := id.New()
	start := Balance{Stock: 100, Cost: 400, Sold: 10}
	original := Record{Kind: KindPurchase, InventoryID: inv, Quantity: 20, CostBefore: 350, CostAfter: 400}

	tests := []struct {
		name  string
		m     Movement
		want  Balance
		delta int64
	}{
		{"purchase replaces cost", Purchase{InventoryID: inv, Quantity: 10, UnitCost: 500}, Balance{110, 500, 10}, 10},
		{"sale", Sale{InventoryID: inv, Quantity: 30}, Balance{70, 400, 40}, -30},
		{"cancel sale", CancelSale{InventoryID: inv, Quantity: 5}, Balance{105, 400, 5}, 5},
		{"cancel purchase restores cost", CancelPurchase{Original: original, RestoreCost: true}, Balance{80, 350, 10}, -20},
		{"cancel purchase keeps newer cost", CancelPurchase{Original: original}, Balance{80, 400, 10}, -20},
		{"return", Return{InventoryID: inv, Quantity: 4}, Balance{96, 400, 10}, -4},
		{"adjust", Adjust{InventoryID: inv, Quantity: 4}, Balance{104, 400, 10}, 4},
		{"edit restore", EditSaleRestore{InventoryID: inv, Quantity: 3}, Balance{103, 400, 7}, 3},
		{"edit apply", EditSaleApply{InventoryID: inv, Quantity: 3}, Balance{97, 400, 13}, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, delta, err := Next(start, tt.m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.delta, delta)
		})
	}
}

func TestNext_Shortage(t *testing.T) {
	inv := id.New()
	b := Balance{Stock: 5}

	for _, m := range []Movement{
		Sale{InventoryID: inv, Quantity: 6},
		Return{InventoryID: inv, Quantity: 6},
		EditSaleApply{InventoryID: inv, Quantity: 6},
		CancelPurchase{Original: Record{Kind: KindPurchase, InventoryID: inv, Quantity: 6}},
	} {
		_, _, err := Next(b, m)
		var short *Shortage
		require.True(t, errors.As(err, &short), "%s", m.Kind())
		assert.Equal(t, int64(6), short.Requested)
		assert.Equal(t, int64(5), short.Available)
	}
}

func TestNext_RejectsNonPositive(t *testing.T) {
	_, _, err := Next(Balance{Stock: 5}, Sale{InventoryID: id.New(), Quantity: 0})
	assert.Error(t, err)

	_, _, err = Next(Balance{}, Purchase{InventoryID: id.New(), Quantity: 1, UnitCost: -1})
	assert.Error(t, err)
}

func TestPosting_ChainsSameItem(t *testing.T) {
	tenant, ref, inv := id.New(), id.New(), id.New()
	p := NewPosting(tenant, ref, time.Now(), map[id.ID]Balance{inv: {Stock: 10, Cost: 100, Sold: 4}})

	_, err := p.Post(EditSaleRestore{InventoryID: inv, Quantity: 4}, "")
	require.NoError(t, err)
	_, err = p.Post(EditSaleApply{InventoryID: inv, Quantity: 9}, "")
	require.NoError(t, err)

	recs := p.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, int64(10), recs[0].StockBefore)
	assert.Equal(t, int64(14), recs[0].StockAfter)
	assert.Equal(t, recs[0].StockAfter, recs[1].StockBefore)
	assert.Equal(t, int64(5), recs[1].StockAfter)
	assert.Equal(t, int64(-9), recs[1].Quantity)
	assert.Equal(t, ref, recs[1].RefID)

	changes := p.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, Balance{Stock: 5, Cost: 100, Sold: 9}, changes[0].Balance)

	assert.Nil(t, VerifyChain(inv, 10, 5, recs))
}

func TestPosting_UnknownItem(t *testing.T) {
	p := NewPosting(id.New(), id.New(), time.Now(), nil)
	_, err := p.Post(Sale{InventoryID: id.New(), Quantity: 1}, "")
	assert.Error(t, err)
}

func TestVerifyChain(t *testing.T) {
	inv := id.New()
	recs := []Record{
		{ID: id.New(), InventoryID: inv, Quantity: 10, StockBefore: 0, StockAfter: 10},
		{ID: id.New(), InventoryID: inv, Quantity: -3, StockBefore: 10, StockAfter: 7},
	}

	assert.Nil(t, VerifyChain(inv, 0, 7, recs))

	brk := VerifyChain(inv, 0, 8, recs)
	require.NotNil(t, brk)
	assert.Equal(t, 2, brk.Position)

	recs[1].StockBefore = 9
	brk = VerifyChain(inv, 0, 7, recs)
	require.NotNil(t, brk)
	assert.Equal(t, 1, brk.Position)
	assert.Equal(t, int64(10), brk.Expected)

	assert.Nil(t, VerifyChain(inv, 42, 42, nil))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("EDIT_SALE_APPLY")
	assert.True(t, ok)
	assert.Equal(t, KindEditSaleApply, k)

	_, ok = ParseKind("TRANSFER")
	assert.False(t, ok)
}
