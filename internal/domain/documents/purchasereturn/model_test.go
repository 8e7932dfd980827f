package purchasereturn

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusRequested, StatusApproved, true},
		{StatusRequested, StatusRejected, true},
		{StatusApproved, StatusDone, true},
		{StatusRequested, StatusDone, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusDone, StatusApproved, false},
		{StatusApproved, StatusApproved, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, CanTransition(tt.from, tt.to))

			r := New(id.New(), id.New(), "damaged", "u1", time.Now())
			r.Status = tt.from
			err := r.Transition(tt.to, "owner", time.Now())
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, r.Status)
				assert.Equal(t, "owner", r.DecidedBy)
				assert.NotNil(t, r.DecidedAt)
				return
			}
			assert.True(t, apperror.IsConflict(err))
			assert.Equal(t, tt.from, r.Status)
		})
	}
}

func TestByInventory_SumsDuplicates(t *testing.T) {
	a, b := id.New(), id.New()
	r := New(id.New(), id.New(), "", "u1", time.Now())
	require.NoError(t, r.AddItem(id.New(), a, 2, 100))
	require.NoError(t, r.AddItem(id.New(), b, 1, 50))
	require.NoError(t, r.AddItem(id.New(), a, 3, 120))

	got := r.ByInventory()
	require.Len(t, got, 2)
	assert.Equal(t, Quantity{InventoryID: a, Quantity: 5}, got[0])
	assert.Equal(t, Quantity{InventoryID: b, Quantity: 1}, got[1])
	assert.Equal(t, int64(2*100+50+3*120), r.TotalAmount)
}

func TestValidateLines(t *testing.T) {
	pi := id.New()
	assert.NoError(t, ValidateLines([]Line{{PurchaseItemID: pi, Quantity: 1}}))
	assert.True(t, apperror.IsValidation(ValidateLines(nil)))
	assert.True(t, apperror.IsValidation(ValidateLines([]Line{{PurchaseItemID: pi, Quantity: 0}})))
	assert.True(t, apperror.IsValidation(ValidateLines([]Line{
		{PurchaseItemID: pi, Quantity: 1},
		{PurchaseItemID: pi, Quantity: 2},
	})))

	r := New(id.New(), id.New(), "", "u1", time.Now())
	assert.True(t, apperror.IsValidation(r.Validate(context.Background())))
}

func TestMaxReturnableError(t *testing.T) {
	err := MaxReturnableError(id.New(), 10)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "Max returnable quantity is 10", appErr.Message)
	assert.Equal(t, int64(10), appErr.Details["max"])
}

func TestStatusPredicates(t *testing.T) {
	assert.ElementsMatch(t, []Status{StatusRequested, StatusApproved, StatusDone}, CountedStatuses())
	assert.True(t, StatusRequested.Open())
	assert.True(t, StatusApproved.Open())
	assert.False(t, StatusDone.Open())
	assert.False(t, StatusRejected.Open())
}

func TestAddItem_TotalOverflow(t *testing.T) {
	r := New(id.New(), id.New(), "", "u1", time.Now())
	require.NoError(t, r.AddItem(id.New(), id.New(), 1, math.MaxInt64-10))

	err := r.AddItem(id.New(), id.New(), 1, 20)
	assert.True(t, apperror.IsValidation(err))
	assert.Len(t, r.Items, 1)
	assert.Equal(t, int64(math.MaxInt64-10), r.TotalAmount)
}
