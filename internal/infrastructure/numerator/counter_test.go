package numerator

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
)

type fakeRow struct {
	val int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.val
	return nil
}

type fakeQuerier struct {
	sql  string
	args []any
	row  fakeRow
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return q.row
}

func TestCounter_Increment(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{val: 42}}
	c := NewCounter(func(context.Context) Querier { return q })
	tenantID := id.New()

	n, err := c.Increment(context.Background(), tenantID, 2026)

	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Contains(t, q.sql, "ON CONFLICT (tenant_id, year)")
	assert.Equal(t, []any{tenantID, 2026}, q.args)
}

func TestCounter_Error(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: errors.New("conn reset")}}
	c := NewCounter(func(context.Context) Querier { return q })

	_, err := c.Increment(context.Background(), id.New(), 2026)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn reset")
}
