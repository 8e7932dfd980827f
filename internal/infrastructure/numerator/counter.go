// Package numerator provides the PostgreSQL invoice counter.
// It implements core/numerator.Counter.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/id"
	corenumerator "stockledger/internal/core/numerator"
)

// Querier is the single-row query surface the counter needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for ctx: the caller's transaction when
// there is one.
type QuerierFunc func(ctx context.Context) Querier

// Counter increments invoice_counters with an upsert. Inside a transaction the
// row stays locked until commit, so concurrent documents of one tenant queue
// behind each other and never share a number.
type Counter struct {
	querier QuerierFunc
}

var _ corenumerator.Counter = (*Counter)(nil)

// NewCounter creates a counter.
func NewCounter(querier QuerierFunc) *Counter {
	return &Counter{querier: querier}
}

const incrementSQL = `
	INSERT INTO invoice_counters (tenant_id, year, current_val)
	VALUES ($1, $2, 1)
	ON CONFLICT (tenant_id, year) DO UPDATE SET current_val = invoice_counters.current_val + 1
	RETURNING current_val`

// Increment implements corenumerator.Counter.
func (c *Counter) Increment(ctx context.Context, tenantID id.ID, year int) (int64, error) {
	var num int64
	if err := c.querier(ctx).QueryRow(ctx, incrementSQL, tenantID, year).Scan(&num); err != nil {
		return 0, fmt.Errorf("increment invoice counter: %w", err)
	}
	return num, nil
}
