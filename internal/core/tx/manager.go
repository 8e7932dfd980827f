// Package tx defines the transaction boundary used by the movement engine.
// Implementations live in infrastructure/storage (postgres and memory).
package tx

import (
	"context"
)

// Manager runs a unit of work atomically.
//
// fn receives a context carrying the transaction; every repository call made with
// that context participates in it. If fn returns an error nothing it wrote is
// visible afterwards. Nested calls reuse the outer transaction.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions for consistent
// multi-query reads (reports, chain verification).
type ReadOnlyManager interface {
	Manager

	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
