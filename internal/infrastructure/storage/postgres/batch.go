package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter bulk-loads document lines with the COPY protocol.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows into table. Lines belong to a document header
// written in the same unit of work, so a transaction is required.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	t := b.txManager.GetTx(ctx)
	if t == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}
	return t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// BatchExecutor sends several statements in one round-trip.
type BatchExecutor struct {
	txManager *TxManager
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(txManager *TxManager) *BatchExecutor {
	return &BatchExecutor{txManager: txManager}
}

// BatchQuery is one statement of a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecuteBatch runs queries and checks that each one touched expect rows
// (expect < 0 disables the check).
func (e *BatchExecutor) ExecuteBatch(ctx context.Context, queries []BatchQuery, expect int64) error {
	if len(queries) == 0 {
		return nil
	}
	results, err := e.send(ctx, queries)
	if err != nil {
		return err
	}
	defer results.Close()

	for i := range queries {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("batch query %d: %w", i, err)
		}
		if expect >= 0 && tag.RowsAffected() != expect {
			return fmt.Errorf("batch query %d: %d rows affected, want %d", i, tag.RowsAffected(), expect)
		}
	}
	return results.Close()
}

// QueryBatch runs queries that each return one row and hands every row to scan
// in queue order.
func (e *BatchExecutor) QueryBatch(ctx context.Context, queries []BatchQuery, scan func(i int, row pgx.Row) error) error {
	if len(queries) == 0 {
		return nil
	}
	results, err := e.send(ctx, queries)
	if err != nil {
		return err
	}
	defer results.Close()

	for i := range queries {
		if err := scan(i, results.QueryRow()); err != nil {
			return fmt.Errorf("batch query %d: %w", i, err)
		}
	}
	return results.Close()
}

func (e *BatchExecutor) send(ctx context.Context, queries []BatchQuery) (pgx.BatchResults, error) {
	t := e.txManager.GetTx(ctx)
	if t == nil {
		return nil, fmt.Errorf("batch requires transaction context")
	}
	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}
	return t.SendBatch(ctx, batch), nil
}
