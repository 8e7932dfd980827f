package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

// IdempotencyStore keeps idempotency keys in idempotency_keys. It runs
// outside business transactions: a key must survive the rollback of the
// request it guards.
type IdempotencyStore struct {
	pool *Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(pool *Pool, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	return &IdempotencyStore{pool: pool, ttl: ttl, now: time.Now}
}

var idempotencyCols = ExtractDBColumns[idempotency.Record]()

// Acquire inserts the key as pending, or reads the existing one.
func (s *IdempotencyStore) Acquire(ctx context.Context, r idempotency.Request) (*idempotency.Replay, error) {
	now := s.now().UTC()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (tenant_id, idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (tenant_id, idempotency_key) DO NOTHING`,
		r.TenantID, r.Key, r.UserID, r.Operation, idempotency.StatusPending, r.Hash, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	sql, args, err := builder().Select(idempotencyCols...).From("idempotency_keys").
		Where("tenant_id = ? AND idempotency_key = ?", r.TenantID, r.Key).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	var rec idempotency.Record
	if err := pgxscan.Get(ctx, s.pool, &rec, sql, args...); err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}

	replay, reclaim, err := idempotency.Resolve(rec, r, now)
	if err != nil || !reclaim {
		return replay, err
	}

	// Only one of several concurrent reclaimers wins the stale key.
	tag, err = s.pool.Exec(ctx, `
		UPDATE idempotency_keys SET updated_at = $1
		WHERE tenant_id = $2 AND idempotency_key = $3 AND status = $4 AND updated_at = $5`,
		now, r.TenantID, r.Key, idempotency.StatusPending, rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("reclaim stale key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NewIdempotencyConflict(r.Key)
	}
	return nil, nil
}

// Finish stores the response.
func (s *IdempotencyStore) Finish(ctx context.Context, tenantID id.ID, key string, status idempotency.Status, resp idempotency.Replay) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET status = $1, response = $2, response_status = $3, response_content_type = $4, updated_at = $5
		WHERE tenant_id = $6 AND idempotency_key = $7`,
		status, resp.Body, resp.StatusCode, resp.ContentType, s.now().UTC(), tenantID, key)
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// Cleanup removes expired keys.
func (s *IdempotencyStore) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
