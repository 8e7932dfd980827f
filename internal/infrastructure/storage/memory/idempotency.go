package memory

import (
	"context"
	"sync"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/idempotency"
)

var _ idempotency.Store = (*IdempotencyStore)(nil)

type idemKey struct {
	tenantID id.ID
	key      string
}

// IdempotencyStore keeps idempotency keys in memory. It is separate from
// Store so a rolled back request keeps its key.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[idemKey]*idempotency.Record
	ttl  time.Duration
	now  func() time.Time
}

// NewIdempotencyStore creates an empty key store.
func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	return &IdempotencyStore{keys: make(map[idemKey]*idempotency.Record), ttl: ttl, now: time.Now}
}

func (s *IdempotencyStore) Acquire(_ context.Context, r idempotency.Request) (*idempotency.Replay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	k := idemKey{tenantID: r.TenantID, key: r.Key}
	rec, ok := s.keys[k]
	if !ok || now.After(rec.ExpiresAt) {
		s.keys[k] = &idempotency.Record{
			TenantID:    r.TenantID,
			Key:         r.Key,
			UserID:      r.UserID,
			Operation:   r.Operation,
			Status:      idempotency.StatusPending,
			RequestHash: r.Hash,
			CreatedAt:   now,
			UpdatedAt:   now,
			ExpiresAt:   now.Add(s.ttl),
		}
		return nil, nil
	}

	replay, reclaim, err := idempotency.Resolve(*rec, r, now)
	if reclaim {
		rec.UpdatedAt = now
	}
	return replay, err
}

func (s *IdempotencyStore) Finish(_ context.Context, tenantID id.ID, key string, status idempotency.Status, resp idempotency.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.keys[idemKey{tenantID: tenantID, key: key}]
	if !ok {
		return apperror.NewNotFound("idempotency key", key)
	}
	rec.Status = status
	rec.Response = append([]byte(nil), resp.Body...)
	rec.StatusCode = resp.StatusCode
	rec.ContentType = resp.ContentType
	rec.UpdatedAt = s.now().UTC()
	return nil
}

func (s *IdempotencyStore) Cleanup(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for k, rec := range s.keys {
		if rec.ExpiresAt.Before(now) {
			delete(s.keys, k)
			n++
		}
	}
	return n, nil
}
