// Package idempotency makes document-creating requests safe to retry.
// A client sends an Idempotency-Key; the first request with that key runs,
// later ones with the same key and body get the stored response back.
package idempotency

import (
	"context"
	"net/http"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Status is the state of a key.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// StaleAfter is how long a pending key may stay unfinished before another
// request may reclaim it (the first one most likely crashed).
const StaleAfter = time.Minute

// DefaultTTL is how long keys are retained.
const DefaultTTL = 24 * time.Hour

// Request identifies one attempt. Keys are unique per tenant.
type Request struct {
	TenantID  id.ID
	Key       string
	UserID    string
	Operation string
	Hash      string
}

// Replay is a stored HTTP response.
type Replay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store persists keys.
type Store interface {
	// Acquire claims the key. It returns (nil, nil) when the caller should run
	// the request, a Replay when the key already finished, and an
	// IDEMPOTENCY_CONFLICT error when the key is in flight or was used for a
	// different request.
	Acquire(ctx context.Context, r Request) (*Replay, error)

	// Finish stores the response and marks the key success or failed.
	Finish(ctx context.Context, tenantID id.ID, key string, status Status, resp Replay) error

	// Cleanup removes keys that expired before now.
	Cleanup(ctx context.Context, now time.Time) (int64, error)
}

// Record is a stored key.
type Record struct {
	TenantID    id.ID     `db:"tenant_id"`
	Key         string    `db:"idempotency_key"`
	UserID      string    `db:"user_id"`
	Operation   string    `db:"operation"`
	Status      Status    `db:"status"`
	RequestHash string    `db:"request_hash"`
	Response    []byte    `db:"response"`
	StatusCode  int       `db:"response_status"`
	ContentType string    `db:"response_content_type"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	ExpiresAt   time.Time `db:"expires_at"`
}

// Resolve decides what an existing record means for a new attempt r.
// reclaim is true when a stale pending key may be taken over.
func Resolve(rec Record, r Request, now time.Time) (replay *Replay, reclaim bool, err error) {
	if rec.UserID != r.UserID || rec.Operation != r.Operation || rec.RequestHash != r.Hash {
		return nil, false, apperror.NewIdempotencyConflict(r.Key).
			WithDetail("stored_operation", rec.Operation).
			WithDetail("request_operation", r.Operation)
	}
	switch rec.Status {
	case StatusSuccess, StatusFailed:
		return rec.replay(), false, nil
	case StatusPending:
		if now.Sub(rec.UpdatedAt) > StaleAfter {
			return nil, true, nil
		}
		return nil, false, apperror.NewIdempotencyConflict(r.Key).
			WithDetail("reason", "request with this key is still in progress")
	}
	return nil, true, nil
}

func (rec Record) replay() *Replay {
	status := rec.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	ct := rec.ContentType
	if ct == "" {
		ct = "application/json"
	}
	return &Replay{StatusCode: status, ContentType: ct, Body: rec.Response}
}
